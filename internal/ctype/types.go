// Package ctype is the internal, locally-nameless representation of Mezzo
// types and permissions (component T of the design: §4.1). Bound variables
// use de-Bruijn indices; free variables reference a VarID allocated in the
// typing environment (package tenv). This package has no dependency on
// tenv — it is the leaf of the type-checker's dependency graph.
package ctype

import (
	"fmt"
	"strings"

	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/token"
)

// VarID names a variable allocated into the typing environment. It is
// opaque to this package; tenv mints fresh ids (backed by a uuid.UUID) and
// this package only ever stores and compares them.
type VarID string

// Type is the sum of all type and permission forms (kind Type or kind
// Perm). Every constructor below implements it.
type Type interface {
	String() string
	isType()
}

// Flavor controls whether a quantifier binding may be instantiated by a
// user type application.
type Flavor int

const (
	CanInstantiate Flavor = iota
	CannotInstantiate
)

// Binding is the static information carried by a Forall/Exists quantifier:
// a name hint (for pretty-printing and error messages), the bound
// variable's kind, its source location, and its instantiation flavor.
type Binding struct {
	Hint   string
	Kind   kind.Kind
	Pos    token.Position
	Flavor Flavor
}

// ---- Leaves --------------------------------------------------------------

// Unknown is the top type: every value inhabits it, nothing is known.
type Unknown struct{}

func (Unknown) isType()        {}
func (Unknown) String() string { return "unknown" }

// Dynamic is the runtime-identity witness type used by adopts/owns.
type Dynamic struct{}

func (Dynamic) isType()        {}
func (Dynamic) String() string { return "dynamic" }

// Bound is a locally-bound de-Bruijn index. It must never appear in a
// fully-opened (in-environment) permission — invariant 5 of §3.
type Bound struct{ Index int }

func (Bound) isType()        {}
func (b Bound) String() string { return fmt.Sprintf("#%d", b.Index) }

// Open is a reference to a variable already bound in the environment.
type Open struct{ Var VarID }

func (Open) isType()        {}
func (o Open) String() string { return string(o.Var) }

// ---- Quantifiers ----------------------------------------------------------

// Forall is a universally quantified type: forall (binding). body.
type Forall struct {
	Binding Binding
	Body    Type
}

func (Forall) isType() {}
func (f Forall) String() string {
	return fmt.Sprintf("forall %s: %s. %s", f.Binding.Hint, f.Binding.Kind, f.Body)
}

// Exists is an existentially quantified type: exists (binding). body.
type Exists struct {
	Binding Binding
	Body    Type
}

func (Exists) isType() {}
func (e Exists) String() string {
	return fmt.Sprintf("exists %s: %s. %s", e.Binding.Hint, e.Binding.Kind, e.Body)
}

// ---- Application ------------------------------------------------------

// App is a type application Head(Args...) where Head names a defined type.
type App struct {
	Head VarID
	Args []Type
}

func (App) isType() {}
func (a App) String() string {
	if len(a.Args) == 0 {
		return string(a.Head)
	}
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", a.Head, strings.Join(parts, ", "))
}

// ---- Structurals --------------------------------------------------------

// Tuple is a fixed-arity product type.
type Tuple struct{ Elems []Type }

func (Tuple) isType() {}
func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

// Field is a component of a Concrete structural type: either a named
// value-typed field, or an anonymous permission embedded in the branch.
type Field struct {
	// Name is empty for an anonymous permission field.
	Name string
	Type Type
	// Anonymous is true when this field carries a bare permission rather
	// than a named value (e.g. a branch that also asserts `p` holds).
	Anonymous bool
}

func (f Field) String() string {
	if f.Anonymous {
		return f.Type.String()
	}
	return fmt.Sprintf("%s: %s", f.Name, f.Type)
}

// Concrete is a single data-constructor branch, possibly carrying an
// adopts-clause type (nil when absent).
type Concrete struct {
	Datacon string
	Fields  []Field
	Adopts  Type
}

func (Concrete) isType() {}
func (c Concrete) String() string {
	parts := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		parts[i] = f.String()
	}
	adopts := ""
	if _, ok := c.Adopts.(Unknown); !ok && c.Adopts != nil {
		adopts = fmt.Sprintf(" adopts %s", c.Adopts)
	}
	return fmt.Sprintf("%s{%s}%s", c.Datacon, strings.Join(parts, "; "), adopts)
}

// ---- Singleton ------------------------------------------------------------

// Singleton is `=x`: the value exactly equal to Value (which must be of
// kind Term — i.e. Open/Bound referring to a term variable).
type Singleton struct{ Value Type }

func (Singleton) isType() {}
func (s Singleton) String() string { return "=" + s.Value.String() }

// ---- Arrow ---------------------------------------------------------------

// Arrow is a function type; Domain/Codomain may themselves be Bar-wrapped
// to bundle permissions with the argument/result value.
type Arrow struct {
	Domain   Type
	Codomain Type
}

func (Arrow) isType() {}
func (a Arrow) String() string { return fmt.Sprintf("%s -> %s", a.Domain, a.Codomain) }

// ---- Permissions (kind Perm) ----------------------------------------------

// Anchored is `x @ T`: "x has type T".
type Anchored struct {
	Var  Type // Open(x) or Singleton thereof
	Type Type
}

func (Anchored) isType() {}
func (a Anchored) String() string { return fmt.Sprintf("%s @ %s", a.Var, a.Type) }

// Star is conjunction of permissions: p * q.
type Star struct{ Left, Right Type }

func (Star) isType() {}
func (s Star) String() string { return fmt.Sprintf("%s * %s", s.Left, s.Right) }

// Empty is the trivially-true permission.
type Empty struct{}

func (Empty) isType()        {}
func (Empty) String() string { return "empty" }

// Bar combines a value type with an attached permission: T | p.
type Bar struct {
	Value Type
	Perm  Type
}

func (Bar) isType() {}
func (b Bar) String() string { return fmt.Sprintf("%s | %s", b.Value, b.Perm) }

// ConstraintKind says what fact a constrained type variable must have.
type ConstraintKind int

const (
	MustBeDuplicable ConstraintKind = iota
	MustBeExclusive
)

func (c ConstraintKind) String() string {
	if c == MustBeDuplicable {
		return "duplicable"
	}
	return "exclusive"
}

// Constraint requests that Type have the given fact.
type Constraint struct {
	Kind ConstraintKind
	Type Type
}

func (c Constraint) String() string { return fmt.Sprintf("%s %s", c.Kind, c.Type) }

// And is `(constraints) => T` already discharged: the constraints are
// known to hold in the permissions surrounding T.
type And struct {
	Constraints []Constraint
	Type        Type
}

func (And) isType() {}
func (a And) String() string { return fmt.Sprintf("(%s) and %s", joinConstraints(a.Constraints), a.Type) }

// Imply is `(constraints) => T`: T holds provided the constraints can be
// discharged from the caller's environment.
type Imply struct {
	Constraints []Constraint
	Type        Type
}

func (Imply) isType() {}
func (i Imply) String() string {
	return fmt.Sprintf("(%s) => %s", joinConstraints(i.Constraints), i.Type)
}

func joinConstraints(cs []Constraint) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
