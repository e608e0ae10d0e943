// Package surface is the surface abstract syntax tree produced by
// internal/parser: named type variables (not yet de-Bruijn), unresolved
// identifiers, and the expression forms named by the checker driver
// (§4.7). internal/kindcheck validates it; internal/translate lowers it
// into internal/ctype's locally-nameless core plus a data-type group.
package surface

import "github.com/mezzolang/mezzo/internal/token"

// Module is one source file's parsed content: its own data/value
// declarations plus the modules it depends on.
type Module struct {
	Name    string
	Imports []Import
	Decls   []Decl
}

// Import names a dependency module, optionally restricted to a name list.
type Import struct {
	Path  string
	Names []string // nil means "all exported names"
	Pos   token.Position
}

// Decl is the sum of top-level declarations.
type Decl interface {
	declSealed()
}

// DataDecl introduces an algebraic data type, `data Name(params) = branches`.
type DataDecl struct {
	Name     string
	Params   []string
	Flavor   string // "", "duplicable", "exclusive", "mutable", "abstract"
	Branches []DataBranch
	Exported bool
	Pos      token.Position
}

func (DataDecl) declSealed() {}

// DataBranch is one constructor of a DataDecl.
type DataBranch struct {
	Datacon string
	Fields  []FieldDecl
	Adopts  TypeExpr // nil when absent
}

// FieldDecl is a named field or an anonymous embedded permission.
type FieldDecl struct {
	Name      string // empty when Anonymous
	Type      TypeExpr
	Anonymous bool
}

// ValDecl introduces a top-level value or function binding.
type ValDecl struct {
	Name     string
	Rec      bool
	Ann      TypeExpr // declared type, nil when inferred
	Body     Expr
	Exported bool
	Pos      token.Position
}

func (ValDecl) declSealed() {}

// ---- Types -----------------------------------------------------------

// TypeExpr is the surface syntax of types, named rather than de-Bruijn.
type TypeExpr interface {
	typeSealed()
}

type TName struct {
	Name string
	Pos  token.Position
}

func (TName) typeSealed() {}

type TUnknown struct{ Pos token.Position }

func (TUnknown) typeSealed() {}

type TDynamic struct{ Pos token.Position }

func (TDynamic) typeSealed() {}

type TApp struct {
	Head string
	Args []TypeExpr
	Pos  token.Position
}

func (TApp) typeSealed() {}

type TTuple struct {
	Elems []TypeExpr
	Pos   token.Position
}

func (TTuple) typeSealed() {}

type TArrow struct {
	Domain   TypeExpr
	Codomain TypeExpr
	Pos      token.Position
}

func (TArrow) typeSealed() {}

type TForall struct {
	Names []string
	Body  TypeExpr
	Pos   token.Position
}

func (TForall) typeSealed() {}

type TExists struct {
	Names []string
	Body  TypeExpr
	Pos   token.Position
}

func (TExists) typeSealed() {}

type TSingleton struct {
	Name string
	Pos  token.Position
}

func (TSingleton) typeSealed() {}

type TAnchored struct {
	Var  string
	Type TypeExpr
	Pos  token.Position
}

func (TAnchored) typeSealed() {}

type TStar struct {
	Left, Right TypeExpr
	Pos         token.Position
}

func (TStar) typeSealed() {}

type TEmpty struct{ Pos token.Position }

func (TEmpty) typeSealed() {}

type TBar struct {
	Value TypeExpr
	Perm  TypeExpr
	Pos   token.Position
}

func (TBar) typeSealed() {}

// TConstraint is one `duplicable T` / `exclusive T` request.
type TConstraint struct {
	Exclusive bool
	Type      TypeExpr
}

type TAnd struct {
	Constraints []TConstraint
	Type        TypeExpr
	Pos         token.Position
}

func (TAnd) typeSealed() {}

type TImply struct {
	Constraints []TConstraint
	Type        TypeExpr
	Pos         token.Position
}

func (TImply) typeSealed() {}

// ---- Patterns ----------------------------------------------------------

type Pattern interface {
	patSealed()
}

type PWild struct{ Pos token.Position }

func (PWild) patSealed() {}

type PVar struct {
	Name string
	Pos  token.Position
}

func (PVar) patSealed() {}

type PTuple struct {
	Elems []Pattern
	Pos   token.Position
}

func (PTuple) patSealed() {}

type PCon struct {
	Datacon string
	Fields  []FieldPattern
	Pos     token.Position
}

func (PCon) patSealed() {}

// FieldPattern matches one field of a PCon, by name (punned when Pattern
// is nil, meaning "bind a variable with the field's own name").
type FieldPattern struct {
	Name    string
	Pattern Pattern
}

type PAs struct {
	Name    string
	Pattern Pattern
	Pos     token.Position
}

func (PAs) patSealed() {}

// ---- Expressions --------------------------------------------------------

type Expr interface {
	exprSealed()
	Position() token.Position
}

type Var struct {
	Name string
	Pos  token.Position
}

func (Var) exprSealed()            {}
func (v Var) Position() token.Position { return v.Pos }

// IntLit is an integer literal, surface sugar for a value of the builtin
// `int` data type. The checker treats it as already carrying the
// unconditionally duplicable `int` permission.
type IntLit struct {
	Value int
	Pos   token.Position
}

func (IntLit) exprSealed()            {}
func (n IntLit) Position() token.Position { return n.Pos }

// Binding is one (pattern, value) pair of a Let.
type Binding struct {
	Pattern Pattern
	Ann     TypeExpr // nil when absent
	Value   Expr
}

type Let struct {
	Rec      bool
	Bindings []Binding
	Body     Expr
	Pos      token.Position
}

func (Let) exprSealed()            {}
func (l Let) Position() token.Position { return l.Pos }

type Lambda struct {
	Param    string
	ParamAnn TypeExpr
	Ret      TypeExpr // nil when inferred
	Body     Expr
	Pos      token.Position
}

func (Lambda) exprSealed()            {}
func (l Lambda) Position() token.Position { return l.Pos }

type App struct {
	Fun  Expr
	Arg  Expr
	Pos  token.Position
}

func (App) exprSealed()            {}
func (a App) Position() token.Position { return a.Pos }

type TupleExpr struct {
	Elems []Expr
	Pos   token.Position
}

func (TupleExpr) exprSealed()            {}
func (t TupleExpr) Position() token.Position { return t.Pos }

// ConExpr constructs a value of a concrete branch, `Datacon{field: e, ...}`.
type ConExpr struct {
	Datacon string
	Fields  []FieldInit
	Pos     token.Position
}

func (ConExpr) exprSealed()            {}
func (c ConExpr) Position() token.Position { return c.Pos }

type FieldInit struct {
	Name  string
	Value Expr
}

type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil when absent
	Body    Expr
}

type Match struct {
	Scrutinee Expr
	Arms      []MatchArm
	Pos       token.Position
}

func (Match) exprSealed()            {}
func (m Match) Position() token.Position { return m.Pos }

type If struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  token.Position
}

func (If) exprSealed()            {}
func (i If) Position() token.Position { return i.Pos }

// Assign is `x.field <- e` (field update).
type Assign struct {
	Target Expr
	Field  string
	Value  Expr
	Pos    token.Position
}

func (Assign) exprSealed()            {}
func (a Assign) Position() token.Position { return a.Pos }

// Access is `x.field` (field read).
type Access struct {
	Target Expr
	Field  string
	Pos    token.Position
}

func (Access) exprSealed()            {}
func (a Access) Position() token.Position { return a.Pos }

// AssignTag is `x.tag <- Datacon` (re-tagging a mutable concrete value to
// a sibling branch of the same arity).
type AssignTag struct {
	Target  Expr
	Datacon string
	Pos     token.Position
}

func (AssignTag) exprSealed()            {}
func (a AssignTag) Position() token.Position { return a.Pos }

// Give is `give x to y`.
type Give struct {
	X, Y Expr
	Pos  token.Position
}

func (Give) exprSealed()            {}
func (g Give) Position() token.Position { return g.Pos }

// Take is `take x from y`.
type Take struct {
	X, Y Expr
	Pos  token.Position
}

func (Take) exprSealed()            {}
func (t Take) Position() token.Position { return t.Pos }

// Owns is `y owns x`.
type Owns struct {
	Y, X Expr
	Pos  token.Position
}

func (Owns) exprSealed()            {}
func (o Owns) Position() token.Position { return o.Pos }

// Fail marks this branch as unreachable / impossible.
type Fail struct{ Pos token.Position }

func (Fail) exprSealed()            {}
func (f Fail) Position() token.Position { return f.Pos }

// Constraint is `(e: T)`: a type annotation attached to an expression.
type Constraint struct {
	Expr Expr
	Type TypeExpr
	Pos  token.Position
}

func (Constraint) exprSealed()            {}
func (c Constraint) Position() token.Position { return c.Pos }
