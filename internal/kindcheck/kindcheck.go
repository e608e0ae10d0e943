// Package kindcheck validates the surface AST's type and permission forms
// against Mezzo's kind language (package kind) before internal/translate
// ever tries to lower them into the locally-nameless core. A kind error
// here (applying a 2-parameter type to one argument, using a permission
// where a value type is expected, ...) is reported the same way a parse
// error is: collected into the pipeline context rather than aborting.
package kindcheck

import (
	"github.com/mezzolang/mezzo/internal/diagnostics"
	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/surface"
	"github.com/mezzolang/mezzo/internal/token"
)

// Scope maps every type constructor name in play (the handful of builtins
// plus every data declaration in the module) to its kind.
type Scope struct {
	heads map[string]kind.Kind
}

// builtins are the type constructors that exist without any data
// declaration naming them.
func builtins() map[string]kind.Kind {
	return map[string]kind.Kind{
		"int": kind.Type{},
	}
}

// NewScope seeds a Scope with the builtins only, for callers (tests,
// internal/translate) that want to check a standalone type against a
// scope they build up themselves.
func NewScope() *Scope {
	return &Scope{heads: builtins()}
}

func (s *Scope) declareHead(name string, k kind.Kind) {
	s.heads[name] = k
}

// HeadKind looks up a declared or builtin type constructor's kind.
func (s *Scope) HeadKind(name string) (kind.Kind, bool) {
	k, ok := s.heads[name]
	return k, ok
}

// Checker runs kind-checking over one module, collecting diagnostics.
type Checker struct {
	scope  *Scope
	errors []*diagnostics.DiagnosticError
}

// New builds a Checker and populates its global scope from every DataDecl
// in the module: a type with n parameters gets kind
// Type -> Type -> ... -> Type (n times) -> Type. Every data parameter is
// assumed to range over ordinary value types (kind Type) — Mezzo's surface
// grammar never annotates a data parameter's kind explicitly, and every
// data declaration in practice is parameterized over value types, never
// permissions or singletons, so this default costs nothing in the cases
// this project checks.
func New(m *surface.Module) *Checker {
	c := &Checker{scope: NewScope()}
	for _, d := range m.Decls {
		dd, ok := d.(*surface.DataDecl)
		if !ok {
			continue
		}
		k := kind.Kind(kind.Type{})
		for range dd.Params {
			k = kind.Arrow{Left: kind.Type{}, Right: k}
		}
		c.scope.declareHead(dd.Name, k)
	}
	return c
}

// Scope exposes the module-level scope, for internal/translate to reuse
// rather than recomputing it.
func (c *Checker) Scope() *Scope { return c.scope }

// Errors returns every kind error collected so far.
func (c *Checker) Errors() []*diagnostics.DiagnosticError { return c.errors }

func (c *Checker) errorf(t surface.TypeExpr, code diagnostics.ErrorCode, format string, args ...any) {
	c.errors = append(c.errors, diagnostics.New(code, positionOf(t), format, args...))
}

func positionOf(t surface.TypeExpr) token.Position {
	switch x := t.(type) {
	case surface.TName:
		return x.Pos
	case surface.TApp:
		return x.Pos
	case surface.TTuple:
		return x.Pos
	case surface.TArrow:
		return x.Pos
	case surface.TForall:
		return x.Pos
	case surface.TExists:
		return x.Pos
	case surface.TSingleton:
		return x.Pos
	case surface.TAnchored:
		return x.Pos
	case surface.TStar:
		return x.Pos
	case surface.TBar:
		return x.Pos
	case surface.TAnd:
		return x.Pos
	case surface.TImply:
		return x.Pos
	case surface.TUnknown:
		return x.Pos
	case surface.TDynamic:
		return x.Pos
	default:
		return token.Position{}
	}
}

// Check runs kind inference over a full module: every data declaration's
// field types must have kind Type or Perm (anonymous fields), and every
// val declaration's type ascription must have kind Type.
func (c *Checker) Check(m *surface.Module) {
	for _, d := range m.Decls {
		switch dd := d.(type) {
		case *surface.DataDecl:
			c.checkDataDecl(dd)
		case *surface.ValDecl:
			if dd.Ann != nil {
				c.expect(map[string]kind.Kind{}, dd.Ann, kind.Type{})
			}
		}
	}
}

func (c *Checker) checkDataDecl(dd *surface.DataDecl) {
	if dd.Flavor == "abstract" {
		return
	}
	local := map[string]kind.Kind{}
	for _, p := range dd.Params {
		local[p] = kind.Type{}
	}
	for _, branch := range dd.Branches {
		for _, f := range branch.Fields {
			if f.Anonymous {
				c.expect(local, f.Type, kind.Perm{})
			} else {
				c.expect(local, f.Type, kind.Type{})
			}
		}
		if branch.Adopts != nil {
			c.expect(local, branch.Adopts, kind.Type{})
		}
	}
}

// expect checks that t has kind want, recording a diagnostic otherwise.
func (c *Checker) expect(local map[string]kind.Kind, t surface.TypeExpr, want kind.Kind) {
	got, ok := c.infer(local, t)
	if !ok {
		return // already reported
	}
	if !kind.Equal(got, want) {
		c.errorf(t, diagnostics.ErrKindMismatch, "expected kind %s, got %s", want, got)
	}
}

// infer computes t's kind under local (the quantifier-bound type
// variables in scope) plus the module-global scope.
func (c *Checker) infer(local map[string]kind.Kind, t surface.TypeExpr) (kind.Kind, bool) {
	switch x := t.(type) {
	case surface.TUnknown:
		return kind.Type{}, true
	case surface.TDynamic:
		return kind.Type{}, true
	case surface.TName:
		if k, ok := local[x.Name]; ok {
			return k, true
		}
		if k, ok := c.scope.HeadKind(x.Name); ok {
			if n, _ := kind.Arity(k); n == 0 {
				return k, true
			}
			c.errorf(t, diagnostics.ErrKindMismatch, "%s expects %d argument(s)", x.Name, arity(k))
			return nil, false
		}
		c.errorf(t, diagnostics.ErrKindUnknownName, "unknown type %q", x.Name)
		return nil, false
	case surface.TApp:
		k, ok := c.scope.HeadKind(x.Head)
		if !ok {
			c.errorf(t, diagnostics.ErrKindUnknownName, "unknown type %q", x.Head)
			return nil, false
		}
		remaining := k
		for _, arg := range x.Args {
			a, isArrow := remaining.(kind.Arrow)
			if !isArrow {
				c.errorf(t, diagnostics.ErrKindMismatch, "%s applied to too many arguments", x.Head)
				return nil, false
			}
			c.expect(local, arg, a.Left)
			remaining = a.Right
		}
		if n, _ := kind.Arity(remaining); n != 0 {
			c.errorf(t, diagnostics.ErrKindMismatch, "%s applied to too few arguments", x.Head)
			return nil, false
		}
		return remaining, true
	case surface.TTuple:
		for _, e := range x.Elems {
			c.expect(local, e, kind.Type{})
		}
		return kind.Type{}, true
	case surface.TArrow:
		c.expect(local, x.Domain, kind.Type{})
		c.expect(local, x.Codomain, kind.Type{})
		return kind.Type{}, true
	case surface.TForall:
		next := copyScope(local)
		for _, n := range x.Names {
			next[n] = kind.Type{}
		}
		return c.infer(next, x.Body)
	case surface.TExists:
		next := copyScope(local)
		for _, n := range x.Names {
			next[n] = kind.Type{}
		}
		return c.infer(next, x.Body)
	case surface.TSingleton:
		// =x names a term-level variable, not a type variable; whether x
		// itself is in scope is the checker's job (component C), not
		// kind-checking's. The singleton type itself always has kind Type.
		return kind.Type{}, true
	case surface.TAnchored:
		c.expect(local, x.Type, kind.Type{})
		return kind.Perm{}, true
	case surface.TStar:
		c.expect(local, x.Left, kind.Perm{})
		c.expect(local, x.Right, kind.Perm{})
		return kind.Perm{}, true
	case surface.TEmpty:
		return kind.Perm{}, true
	case surface.TBar:
		c.expect(local, x.Value, kind.Type{})
		c.expect(local, x.Perm, kind.Perm{})
		return kind.Type{}, true
	case surface.TAnd:
		for _, con := range x.Constraints {
			c.expect(local, con.Type, kind.Type{})
		}
		return c.infer(local, x.Type)
	case surface.TImply:
		for _, con := range x.Constraints {
			c.expect(local, con.Type, kind.Type{})
		}
		return c.infer(local, x.Type)
	default:
		c.errorf(t, diagnostics.ErrKindMismatch, "unrecognized type form %T", t)
		return nil, false
	}
}

func arity(k kind.Kind) int {
	n, _ := kind.Arity(k)
	return n
}

func copyScope(m map[string]kind.Kind) map[string]kind.Kind {
	out := make(map[string]kind.Kind, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
