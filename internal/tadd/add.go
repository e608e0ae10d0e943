// Package tadd implements component A: adding a newly-derived permission
// to the environment (§4.5), and the unfold step that keeps stored
// concrete/tuple permissions in singleton-fields-only normal form.
package tadd

import (
	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/tenv"
	"github.com/mezzolang/mezzo/internal/token"
	"github.com/mezzolang/mezzo/internal/tsub"
)

// Add is add(E, x, T): assimilate T as a new fact about x.
func Add(e *tenv.Env, x ctype.VarID, t ctype.Type) (*tenv.Env, bool) {
	t = ctype.ModuloFlex(e, t)
	value, perm := ctype.Collect(t)
	value, e = Unfold(e, value)

	switch v := value.(type) {
	case ctype.Singleton:
		if open, ok := v.Value.(ctype.Open); ok {
			n, ok := unify(e, x, open.Var)
			if !ok {
				return e, false
			}
			return addPermToVar(n, x, perm)
		}
	case ctype.Exists:
		n, opened := tenv.OpenExists(e, v)
		n2, ok := Add(n, x, opened)
		if !ok {
			return e, false
		}
		return addPermToVar(n2, x, perm)
	case ctype.And:
		n, ok := installConstraints(e, v.Constraints)
		if !ok {
			return e, false
		}
		n2, ok := Add(n, x, v.Type)
		if !ok {
			return e, false
		}
		return addPermToVar(n2, x, perm)
	case ctype.Concrete:
		n, ok := addConcrete(e, x, v)
		if !ok {
			return e, false
		}
		return addPermToVar(n, x, perm)
	case ctype.Tuple:
		n, ok := addTuple(e, x, v)
		if !ok {
			return e, false
		}
		return addPermToVar(n, x, perm)
	}

	// Otherwise: try sub first; if it already holds, possibly drop a
	// duplicate duplicable fact, else append — unless value is exclusive
	// and x already owns a different exclusive permission, which is a
	// double-ownership violation (Invariant 2).
	if n, ok := tsub.Sub(e, x, value); ok {
		if isExclusive(n, value) {
			return n.MarkInconsistent(), true
		}
		dup := false
		switch v := value.(type) {
		case ctype.Unknown:
			dup = true
		case ctype.App:
			f, known := n.Fact(v.Head)
			dup = known && f.Kind.String() == "duplicable"
		}
		if dup {
			return addPermToVar(n, x, perm)
		}
	}
	if isExclusive(e, value) && hasExclusivePerm(e, x) {
		return e.MarkInconsistent(), true
	}
	return addPermToVar(e.AddPermission(x, value), x, perm)
}

// hasExclusivePerm reports whether x already holds some exclusive
// permission, for the double-ownership check above.
func hasExclusivePerm(e *tenv.Env, x ctype.VarID) bool {
	for _, p := range e.GetPermissions(x) {
		if isExclusive(e, p) {
			return true
		}
	}
	return false
}

// AddPerm is add_perm(E, p): walk Star/Anchored/Empty and dispatch each
// leaf permission to Add, or to the floating-permission pool when it is
// not anchored to any variable.
func AddPerm(e *tenv.Env, p ctype.Type) *tenv.Env {
	switch x := p.(type) {
	case ctype.Empty:
		return e
	case ctype.Star:
		n := AddPerm(e, x.Left)
		return AddPerm(n, x.Right)
	case ctype.Anchored:
		if open, ok := x.Var.(ctype.Open); ok {
			if n, ok := Add(e, open.Var, x.Type); ok {
				return n
			}
			return e.MarkInconsistent()
		}
		return e.AddFloatingPerm(p)
	default:
		return e.AddFloatingPerm(p)
	}
}

func addPermToVar(e *tenv.Env, x ctype.VarID, perm ctype.Type) (*tenv.Env, bool) {
	if _, isEmpty := perm.(ctype.Empty); isEmpty {
		return e, true
	}
	return AddPerm(e, ctype.Anchored{Var: ctype.Open{Var: x}, Type: perm}), true
}

// Unfold rewrites every nested value-kind type in t that is not already a
// singleton into a fresh Term variable bound (via Add) to the original
// type, so that the value stored at x ends up with singleton-only fields.
func Unfold(e *tenv.Env, t ctype.Type) (ctype.Type, *tenv.Env) {
	switch x := t.(type) {
	case ctype.Concrete:
		fields := make([]ctype.Field, len(x.Fields))
		cur := e
		for i, f := range x.Fields {
			if f.Anonymous {
				fields[i] = f
				continue
			}
			if _, already := f.Type.(ctype.Singleton); already {
				fields[i] = f
				continue
			}
			n, fresh := cur.BindRigid(f.Name, kind.Term{}, token.Position{})
			n2, ok := Add(n, fresh, f.Type)
			if !ok {
				n2 = n.MarkInconsistent()
			}
			fields[i] = ctype.Field{Name: f.Name, Type: ctype.Singleton{Value: ctype.Open{Var: fresh}}}
			cur = n2
		}
		return ctype.Concrete{Datacon: x.Datacon, Fields: fields, Adopts: x.Adopts}, cur
	case ctype.Tuple:
		elems := make([]ctype.Type, len(x.Elems))
		cur := e
		for i, el := range x.Elems {
			if _, already := el.(ctype.Singleton); already {
				elems[i] = el
				continue
			}
			n, fresh := cur.BindRigid("_", kind.Term{}, token.Position{})
			n2, ok := Add(n, fresh, el)
			if !ok {
				n2 = n.MarkInconsistent()
			}
			elems[i] = ctype.Singleton{Value: ctype.Open{Var: fresh}}
			cur = n2
		}
		return ctype.Tuple{Elems: elems}, cur
	default:
		return t, e
	}
}

func addConcrete(e *tenv.Env, x ctype.VarID, c ctype.Concrete) (*tenv.Env, bool) {
	for _, existing := range e.GetPermissions(x) {
		prior, ok := existing.(ctype.Concrete)
		if !ok || prior.Datacon != c.Datacon {
			continue
		}
		if len(prior.Fields) != len(c.Fields) {
			return e, false
		}
		if prior.Adopts != nil && c.Adopts != nil && !ctype.Equal(e, prior.Adopts, c.Adopts) {
			return e.MarkInconsistent(), true
		}
		cur := e
		for i := range prior.Fields {
			n, ok := coUnifyFields(cur, prior.Fields[i], c.Fields[i])
			if !ok {
				return e, false
			}
			cur = n
		}
		return cur, true
	}
	return e.AddPermission(x, c), true
}

func addTuple(e *tenv.Env, x ctype.VarID, t ctype.Tuple) (*tenv.Env, bool) {
	for _, existing := range e.GetPermissions(x) {
		prior, ok := existing.(ctype.Tuple)
		if !ok || len(prior.Elems) != len(t.Elems) {
			continue
		}
		cur := e
		for i := range prior.Elems {
			n, ok := coUnifyTypes(cur, prior.Elems[i], t.Elems[i])
			if !ok {
				return e, false
			}
			cur = n
		}
		return cur, true
	}
	return e.AddPermission(x, t), true
}

func coUnifyFields(e *tenv.Env, a, b ctype.Field) (*tenv.Env, bool) {
	return coUnifyTypes(e, a.Type, b.Type)
}

func coUnifyTypes(e *tenv.Env, a, b ctype.Type) (*tenv.Env, bool) {
	sa, aok := a.(ctype.Singleton)
	sb, bok := b.(ctype.Singleton)
	if aok && bok {
		oa, oaok := sa.Value.(ctype.Open)
		ob, obok := sb.Value.(ctype.Open)
		if oaok && obok {
			return unify(e, oa.Var, ob.Var)
		}
	}
	if ctype.Equal(e, a, b) {
		return e, true
	}
	return e, false
}

// unify merges x and y's permission lists union-find-style: every
// permission either already held is kept, and the two variables are
// treated as interchangeable from this point by aliasing y's permissions
// onto x (package checker is responsible for ensuring later lookups of y
// still resolve — this project keeps the simpler single-direction merge
// rather than a full union-find node-compression structure, adequate
// since a Term variable's permission list only ever grows through Add).
func unify(e *tenv.Env, x, y ctype.VarID) (*tenv.Env, bool) {
	if x == y {
		return e, true
	}
	merged := append(append([]ctype.Type(nil), e.GetPermissions(x)...), e.GetPermissions(y)...)
	n := e.SetPermissions(x, merged)
	return n.SetPermissions(y, []ctype.Type{ctype.Singleton{Value: ctype.Open{Var: x}}}), true
}

func installConstraints(e *tenv.Env, cs []ctype.Constraint) (*tenv.Env, bool) {
	for _, c := range cs {
		o, ok := c.Type.(ctype.Open)
		if !ok {
			continue
		}
		f, known := e.Fact(o.Var)
		if !known {
			continue
		}
		switch c.Kind {
		case ctype.MustBeDuplicable:
			if f.Kind.String() != "duplicable" {
				return e, false
			}
		case ctype.MustBeExclusive:
			if f.Kind.String() != "exclusive" {
				return e, false
			}
		}
	}
	return e, true
}

func isExclusive(e *tenv.Env, t ctype.Type) bool {
	app, ok := t.(ctype.App)
	if !ok {
		return false
	}
	f, ok := e.Fact(app.Head)
	return ok && f.Kind.String() == "exclusive"
}
