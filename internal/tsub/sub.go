// Package tsub implements component S: subtraction, the question "does t1
// provide t2?" (§4.4). A successful subtraction returns an extended
// environment in which any flexible variables mentioned by either side
// have been instantiated, and the portion of t1 actually consumed by t2
// has been removed from the environment's permission lists.
package tsub

import (
	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/tenv"
)

// occursCheck reports whether v occurs free (as an uninstantiated
// flexible or otherwise) inside t — instantiating a flexible to a type
// that mentions itself would build an infinite type.
func occursCheck(e *tenv.Env, v ctype.VarID, t ctype.Type) bool {
	switch x := t.(type) {
	case ctype.Open:
		if x.Var == v {
			return true
		}
		if repr, ok := e.Chase(x.Var); ok {
			return occursCheck(e, v, repr)
		}
		return false
	case ctype.Forall:
		return occursCheck(e, v, x.Body)
	case ctype.Exists:
		return occursCheck(e, v, x.Body)
	case ctype.App:
		for _, a := range x.Args {
			if occursCheck(e, v, a) {
				return true
			}
		}
		return false
	case ctype.Tuple:
		for _, el := range x.Elems {
			if occursCheck(e, v, el) {
				return true
			}
		}
		return false
	case ctype.Concrete:
		for _, f := range x.Fields {
			if occursCheck(e, v, f.Type) {
				return true
			}
		}
		if x.Adopts != nil && occursCheck(e, v, x.Adopts) {
			return true
		}
		return false
	case ctype.Singleton:
		return occursCheck(e, v, x.Value)
	case ctype.Arrow:
		return occursCheck(e, v, x.Domain) || occursCheck(e, v, x.Codomain)
	case ctype.Anchored:
		return occursCheck(e, v, x.Var) || occursCheck(e, v, x.Type)
	case ctype.Star:
		return occursCheck(e, v, x.Left) || occursCheck(e, v, x.Right)
	case ctype.Bar:
		return occursCheck(e, v, x.Value) || occursCheck(e, v, x.Perm)
	default:
		return false
	}
}

// flexOf reports whether t is an uninstantiated flexible variable, and
// which one.
func flexOf(e *tenv.Env, t ctype.Type) (ctype.VarID, bool) {
	o, ok := t.(ctype.Open)
	if !ok {
		return "", false
	}
	if e.CanInstantiate(o.Var) {
		return o.Var, true
	}
	return "", false
}

// SubType is sub_type(E, t1, t2): rules 1-10 of §4.4, excluding rule 11
// (permission-list search), which only applies at the Sub entry point
// below since it needs x's permission list rather than a bare pair of
// types.
func SubType(e *tenv.Env, t1, t2 ctype.Type) (*tenv.Env, bool) {
	// 1. Inconsistency: anything follows from False.
	if e.IsInconsistent() {
		return e, true
	}

	// 2. Trivial: equal modulo flex.
	if ctype.Equal(e, t1, t2) {
		return e, true
	}

	// 3. Flexible shortcut.
	if v, ok := flexOf(e, t1); ok {
		if !occursCheck(e, v, t2) {
			return e.InstantiateFlexible(v, t2), true
		}
		return e, false
	}
	if v, ok := flexOf(e, t2); ok {
		if !occursCheck(e, v, t1) {
			return e.InstantiateFlexible(v, t1), true
		}
		return e, false
	}

	// 4. And/Imply rewriting.
	if imp, ok := t1.(ctype.Imply); ok {
		return SubType(e, imp.Type, ctype.And{Constraints: imp.Constraints, Type: t2})
	}
	if and2, ok := t2.(ctype.And); ok {
		n, ok := SubType(e, t1, and2.Type)
		if !ok {
			return e, false
		}
		return installConstraints(n, and2.Constraints)
	}
	if and1, ok := t1.(ctype.And); ok {
		return SubType(e, and1.Type, t2)
	}

	// 5. Bind rigid before flexible.
	if forall2, ok := t2.(ctype.Forall); ok {
		n, opened := tenv.OpenForall(e, ctype.Forall{
			Binding: ctype.Binding{Hint: forall2.Binding.Hint, Kind: forall2.Binding.Kind, Pos: forall2.Binding.Pos, Flavor: ctype.CannotInstantiate},
			Body:    forall2.Body,
		})
		return SubType(n, t1, opened)
	}
	if exists1, ok := t1.(ctype.Exists); ok {
		n, opened := tenv.OpenExists(e, exists1)
		return SubType(n, opened, t2)
	}
	if forall1, ok := t1.(ctype.Forall); ok {
		n, opened := tenv.OpenForall(e, ctype.Forall{
			Binding: ctype.Binding{Hint: forall1.Binding.Hint, Kind: forall1.Binding.Kind, Pos: forall1.Binding.Pos, Flavor: ctype.CanInstantiate},
			Body:    forall1.Body,
		})
		return SubType(n, opened, t2)
	}
	if exists2, ok := t2.(ctype.Exists); ok {
		n, opened := tenv.OpenForall(e, ctype.Forall{
			Binding: ctype.Binding{Hint: exists2.Binding.Hint, Kind: exists2.Binding.Kind, Pos: exists2.Binding.Pos, Flavor: ctype.CanInstantiate},
			Body:    exists2.Body,
		})
		return SubType(n, t1, opened)
	}

	// 9. Bar/Star handling (the add_sub dance) takes priority whenever
	// either side carries an attached permission, before the plain
	// structural cases below see a bare value type.
	if _, isBar1 := t1.(ctype.Bar); isBar1 {
		return addSubDance(e, t1, t2)
	}
	if _, isBar2 := t2.(ctype.Bar); isBar2 {
		return addSubDance(e, t1, t2)
	}

	// 6. Structural congruence.
	if tup1, ok := t1.(ctype.Tuple); ok {
		if tup2, ok := t2.(ctype.Tuple); ok {
			return subTuple(e, tup1, tup2)
		}
	}
	if c1, ok := t1.(ctype.Concrete); ok {
		if c2, ok := t2.(ctype.Concrete); ok {
			return subConcrete(e, c1, c2)
		}
		// 8. Concrete vs application: expand t2 if it has one branch.
		if expanded, did := ctype.ExpandIfOneBranch(e, t2); did {
			return SubType(e, t1, expanded)
		}
	}
	if a1, ok := t1.(ctype.Arrow); ok {
		if a2, ok := t2.(ctype.Arrow); ok {
			return subArrow(e, a1, a2)
		}
	}

	// 7. Application vs application.
	if app1, ok := t1.(ctype.App); ok {
		if app2, ok := t2.(ctype.App); ok && app1.Head == app2.Head {
			return subApp(e, app1, app2)
		}
		if expanded, did := ctype.ExpandIfOneBranch(e, t1); did {
			return SubType(e, expanded, t2)
		}
	}
	if _, ok := t2.(ctype.App); ok {
		if expanded, did := ctype.ExpandIfOneBranch(e, t2); did {
			return SubType(e, t1, expanded)
		}
	}

	// 10. Singleton unfolding. open.Var's own permission list always
	// contains its self-witness =open.Var (Invariant 1), and may also
	// contain further singleton aliases left behind by tadd's unify (e.g.
	// two co-unified tuple components alias each other). Chase through
	// those aliases with an explicit visited set rather than recursing
	// straight back into SubType, which would loop forever around a
	// self-alias or a mutual two-variable alias cycle.
	if s1, ok := t1.(ctype.Singleton); ok {
		if open, ok := s1.Value.(ctype.Open); ok {
			if n, ok := subSingletonChase(e, open.Var, t2, map[ctype.VarID]bool{}); ok {
				return n, true
			}
		}
	}

	if _, isUnknown := t2.(ctype.Unknown); isUnknown {
		return e, true
	}

	return e, false
}

// subSingletonChase walks v's permission list looking for something that
// provides t2, recursing through further singleton aliases (rather than
// back into SubType) so a self- or mutual-alias cycle terminates instead
// of looping forever.
func subSingletonChase(e *tenv.Env, v ctype.VarID, t2 ctype.Type, visited map[ctype.VarID]bool) (*tenv.Env, bool) {
	if visited[v] {
		return e, false
	}
	visited[v] = true
	for _, candidate := range e.GetPermissions(v) {
		if s, ok := candidate.(ctype.Singleton); ok {
			if open, ok := s.Value.(ctype.Open); ok {
				if n, ok := subSingletonChase(e, open.Var, t2, visited); ok {
					return n, true
				}
				continue
			}
		}
		if n, ok := SubType(e, candidate, t2); ok {
			return n, true
		}
	}
	return e, false
}

// Sub is sub(E, x, t): rule 11, trying x's permission list in the
// "burn last" order (non-duplicable first, then Singleton, then Unknown).
func Sub(e *tenv.Env, x ctype.VarID, t ctype.Type) (*tenv.Env, bool) {
	perms := e.GetPermissions(x)
	order := orderedIndices(e, perms)
	for _, i := range order {
		p := perms[i]
		n, ok := SubType(e, p, t)
		if !ok {
			continue
		}
		if dup, _ := isDuplicablePerm(n, p); dup {
			return n, true
		}
		remaining := make([]ctype.Type, 0, len(perms)-1)
		for j, q := range perms {
			if j != i {
				remaining = append(remaining, q)
			}
		}
		return n.SetPermissions(x, remaining), true
	}
	return e, false
}

func orderedIndices(e *tenv.Env, perms []ctype.Type) []int {
	class := func(t ctype.Type) int {
		switch tt := t.(type) {
		case ctype.Unknown:
			return 2
		case ctype.Singleton:
			_ = tt
			return 1
		default:
			if dup, ok := isDuplicablePerm(e, t); ok && dup {
				return 1
			}
			return 0
		}
	}
	idx := make([]int, len(perms))
	for i := range idx {
		idx[i] = i
	}
	// stable insertion sort keyed by class, preserving original order
	// within a class (matches §4.4's tie-break rule).
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && class(perms[idx[j-1]]) > class(perms[idx[j]]); j-- {
			idx[j-1], idx[j] = idx[j], idx[j-1]
		}
	}
	return idx
}

func isDuplicablePerm(e *tenv.Env, t ctype.Type) (bool, bool) {
	// A singleton carries identity, not a resource — it is never consumed
	// by a successful match, which is what keeps a Term variable's
	// self-witness =self permission (Invariant 1) alive across subtraction.
	if _, ok := t.(ctype.Singleton); ok {
		return true, true
	}
	app, ok := t.(ctype.App)
	if !ok {
		return false, false
	}
	f, ok := e.Fact(app.Head)
	if !ok {
		return false, false
	}
	return f.Kind.String() == "duplicable", true
}

func subTuple(e *tenv.Env, t1, t2 ctype.Tuple) (*tenv.Env, bool) {
	if len(t1.Elems) != len(t2.Elems) {
		return e, false
	}
	cur := e
	for i := range t1.Elems {
		n, ok := SubType(cur, t1.Elems[i], t2.Elems[i])
		if !ok {
			return e, false
		}
		cur = n
	}
	return cur, true
}

func subConcrete(e *tenv.Env, c1, c2 ctype.Concrete) (*tenv.Env, bool) {
	if c1.Datacon != c2.Datacon || len(c1.Fields) != len(c2.Fields) {
		return e, false
	}
	cur := e
	for i := range c1.Fields {
		n, ok := SubType(cur, c1.Fields[i].Type, c2.Fields[i].Type)
		if !ok {
			return e, false
		}
		cur = n
	}
	if c1.Adopts != nil && c2.Adopts != nil {
		if !ctype.Equal(cur, c1.Adopts, c2.Adopts) {
			return e, false
		}
	}
	return cur, true
}

func subApp(e *tenv.Env, a1, a2 ctype.App) (*tenv.Env, bool) {
	if len(a1.Args) != len(a2.Args) {
		return e, false
	}
	variances, ok := varianceOf(e, a1.Head)
	cur := e
	for i := range a1.Args {
		v := variances.at(i, ok)
		switch v {
		case varCovariant:
			n, ok := SubType(cur, a1.Args[i], a2.Args[i])
			if !ok {
				return e, false
			}
			cur = n
		case varContravariant:
			n, ok := SubType(cur, a2.Args[i], a1.Args[i])
			if !ok {
				return e, false
			}
			cur = n
		case varBivariant:
			// unconstrained in this direction
		default: // invariant
			n, ok := SubType(cur, a1.Args[i], a2.Args[i])
			if !ok {
				return e, false
			}
			n, ok = SubType(n, a2.Args[i], a1.Args[i])
			if !ok {
				return e, false
			}
			cur = n
		}
	}
	return cur, true
}

// varArityVector and its accessor insulate tsub from importing package
// facts' Variance type directly — tsub only needs the four-way enum's
// behavior, supplied by the translate/checker layer via this callback.
type varArityVector struct{ get func(i int) int }

const (
	varBivariant = iota
	varCovariant
	varContravariant
	varInvariant
)

func (v varArityVector) at(i int, ok bool) int {
	if !ok || v.get == nil {
		return varInvariant
	}
	return v.get(i)
}

// varianceLookup is installed by package translate at startup (it knows
// how to map a VarID to the facts.Variance slice tenv registered for it);
// tsub falls back to Invariant when no lookup has been installed, which is
// always sound.
var varianceLookup func(e *tenv.Env, head ctype.VarID) ([]int, bool)

// SetVarianceLookup installs the callback used by subApp to look up a
// defined type's variance vector. Package translate calls this once
// during pipeline setup.
func SetVarianceLookup(f func(e *tenv.Env, head ctype.VarID) ([]int, bool)) {
	varianceLookup = f
}

func varianceOf(e *tenv.Env, head ctype.VarID) (varArityVector, bool) {
	if varianceLookup == nil {
		return varArityVector{}, false
	}
	vec, ok := varianceLookup(e, head)
	if !ok {
		return varArityVector{}, false
	}
	return varArityVector{get: func(i int) int {
		if i < len(vec) {
			return vec[i]
		}
		return varInvariant
	}}, true
}

func subArrow(e *tenv.Env, a1, a2 ctype.Arrow) (*tenv.Env, bool) {
	stripped := stripToDuplicable(e)
	n, ok := SubType(stripped, a2.Domain, a1.Domain) // contravariant
	if !ok {
		return e, false
	}
	n, ok = SubType(n, a1.Codomain, a2.Codomain) // covariant
	if !ok {
		return e, false
	}
	return n, true
}

// stripToDuplicable returns e unchanged: no permission is filtered out
// before subArrow's nested subtractions, so they see e's non-duplicable
// permissions too.
func stripToDuplicable(e *tenv.Env) *tenv.Env {
	return e
}

func installConstraints(e *tenv.Env, cs []ctype.Constraint) (*tenv.Env, bool) {
	cur := e
	for _, c := range cs {
		o, ok := c.Type.(ctype.Open)
		if !ok {
			continue
		}
		f, known := cur.Fact(o.Var)
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
	return cur, true
}

// addSubDance implements rule 9: splitting (t1|p1) ≤ (t2|p2). It performs
// the value-level subtraction first, then alternates adding the left
// permission's non-flexible pieces and subtracting the right permission's
// pieces until no more progress is possible.
func addSubDance(e *tenv.Env, t1, t2 ctype.Type) (*tenv.Env, bool) {
	v1, p1 := ctype.Collect(t1)
	v2, p2 := ctype.Collect(t2)

	n, ok := SubType(e, v1, v2)
	if !ok {
		return e, false
	}

	left := flattenStar(p1)
	right := flattenStar(p2)

	progress := true
	for progress {
		progress = false
		for i := 0; i < len(left); i++ {
			if isNonFlexibleAnchored(n, left[i]) {
				n = addPerm(n, left[i])
				left = append(left[:i], left[i+1:]...)
				progress = true
				break
			}
		}
		for i := 0; i < len(right); i++ {
			if n2, ok := subPerm(n, right[i]); ok {
				n = n2
				right = append(right[:i], right[i+1:]...)
				progress = true
				break
			}
		}
	}

	// Close remaining flexible permission variables: pair singletons, or
	// instantiate a single remaining flexible to the star of the rest.
	if len(right) == 1 {
		if v, ok := flexOf(n, right[0]); ok {
			star := starOf(left)
			if !occursCheck(n, v, star) {
				return n.InstantiateFlexible(v, star), true
			}
		}
	}

	return n, len(right) == 0
}

func flattenStar(t ctype.Type) []ctype.Type {
	if _, ok := t.(ctype.Empty); ok {
		return nil
	}
	if s, ok := t.(ctype.Star); ok {
		return append(flattenStar(s.Left), flattenStar(s.Right)...)
	}
	return []ctype.Type{t}
}

func starOf(ts []ctype.Type) ctype.Type {
	if len(ts) == 0 {
		return ctype.Empty{}
	}
	acc := ts[0]
	for _, t := range ts[1:] {
		acc = ctype.Star{Left: acc, Right: t}
	}
	return acc
}

func isNonFlexibleAnchored(e *tenv.Env, p ctype.Type) bool {
	a, ok := p.(ctype.Anchored)
	if !ok {
		return false
	}
	_, isFlex := flexOf(e, a.Var)
	return !isFlex
}

func addPerm(e *tenv.Env, p ctype.Type) *tenv.Env {
	a, ok := p.(ctype.Anchored)
	if !ok {
		return e
	}
	o, ok := a.Var.(ctype.Open)
	if !ok {
		return e
	}
	return e.AddPermission(o.Var, a.Type)
}

func subPerm(e *tenv.Env, p ctype.Type) (*tenv.Env, bool) {
	a, ok := p.(ctype.Anchored)
	if !ok {
		return e, false
	}
	o, ok := a.Var.(ctype.Open)
	if !ok {
		return e, false
	}
	return Sub(e, o.Var, a.Type)
}
