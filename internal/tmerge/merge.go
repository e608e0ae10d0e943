// Package tmerge implements component M: reconciling two child
// environments produced by the two arms of a branch (Match, If) back into
// a single environment valid after the branch (§4.6).
package tmerge

import (
	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/tenv"
)

// Merge computes E' from the pre-branch environment base and its two
// children left, right. An optional type annotation hint biases the merge
// toward that type at the join point; pass nil when there is none.
func Merge(base, left, right *tenv.Env, hint ctype.Type) *tenv.Env {
	if left.IsInconsistent() {
		return right
	}
	if right.IsInconsistent() {
		return left
	}

	result := base
	for v := range termVarsOf(base) {
		lp := left.GetPermissions(v)
		rp := right.GetPermissions(v)
		merged := intersectPerms(left, right, lp, rp, hint)
		result = result.SetPermissions(v, merged)

		if !base.IsFlexible(v) {
			continue
		}
		// A flexible variable instantiated in only one branch is left
		// uninstantiated (re-flexibilized) in result; instantiated in
		// both, the instantiation survives only when the branches agree.
		lt, lok := left.Chase(v)
		rt, rok := right.Chase(v)
		if lok && rok && ctype.Equal(left, lt, rt) {
			result = result.InstantiateFlexible(v, lt)
		}
	}
	return result
}

// termVarsOf enumerates every variable base has a Record for, as listed
// by base.KnownVars.
func termVarsOf(base *tenv.Env) map[ctype.VarID]struct{} {
	seen := map[ctype.VarID]struct{}{}
	for _, v := range base.KnownVars() {
		seen[v] = struct{}{}
	}
	return seen
}

// intersectPerms keeps, for one variable, the permissions that survive in
// both branches up to equality modulo flex, biasing toward hint when it is
// present and matches one of the candidates exactly.
func intersectPerms(left, right *tenv.Env, lp, rp []ctype.Type, hint ctype.Type) []ctype.Type {
	var kept []ctype.Type
	for _, a := range lp {
		for _, b := range rp {
			if ctype.Equal(left, a, b) {
				kept = append(kept, a)
				break
			}
		}
	}
	if hint == nil {
		return kept
	}
	for i, k := range kept {
		if ctype.Equal(left, k, hint) {
			kept[0], kept[i] = kept[i], kept[0]
			break
		}
	}
	return kept
}
