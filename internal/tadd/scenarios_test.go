package tadd

import (
	"testing"

	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/tenv"
	"github.com/mezzolang/mezzo/internal/token"
)

// TestAddTupleUnificationMergesLeft covers the flexible-unification
// scenario: x @ (=y, =z) and x @ (=y', =z') both held on x forces the
// addition rule to co-unify the components pairwise (merge_left), so y'
// and z' end up as aliases pointing back at y and z rather than two
// independent tuples surviving on x.
func TestAddTupleUnificationMergesLeft(t *testing.T) {
	e := tenv.New()
	var x, y, z, yp, zp ctype.VarID
	e, x = e.BindRigid("x", kind.Term{}, token.Position{})
	e, y = e.BindRigid("y", kind.Term{}, token.Position{})
	e, z = e.BindRigid("z", kind.Term{}, token.Position{})
	e, yp = e.BindRigid("y'", kind.Term{}, token.Position{})
	e, zp = e.BindRigid("z'", kind.Term{}, token.Position{})

	tuple1 := ctype.Tuple{Elems: []ctype.Type{
		ctype.Singleton{Value: ctype.Open{Var: y}},
		ctype.Singleton{Value: ctype.Open{Var: z}},
	}}
	tuple2 := ctype.Tuple{Elems: []ctype.Type{
		ctype.Singleton{Value: ctype.Open{Var: yp}},
		ctype.Singleton{Value: ctype.Open{Var: zp}},
	}}

	e, ok := Add(e, x, tuple1)
	if !ok {
		t.Fatalf("first tuple add should succeed")
	}
	e, ok = Add(e, x, tuple2)
	if !ok {
		t.Fatalf("second tuple add should succeed and co-unify components")
	}

	ypPerms := e.GetPermissions(yp)
	if len(ypPerms) != 1 {
		t.Fatalf("y' should hold exactly one permission after unification, got %v", ypPerms)
	}
	alias, ok := ypPerms[0].(ctype.Singleton)
	if !ok {
		t.Fatalf("y' should now be a singleton alias, got %T", ypPerms[0])
	}
	if open, ok := alias.Value.(ctype.Open); !ok || open.Var != y {
		t.Fatalf("y' should alias y (merge_left), got %v", alias.Value)
	}

	zpPerms := e.GetPermissions(zp)
	if len(zpPerms) != 1 {
		t.Fatalf("z' should hold exactly one permission after unification, got %v", zpPerms)
	}
	if alias, ok := zpPerms[0].(ctype.Singleton); !ok {
		t.Fatalf("z' should now be a singleton alias, got %T", zpPerms[0])
	} else if open, ok := alias.Value.(ctype.Open); !ok || open.Var != z {
		t.Fatalf("z' should alias z (merge_left), got %v", alias.Value)
	}

	// y and y' are now aliases of one another at the permission-list
	// level; whether int-on-y and bool-on-y' actually contradict is
	// decided later, when something tries to subtract a permission
	// through the alias chain (package checker) — tadd's merge only
	// establishes the alias, it does not itself scan for conflicts.
	e, ok = Add(e, y, ctype.App{Head: "int"})
	if !ok {
		t.Fatalf("adding int to y should succeed")
	}
	if e.IsInconsistent() {
		t.Fatalf("adding int to y alone should not mark E inconsistent")
	}
}
