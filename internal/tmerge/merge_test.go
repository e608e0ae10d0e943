package tmerge

import (
	"testing"

	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/tenv"
	"github.com/mezzolang/mezzo/internal/token"
)

func TestMergeKeepsOnlyCommonPermissions(t *testing.T) {
	base := tenv.New()
	base, x := base.BindRigid("x", kind.Term{}, token.Position{})

	left := base.SetPermissions(x, []ctype.Type{ctype.Unknown{}, ctype.Dynamic{}})
	right := base.SetPermissions(x, []ctype.Type{ctype.Unknown{}})

	merged := Merge(base, left, right, nil)
	got := merged.GetPermissions(x)
	if len(got) != 1 {
		t.Fatalf("expected exactly the shared permission to survive, got %v", got)
	}
	if _, ok := got[0].(ctype.Unknown); !ok {
		t.Errorf("surviving permission = %v, want Unknown", got[0])
	}
}

func TestMergeReflexibilizesSingleBranchInstantiation(t *testing.T) {
	base := tenv.New()
	base, v := base.BindFlexible("a", kind.Type{}, token.Position{})

	left := base.InstantiateFlexible(v, ctype.App{Head: "int"})
	right := base

	merged := Merge(base, left, right, nil)
	if !merged.CanInstantiate(v) {
		t.Errorf("flexible instantiated in only one branch should be re-flexibilized in the merge")
	}
}

func TestMergeKeepsAgreeingFlexibleInstantiation(t *testing.T) {
	base := tenv.New()
	base, v := base.BindFlexible("a", kind.Type{}, token.Position{})

	left := base.InstantiateFlexible(v, ctype.App{Head: "int"})
	right := base.InstantiateFlexible(v, ctype.App{Head: "int"})

	merged := Merge(base, left, right, nil)
	if merged.CanInstantiate(v) {
		t.Fatalf("flexible instantiated the same way in both branches should stay instantiated")
	}
	repr, ok := merged.Chase(v)
	if !ok {
		t.Fatalf("Chase should resolve the surviving instantiation")
	}
	if app, ok := repr.(ctype.App); !ok || app.Head != "int" {
		t.Errorf("merged instantiation = %v, want int", repr)
	}
}

func TestMergeReflexibilizesDisagreeingInstantiation(t *testing.T) {
	base := tenv.New()
	base, v := base.BindFlexible("a", kind.Type{}, token.Position{})

	left := base.InstantiateFlexible(v, ctype.App{Head: "int"})
	right := base.InstantiateFlexible(v, ctype.App{Head: "bool"})

	merged := Merge(base, left, right, nil)
	if !merged.CanInstantiate(v) {
		t.Errorf("disagreeing instantiations across branches should be re-flexibilized")
	}
}

func TestMergeInconsistentBranchIsDiscarded(t *testing.T) {
	base := tenv.New()
	base, x := base.BindRigid("x", kind.Term{}, token.Position{})
	left := base.SetPermissions(x, []ctype.Type{ctype.Unknown{}}).MarkInconsistent()
	right := base.SetPermissions(x, []ctype.Type{ctype.Dynamic{}})

	merged := Merge(base, left, right, nil)
	if merged.IsInconsistent() {
		t.Errorf("merge of one inconsistent branch with a live one should not stay inconsistent")
	}
	got := merged.GetPermissions(x)
	if len(got) != 1 {
		t.Fatalf("expected the live branch's permission, got %v", got)
	}
}
