package facts

import (
	"testing"

	"github.com/mezzolang/mezzo/internal/ctype"
)

// TestInferListIsConditionallyDuplicable checks the textbook case: `data
// list a = Nil | Cons { head: a; tail: list a }` must come out duplicable
// provided its parameter is duplicable, i.e. mask bit 0 set.
func TestInferListIsConditionallyDuplicable(t *testing.T) {
	listID := ctype.VarID("list")
	g := &Group{
		Order: []ctype.VarID{listID},
		Defs: map[ctype.VarID]*Def{
			listID: {
				Params: 1,
				Branches: []ctype.Concrete{
					{Datacon: "Nil"},
					{
						Datacon: "Cons",
						Fields: []ctype.Field{
							{Name: "head", Type: ctype.Bound{Index: 0}},
							{Name: "tail", Type: ctype.App{Head: listID, Args: []ctype.Type{ctype.Bound{Index: 0}}}},
						},
					},
				},
			},
		},
	}

	table := Infer(g, nil)
	got := table[listID]
	want := Duplicable(1) // bit 0 set
	if !got.Equal(want) {
		t.Errorf("list fact = %s, want %s", got, want)
	}
}

// TestInferAbstractDefaultsToAffine checks that a definition with no
// branches (no body given) and no mutable/exclusive flavor is pinned at
// Affine.
func TestInferAbstractDefaultsToAffine(t *testing.T) {
	id := ctype.VarID("token")
	g := &Group{
		Order: []ctype.VarID{id},
		Defs: map[ctype.VarID]*Def{
			id: {Params: 0, Flavor: FlavorInferred},
		},
	}

	table := Infer(g, nil)
	if !table[id].Equal(Affine()) {
		t.Errorf("abstract fact = %s, want affine", table[id])
	}
}

// TestInferMutableIsAlwaysExclusive checks that `mutable data ref a = Ref {
// contents: a }` is pinned Exclusive even though its sole field is a plain
// parameter occurrence that would otherwise be conditionally duplicable.
func TestInferMutableIsAlwaysExclusive(t *testing.T) {
	id := ctype.VarID("ref")
	g := &Group{
		Order: []ctype.VarID{id},
		Defs: map[ctype.VarID]*Def{
			id: {
				Params: 1,
				Flavor: FlavorMutable,
				Branches: []ctype.Concrete{
					{Datacon: "Ref", Fields: []ctype.Field{{Name: "contents", Type: ctype.Bound{Index: 0}}}},
				},
			},
		},
	}

	table := Infer(g, nil)
	if !table[id].Equal(Exclusive()) {
		t.Errorf("ref fact = %s, want exclusive", table[id])
	}
}

// TestInferSubUseOfAffineDemotes checks that embedding a known-affine type
// unconditionally (not through a parameter) demotes the enclosing type.
func TestInferSubUseOfAffineDemotes(t *testing.T) {
	tokenID := ctype.VarID("token")
	wrapID := ctype.VarID("wrap")
	g := &Group{
		Order: []ctype.VarID{wrapID},
		Defs: map[ctype.VarID]*Def{
			wrapID: {
				Params: 0,
				Branches: []ctype.Concrete{
					{Datacon: "Wrap", Fields: []ctype.Field{
						{Name: "inner", Type: ctype.App{Head: tokenID}},
					}},
				},
			},
		},
	}

	known := map[ctype.VarID]Fact{tokenID: Affine()}
	table := Infer(g, known)
	if !table[wrapID].Equal(Affine()) {
		t.Errorf("wrap fact = %s, want affine", table[wrapID])
	}
}

// TestInferDuplicableDeclarationUnconditional checks a nullary-constructor
// enum: `duplicable data bool = True | False` comes out duplicable with an
// empty mask.
func TestInferDuplicableDeclarationUnconditional(t *testing.T) {
	id := ctype.VarID("bool")
	g := &Group{
		Order: []ctype.VarID{id},
		Defs: map[ctype.VarID]*Def{
			id: {
				Params: 0,
				Flavor: FlavorDuplicable,
				Branches: []ctype.Concrete{
					{Datacon: "True"},
					{Datacon: "False"},
				},
			},
		},
	}

	table := Infer(g, nil)
	if !table[id].Equal(Duplicable(0)) {
		t.Errorf("bool fact = %s, want duplicable(mask=0)", table[id])
	}
}

func TestVariancesCovariantList(t *testing.T) {
	listID := ctype.VarID("list")
	g := &Group{
		Order: []ctype.VarID{listID},
		Defs: map[ctype.VarID]*Def{
			listID: {
				Params: 1,
				Branches: []ctype.Concrete{
					{Datacon: "Nil"},
					{
						Datacon: "Cons",
						Fields: []ctype.Field{
							{Name: "head", Type: ctype.Bound{Index: 0}},
							{Name: "tail", Type: ctype.App{Head: listID, Args: []ctype.Type{ctype.Bound{Index: 0}}}},
						},
					},
				},
			},
		},
	}

	vecs := Variances(g, nil)
	got := vecs[listID]
	if len(got) != 1 || got[0] != Covariant {
		t.Errorf("list variance = %v, want [Covariant]", got)
	}
}

func TestVariancesContravariantInArrowDomain(t *testing.T) {
	boxID := ctype.VarID("handler")
	g := &Group{
		Order: []ctype.VarID{boxID},
		Defs: map[ctype.VarID]*Def{
			boxID: {
				Params: 1,
				Branches: []ctype.Concrete{
					{Datacon: "Handler", Fields: []ctype.Field{
						{Name: "run", Type: ctype.Arrow{Domain: ctype.Bound{Index: 0}, Codomain: ctype.Unknown{}}},
					}},
				},
			},
		},
	}

	vecs := Variances(g, nil)
	got := vecs[boxID]
	if len(got) != 1 || got[0] != Contravariant {
		t.Errorf("handler variance = %v, want [Contravariant]", got)
	}
}
