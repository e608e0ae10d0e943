package prettyprint

import (
	"strings"
	"testing"

	"github.com/mezzolang/mezzo/internal/ctype"
)

func TestTypeArrowUnderStarParenthesizes(t *testing.T) {
	// a -> b, combined with c in a Star, reads back unambiguously only
	// if the Arrow is parenthesized: (a -> b) * c.
	star := ctype.Star{
		Left:  ctype.Arrow{Domain: ctype.Open{Var: "a"}, Codomain: ctype.Open{Var: "b"}},
		Right: ctype.Open{Var: "c"},
	}
	got := Type(star)
	want := "(a -> b) * c"
	if got != want {
		t.Fatalf("Type(star) = %q, want %q", got, want)
	}
}

func TestTypeArrowIsRightAssociative(t *testing.T) {
	// a -> (b -> c) prints without parens on the right, since -> already
	// associates to the right; but a left-nested arrow needs parens.
	arrow := ctype.Arrow{
		Domain:   ctype.Open{Var: "a"},
		Codomain: ctype.Arrow{Domain: ctype.Open{Var: "b"}, Codomain: ctype.Open{Var: "c"}},
	}
	got := Type(arrow)
	if got != "a -> b -> c" {
		t.Fatalf("Type(arrow) = %q, want %q", got, "a -> b -> c")
	}

	nested := ctype.Arrow{
		Domain:   ctype.Arrow{Domain: ctype.Open{Var: "a"}, Codomain: ctype.Open{Var: "b"}},
		Codomain: ctype.Open{Var: "c"},
	}
	got = Type(nested)
	if got != "(a -> b) -> c" {
		t.Fatalf("Type(nested) = %q, want %q", got, "(a -> b) -> c")
	}
}

func TestTypeForallPrintsBinderHint(t *testing.T) {
	f := ctype.Forall{
		Binding: ctype.Binding{Hint: "a"},
		Body:    ctype.Bound{Index: 0},
	}
	got := Type(f)
	if !strings.HasPrefix(got, "forall a. ") {
		t.Fatalf("Type(forall) = %q, want prefix %q", got, "forall a. ")
	}
}

func TestTypeBarOverStarGroupsPermissionOnRight(t *testing.T) {
	bar := ctype.Bar{
		Value: ctype.Open{Var: "x"},
		Perm: ctype.Star{
			Left:  ctype.Anchored{Var: ctype.Open{Var: "y"}, Type: ctype.App{Head: "int"}},
			Right: ctype.Empty{},
		},
	}
	got := Type(bar)
	want := "x | y @ int * empty"
	if got != want {
		t.Fatalf("Type(bar) = %q, want %q", got, want)
	}
}

func TestTypeConcreteRendersFieldsAndAdopts(t *testing.T) {
	c := ctype.Concrete{
		Datacon: "Cell",
		Fields:  []ctype.Field{{Name: "contents", Type: ctype.App{Head: "int"}}},
		Adopts:  ctype.Open{Var: "owner"},
	}
	got := Type(c)
	want := "Cell{contents: int} adopts owner"
	if got != want {
		t.Fatalf("Type(concrete) = %q, want %q", got, want)
	}
}

func TestTypeConcreteOmitsUnknownAdopts(t *testing.T) {
	c := ctype.Concrete{
		Datacon: "Pair",
		Fields: []ctype.Field{
			{Name: "fst", Type: ctype.App{Head: "int"}},
			{Name: "snd", Type: ctype.App{Head: "int"}},
		},
		Adopts: ctype.Unknown{},
	}
	got := Type(c)
	want := "Pair{fst: int; snd: int}"
	if got != want {
		t.Fatalf("Type(concrete) = %q, want %q", got, want)
	}
}

func TestTypeAndPrintsConstraintsBeforeType(t *testing.T) {
	and := ctype.And{
		Constraints: []ctype.Constraint{{Kind: ctype.MustBeDuplicable, Type: ctype.Open{Var: "a"}}},
		Type:        ctype.Open{Var: "a"},
	}
	got := Type(and)
	want := "(duplicable a) and a"
	if got != want {
		t.Fatalf("Type(and) = %q, want %q", got, want)
	}
}

func TestPermissionIsAnAliasOfType(t *testing.T) {
	p := ctype.Empty{}
	if Permission(p) != Type(p) {
		t.Fatalf("Permission and Type disagree on %v", p)
	}
}
