package tsub

import (
	"testing"

	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/tenv"
)

// TestSubArrowContravariance covers the arrow-contravariance scenario:
// (int,int)->int is a subtype of (int,int)->unknown (the return type
// widens), but the reverse direction fails because the codomain unknown
// is not a subtype of int.
func TestSubArrowContravariance(t *testing.T) {
	e := tenv.New()
	intT := ctype.App{Head: ctype.VarID("int")}
	domain := ctype.Tuple{Elems: []ctype.Type{intT, intT}}

	narrow := ctype.Arrow{Domain: domain, Codomain: intT}
	wide := ctype.Arrow{Domain: domain, Codomain: ctype.Unknown{}}

	if _, ok := SubType(e, narrow, wide); !ok {
		t.Fatalf("(int,int)->int should be a subtype of (int,int)->unknown")
	}
	if _, ok := SubType(e, wide, narrow); ok {
		t.Fatalf("(int,int)->unknown should not be a subtype of (int,int)->int")
	}
}
