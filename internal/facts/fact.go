// Package facts implements component F: the monotone fixed-point that
// computes, for every algebraic datatype and its parameters, whether the
// type is duplicable (conditionally, via a parameter mask), exclusive, or
// affine (§4.3).
package facts

import (
	"fmt"
	"math/bits"
)

// Kind is one of the three facts a defined type can settle on. Fuzzy is an
// internal bookkeeping value used only while a single type's fact is being
// recomputed within a round; it never appears in the final fact table.
type Kind int

const (
	KDuplicable Kind = iota
	KExclusive
	KAffine
	kFuzzy // internal-only: "this position reduces to parameter i"
)

func (k Kind) String() string {
	switch k {
	case KDuplicable:
		return "duplicable"
	case KExclusive:
		return "exclusive"
	case KAffine:
		return "affine"
	default:
		return "fuzzy"
	}
}

// Rank gives the position of a primary fact in the total order
// Duplicable ≤ Exclusive ≤ Affine. Rank must not be called on kFuzzy.
func (k Kind) Rank() int {
	switch k {
	case KDuplicable:
		return 0
	case KExclusive:
		return 1
	default:
		return 2
	}
}

// Fact is the value F computes for a defined type: Duplicable carries a
// bitmask over the type's parameters (bit i set means "duplicable provided
// parameter i is duplicable"); Exclusive and Affine carry no payload.
type Fact struct {
	Kind Kind
	Mask uint64 // meaningful only when Kind == KDuplicable or kFuzzy (then: single bit)
}

func Duplicable(mask uint64) Fact { return Fact{Kind: KDuplicable, Mask: mask} }
func Exclusive() Fact             { return Fact{Kind: KExclusive} }
func Affine() Fact                { return Fact{Kind: KAffine} }
func fuzzy(param int) Fact        { return Fact{Kind: kFuzzy, Mask: 1 << uint(param)} }

func (f Fact) String() string {
	if f.Kind == KDuplicable {
		return fmt.Sprintf("duplicable(mask=%0*b)", bits.Len64(f.Mask), f.Mask)
	}
	return f.Kind.String()
}

func (f Fact) Equal(g Fact) bool {
	if f.Kind != g.Kind {
		return false
	}
	if f.Kind == KDuplicable {
		return f.Mask == g.Mask
	}
	return true
}

// worse returns whichever of a and b ranks higher in the total order
// Duplicable < Exclusive < Affine.
func worse(a, b Fact) Fact {
	ra, rb := rankOf(a), rankOf(b)
	if ra >= rb {
		return a
	}
	return b
}

func rankOf(f Fact) int {
	if f.Kind == kFuzzy {
		return -1 // fuzzy combines via mask union, not rank, handled separately
	}
	return f.Kind.Rank()
}

// combine folds two sub-position facts together the way a Tuple/Concrete
// field list folds its members: Duplicable-with-mask union if both sides
// are Duplicable/fuzzy, Affine as soon as either side is Exclusive or
// Affine.
func combine(a, b Fact) Fact {
	if isConcreteWorse(a) || isConcreteWorse(b) {
		return Affine()
	}
	// both are Duplicable/fuzzy: union their masks.
	return Fact{Kind: KDuplicable, Mask: maskOf(a) | maskOf(b)}
}

func isConcreteWorse(f Fact) bool { return f.Kind == KExclusive || f.Kind == KAffine }

func concretize(f Fact) Fact {
	if f.Kind == kFuzzy {
		return Fact{Kind: KDuplicable, Mask: f.Mask}
	}
	return f
}

func maskOf(f Fact) uint64 {
	if f.Kind == KDuplicable || f.Kind == kFuzzy {
		return f.Mask
	}
	return 0
}
