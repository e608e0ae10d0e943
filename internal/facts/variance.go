package facts

import "github.com/mezzolang/mezzo/internal/ctype"

// Variance classifies how a defined type's result relates to one of its
// parameters (§4.3, closing paragraph).
type Variance int

const (
	Bivariant Variance = iota
	Covariant
	Contravariant
	Invariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "+"
	case Contravariant:
		return "-"
	case Invariant:
		return "="
	default:
		return "0"
	}
}

// join combines two occurrences of the same parameter found in different
// positions: Bivariant is the neutral element (no occurrence seen yet);
// two occurrences with the same sign keep that sign; opposite signs force
// Invariant, and any occurrence together with Invariant stays Invariant.
func join(a, b Variance) Variance {
	if a == Bivariant {
		return b
	}
	if b == Bivariant {
		return a
	}
	if a == b {
		return a
	}
	return Invariant
}

// Variances computes the variance vector of every definition in g. An App
// whose head already has a vector (from known, or computed earlier in
// g.Order) composes each argument's polarity with the head's variance at
// that position; a Bivariant position contributes nothing. Unlike
// fact inference, variance of a self-referential (or mutually-recursive)
// occurrence is approximated by forwarding the enclosing polarity
// unchanged through an App's argument positions — exact for the common
// producer-shaped datatypes (list, option, tree, ...), and conservative
// (it can only ask for Invariant where Covariant or Contravariant would
// truly do) for constructors whose own parameters are contravariant.
func Variances(g *Group, known map[ctype.VarID][]Variance) map[ctype.VarID][]Variance {
	result := make(map[ctype.VarID][]Variance, len(g.Defs))
	for k, v := range known {
		result[k] = v
	}
	for _, id := range g.Order {
		def := g.Defs[id]
		vec := make([]Variance, def.Params)
		for _, branch := range def.Branches {
			varianceOfConcrete(branch, +1, vec, result)
		}
		result[id] = vec
	}
	return result
}

func varianceOfConcrete(c ctype.Concrete, polarity int, vec []Variance, known map[ctype.VarID][]Variance) {
	for _, f := range c.Fields {
		varianceOfExpr(f.Type, polarity, vec, known)
	}
	if c.Adopts != nil {
		if _, isUnknown := c.Adopts.(ctype.Unknown); !isUnknown {
			varianceOfExpr(c.Adopts, polarity, vec, known)
		}
	}
}

func varianceOfExpr(t ctype.Type, polarity int, vec []Variance, known map[ctype.VarID][]Variance) {
	switch x := t.(type) {
	case ctype.Bound:
		if x.Index < len(vec) {
			vec[x.Index] = join(vec[x.Index], signed(polarity))
		}
	case ctype.App:
		headVec, haveHead := known[x.Head]
		for i, arg := range x.Args {
			if !haveHead || i >= len(headVec) {
				varianceOfExpr(arg, polarity, vec, known)
				continue
			}
			switch headVec[i] {
			case Covariant:
				varianceOfExpr(arg, polarity, vec, known)
			case Contravariant:
				varianceOfExpr(arg, -polarity, vec, known)
			case Invariant:
				varianceOfExpr(arg, polarity, vec, known)
				varianceOfExpr(arg, -polarity, vec, known)
			}
		}
	case ctype.Tuple:
		for _, e := range x.Elems {
			varianceOfExpr(e, polarity, vec, known)
		}
	case ctype.Concrete:
		varianceOfConcrete(x, polarity, vec, known)
	case ctype.Arrow:
		varianceOfExpr(x.Domain, -polarity, vec, known)
		varianceOfExpr(x.Codomain, polarity, vec, known)
	case ctype.Anchored:
		varianceOfExpr(x.Type, polarity, vec, known)
	case ctype.Star:
		varianceOfExpr(x.Left, polarity, vec, known)
		varianceOfExpr(x.Right, polarity, vec, known)
	case ctype.Bar:
		varianceOfExpr(x.Value, polarity, vec, known)
		varianceOfExpr(x.Perm, polarity, vec, known)
	case ctype.Singleton:
		varianceOfExpr(x.Value, polarity, vec, known)
	case ctype.Forall:
		varianceOfExpr(x.Body, polarity, vec, known)
	case ctype.Exists:
		varianceOfExpr(x.Body, polarity, vec, known)
	case ctype.And:
		varianceOfExpr(x.Type, polarity, vec, known)
	case ctype.Imply:
		varianceOfExpr(x.Type, polarity, vec, known)
	}
}

func signed(polarity int) Variance {
	if polarity >= 0 {
		return Covariant
	}
	return Contravariant
}
