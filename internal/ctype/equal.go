package ctype

import "reflect"

// Equal decides syntactic equality of two types modulo flexible-variable
// instantiation: each side is chased to its representative (recursively,
// since App/Tuple/... arguments may themselves reference instantiated
// flexibles) before being compared structurally. This backs rule 2
// ("Trivial") of sub_type.
func Equal(c Chaser, t1, t2 Type) bool {
	return reflect.DeepEqual(normalize(c, t1), normalize(c, t2))
}

// normalize walks t replacing every Open variable by its chased
// representative, everywhere it occurs.
func normalize(c Chaser, t Type) Type {
	switch x := t.(type) {
	case Open:
		if repr, ok := c.Chase(x.Var); ok {
			return normalize(c, repr)
		}
		return x
	case Forall:
		return Forall{Binding: x.Binding, Body: normalize(c, x.Body)}
	case Exists:
		return Exists{Binding: x.Binding, Body: normalize(c, x.Body)}
	case App:
		return App{Head: x.Head, Args: normalizeAll(c, x.Args)}
	case Tuple:
		return Tuple{Elems: normalizeAll(c, x.Elems)}
	case Concrete:
		fields := make([]Field, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = Field{Name: f.Name, Anonymous: f.Anonymous, Type: normalize(c, f.Type)}
		}
		adopts := x.Adopts
		if adopts != nil {
			adopts = normalize(c, adopts)
		}
		return Concrete{Datacon: x.Datacon, Fields: fields, Adopts: adopts}
	case Singleton:
		return Singleton{Value: normalize(c, x.Value)}
	case Arrow:
		return Arrow{Domain: normalize(c, x.Domain), Codomain: normalize(c, x.Codomain)}
	case Anchored:
		return Anchored{Var: normalize(c, x.Var), Type: normalize(c, x.Type)}
	case Star:
		return Star{Left: normalize(c, x.Left), Right: normalize(c, x.Right)}
	case Bar:
		return Bar{Value: normalize(c, x.Value), Perm: normalize(c, x.Perm)}
	case And:
		return And{Constraints: normalizeConstraints(c, x.Constraints), Type: normalize(c, x.Type)}
	case Imply:
		return Imply{Constraints: normalizeConstraints(c, x.Constraints), Type: normalize(c, x.Type)}
	default:
		return t
	}
}

func normalizeAll(c Chaser, ts []Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = normalize(c, t)
	}
	return out
}

func normalizeConstraints(c Chaser, cs []Constraint) []Constraint {
	out := make([]Constraint, len(cs))
	for i, ct := range cs {
		out[i] = Constraint{Kind: ct.Kind, Type: normalize(c, ct.Type)}
	}
	return out
}
