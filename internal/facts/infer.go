package facts

import (
	"github.com/mezzolang/mezzo/internal/ctype"
)

// DeclFlavor is the declared flavor of a data-type definition: the
// keyword(s) the surface syntax used to introduce it.
type DeclFlavor int

const (
	// FlavorInferred is a plain `data T ... = ...` with no flavor keyword:
	// its fact is computed bottom-up from its branches, starting from the
	// optimistic guess Duplicable(∅).
	FlavorInferred DeclFlavor = iota
	// FlavorDuplicable is `duplicable data T ... = ...`: same bottom-up
	// computation as FlavorInferred: the keyword documents the author's
	// intent, it does not change how F computes the fact.
	FlavorDuplicable
	// FlavorExclusive is `data T ... = ...` declared exclusive.
	FlavorExclusive
	// FlavorMutable is `mutable data T ... = ...` (e.g. ref). Mutability
	// makes the type exclusive regardless of its field types — contents
	// can alias through a write, so duplication would break linearity.
	FlavorMutable
)

// Def is one defined type's fact-inference input: its branches (empty for
// an abstract type with no body) and declared flavor. Params is the number
// of type parameters the definition binds (used to size the duplicable
// mask); branch field types reference parameter i as ctype.Bound{i}.
type Def struct {
	Params  int
	Branches []ctype.Concrete
	Flavor  DeclFlavor
}

func (d *Def) abstract() bool { return len(d.Branches) == 0 && d.Flavor != FlavorMutable && d.Flavor != FlavorExclusive }

// Group is a mutually-recursive set of data-type definitions processed
// together by Infer, in declaration order (order only affects how many
// rounds are needed to converge, never the final fixed point).
type Group struct {
	Order []ctype.VarID
	Defs  map[ctype.VarID]*Def
}

// Infer runs the monotone fixed-point computation of §4.3 and returns the
// fact table for every definition in g, seeded with already-known facts
// for types defined outside the group (builtins, earlier modules). known
// is read-only; the returned table is independent of it except where g
// leaves a name unresolved, in which case that name's entry from known (or
// the default Duplicable(0) if absent) is carried through unchanged.
func Infer(g *Group, known map[ctype.VarID]Fact) map[ctype.VarID]Fact {
	table := make(map[ctype.VarID]Fact, len(known)+len(g.Defs))
	for k, v := range known {
		table[k] = v
	}

	pinned := make(map[ctype.VarID]bool, len(g.Defs))
	maxArity := 0
	for _, id := range g.Order {
		def := g.Defs[id]
		if def.Params > maxArity {
			maxArity = def.Params
		}
		switch {
		case def.abstract():
			table[id] = Affine()
			pinned[id] = true
		case def.Flavor == FlavorExclusive || def.Flavor == FlavorMutable:
			table[id] = Exclusive()
			pinned[id] = true
		default:
			table[id] = Duplicable(0)
		}
	}

	maxRounds := len(g.Defs)*maxArity + 1
	for round := 0; round < maxRounds; round++ {
		changed := false
		next := make(map[ctype.VarID]Fact, len(table))
		for k, v := range table {
			next[k] = v
		}
		for _, id := range g.Order {
			if pinned[id] {
				continue
			}
			def := g.Defs[id]
			f := factOfDef(def, table)
			if !f.Equal(table[id]) {
				changed = true
			}
			next[id] = f
		}
		table = next
		if !changed {
			break
		}
	}
	return table
}

// factOfDef folds every branch's fact together: duplicable iff every
// branch is duplicable (§4.3 "Tuple / concrete: duplicable iff every field
// type is duplicable", lifted to the branch list).
func factOfDef(def *Def, table map[ctype.VarID]Fact) Fact {
	acc := Duplicable(uint64(0))
	for _, branch := range def.Branches {
		acc = combine(acc, factOfConcrete(branch, table))
	}
	return acc
}

func factOfConcrete(c ctype.Concrete, table map[ctype.VarID]Fact) Fact {
	acc := Duplicable(uint64(0))
	for _, f := range c.Fields {
		acc = combine(acc, factOfExpr(f.Type, table))
	}
	if c.Adopts != nil {
		if _, isUnknown := c.Adopts.(ctype.Unknown); !isUnknown {
			acc = combine(acc, factOfExpr(c.Adopts, table))
		}
	}
	return acc
}

// factOfExpr computes the candidate fact of a single type expression
// occurring inside a data definition's branch, per the structural rules of
// §4.3. Bound{i} marks an occurrence of the definition's own parameter i.
func factOfExpr(t ctype.Type, table map[ctype.VarID]Fact) Fact {
	switch x := t.(type) {
	case ctype.Bound:
		return fuzzy(x.Index)
	case ctype.Arrow, ctype.Singleton:
		return Duplicable(0)
	case ctype.Unknown, ctype.Dynamic, ctype.Open, ctype.Empty:
		return Duplicable(0)
	case ctype.App:
		head, ok := table[x.Head]
		if !ok {
			return Duplicable(0)
		}
		if head.Kind == KExclusive || head.Kind == KAffine {
			return Affine()
		}
		acc := Duplicable(uint64(0))
		for i, arg := range x.Args {
			if head.Mask&(1<<uint(i)) != 0 {
				acc = combine(acc, factOfExpr(arg, table))
			}
		}
		return acc
	case ctype.Tuple:
		acc := Duplicable(uint64(0))
		for _, e := range x.Elems {
			acc = combine(acc, factOfExpr(e, table))
		}
		return acc
	case ctype.Concrete:
		return factOfConcrete(x, table)
	case ctype.Star:
		return combine(factOfExpr(x.Left, table), factOfExpr(x.Right, table))
	case ctype.Anchored:
		return combine(factOfExpr(x.Var, table), factOfExpr(x.Type, table))
	case ctype.Bar:
		return combine(factOfExpr(x.Value, table), factOfExpr(x.Perm, table))
	case ctype.Forall:
		return factOfExpr(x.Body, table)
	case ctype.Exists:
		return factOfExpr(x.Body, table)
	case ctype.And:
		return factOfExpr(x.Type, table)
	case ctype.Imply:
		return factOfExpr(x.Type, table)
	default:
		return Duplicable(0)
	}
}
