package ctype

// Lift shifts every free Bound index in t up by amount. It is used when a
// type computed at one quantifier depth is relocated under more binders
// (for instance, when instantiating a polymorphic branch's field types).
func Lift(amount int, t Type) Type {
	return liftFrom(0, amount, t)
}

func liftFrom(cutoff, amount int, t Type) Type {
	switch x := t.(type) {
	case Bound:
		if x.Index >= cutoff {
			return Bound{Index: x.Index + amount}
		}
		return x
	case Forall:
		return Forall{Binding: x.Binding, Body: liftFrom(cutoff+1, amount, x.Body)}
	case Exists:
		return Exists{Binding: x.Binding, Body: liftFrom(cutoff+1, amount, x.Body)}
	case App:
		return App{Head: x.Head, Args: liftAll(cutoff, amount, x.Args)}
	case Tuple:
		return Tuple{Elems: liftAll(cutoff, amount, x.Elems)}
	case Concrete:
		fields := make([]Field, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = Field{Name: f.Name, Anonymous: f.Anonymous, Type: liftFrom(cutoff, amount, f.Type)}
		}
		adopts := x.Adopts
		if adopts != nil {
			adopts = liftFrom(cutoff, amount, adopts)
		}
		return Concrete{Datacon: x.Datacon, Fields: fields, Adopts: adopts}
	case Singleton:
		return Singleton{Value: liftFrom(cutoff, amount, x.Value)}
	case Arrow:
		return Arrow{Domain: liftFrom(cutoff, amount, x.Domain), Codomain: liftFrom(cutoff, amount, x.Codomain)}
	case Anchored:
		return Anchored{Var: liftFrom(cutoff, amount, x.Var), Type: liftFrom(cutoff, amount, x.Type)}
	case Star:
		return Star{Left: liftFrom(cutoff, amount, x.Left), Right: liftFrom(cutoff, amount, x.Right)}
	case Bar:
		return Bar{Value: liftFrom(cutoff, amount, x.Value), Perm: liftFrom(cutoff, amount, x.Perm)}
	case And:
		return And{Constraints: liftConstraints(cutoff, amount, x.Constraints), Type: liftFrom(cutoff, amount, x.Type)}
	case Imply:
		return Imply{Constraints: liftConstraints(cutoff, amount, x.Constraints), Type: liftFrom(cutoff, amount, x.Type)}
	default:
		return t // Unknown, Dynamic, Open, Empty: no bound variables
	}
}

func liftAll(cutoff, amount int, ts []Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = liftFrom(cutoff, amount, t)
	}
	return out
}

func liftConstraints(cutoff, amount int, cs []Constraint) []Constraint {
	out := make([]Constraint, len(cs))
	for i, c := range cs {
		out[i] = Constraint{Kind: c.Kind, Type: liftFrom(cutoff, amount, c.Type)}
	}
	return out
}

// Subst replaces Bound(i) by u throughout t, correctly renumbering as it
// descends under nested quantifiers (i increases by one per binder
// crossed). This is the core of quantifier opening: OpenForall/OpenExists
// in tenv call Subst(body, 0, Open(fresh)).
func Subst(t Type, i int, u Type) Type {
	switch x := t.(type) {
	case Bound:
		if x.Index == i {
			return u
		}
		return x
	case Forall:
		return Forall{Binding: x.Binding, Body: Subst(x.Body, i+1, Lift(1, u))}
	case Exists:
		return Exists{Binding: x.Binding, Body: Subst(x.Body, i+1, Lift(1, u))}
	case App:
		return App{Head: x.Head, Args: substAll(x.Args, i, u)}
	case Tuple:
		return Tuple{Elems: substAll(x.Elems, i, u)}
	case Concrete:
		fields := make([]Field, len(x.Fields))
		for j, f := range x.Fields {
			fields[j] = Field{Name: f.Name, Anonymous: f.Anonymous, Type: Subst(f.Type, i, u)}
		}
		adopts := x.Adopts
		if adopts != nil {
			adopts = Subst(adopts, i, u)
		}
		return Concrete{Datacon: x.Datacon, Fields: fields, Adopts: adopts}
	case Singleton:
		return Singleton{Value: Subst(x.Value, i, u)}
	case Arrow:
		return Arrow{Domain: Subst(x.Domain, i, u), Codomain: Subst(x.Codomain, i, u)}
	case Anchored:
		return Anchored{Var: Subst(x.Var, i, u), Type: Subst(x.Type, i, u)}
	case Star:
		return Star{Left: Subst(x.Left, i, u), Right: Subst(x.Right, i, u)}
	case Bar:
		return Bar{Value: Subst(x.Value, i, u), Perm: Subst(x.Perm, i, u)}
	case And:
		return And{Constraints: substConstraints(x.Constraints, i, u), Type: Subst(x.Type, i, u)}
	case Imply:
		return Imply{Constraints: substConstraints(x.Constraints, i, u), Type: Subst(x.Type, i, u)}
	default:
		return t
	}
}

func substAll(ts []Type, i int, u Type) []Type {
	out := make([]Type, len(ts))
	for j, t := range ts {
		out[j] = Subst(t, i, u)
	}
	return out
}

func substConstraints(cs []Constraint, i int, u Type) []Constraint {
	out := make([]Constraint, len(cs))
	for j, c := range cs {
		out[j] = Constraint{Kind: c.Kind, Type: Subst(c.Type, i, u)}
	}
	return out
}

// Chaser resolves an instantiated flexible variable to its representative.
// tenv.Env implements this; ctype stays independent of tenv.
type Chaser interface {
	Chase(v VarID) (Type, bool)
}

// ModuloFlex returns the representative of t if t is an Open variable that
// has been instantiated as a flexible; otherwise it returns t unchanged.
func ModuloFlex(c Chaser, t Type) Type {
	o, ok := t.(Open)
	if !ok {
		return t
	}
	if repr, instantiated := c.Chase(o.Var); instantiated {
		return repr
	}
	return t
}

// Collect splits a value type from its attached permissions: Bar(T, p) is
// rewritten to (T, p); a bare non-Bar type collects as (T, Empty{}).
// Nested Star/Anchored inside the permission side are left as-is — the
// caller (tadd.AddPerm) walks those separately.
func Collect(t Type) (value Type, perm Type) {
	if b, ok := t.(Bar); ok {
		inner, innerPerm := Collect(b.Value)
		if _, isEmpty := innerPerm.(Empty); isEmpty {
			return inner, b.Perm
		}
		return inner, Star{Left: innerPerm, Right: b.Perm}
	}
	return t, Empty{}
}

// DataGroup resolves an App/Concrete's defining data-type group: the
// branches available for a head variable, keyed by datacon name, plus the
// declared type parameters (used to instantiate a branch with App.Args).
type DataGroup interface {
	Branches(head VarID) ([]Concrete, []Binding, bool)
}

// ExpandIfOneBranch rewrites t into its unfolded structural form when t is
// an App whose defining data-type group has exactly one branch — the case
// where the structural shape is known unconditionally. Any other t (a
// Concrete included) is returned unchanged with false. Branch
// field types reference parameter i as Bound{i} (a flat, not nested-binder,
// indexing — see facts.Def), so each parameter substitutes at its own
// absolute index; Subst itself lifts the replacement correctly if the
// branch's field types happen to cross a further quantifier.
func ExpandIfOneBranch(g DataGroup, t Type) (Type, bool) {
	app, ok := t.(App)
	if !ok {
		return t, false
	}
	branches, params, found := g.Branches(app.Head)
	if !found || len(branches) != 1 {
		return t, false
	}
	branch := branches[0]
	result := Type(branch)
	for i := 0; i < len(params) && i < len(app.Args); i++ {
		result = Subst(result, i, app.Args[i])
	}
	return result, true
}
