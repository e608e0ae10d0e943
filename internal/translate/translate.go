// Package translate implements the lowering from internal/surface's named
// AST into internal/ctype's locally-nameless core: component T's Bound/
// Open representation, plus the facts.Group and tenv.DataDef registration
// that component F's fixed point needs to settle every data declaration's
// fact and variance vector (§4.3) before the checker ever runs.
//
// Translation happens once per module, after internal/kindcheck has
// already validated every type expression's kind. A module's data
// declarations are translated as a single mutually-recursive facts.Group,
// matching how Mezzo itself treats same-file data types as a bundle.
package translate

import (
	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/diagnostics"
	"github.com/mezzolang/mezzo/internal/facts"
	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/pipeline"
	"github.com/mezzolang/mezzo/internal/surface"
	"github.com/mezzolang/mezzo/internal/tenv"
	"github.com/mezzolang/mezzo/internal/token"
	"github.com/mezzolang/mezzo/internal/tsub"
)

func init() {
	tsub.SetVarianceLookup(varianceLookup)
}

func varianceLookup(e *tenv.Env, head ctype.VarID) ([]int, bool) {
	def, ok := e.DataDef(head)
	if !ok {
		return nil, false
	}
	out := make([]int, len(def.Variance))
	for i, v := range def.Variance {
		out[i] = int(v)
	}
	return out, true
}

// IntType is the stable head identity of the builtin int type. Unlike a
// data declaration's head (minted fresh per module via BindRigid), it must
// be the same ctype.VarID everywhere an `int` literal or annotation is
// translated, in this module or any other.
const IntType ctype.VarID = "int"

// Prelude builds the root environment every module's translation starts
// from: the builtin types the surface grammar assumes exist without a
// corresponding data declaration.
func Prelude() *tenv.Env {
	e := tenv.New()
	e = e.BindBuiltin(IntType, "int", kind.Type{})
	e = e.RegisterDataDef(IntType, &tenv.DataDef{Fact: facts.Duplicable(0)})
	return e
}

// Heads maps every type constructor name visible while translating a
// module — the builtins plus every data declaration the module itself
// introduces — to its ctype.VarID.
type Heads map[string]ctype.VarID

func builtinHeads() Heads {
	return Heads{"int": IntType}
}

// Module lowers every DataDecl in m into env's registered data
// definitions and returns the extended environment, the name table used
// to resolve type constructor references, and any error encountered
// (kindcheck should have already ruled most of these out; translate only
// reports what would otherwise panic or silently misbehave).
func Module(env *tenv.Env, m *surface.Module) (*tenv.Env, Heads, []*diagnostics.DiagnosticError) {
	heads := builtinHeads()
	var errs []*diagnostics.DiagnosticError

	// Pass 1: allocate every data type's head id up front so references
	// between same-module declarations (including self-reference) resolve
	// regardless of declaration order.
	var order []ctype.VarID
	decls := map[ctype.VarID]*surface.DataDecl{}
	for _, d := range m.Decls {
		dd, ok := d.(*surface.DataDecl)
		if !ok {
			continue
		}
		k := kind.Kind(kind.Type{})
		for range dd.Params {
			k = kind.Arrow{Left: kind.Type{}, Right: k}
		}
		var id ctype.VarID
		env, id = env.BindRigid(dd.Name, k, dd.Pos)
		heads[dd.Name] = id
		order = append(order, id)
		decls[id] = dd
	}

	// Pass 2: lower every branch's field types now that every type
	// constructor in the module resolves to an id.
	defs := map[ctype.VarID]*facts.Def{}
	params := map[ctype.VarID][]ctype.Binding{}
	for _, id := range order {
		dd := decls[id]
		binds := make([]ctype.Binding, len(dd.Params))
		paramIndex := map[string]int{}
		for i, p := range dd.Params {
			paramIndex[p] = i
			binds[i] = ctype.Binding{Hint: p, Kind: kind.Type{}, Pos: dd.Pos, Flavor: ctype.CannotInstantiate}
		}
		params[id] = binds

		var branches []ctype.Concrete
		for _, b := range dd.Branches {
			c, berrs := lowerBranch(heads, paramIndex, b)
			errs = append(errs, berrs...)
			branches = append(branches, c)
		}
		defs[id] = &facts.Def{Params: len(dd.Params), Branches: branches, Flavor: declFlavor(dd.Flavor)}
	}

	// Pass 3: fact and variance inference over the whole module's data
	// types at once (§4.3), seeded with whatever env already knows about
	// names this group references but does not itself define (builtins,
	// earlier modules).
	group := &facts.Group{Order: order, Defs: defs}
	knownFact := map[ctype.VarID]facts.Fact{}
	knownVariance := map[ctype.VarID][]facts.Variance{}
	for _, id := range order {
		for _, ref := range referencedHeads(defs[id].Branches) {
			if _, inGroup := defs[ref]; inGroup {
				continue
			}
			if f, ok := env.Fact(ref); ok {
				knownFact[ref] = f
			}
			if d, ok := env.DataDef(ref); ok {
				knownVariance[ref] = d.Variance
			}
		}
	}
	factTable := facts.Infer(group, knownFact)
	varianceTable := facts.Variances(group, knownVariance)

	// Pass 4: register every definition's final shape.
	for _, id := range order {
		env = env.RegisterDataDef(id, &tenv.DataDef{
			Params:   params[id],
			Branches: defs[id].Branches,
			Fact:     factTable[id],
			Variance: varianceTable[id],
		})
	}

	return env, heads, errs
}

func declFlavor(s string) facts.DeclFlavor {
	switch s {
	case "duplicable":
		return facts.FlavorDuplicable
	case "exclusive":
		return facts.FlavorExclusive
	case "mutable":
		return facts.FlavorMutable
	default:
		return facts.FlavorInferred
	}
}

// referencedHeads collects every App head occurring in a branch list, for
// seeding Pass 3's known-fact/known-variance tables from names the group
// does not itself define.
func referencedHeads(branches []ctype.Concrete) []ctype.VarID {
	seen := map[ctype.VarID]bool{}
	var out []ctype.VarID
	var walk func(t ctype.Type)
	walk = func(t ctype.Type) {
		switch x := t.(type) {
		case ctype.App:
			if !seen[x.Head] {
				seen[x.Head] = true
				out = append(out, x.Head)
			}
			for _, a := range x.Args {
				walk(a)
			}
		case ctype.Tuple:
			for _, e := range x.Elems {
				walk(e)
			}
		case ctype.Forall:
			walk(x.Body)
		case ctype.Exists:
			walk(x.Body)
		case ctype.Arrow:
			walk(x.Domain)
			walk(x.Codomain)
		case ctype.Star:
			walk(x.Left)
			walk(x.Right)
		case ctype.Bar:
			walk(x.Value)
			walk(x.Perm)
		case ctype.Anchored:
			walk(x.Var)
			walk(x.Type)
		case ctype.And:
			walk(x.Type)
		case ctype.Imply:
			walk(x.Type)
		}
	}
	for _, b := range branches {
		for _, f := range b.Fields {
			walk(f.Type)
		}
		if b.Adopts != nil {
			walk(b.Adopts)
		}
	}
	return out
}

func lowerBranch(heads Heads, paramIndex map[string]int, b surface.DataBranch) (ctype.Concrete, []*diagnostics.DiagnosticError) {
	var errs []*diagnostics.DiagnosticError
	fields := make([]ctype.Field, len(b.Fields))
	for i, f := range b.Fields {
		t, ferrs := lowerType(heads, scope{params: paramIndex}, f.Type)
		errs = append(errs, ferrs...)
		fields[i] = ctype.Field{Name: f.Name, Anonymous: f.Anonymous, Type: t}
	}
	var adopts ctype.Type
	if b.Adopts != nil {
		a, aerrs := lowerType(heads, scope{params: paramIndex}, b.Adopts)
		errs = append(errs, aerrs...)
		adopts = a
	}
	return ctype.Concrete{Datacon: b.Datacon, Fields: fields, Adopts: adopts}, errs
}

// scope tracks, while lowering one type expression, how a bare name
// resolves to a Bound index: params is the enclosing data declaration's
// flat parameter table (paramIndex[name] substitutes directly as
// Bound{paramIndex[name]}, per facts.Def's convention — see ctype.
// ExpandIfOneBranch); locals is the stack of names bound by quantifiers
// entered since lowering of this type expression began, nearest (last
// entered) first, used for ordinary nested de Bruijn numbering. A name in
// locals always shadows the same name in params.
type scope struct {
	params map[string]int
	locals []string
}

// enter returns a new scope with one more quantifier layer, shifting
// every name already bound (param or local) up by one level the way
// ctype.Lift shifts Bound indices when relocating a type under an extra
// binder.
func (s scope) enter(name string) scope {
	locals := make([]string, len(s.locals)+1)
	copy(locals, s.locals)
	locals[len(s.locals)] = name
	return scope{params: s.params, locals: locals}
}

func (s scope) resolve(name string) (int, bool) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i] == name {
			return len(s.locals) - 1 - i, true
		}
	}
	if idx, ok := s.params[name]; ok {
		return idx + len(s.locals), true
	}
	return 0, false
}

// Type lowers a standalone type expression (a val declaration's
// annotation) using only the builtin and module-level heads — no data
// parameters or enclosing quantifiers are in scope yet.
func Type(heads Heads, t surface.TypeExpr) (ctype.Type, []*diagnostics.DiagnosticError) {
	return lowerType(heads, scope{}, t)
}

func lowerType(heads Heads, s scope, t surface.TypeExpr) (ctype.Type, []*diagnostics.DiagnosticError) {
	switch x := t.(type) {
	case surface.TUnknown:
		return ctype.Unknown{}, nil
	case surface.TDynamic:
		return ctype.Dynamic{}, nil
	case surface.TEmpty:
		return ctype.Empty{}, nil
	case surface.TName:
		if idx, ok := s.resolve(x.Name); ok {
			return ctype.Bound{Index: idx}, nil
		}
		if id, ok := heads[x.Name]; ok {
			return ctype.App{Head: id}, nil
		}
		return ctype.Unknown{}, []*diagnostics.DiagnosticError{unknownHead(x.Name, x.Pos)}
	case surface.TApp:
		id, ok := heads[x.Head]
		if !ok {
			return ctype.Unknown{}, []*diagnostics.DiagnosticError{unknownHead(x.Head, x.Pos)}
		}
		var errs []*diagnostics.DiagnosticError
		args := make([]ctype.Type, len(x.Args))
		for i, a := range x.Args {
			lt, aerrs := lowerType(heads, s, a)
			errs = append(errs, aerrs...)
			args[i] = lt
		}
		return ctype.App{Head: id, Args: args}, errs
	case surface.TTuple:
		var errs []*diagnostics.DiagnosticError
		elems := make([]ctype.Type, len(x.Elems))
		for i, e := range x.Elems {
			lt, eerrs := lowerType(heads, s, e)
			errs = append(errs, eerrs...)
			elems[i] = lt
		}
		return ctype.Tuple{Elems: elems}, errs
	case surface.TArrow:
		dom, derrs := lowerType(heads, s, x.Domain)
		cod, cerrs := lowerType(heads, s, x.Codomain)
		return ctype.Arrow{Domain: dom, Codomain: cod}, append(derrs, cerrs...)
	case surface.TForall:
		return lowerQuant(heads, s, x.Names, x.Body, true)
	case surface.TExists:
		return lowerQuant(heads, s, x.Names, x.Body, false)
	case surface.TSingleton:
		if idx, ok := s.resolve(x.Name); ok {
			return ctype.Singleton{Value: ctype.Bound{Index: idx}}, nil
		}
		return ctype.Singleton{Value: ctype.Open{Var: ctype.VarID(x.Name)}}, nil
	case surface.TAnchored:
		inner, errs := lowerType(heads, s, x.Type)
		var v ctype.Type
		if idx, ok := s.resolve(x.Var); ok {
			v = ctype.Bound{Index: idx}
		} else {
			v = ctype.Open{Var: ctype.VarID(x.Var)}
		}
		return ctype.Anchored{Var: v, Type: inner}, errs
	case surface.TStar:
		l, lerrs := lowerType(heads, s, x.Left)
		r, rerrs := lowerType(heads, s, x.Right)
		return ctype.Star{Left: l, Right: r}, append(lerrs, rerrs...)
	case surface.TBar:
		v, verrs := lowerType(heads, s, x.Value)
		p, perrs := lowerType(heads, s, x.Perm)
		return ctype.Bar{Value: v, Perm: p}, append(verrs, perrs...)
	case surface.TAnd:
		return lowerConstrained(heads, s, x.Constraints, x.Type, false)
	case surface.TImply:
		return lowerConstrained(heads, s, x.Constraints, x.Type, true)
	default:
		return ctype.Unknown{}, nil
	}
}

func lowerQuant(heads Heads, s scope, names []string, body surface.TypeExpr, forall bool) (ctype.Type, []*diagnostics.DiagnosticError) {
	if len(names) == 0 {
		return lowerType(heads, s, body)
	}
	name := names[0]
	inner, errs := lowerQuant(heads, s.enter(name), names[1:], body, forall)
	// Rigid by default: a declared forall is opened to check an
	// implementation against it (tenv.OpenForall), not to infer an
	// argument's instantiation — tsub.SubType builds its own flexible
	// copy of the binding when it opens one for that purpose instead.
	binding := ctype.Binding{Hint: name, Kind: kind.Type{}, Flavor: ctype.CannotInstantiate}
	if forall {
		return ctype.Forall{Binding: binding, Body: inner}, errs
	}
	return ctype.Exists{Binding: binding, Body: inner}, errs
}

func lowerConstrained(heads Heads, s scope, cs []surface.TConstraint, body surface.TypeExpr, imply bool) (ctype.Type, []*diagnostics.DiagnosticError) {
	var errs []*diagnostics.DiagnosticError
	out := make([]ctype.Constraint, len(cs))
	for i, c := range cs {
		t, cerrs := lowerType(heads, s, c.Type)
		errs = append(errs, cerrs...)
		ck := ctype.MustBeDuplicable
		if c.Exclusive {
			ck = ctype.MustBeExclusive
		}
		out[i] = ctype.Constraint{Kind: ck, Type: t}
	}
	t, terrs := lowerType(heads, s, body)
	errs = append(errs, terrs...)
	if imply {
		return ctype.Imply{Constraints: out, Type: t}, errs
	}
	return ctype.And{Constraints: out, Type: t}, errs
}

func unknownHead(name string, pos token.Position) *diagnostics.DiagnosticError {
	return diagnostics.New(diagnostics.ErrTranslateUnknownHead, pos, "unknown type constructor %q", name)
}

// Processor runs translation as a pipeline.Processor stage: it lowers the
// module's data declarations into ctx.Env (starting from Prelude if the
// context has none yet) and every explicitly annotated val declaration's
// type into ctx.Core.
type Processor struct{}

func (Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Module == nil {
		return ctx
	}
	env := ctx.Env
	if env == nil {
		env = Prelude()
	}
	var heads Heads
	var errs []*diagnostics.DiagnosticError
	env, heads, errs = Module(env, ctx.Module)
	for _, err := range errs {
		ctx.AddError(err)
	}
	ctx.Env = env
	ctx.Heads = heads

	if ctx.Core == nil {
		ctx.Core = map[string]ctype.Type{}
	}
	for _, d := range ctx.Module.Decls {
		vd, ok := d.(*surface.ValDecl)
		if !ok || vd.Ann == nil {
			continue
		}
		t, terrs := Type(heads, vd.Ann)
		for _, err := range terrs {
			ctx.AddError(err)
		}
		ctx.Core[vd.Name] = t
	}
	return ctx
}
