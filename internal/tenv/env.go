// Package tenv implements component E: the typing/permission environment
// threaded through the checker (§4.2). An Env binds term and type
// variables to their kind and kind-level flavor, tracks the permissions
// currently held for each variable plus any floating (unanchored)
// permissions, resolves flexible-variable instantiation, and carries the
// fact/variance tables computed by package facts for every defined data
// type.
//
// Env is persistent: every mutator returns a new *Env sharing structure
// with the receiver rather than mutating it in place, so a checker rule
// that explores several alternatives (subtraction's permission search,
// merge's join) can hold onto the environment before a choice and retry
// against it after a failed branch.
package tenv

import (
	"github.com/google/uuid"

	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/facts"
	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/token"
)

// Record is the static information held for one variable: its kind
// (Term/Type/Perm/Arrow), instantiation flavor, and the source position of
// its binding (for diagnostics).
type Record struct {
	Hint   string
	Kind   kind.Kind
	Flavor ctype.Flavor
	Pos    token.Position
}

// DataDef is a defined algebraic data type's shape, as registered by
// package translate when it processes a `data` declaration.
type DataDef struct {
	Params   []ctype.Binding
	Branches []ctype.Concrete
	Fact     facts.Fact
	Variance []facts.Variance
}

// Env is the immutable environment value. Use New to build an empty root
// environment; the mutators (BindRigid, SetPermissions, ...) each return a
// derived copy.
type Env struct {
	vars       map[ctype.VarID]Record
	perms      map[ctype.VarID][]ctype.Type // anchored permissions held per variable
	floating   []ctype.Type                 // permissions not anchored to any variable
	flex       map[ctype.VarID]*ctype.Type  // nil entry = uninstantiated flexible
	defs       map[ctype.VarID]*DataDef
	inconsistent bool
}

// New returns an empty root environment.
func New() *Env {
	return &Env{
		vars:     map[ctype.VarID]Record{},
		perms:    map[ctype.VarID][]ctype.Type{},
		flex:     map[ctype.VarID]*ctype.Type{},
		defs:     map[ctype.VarID]*DataDef{},
	}
}

// clone makes a shallow-but-independent copy: every map is rebuilt so that
// mutating the copy never affects the receiver, while unmodified Record/
// DataDef values (themselves value or pointer types treated as immutable
// after construction) are shared.
func (e *Env) clone() *Env {
	n := &Env{
		vars:         make(map[ctype.VarID]Record, len(e.vars)),
		perms:        make(map[ctype.VarID][]ctype.Type, len(e.perms)),
		floating:     append([]ctype.Type(nil), e.floating...),
		flex:         make(map[ctype.VarID]*ctype.Type, len(e.flex)),
		defs:         make(map[ctype.VarID]*DataDef, len(e.defs)),
		inconsistent: e.inconsistent,
	}
	for k, v := range e.vars {
		n.vars[k] = v
	}
	for k, v := range e.perms {
		n.perms[k] = append([]ctype.Type(nil), v...)
	}
	for k, v := range e.flex {
		n.flex[k] = v
	}
	for k, v := range e.defs {
		n.defs[k] = v
	}
	return n
}

// freshID mints a new variable identity, backed by a uuid so that two
// variables introduced with the same hint (e.g. two anonymous binders
// named "_") never collide.
func freshID(hint string) ctype.VarID {
	return ctype.VarID(hint + "#" + uuid.NewString())
}

// BindRigid introduces a new rigid (non-instantiable) variable — the
// ordinary case for a forall opened at a call site, or a pattern-bound
// variable — and returns the extended environment and the fresh id.
//
// A Term-kinded variable is given its self-witness permission
// Singleton(Open(self)) atomically with the binding, so that Invariant 1
// (every Term variable always holds exactly that permission) holds by
// construction rather than by every caller remembering to add it.
func (e *Env) BindRigid(hint string, k kind.Kind, pos token.Position) (*Env, ctype.VarID) {
	n := e.clone()
	id := freshID(hint)
	n.vars[id] = Record{Hint: hint, Kind: k, Flavor: ctype.CannotInstantiate, Pos: pos}
	if _, ok := k.(kind.Term); ok {
		n.perms[id] = []ctype.Type{ctype.Singleton{Value: ctype.Open{Var: id}}}
	}
	return n, id
}

// BindBuiltin introduces a variable under a caller-chosen stable id rather
// than a freshly minted one — for the small set of prelude types (int,
// ...) that must resolve to the same VarID in every module's environment,
// not a fresh uuid-suffixed one per compilation unit.
func (e *Env) BindBuiltin(id ctype.VarID, hint string, k kind.Kind) *Env {
	n := e.clone()
	n.vars[id] = Record{Hint: hint, Kind: k, Flavor: ctype.CannotInstantiate}
	return n
}

// BindFlexible introduces a new flexible variable, eligible for
// InstantiateFlexible later (e.g. an existential opened during subtraction,
// or a generic function's type parameter awaiting inference). A Term-kinded
// variable gets its self-witness permission installed the same way BindRigid
// does.
func (e *Env) BindFlexible(hint string, k kind.Kind, pos token.Position) (*Env, ctype.VarID) {
	n := e.clone()
	id := freshID(hint)
	n.vars[id] = Record{Hint: hint, Kind: k, Flavor: ctype.CanInstantiate, Pos: pos}
	n.flex[id] = nil
	if _, ok := k.(kind.Term); ok {
		n.perms[id] = []ctype.Type{ctype.Singleton{Value: ctype.Open{Var: id}}}
	}
	return n, id
}

// OpenForall opens a Forall's body by substituting its bound variable with
// a fresh one, rigid or flexible depending on the binding's Flavor.
func OpenForall(e *Env, f ctype.Forall) (*Env, ctype.Type) {
	var n *Env
	var id ctype.VarID
	if f.Binding.Flavor == ctype.CanInstantiate {
		n, id = e.BindFlexible(f.Binding.Hint, f.Binding.Kind, f.Binding.Pos)
	} else {
		n, id = e.BindRigid(f.Binding.Hint, f.Binding.Kind, f.Binding.Pos)
	}
	return n, ctype.Subst(f.Body, 0, ctype.Open{Var: id})
}

// OpenExists opens an Exists the same way OpenForall opens a Forall — the
// two quantifiers differ only in how the checker treats the opened
// variable afterwards (existentials are packed back up on exit), not in
// how opening itself works.
func OpenExists(e *Env, x ctype.Exists) (*Env, ctype.Type) {
	n, id := e.BindRigid(x.Binding.Hint, x.Binding.Kind, x.Binding.Pos)
	return n, ctype.Subst(x.Body, 0, ctype.Open{Var: id})
}

// IsFlexible reports whether v was bound by BindFlexible.
func (e *Env) IsFlexible(v ctype.VarID) bool {
	_, ok := e.flex[v]
	return ok
}

// CanInstantiate reports whether v is flexible and not yet instantiated.
func (e *Env) CanInstantiate(v ctype.VarID) bool {
	repr, ok := e.flex[v]
	return ok && repr == nil
}

// Chase implements ctype.Chaser: it resolves a flexible variable to its
// instantiation, if any.
func (e *Env) Chase(v ctype.VarID) (ctype.Type, bool) {
	repr, ok := e.flex[v]
	if !ok || repr == nil {
		return nil, false
	}
	return *repr, true
}

// InstantiateFlexible records t as the instantiation of the flexible
// variable v. It is the caller's responsibility (package tsub) to ensure v
// is not already instantiated and that t does not mention v (occurs
// check); InstantiateFlexible itself does not re-check either.
func (e *Env) InstantiateFlexible(v ctype.VarID, t ctype.Type) *Env {
	n := e.clone()
	tc := t
	n.flex[v] = &tc
	return n
}

// GetPermissions returns the anchored permissions currently held for v.
func (e *Env) GetPermissions(v ctype.VarID) []ctype.Type {
	return e.perms[v]
}

// SetPermissions replaces the anchored permissions held for v wholesale —
// used by tsub/tadd once a permission list has been consumed and rebuilt.
func (e *Env) SetPermissions(v ctype.VarID, perms []ctype.Type) *Env {
	n := e.clone()
	if len(perms) == 0 {
		delete(n.perms, v)
	} else {
		n.perms[v] = append([]ctype.Type(nil), perms...)
	}
	return n
}

// AddPermission appends one more anchored permission to v's list (used
// when tadd assimilates a new fact about v without disturbing what is
// already known).
func (e *Env) AddPermission(v ctype.VarID, p ctype.Type) *Env {
	n := e.clone()
	n.perms[v] = append(append([]ctype.Type(nil), n.perms[v]...), p)
	return n
}

// FloatingPermissions returns the permissions not anchored to any
// particular variable (e.g. a duplicable resource obtained from a
// function's return type that was never bound to a name).
func (e *Env) FloatingPermissions() []ctype.Type {
	return e.floating
}

// AddFloatingPerm adds p to the floating-permission pool.
func (e *Env) AddFloatingPerm(p ctype.Type) *Env {
	n := e.clone()
	n.floating = append(n.floating, p)
	return n
}

// SetFloatingPermissions replaces the floating-permission pool wholesale.
func (e *Env) SetFloatingPermissions(ps []ctype.Type) *Env {
	n := e.clone()
	n.floating = append([]ctype.Type(nil), ps...)
	return n
}

// MarkInconsistent flags the environment as having derived `False` — e.g.
// subtraction discharged a permission against a contradictory fact. Once
// set, the checker accepts any goal against this environment (ex falso).
func (e *Env) MarkInconsistent() *Env {
	n := e.clone()
	n.inconsistent = true
	return n
}

// IsInconsistent reports whether MarkInconsistent was ever called on this
// environment or an ancestor it was cloned from.
func (e *Env) IsInconsistent() bool { return e.inconsistent }

// Record looks up a bound variable's static record.
func (e *Env) Record(v ctype.VarID) (Record, bool) {
	r, ok := e.vars[v]
	return r, ok
}

// KnownVars lists every variable with a Record in this environment, for
// callers (package tmerge) that need to enumerate scope rather than look
// up one variable at a time.
func (e *Env) KnownVars() []ctype.VarID {
	out := make([]ctype.VarID, 0, len(e.vars))
	for v := range e.vars {
		out = append(out, v)
	}
	return out
}

// KnownDataHeads lists every registered data type's head id, for callers
// (package checker's AssignTag rule) that need to find which data type's
// branch list a given datacon name belongs to, rather than look up one
// head at a time.
func (e *Env) KnownDataHeads() []ctype.VarID {
	out := make([]ctype.VarID, 0, len(e.defs))
	for v := range e.defs {
		out = append(out, v)
	}
	return out
}

// RegisterDataDef registers (or overwrites) a data type's shape, fact, and
// variance vector, as computed by package translate from a `data`
// declaration plus package facts' Infer/Variances.
func (e *Env) RegisterDataDef(id ctype.VarID, def *DataDef) *Env {
	n := e.clone()
	n.defs[id] = def
	return n
}

// DataDef looks up a registered data type's shape.
func (e *Env) DataDef(id ctype.VarID) (*DataDef, bool) {
	d, ok := e.defs[id]
	return d, ok
}

// Fact returns the duplicable/exclusive/affine fact of a registered data
// type. The second result is false when id names no registered data
// type (an abstract quantified variable, a term variable, or anything
// else outside package facts' purview) — the caller (package checker)
// decides what default applies there, typically affine for an opaque
// quantified type-of-kind-Type variable with no further information.
func (e *Env) Fact(id ctype.VarID) (facts.Fact, bool) {
	d, ok := e.defs[id]
	if !ok {
		return facts.Fact{}, false
	}
	return d.Fact, true
}

// Branches implements ctype.DataGroup for the environment's registered
// data definitions, so tadd/tsub can call ctype.ExpandIfOneBranch(e, t)
// directly against an *Env.
func (e *Env) Branches(head ctype.VarID) ([]ctype.Concrete, []ctype.Binding, bool) {
	d, ok := e.defs[head]
	if !ok {
		return nil, nil, false
	}
	return d.Branches, d.Params, true
}
