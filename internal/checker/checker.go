// Package checker implements component C: the bidirectional expression
// walker (§4.7) that threads E through S (subtraction), A (addition), and
// M (merge) at every node. Each expression is checked against an
// optional expected type and returns the updated environment plus a
// fresh term variable bound to the expression's value.
package checker

import (
	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/diagnostics"
	"github.com/mezzolang/mezzo/internal/facts"
	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/pipeline"
	"github.com/mezzolang/mezzo/internal/prettyprint"
	"github.com/mezzolang/mezzo/internal/surface"
	"github.com/mezzolang/mezzo/internal/tadd"
	"github.com/mezzolang/mezzo/internal/tenv"
	"github.com/mezzolang/mezzo/internal/tmerge"
	"github.com/mezzolang/mezzo/internal/token"
	"github.com/mezzolang/mezzo/internal/translate"
	"github.com/mezzolang/mezzo/internal/tsub"
)

// scope is a persistent chain of term-variable bindings, name to the
// fresh VarID the checker bound it to — the checker's own "locally
// named" layer sitting above E's locally-nameless one, since surface
// expressions still refer to variables by the name the programmer wrote.
type scope struct {
	name   string
	id     ctype.VarID
	parent *scope
}

func (s *scope) bind(name string, id ctype.VarID) *scope {
	return &scope{name: name, id: id, parent: s}
}

func (s *scope) lookup(name string) (ctype.VarID, bool) {
	for n := s; n != nil; n = n.parent {
		if n.name == name {
			return n.id, true
		}
	}
	return "", false
}

// Checker runs the expression walker over one module, collecting
// diagnostics rather than aborting at the first failure (a later
// expression may still be worth checking even once an earlier one has
// failed).
type Checker struct {
	heads  translate.Heads
	errors []*diagnostics.DiagnosticError
	top    *scope
}

// New builds a Checker that resolves type constructor names (in val
// annotations and lambda parameter/return annotations) against heads, as
// produced by package translate for the same module.
func New(heads translate.Heads) *Checker {
	return &Checker{heads: heads}
}

// Errors returns every diagnostic recorded so far.
func (c *Checker) Errors() []*diagnostics.DiagnosticError {
	return c.errors
}

func (c *Checker) errorf(pos token.Position, code diagnostics.ErrorCode, format string, args ...any) {
	c.errors = append(c.errors, diagnostics.New(code, pos, format, args...))
}

// CheckModule checks every top-level val declaration in order, threading
// one environment and one top-level scope across all of them so a later
// declaration can reference an earlier one.
func (c *Checker) CheckModule(env *tenv.Env, m *surface.Module) *tenv.Env {
	var sc *scope
	cur := env
	for _, d := range m.Decls {
		vd, ok := d.(*surface.ValDecl)
		if !ok {
			continue
		}
		var ann ctype.Type
		if vd.Ann != nil {
			ann = c.lowerAnn(vd.Ann, vd.Pos)
		}
		if vd.Rec {
			var id ctype.VarID
			cur, id = cur.BindRigid(vd.Name, kind.Term{}, vd.Pos)
			if ann != nil {
				if n, ok := tadd.Add(cur, id, ann); ok {
					cur = n
				} else {
					cur = cur.MarkInconsistent()
				}
			}
			sc = sc.bind(vd.Name, id)
			cur, _ = c.Check(cur, sc, vd.Body, ann)
			continue
		}
		var id ctype.VarID
		cur, id = c.Check(cur, sc, vd.Body, ann)
		sc = sc.bind(vd.Name, id)
	}
	c.top = sc
	return cur
}

// TopLevelBindings returns every top-level name bound by the most recent
// CheckModule call, mapped to the variable that ended up carrying its
// final permissions — what an interface check matches against.
func (c *Checker) TopLevelBindings() map[string]ctype.VarID {
	out := make(map[string]ctype.VarID)
	for s := c.top; s != nil; s = s.parent {
		if _, seen := out[s.name]; !seen {
			out[s.name] = s.id
		}
	}
	return out
}

func (c *Checker) lowerAnn(t surface.TypeExpr, pos token.Position) ctype.Type {
	if t == nil {
		return nil
	}
	lowered, errs := translate.Type(c.heads, t)
	c.errors = append(c.errors, errs...)
	return lowered
}

// Check is the driver's single entry point: (E, expr, expected) -> (E',
// v). expected is nil in synthesize mode.
func (c *Checker) Check(env *tenv.Env, sc *scope, e surface.Expr, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	switch x := e.(type) {
	case surface.Var:
		return c.checkVar(env, sc, x, expected)
	case surface.IntLit:
		return c.checkIntLit(env, x, expected)
	case surface.Let:
		return c.checkLet(env, sc, x, expected)
	case surface.Lambda:
		return c.checkLambda(env, sc, x, expected)
	case surface.App:
		return c.checkApp(env, sc, x, expected)
	case surface.TupleExpr:
		return c.checkTuple(env, sc, x, expected)
	case surface.ConExpr:
		return c.checkConExpr(env, sc, x, expected)
	case surface.Match:
		return c.checkMatch(env, sc, x, expected)
	case surface.If:
		return c.checkIf(env, sc, x, expected)
	case surface.Assign:
		return c.checkAssign(env, sc, x)
	case surface.Access:
		return c.checkAccess(env, sc, x)
	case surface.AssignTag:
		return c.checkAssignTag(env, sc, x)
	case surface.Give:
		return c.checkGive(env, sc, x)
	case surface.Take:
		return c.checkTake(env, sc, x)
	case surface.Owns:
		return c.checkOwns(env, sc, x)
	case surface.Fail:
		n, fresh := env.BindRigid("$fail", kind.Term{}, x.Pos)
		return n.MarkInconsistent(), fresh
	case surface.Constraint:
		return c.checkConstraint(env, sc, x, expected)
	default:
		n, fresh := env.BindRigid("$expr", kind.Term{}, e.Position())
		return n, fresh
	}
}

func (c *Checker) checkVar(env *tenv.Env, sc *scope, x surface.Var, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	id, ok := sc.lookup(x.Name)
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckUnboundVariable, "unbound variable %q", x.Name)
		n, fresh := env.BindRigid(x.Name, kind.Term{}, x.Pos)
		return n.MarkInconsistent(), fresh
	}
	if expected == nil {
		return env, id
	}
	n, ok := tsub.Sub(env, id, expected)
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckSubtractionFailed, "%q does not provide the expected permission %s", x.Name, prettyprint.Permission(expected))
		return env, id
	}
	return n, id
}

func (c *Checker) checkIntLit(env *tenv.Env, x surface.IntLit, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	n, fresh := env.BindRigid("$int", kind.Term{}, x.Pos)
	n, ok := tadd.Add(n, fresh, ctype.App{Head: translate.IntType})
	if !ok {
		return n.MarkInconsistent(), fresh
	}
	if expected == nil {
		return n, fresh
	}
	n2, ok := tsub.Sub(n, fresh, expected)
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckSubtractionFailed, "int literal does not provide the expected permission %s", prettyprint.Permission(expected))
		return n, fresh
	}
	return n2, fresh
}

func (c *Checker) checkLet(env *tenv.Env, sc *scope, x surface.Let, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	cur := env
	curScope := sc
	for _, b := range x.Bindings {
		if x.Rec {
			if pv, ok := b.Pattern.(surface.PVar); ok {
				if lam, ok := b.Value.(surface.Lambda); ok && lam.Ret != nil {
					domain := c.lowerAnn(lam.ParamAnn, lam.Pos)
					codomain := c.lowerAnn(lam.Ret, lam.Pos)
					var preID ctype.VarID
					cur, preID = cur.BindRigid(pv.Name, kind.Term{}, pv.Pos)
					if n, ok := tadd.Add(cur, preID, ctype.Arrow{Domain: domain, Codomain: codomain}); ok {
						cur = n
					}
					curScope = curScope.bind(pv.Name, preID)
				}
			}
		}
		var ann ctype.Type
		if b.Ann != nil {
			ann = c.lowerAnn(b.Ann, x.Pos)
		}
		var valID ctype.VarID
		cur, valID = c.Check(cur, curScope, b.Value, ann)
		var ok bool
		cur, curScope, ok = c.bindPattern(cur, curScope, b.Pattern, valID)
		if !ok {
			c.errorf(x.Pos, diagnostics.ErrCheckSubtractionFailed, "pattern does not match the bound value's permission")
		}
	}
	return c.Check(cur, curScope, x.Body, expected)
}

func (c *Checker) checkLambda(env *tenv.Env, sc *scope, x surface.Lambda, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	domain := c.lowerAnn(x.ParamAnn, x.Pos)
	stripped := stripToDuplicable(env)
	paramEnv, paramID := stripped.BindRigid(x.Param, kind.Term{}, x.Pos)
	if n, ok := tadd.Add(paramEnv, paramID, domain); ok {
		paramEnv = n
	} else {
		paramEnv = paramEnv.MarkInconsistent()
	}
	innerScope := sc.bind(x.Param, paramID)

	var codomain ctype.Type
	if x.Ret != nil {
		codomain = c.lowerAnn(x.Ret, x.Pos)
		c.Check(paramEnv, innerScope, x.Body, codomain)
	} else {
		bodyEnv, bodyVar := c.Check(paramEnv, innerScope, x.Body, nil)
		codomain = starOfPerms(bodyEnv.GetPermissions(bodyVar))
	}

	fnEnv, fnID := env.BindRigid("$fn", kind.Term{}, x.Pos)
	fnEnv, ok := tadd.Add(fnEnv, fnID, ctype.Arrow{Domain: domain, Codomain: codomain})
	if !ok {
		fnEnv = fnEnv.MarkInconsistent()
	}
	if expected != nil {
		if n, ok := tsub.Sub(fnEnv, fnID, expected); ok {
			fnEnv = n
		} else {
			c.errorf(x.Pos, diagnostics.ErrCheckSubtractionFailed, "lambda does not match the expected arrow type %s", prettyprint.Permission(expected))
		}
	}
	return fnEnv, fnID
}

// stripToDuplicable keeps, for every known variable, only the
// permissions a closure may still rely on once captured — duplicable
// ones (§4.4 rule 6, subArrow: a function's body only sees the
// duplicable slice of the ambient environment). tsub's own
// stripToDuplicable is unexported and, at present, a documented no-op
// used only inside subArrow's contravariant check; this reimplements the
// same idea at the checker's entry point into a lambda body.
func stripToDuplicable(e *tenv.Env) *tenv.Env {
	cur := e
	for _, v := range e.KnownVars() {
		var kept []ctype.Type
		for _, p := range e.GetPermissions(v) {
			if isDuplicablePerm(e, p) {
				kept = append(kept, p)
			}
		}
		cur = cur.SetPermissions(v, kept)
	}
	return cur
}

func isDuplicablePerm(e *tenv.Env, t ctype.Type) bool {
	switch x := t.(type) {
	case ctype.App:
		f, ok := e.Fact(x.Head)
		return ok && f.Kind == facts.KDuplicable
	case ctype.Singleton:
		return true
	default:
		return false
	}
}

func starOfPerms(ts []ctype.Type) ctype.Type {
	if len(ts) == 0 {
		return ctype.Dynamic{}
	}
	acc := ts[0]
	for _, t := range ts[1:] {
		acc = ctype.Star{Left: acc, Right: t}
	}
	return acc
}

func (c *Checker) checkApp(env *tenv.Env, sc *scope, x surface.App, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	fEnv, fID := c.Check(env, sc, x.Fun, nil)
	arrowEnv, arrow, ok := resolveArrow(fEnv, fEnv.GetPermissions(fID))
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckSubtractionFailed, "callee does not have an arrow permission")
		n, fresh := fEnv.BindRigid("$app", kind.Term{}, x.Pos)
		return n.MarkInconsistent(), fresh
	}
	argEnv, _ := c.Check(arrowEnv, sc, x.Arg, arrow.Domain)
	resEnv, resID := argEnv.BindRigid("$app", kind.Term{}, x.Pos)
	resEnv, ok = tadd.Add(resEnv, resID, arrow.Codomain)
	if !ok {
		resEnv = resEnv.MarkInconsistent()
	}
	if expected != nil {
		if n, ok := tsub.Sub(resEnv, resID, expected); ok {
			resEnv = n
		} else {
			c.errorf(x.Pos, diagnostics.ErrCheckSubtractionFailed, "application result does not provide the expected permission %s", prettyprint.Permission(expected))
		}
	}
	return resEnv, resID
}

// resolveArrow searches perms for an arrow permission, opening (flexibly)
// any enclosing Forall layers first — "find an arrow permission on f
// (possibly polymorphic); flex its universal variables" (§4.7 App).
func resolveArrow(e *tenv.Env, perms []ctype.Type) (*tenv.Env, ctype.Arrow, bool) {
	for _, p := range perms {
		cur := e
		t := p
		for {
			forall, ok := t.(ctype.Forall)
			if !ok {
				break
			}
			n, opened := tenv.OpenForall(cur, ctype.Forall{
				Binding: ctype.Binding{Hint: forall.Binding.Hint, Kind: forall.Binding.Kind, Pos: forall.Binding.Pos, Flavor: ctype.CanInstantiate},
				Body:    forall.Body,
			})
			cur, t = n, opened
		}
		if arrow, ok := t.(ctype.Arrow); ok {
			return cur, arrow, true
		}
	}
	return e, ctype.Arrow{}, false
}

func (c *Checker) checkTuple(env *tenv.Env, sc *scope, x surface.TupleExpr, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	cur := env
	elems := make([]ctype.Type, len(x.Elems))
	for i, el := range x.Elems {
		var eID ctype.VarID
		cur, eID = c.Check(cur, sc, el, nil)
		elems[i] = ctype.Singleton{Value: ctype.Open{Var: eID}}
	}
	resEnv, resID := cur.BindRigid("$tuple", kind.Term{}, x.Pos)
	resEnv, ok := tadd.Add(resEnv, resID, ctype.Tuple{Elems: elems})
	if !ok {
		resEnv = resEnv.MarkInconsistent()
	}
	if expected != nil {
		if n, ok := tsub.Sub(resEnv, resID, expected); ok {
			resEnv = n
		} else {
			c.errorf(x.Pos, diagnostics.ErrCheckSubtractionFailed, "tuple does not provide the expected permission %s", prettyprint.Permission(expected))
		}
	}
	return resEnv, resID
}

func (c *Checker) checkConExpr(env *tenv.Env, sc *scope, x surface.ConExpr, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	cur := env
	fields := make([]ctype.Field, len(x.Fields))
	for i, fi := range x.Fields {
		var fID ctype.VarID
		cur, fID = c.Check(cur, sc, fi.Value, nil)
		fields[i] = ctype.Field{Name: fi.Name, Type: ctype.Singleton{Value: ctype.Open{Var: fID}}}
	}
	resEnv, resID := cur.BindRigid("$con", kind.Term{}, x.Pos)
	resEnv, ok := tadd.Add(resEnv, resID, ctype.Concrete{Datacon: x.Datacon, Fields: fields})
	if !ok {
		resEnv = resEnv.MarkInconsistent()
	}
	if expected != nil {
		if n, ok := tsub.Sub(resEnv, resID, expected); ok {
			resEnv = n
		} else {
			c.errorf(x.Pos, diagnostics.ErrCheckSubtractionFailed, "%s{} does not provide the expected permission %s", x.Datacon, prettyprint.Permission(expected))
		}
	}
	return resEnv, resID
}

func (c *Checker) checkMatch(env *tenv.Env, sc *scope, x surface.Match, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	sEnv, sID := c.Check(env, sc, x.Scrutinee, nil)

	var branchEnvs []*tenv.Env
	var branchVars []ctype.VarID
	for _, arm := range x.Arms {
		bEnv, bScope, ok := c.bindPattern(sEnv, sc, arm.Pattern, sID)
		if !ok {
			continue // non-matching branch: skipped per §4.7, not reported
		}
		if arm.Guard != nil {
			bEnv, _ = c.Check(bEnv, bScope, arm.Guard, nil)
		}
		bodyEnv, bodyVar := c.Check(bEnv, bScope, arm.Body, expected)
		if bodyEnv.IsInconsistent() {
			continue
		}
		branchEnvs = append(branchEnvs, bodyEnv)
		branchVars = append(branchVars, bodyVar)
	}

	if len(branchEnvs) == 0 {
		n, fresh := sEnv.BindRigid("$match", kind.Term{}, x.Pos)
		return n.MarkInconsistent(), fresh
	}
	merged := branchEnvs[0]
	for _, be := range branchEnvs[1:] {
		merged = tmerge.Merge(sEnv, merged, be, expected)
	}
	return merged, branchVars[0]
}

func (c *Checker) checkIf(env *tenv.Env, sc *scope, x surface.If, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	cEnv, _ := c.Check(env, sc, x.Cond, nil)
	thenEnv, thenVar := c.Check(cEnv, sc, x.Then, expected)
	elseEnv, _ := c.Check(cEnv, sc, x.Else, expected)
	if thenEnv.IsInconsistent() {
		return elseEnv, thenVar
	}
	if elseEnv.IsInconsistent() {
		return thenEnv, thenVar
	}
	return tmerge.Merge(cEnv, thenEnv, elseEnv, expected), thenVar
}

func findConcrete(env *tenv.Env, id ctype.VarID) (ctype.Concrete, int, bool) {
	for i, p := range env.GetPermissions(id) {
		if con, ok := p.(ctype.Concrete); ok {
			return con, i, true
		}
	}
	return ctype.Concrete{}, -1, false
}

func replacePermAt(env *tenv.Env, id ctype.VarID, idx int, with ctype.Type) *tenv.Env {
	perms := append([]ctype.Type(nil), env.GetPermissions(id)...)
	perms[idx] = with
	return env.SetPermissions(id, perms)
}

func (c *Checker) checkAccess(env *tenv.Env, sc *scope, x surface.Access) (*tenv.Env, ctype.VarID) {
	tEnv, tID := c.Check(env, sc, x.Target, nil)
	con, _, ok := findConcrete(tEnv, tID)
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckNoWritablePerm, "no concrete permission to read field %q from", x.Field)
		n, fresh := tEnv.BindRigid("$access", kind.Term{}, x.Pos)
		return n.MarkInconsistent(), fresh
	}
	for _, f := range con.Fields {
		if f.Name != x.Field {
			continue
		}
		if sing, ok := f.Type.(ctype.Singleton); ok {
			if o, ok := sing.Value.(ctype.Open); ok {
				return tEnv, o.Var
			}
		}
	}
	c.errorf(x.Pos, diagnostics.ErrCheckNoWritablePerm, "%s has no field %q", con.Datacon, x.Field)
	n, fresh := tEnv.BindRigid("$access", kind.Term{}, x.Pos)
	return n.MarkInconsistent(), fresh
}

func (c *Checker) checkAssign(env *tenv.Env, sc *scope, x surface.Assign) (*tenv.Env, ctype.VarID) {
	tEnv, tID := c.Check(env, sc, x.Target, nil)
	con, idx, ok := findConcrete(tEnv, tID)
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckNoWritablePerm, "no writable concrete permission on assignment target")
		n, fresh := tEnv.BindRigid("$assign", kind.Term{}, x.Pos)
		return n.MarkInconsistent(), fresh
	}
	vEnv, vID := c.Check(tEnv, sc, x.Value, nil)

	found := false
	fields := make([]ctype.Field, len(con.Fields))
	for i, f := range con.Fields {
		if f.Name == x.Field {
			fields[i] = ctype.Field{Name: f.Name, Type: ctype.Singleton{Value: ctype.Open{Var: vID}}}
			found = true
		} else {
			fields[i] = f
		}
	}
	if !found {
		c.errorf(x.Pos, diagnostics.ErrCheckNoWritablePerm, "%s has no field %q", con.Datacon, x.Field)
		return vEnv, tID
	}
	updated := replacePermAt(vEnv, tID, idx, ctype.Concrete{Datacon: con.Datacon, Fields: fields, Adopts: con.Adopts})
	return updated, tID
}

func (c *Checker) checkAssignTag(env *tenv.Env, sc *scope, x surface.AssignTag) (*tenv.Env, ctype.VarID) {
	tEnv, tID := c.Check(env, sc, x.Target, nil)
	con, idx, ok := findConcrete(tEnv, tID)
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckNoWritablePerm, "no writable concrete permission to retag")
		n, fresh := tEnv.BindRigid("$retag", kind.Term{}, x.Pos)
		return n.MarkInconsistent(), fresh
	}
	sibling, ok := findSiblingBranch(tEnv, con.Datacon, x.Datacon, len(con.Fields))
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckNoWritablePerm, "%s is not a same-arity sibling of %s", x.Datacon, con.Datacon)
		return tEnv, tID
	}
	updated := replacePermAt(tEnv, tID, idx, sibling)
	return updated, tID
}

// findSiblingBranch locates, among every registered data type, the one
// whose branch list contains fromDatacon, then returns its toDatacon
// branch if it has the same field count (AssignTag's requirement — the
// storage layout does not change, only which tag it is read as).
func findSiblingBranch(env *tenv.Env, fromDatacon, toDatacon string, fieldCount int) (ctype.Concrete, bool) {
	for _, head := range env.KnownDataHeads() {
		def, ok := env.DataDef(head)
		if !ok {
			continue
		}
		hasFrom := false
		for _, b := range def.Branches {
			if b.Datacon == fromDatacon {
				hasFrom = true
				break
			}
		}
		if !hasFrom {
			continue
		}
		for _, b := range def.Branches {
			if b.Datacon == toDatacon && len(b.Fields) == fieldCount {
				return b, true
			}
		}
	}
	return ctype.Concrete{}, false
}

func adoptsClauseOf(env *tenv.Env, id ctype.VarID) ctype.Type {
	for _, p := range env.GetPermissions(id) {
		if con, ok := p.(ctype.Concrete); ok && con.Adopts != nil {
			return con.Adopts
		}
	}
	return nil
}

func (c *Checker) checkGive(env *tenv.Env, sc *scope, x surface.Give) (*tenv.Env, ctype.VarID) {
	xEnv, xID := c.Check(env, sc, x.X, nil)
	yEnv, yID := c.Check(xEnv, sc, x.Y, nil)
	adopts := adoptsClauseOf(yEnv, yID)
	if adopts == nil {
		c.errorf(x.Pos, diagnostics.ErrCheckAdoptsMismatch, "give: target declares no adopts clause")
		return yEnv, yID
	}
	n, ok := tsub.Sub(yEnv, xID, adopts)
	if !ok {
		c.errorf(x.Pos, diagnostics.ErrCheckAdoptsMismatch, "give: no permission on the source matches the target's adopts clause %s", prettyprint.Permission(adopts))
		return yEnv, yID
	}
	return n, yID
}

func (c *Checker) checkTake(env *tenv.Env, sc *scope, x surface.Take) (*tenv.Env, ctype.VarID) {
	xEnv, xID := c.Check(env, sc, x.X, nil)
	yEnv, yID := c.Check(xEnv, sc, x.Y, nil)
	adopts := adoptsClauseOf(yEnv, yID)
	if adopts == nil {
		c.errorf(x.Pos, diagnostics.ErrCheckAdoptsMismatch, "take: source declares no adopts clause")
		return yEnv, xID
	}
	n, ok := tadd.Add(yEnv, xID, adopts)
	if !ok {
		n = n.MarkInconsistent()
	}
	return n, xID
}

func (c *Checker) checkOwns(env *tenv.Env, sc *scope, x surface.Owns) (*tenv.Env, ctype.VarID) {
	yEnv, yID := c.Check(env, sc, x.Y, nil)
	xEnv, _ := c.Check(yEnv, sc, x.X, nil)
	hasExclusive := false
	for _, p := range xEnv.GetPermissions(yID) {
		app, ok := p.(ctype.App)
		if !ok {
			continue
		}
		if f, ok := xEnv.Fact(app.Head); ok && f.Kind == facts.KExclusive {
			hasExclusive = true
			break
		}
	}
	if !hasExclusive {
		c.errorf(x.Pos, diagnostics.ErrCheckAdoptsMismatch, "owns: no exclusive permission found")
	}
	resEnv, resID := xEnv.BindRigid("$owns", kind.Term{}, x.Pos)
	resEnv, _ = tadd.Add(resEnv, resID, ctype.Dynamic{})
	return resEnv, resID
}

func (c *Checker) checkConstraint(env *tenv.Env, sc *scope, x surface.Constraint, expected ctype.Type) (*tenv.Env, ctype.VarID) {
	ann := c.lowerAnn(x.Type, x.Pos)
	merged := c.mergeAnnotation(env, expected, ann, x.Pos)
	return c.Check(env, sc, x.Expr, merged)
}

// mergeAnnotation combines an inherited expectation with an explicit
// constraint annotation: Unknown on either side is absorbing, tuples and
// concretes merge field-wise, anything else must already agree.
func (c *Checker) mergeAnnotation(env *tenv.Env, outer, inner ctype.Type, pos token.Position) ctype.Type {
	if outer == nil {
		return inner
	}
	if _, ok := outer.(ctype.Unknown); ok {
		return inner
	}
	if _, ok := inner.(ctype.Unknown); ok {
		return outer
	}
	if t1, ok := outer.(ctype.Tuple); ok {
		if t2, ok := inner.(ctype.Tuple); ok && len(t1.Elems) == len(t2.Elems) {
			elems := make([]ctype.Type, len(t1.Elems))
			for i := range elems {
				elems[i] = c.mergeAnnotation(env, t1.Elems[i], t2.Elems[i], pos)
			}
			return ctype.Tuple{Elems: elems}
		}
	}
	if c1, ok := outer.(ctype.Concrete); ok {
		if c2, ok := inner.(ctype.Concrete); ok && c1.Datacon == c2.Datacon && len(c1.Fields) == len(c2.Fields) {
			fields := make([]ctype.Field, len(c1.Fields))
			for i := range fields {
				fields[i] = ctype.Field{
					Name:      c1.Fields[i].Name,
					Anonymous: c1.Fields[i].Anonymous,
					Type:      c.mergeAnnotation(env, c1.Fields[i].Type, c2.Fields[i].Type, pos),
				}
			}
			return ctype.Concrete{Datacon: c1.Datacon, Fields: fields, Adopts: c1.Adopts}
		}
	}
	if !ctype.Equal(env, outer, inner) {
		c.errorf(pos, diagnostics.ErrCheckAnnotationMismatch, "conflicting type annotations: %s vs %s",
			prettyprint.Permission(outer), prettyprint.Permission(inner))
	}
	return inner
}

// bindPattern refines env's permissions for id according to pat,
// extending sc with every variable pat binds. It reports false (without
// recording an error — the caller decides whether a non-match is an
// error or, inside Match, simply a skipped branch) when pat's shape does
// not match id's current permissions.
func (c *Checker) bindPattern(env *tenv.Env, sc *scope, pat surface.Pattern, id ctype.VarID) (*tenv.Env, *scope, bool) {
	switch p := pat.(type) {
	case surface.PWild:
		return env, sc, true
	case surface.PVar:
		return env, sc.bind(p.Name, id), true
	case surface.PAs:
		env2, sc2, ok := c.bindPattern(env, sc, p.Pattern, id)
		return env2, sc2.bind(p.Name, id), ok
	case surface.PTuple:
		return c.bindTuplePattern(env, sc, p, id)
	case surface.PCon:
		return c.bindConPattern(env, sc, p, id)
	default:
		return env, sc, false
	}
}

func (c *Checker) bindTuplePattern(env *tenv.Env, sc *scope, p surface.PTuple, id ctype.VarID) (*tenv.Env, *scope, bool) {
	var tup ctype.Tuple
	found := false
	for _, perm := range env.GetPermissions(id) {
		if t, ok := perm.(ctype.Tuple); ok && len(t.Elems) == len(p.Elems) {
			tup = t
			found = true
			break
		}
	}
	if !found {
		return env, sc, false
	}
	cur := env
	curScope := sc
	ok := true
	for i, elemPat := range p.Elems {
		sing, isSing := tup.Elems[i].(ctype.Singleton)
		if !isSing {
			ok = false
			continue
		}
		o, isOpen := sing.Value.(ctype.Open)
		if !isOpen {
			ok = false
			continue
		}
		var bound bool
		cur, curScope, bound = c.bindPattern(cur, curScope, elemPat, o.Var)
		ok = ok && bound
	}
	return cur, curScope, ok
}

func (c *Checker) bindConPattern(env *tenv.Env, sc *scope, p surface.PCon, id ctype.VarID) (*tenv.Env, *scope, bool) {
	con, idx, found := findConcrete(env, id)
	if !found || con.Datacon != p.Datacon {
		return env, sc, false
	}
	unfolded, cur := tadd.Unfold(env, con)
	unfoldedCon, ok := unfolded.(ctype.Concrete)
	if !ok {
		return env, sc, false
	}
	cur = replacePermAt(cur, id, idx, unfoldedCon)

	curScope := sc
	result := true
	for _, fp := range p.Fields {
		var field *ctype.Field
		for i := range unfoldedCon.Fields {
			if unfoldedCon.Fields[i].Name == fp.Name {
				field = &unfoldedCon.Fields[i]
				break
			}
		}
		if field == nil {
			result = false
			continue
		}
		sing, isSing := field.Type.(ctype.Singleton)
		if !isSing {
			result = false
			continue
		}
		o, isOpen := sing.Value.(ctype.Open)
		if !isOpen {
			result = false
			continue
		}
		if fp.Pattern == nil {
			curScope = curScope.bind(fp.Name, o.Var)
			continue
		}
		var bound bool
		cur, curScope, bound = c.bindPattern(cur, curScope, fp.Pattern, o.Var)
		result = result && bound
	}
	return cur, curScope, result
}

// Processor runs module-level expression checking as a pipeline.Processor
// stage. It requires ctx.Env and ctx.Heads, as populated by
// translate.Processor.
type Processor struct{}

func (Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Module == nil || ctx.Env == nil {
		return ctx
	}
	c := New(ctx.Heads)
	ctx.Env = c.CheckModule(ctx.Env, ctx.Module)
	ctx.Bindings = c.TopLevelBindings()
	for _, err := range c.Errors() {
		ctx.AddError(err)
	}
	return ctx
}
