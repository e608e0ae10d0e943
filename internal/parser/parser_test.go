package parser

import (
	"testing"

	"github.com/mezzolang/mezzo/internal/lexer"
	"github.com/mezzolang/mezzo/internal/surface"
)

func parseModule(t *testing.T, src string) *surface.Module {
	t.Helper()
	toks := lexer.All("test.mz", src)
	p := New(toks)
	m := p.ParseModule("test")
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return m
}

func TestParseDataDeclListShape(t *testing.T) {
	src := `
data list(a) =
  | Nil
  | Cons { head: a, tail: list(a) }
`
	m := parseModule(t, src)
	if len(m.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(m.Decls))
	}
	d, ok := m.Decls[0].(*surface.DataDecl)
	if !ok {
		t.Fatalf("expected *DataDecl, got %T", m.Decls[0])
	}
	if d.Name != "list" || len(d.Params) != 1 || d.Params[0] != "a" {
		t.Fatalf("unexpected header: %+v", d)
	}
	if len(d.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(d.Branches))
	}
	if d.Branches[0].Datacon != "Nil" || len(d.Branches[0].Fields) != 0 {
		t.Fatalf("unexpected Nil branch: %+v", d.Branches[0])
	}
	cons := d.Branches[1]
	if cons.Datacon != "Cons" || len(cons.Fields) != 2 {
		t.Fatalf("unexpected Cons branch: %+v", cons)
	}
	if cons.Fields[0].Name != "head" {
		t.Fatalf("expected field 'head', got %q", cons.Fields[0].Name)
	}
	if _, ok := cons.Fields[1].Type.(surface.TApp); !ok {
		t.Fatalf("expected TApp for tail field, got %T", cons.Fields[1].Type)
	}
}

func TestParseExclusiveDataDecl(t *testing.T) {
	src := `exclusive data cell(a) = Cell { contents: a }`
	m := parseModule(t, src)
	d := m.Decls[0].(*surface.DataDecl)
	if d.Flavor != "exclusive" {
		t.Fatalf("expected exclusive flavor, got %q", d.Flavor)
	}
}

func TestParseAbstractDataDecl(t *testing.T) {
	src := `data t = abstract`
	m := parseModule(t, src)
	d := m.Decls[0].(*surface.DataDecl)
	if d.Flavor != "abstract" || d.Branches != nil {
		t.Fatalf("expected abstract decl with no branches, got %+v", d)
	}
}

func TestParseValDeclWithLambdaApp(t *testing.T) {
	src := `val id = fun(x: a): a -> x`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	lam, ok := v.Body.(surface.Lambda)
	if !ok {
		t.Fatalf("expected Lambda body, got %T", v.Body)
	}
	if lam.Param != "x" {
		t.Fatalf("unexpected param: %q", lam.Param)
	}
}

func TestParseApplicationIsLeftAssociative(t *testing.T) {
	src := `val r = f x y`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	outer, ok := v.Body.(surface.App)
	if !ok {
		t.Fatalf("expected outer App, got %T", v.Body)
	}
	inner, ok := outer.Fun.(surface.App)
	if !ok {
		t.Fatalf("expected inner App as function position, got %T", outer.Fun)
	}
	if inner.Fun.(surface.Var).Name != "f" {
		t.Fatalf("expected head var 'f', got %+v", inner.Fun)
	}
}

func TestParseLetRecAndIn(t *testing.T) {
	src := `val r = let rec x = Nil and y = x in y`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	let, ok := v.Body.(surface.Let)
	if !ok {
		t.Fatalf("expected Let, got %T", v.Body)
	}
	if !let.Rec || len(let.Bindings) != 2 {
		t.Fatalf("unexpected let: %+v", let)
	}
}

func TestParseMatchWithGuard(t *testing.T) {
	src := `
val r = match x with
  | Nil -> y
  | Cons { head: h, tail: t } if h -> t
`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	match, ok := v.Body.(surface.Match)
	if !ok {
		t.Fatalf("expected Match, got %T", v.Body)
	}
	if len(match.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(match.Arms))
	}
	if match.Arms[1].Guard == nil {
		t.Fatalf("expected guard on second arm")
	}
	pc, ok := match.Arms[1].Pattern.(surface.PCon)
	if !ok || pc.Datacon != "Cons" {
		t.Fatalf("unexpected pattern: %+v", match.Arms[1].Pattern)
	}
}

func TestParseIfThenElse(t *testing.T) {
	src := `val r = if x then y else z`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	if _, ok := v.Body.(surface.If); !ok {
		t.Fatalf("expected If, got %T", v.Body)
	}
}

func TestParseGiveTakeOwns(t *testing.T) {
	cases := map[string]string{
		"give": `val r = give x to y`,
		"take": `val r = take x from y`,
		"owns": `val r = x owns y`,
	}
	for name, src := range cases {
		m := parseModule(t, src)
		v := m.Decls[0].(*surface.ValDecl)
		switch name {
		case "give":
			if _, ok := v.Body.(surface.Give); !ok {
				t.Fatalf("expected Give, got %T", v.Body)
			}
		case "take":
			if _, ok := v.Body.(surface.Take); !ok {
				t.Fatalf("expected Take, got %T", v.Body)
			}
		case "owns":
			if _, ok := v.Body.(surface.Owns); !ok {
				t.Fatalf("expected Owns, got %T", v.Body)
			}
		}
	}
}

func TestParseFieldAccessAssignAndRetag(t *testing.T) {
	src := `val r = let _ = x.contents <- y in let _ = x.tag <- Cons in x.contents`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	outerLet := v.Body.(surface.Let)
	assign, ok := outerLet.Bindings[0].Value.(surface.Assign)
	if !ok || assign.Field != "contents" {
		t.Fatalf("expected Assign on 'contents', got %+v", outerLet.Bindings[0].Value)
	}
	innerLet := outerLet.Body.(surface.Let)
	retag, ok := innerLet.Bindings[0].Value.(surface.AssignTag)
	if !ok || retag.Datacon != "Cons" {
		t.Fatalf("expected AssignTag to Cons, got %+v", innerLet.Bindings[0].Value)
	}
	if _, ok := innerLet.Body.(surface.Access); !ok {
		t.Fatalf("expected trailing Access, got %T", innerLet.Body)
	}
}

func TestParseFunDeclDesugarsToCurriedLambda(t *testing.T) {
	src := `
fun add(x: int, y: int): int {
  x
}
`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	if !v.Rec || v.Name != "add" {
		t.Fatalf("unexpected fun decl: %+v", v)
	}
	outer, ok := v.Body.(surface.Lambda)
	if !ok || outer.Param != "x" {
		t.Fatalf("expected outer Lambda over x, got %+v", v.Body)
	}
	inner, ok := outer.Body.(surface.Lambda)
	if !ok || inner.Param != "y" {
		t.Fatalf("expected inner Lambda over y, got %+v", outer.Body)
	}
}

func TestParseForallOverConstrainedType(t *testing.T) {
	src := `val r: forall a. duplicable a and a -> a = f`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	forall, ok := v.Ann.(surface.TForall)
	if !ok || len(forall.Names) != 1 || forall.Names[0] != "a" {
		t.Fatalf("expected TForall over a, got %+v", v.Ann)
	}
	and, ok := forall.Body.(surface.TAnd)
	if !ok || len(and.Constraints) != 1 || and.Constraints[0].Exclusive {
		t.Fatalf("expected TAnd with one duplicable constraint, got %+v", forall.Body)
	}
	arrow, ok := and.Type.(surface.TArrow)
	if !ok {
		t.Fatalf("expected TArrow inside TAnd, got %T", and.Type)
	}
	if _, ok := arrow.Domain.(surface.TName); !ok {
		t.Fatalf("expected TName domain, got %T", arrow.Domain)
	}
}

func TestParseExistsAndImplyConstraint(t *testing.T) {
	src := `val r: exists a. exclusive a => a = f`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	exists, ok := v.Ann.(surface.TExists)
	if !ok || len(exists.Names) != 1 {
		t.Fatalf("expected TExists, got %+v", v.Ann)
	}
	imply, ok := exists.Body.(surface.TImply)
	if !ok || len(imply.Constraints) != 1 || !imply.Constraints[0].Exclusive {
		t.Fatalf("expected TImply with one exclusive constraint, got %+v", exists.Body)
	}
}

func TestParseSingletonAndBarType(t *testing.T) {
	src := `val r: =Nil | int = f`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	bar, ok := v.Ann.(surface.TBar)
	if !ok {
		t.Fatalf("expected TBar, got %T", v.Ann)
	}
	if _, ok := bar.Value.(surface.TSingleton); !ok {
		t.Fatalf("expected TSingleton on TBar value side, got %T", bar.Value)
	}
}

func TestParseAnchoredAndStarType(t *testing.T) {
	src := `val r: x@int * y@list(int) = f`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	star, ok := v.Ann.(surface.TStar)
	if !ok {
		t.Fatalf("expected TStar, got %T", v.Ann)
	}
	left, ok := star.Left.(surface.TAnchored)
	if !ok || left.Var != "x" {
		t.Fatalf("expected TAnchored x, got %+v", star.Left)
	}
}

func TestParseImport(t *testing.T) {
	src := `open "list" (map, filter)`
	m := parseModule(t, src)
	if len(m.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(m.Imports))
	}
	imp := m.Imports[0]
	if imp.Path != "list" || len(imp.Names) != 2 {
		t.Fatalf("unexpected import: %+v", imp)
	}
}

func TestParseConExprAndConstraintExpr(t *testing.T) {
	src := `val r = (Cons { head: x, tail: Nil } : list(a))`
	m := parseModule(t, src)
	v := m.Decls[0].(*surface.ValDecl)
	c, ok := v.Body.(surface.Constraint)
	if !ok {
		t.Fatalf("expected Constraint, got %T", v.Body)
	}
	con, ok := c.Expr.(surface.ConExpr)
	if !ok || con.Datacon != "Cons" || len(con.Fields) != 2 {
		t.Fatalf("unexpected ConExpr: %+v", c.Expr)
	}
}

func TestParseUnexpectedTokenRecordsError(t *testing.T) {
	toks := lexer.All("test.mz", `val r = `)
	p := New(toks)
	p.ParseModule("test")
	if len(p.Errors()) == 0 {
		t.Fatalf("expected a parse error on truncated input")
	}
}
