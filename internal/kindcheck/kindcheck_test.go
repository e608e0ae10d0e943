package kindcheck

import (
	"testing"

	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/lexer"
	"github.com/mezzolang/mezzo/internal/parser"
	"github.com/mezzolang/mezzo/internal/surface"
)

func parseModule(t *testing.T, src string) *surface.Module {
	t.Helper()
	toks := lexer.All("test.mz", src)
	p := parser.New(toks)
	m := p.ParseModule("test")
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return m
}

func TestCheckListDataDeclIsWellKinded(t *testing.T) {
	m := parseModule(t, `
data list(a) =
  | Nil
  | Cons { head: a, tail: list(a) }
`)
	c := New(m)
	c.Check(m)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected kind errors: %v", c.Errors())
	}
	k, ok := c.Scope().HeadKind("list")
	if !ok {
		t.Fatalf("expected 'list' to be declared in scope")
	}
	if n, _ := kind.Arity(k); n != 1 {
		t.Fatalf("expected arity 1, got %d", n)
	}
}

func TestCheckRejectsWrongArity(t *testing.T) {
	m := parseModule(t, `
data list(a) =
  | Nil
  | Cons { head: a, tail: list(a, a) }
`)
	c := New(m)
	c.Check(m)
	if len(c.Errors()) == 0 {
		t.Fatalf("expected a kind error for wrong arity")
	}
}

func TestCheckRejectsUnknownTypeName(t *testing.T) {
	m := parseModule(t, `val r: nosuchtype = f`)
	c := New(m)
	c.Check(m)
	if len(c.Errors()) == 0 {
		t.Fatalf("expected a kind error for unknown type")
	}
}

func TestCheckRejectsPermissionInFieldPosition(t *testing.T) {
	m := parseModule(t, `data cell(a) = Cell { contents: x@int }`)
	c := New(m)
	c.Check(m)
	if len(c.Errors()) == 0 {
		t.Fatalf("expected a kind error: a permission cannot be a named field's value type")
	}
}

func TestCheckAcceptsAnonymousPermissionField(t *testing.T) {
	m := parseModule(t, `data cell(a) = Cell { x@int }`)
	c := New(m)
	c.Check(m)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected kind errors: %v", c.Errors())
	}
}

func TestCheckAcceptsForallAndConstraintAnnotation(t *testing.T) {
	m := parseModule(t, `val r: forall a. duplicable a and a -> a = f`)
	c := New(m)
	c.Check(m)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected kind errors: %v", c.Errors())
	}
}

func TestCheckAbstractDataDeclHasNoBranchesToCheck(t *testing.T) {
	m := parseModule(t, `data t = abstract`)
	c := New(m)
	c.Check(m)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected kind errors: %v", c.Errors())
	}
}
