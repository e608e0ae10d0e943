package facts_test

import (
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/mezzolang/mezzo/internal/facts"
	"github.com/mezzolang/mezzo/internal/lexer"
	"github.com/mezzolang/mezzo/internal/parser"
	"github.com/mezzolang/mezzo/internal/translate"
)

// scenarioDupList bundles the "duplicable list" fixture in one readable
// block: the literal source declaring both datatypes, and the two facts
// the inference pass is expected to derive for them.
var scenarioDupList = []byte(`
-- source declares list conditionally duplicable on its parameter, and
-- ref unconditionally exclusive regardless of what it is instantiated
-- with.
-- expect: list=duplicable-if(a) ref=exclusive
-- file that follows is the Mezzo source fed to the lexer/parser/translate
-- pipeline.
-- source.mz --
data list(a) =
  | Nil
  | Cons { head: a, tail: list(a) }

mutable data ref(a) = Ref { contents: a }
`)

func TestScenarioDuplicableList(t *testing.T) {
	ar := txtar.Parse(scenarioDupList)
	var src string
	for _, f := range ar.Files {
		if f.Name == "source.mz" {
			src = string(f.Data)
		}
	}
	if src == "" {
		t.Fatalf("fixture is missing source.mz")
	}

	toks := lexer.All("scenario.mz", src)
	p := parser.New(toks)
	m := p.ParseModule("scenario")
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}

	env, heads, errs := translate.Module(translate.Prelude(), m)
	if len(errs) != 0 {
		t.Fatalf("unexpected translate errors: %v", errs)
	}

	listFact, ok := env.Fact(heads["list"])
	if !ok {
		t.Fatalf("expected a registered fact for list")
	}
	if !listFact.Equal(facts.Duplicable(1)) {
		t.Errorf("list fact = %s, want duplicable-if(a)", listFact)
	}

	refFact, ok := env.Fact(heads["ref"])
	if !ok {
		t.Fatalf("expected a registered fact for ref")
	}
	if !refFact.Equal(facts.Exclusive()) {
		t.Errorf("ref fact = %s, want exclusive", refFact)
	}
}
