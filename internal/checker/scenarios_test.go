package checker

import (
	"testing"

	"golang.org/x/tools/txtar"
)

// fixtureSource pulls the "in.mz" file out of a txtar archive; each
// scenario below bundles the literal program next to a plain-English
// comment recording what the checker is expected to do with it, so the
// fixture and its expectation travel together in one block.
func fixtureSource(t *testing.T, archive []byte) string {
	t.Helper()
	ar := txtar.Parse(archive)
	for _, f := range ar.Files {
		if f.Name == "in.mz" {
			return string(f.Data)
		}
	}
	t.Fatalf("fixture is missing in.mz")
	return ""
}

// Scenario: exclusive ref. Reading a field and then overwriting it
// succeeds, two sequential overwrites succeed, but a closure that
// captures the ref and writes through it fails — checkLambda only
// hands a closure body the duplicable slice of the ambient environment,
// and an exclusive ref does not qualify.
var scenarioExclusiveRefReadThenWrite = []byte(`
-- expect: ok, no checker errors
-- in.mz --
mutable data ref(a) = Ref { contents: a }
val r: int =
  let x = Ref { contents: 0 } in
  let y = x.contents in
  let _ = x.contents <- 1 in
  y
`)

func TestScenarioExclusiveRefReadThenWrite(t *testing.T) {
	src := fixtureSource(t, scenarioExclusiveRefReadThenWrite)
	c, _ := checkModule(t, src)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected checker errors: %v", c.Errors())
	}
}

var scenarioExclusiveRefTwoWrites = []byte(`
-- expect: ok, no checker errors
-- in.mz --
mutable data ref(a) = Ref { contents: a }
val r: int =
  let x = Ref { contents: 0 } in
  let _ = x.contents <- 1 in
  let _ = x.contents <- 2 in
  0
`)

func TestScenarioExclusiveRefTwoWrites(t *testing.T) {
	src := fixtureSource(t, scenarioExclusiveRefTwoWrites)
	c, _ := checkModule(t, src)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected checker errors: %v", c.Errors())
	}
}

var scenarioExclusiveRefClosureCaptureFails = []byte(`
-- expect: fails, closure captures an exclusive permission
-- in.mz --
mutable data ref(a) = Ref { contents: a }
val r: int =
  let x = Ref { contents: 0 } in
  let f = fun(u: int): int -> let _ = x.contents <- 1 in u in
  f(0)
`)

func TestScenarioExclusiveRefClosureCaptureFails(t *testing.T) {
	src := fixtureSource(t, scenarioExclusiveRefClosureCaptureFails)
	c, _ := checkModule(t, src)
	if len(c.Errors()) == 0 {
		t.Fatalf("expected the closure to fail to write through a captured exclusive ref")
	}
}

// Scenario: adopt/take cycle. y's adopts clause is `ref(int)`; giving r
// (a ref(int)) to y consumes r's permission;
// taking r back out of y restores its ref(int) permission regardless of
// what, if anything, r still carries at that point.
var scenarioAdoptTakeCycle = []byte(`
-- expect: ok, give then take round-trips r's permission
-- in.mz --
mutable data ref(a) = Ref { contents: a }
data box = Box { } $ ref(int)
val r: int =
  let r = Ref { contents: 0 } in
  let y = Box { } in
  let _ = give r to y in
  let _ = take r from y in
  0
`)

func TestScenarioAdoptTakeCycle(t *testing.T) {
	src := fixtureSource(t, scenarioAdoptTakeCycle)
	c, _ := checkModule(t, src)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected checker errors: %v", c.Errors())
	}
}

// Scenario: merge at if. Both branches producing an int merge to a
// result still carrying int; an arm that ends in `fail` is dead and is
// left out of the merge, so the other arm's int survives.
var scenarioMergeAtIfSameType = []byte(`
-- expect: ok, both branches agree on int
-- in.mz --
val r: int = if 1 then 1 else 2
`)

func TestScenarioMergeAtIfSameType(t *testing.T) {
	src := fixtureSource(t, scenarioMergeAtIfSameType)
	c, _ := checkModule(t, src)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected checker errors: %v", c.Errors())
	}
}

var scenarioMergeAtIfDeadElseArm = []byte(`
-- expect: ok, the failing else arm is dead and the then arm's int survives the merge
-- in.mz --
val r: int = if 1 then 1 else (fail : int)
`)

func TestScenarioMergeAtIfDeadElseArm(t *testing.T) {
	src := fixtureSource(t, scenarioMergeAtIfDeadElseArm)
	c, _ := checkModule(t, src)
	if len(c.Errors()) != 0 {
		t.Fatalf("unexpected checker errors: %v", c.Errors())
	}
}
