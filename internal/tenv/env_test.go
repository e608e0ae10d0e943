package tenv

import (
	"testing"

	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/kind"
	"github.com/mezzolang/mezzo/internal/token"
)

func TestBindRigidIsIndependentAcrossClones(t *testing.T) {
	root := New()
	e1, x := root.BindRigid("x", kind.Term{}, token.Position{})
	e2, _ := root.BindFlexible("y", kind.Type{}, token.Position{})

	if _, ok := e2.Record(x); ok {
		t.Errorf("e2 should not see a binding made on a sibling derived from root")
	}
	if _, ok := e1.Record(x); !ok {
		t.Errorf("e1 should see its own binding")
	}
}

func TestSetPermissionsDoesNotMutateParent(t *testing.T) {
	e := New()
	e, x := e.BindRigid("x", kind.Term{}, token.Position{})
	base := e

	if perms := base.GetPermissions(x); len(perms) != 1 {
		t.Fatalf("freshly bound Term variable should hold exactly its self-witness permission, got %v", perms)
	}

	e2 := e.SetPermissions(x, []ctype.Type{ctype.Unknown{}})
	if perms := base.GetPermissions(x); len(perms) != 1 {
		t.Errorf("base env's permission list mutated: %v", perms)
	}
	if len(e2.GetPermissions(x)) != 1 {
		t.Errorf("derived env should hold the new permission")
	}
}

// TestBindRigidInstallsSelfWitness covers Invariant 1 directly: a
// Term-kinded variable is born holding Singleton(Open(self)), while a
// Type-kinded variable (no term to witness) gets no permission at all.
func TestBindRigidInstallsSelfWitness(t *testing.T) {
	e := New()
	e, x := e.BindRigid("x", kind.Term{}, token.Position{})
	perms := e.GetPermissions(x)
	if len(perms) != 1 {
		t.Fatalf("Term variable should hold exactly one permission, got %v", perms)
	}
	sing, ok := perms[0].(ctype.Singleton)
	if !ok {
		t.Fatalf("permission should be a Singleton, got %T", perms[0])
	}
	if open, ok := sing.Value.(ctype.Open); !ok || open.Var != x {
		t.Errorf("Singleton should witness self (%v), got %v", x, sing.Value)
	}

	e, ty := e.BindRigid("t", kind.Type{}, token.Position{})
	if perms := e.GetPermissions(ty); len(perms) != 0 {
		t.Errorf("Type variable should hold no permission, got %v", perms)
	}
}

// TestBindFlexibleInstallsSelfWitness mirrors the above for BindFlexible.
func TestBindFlexibleInstallsSelfWitness(t *testing.T) {
	e := New()
	e, x := e.BindFlexible("x", kind.Term{}, token.Position{})
	perms := e.GetPermissions(x)
	if len(perms) != 1 {
		t.Fatalf("Term variable should hold exactly one permission, got %v", perms)
	}
	if sing, ok := perms[0].(ctype.Singleton); !ok {
		t.Fatalf("permission should be a Singleton, got %T", perms[0])
	} else if open, ok := sing.Value.(ctype.Open); !ok || open.Var != x {
		t.Errorf("Singleton should witness self (%v), got %v", x, sing.Value)
	}
}

func TestInstantiateFlexibleChases(t *testing.T) {
	e := New()
	e, v := e.BindFlexible("a", kind.Type{}, token.Position{})

	if !e.CanInstantiate(v) {
		t.Fatalf("freshly bound flexible should be instantiable")
	}
	e2 := e.InstantiateFlexible(v, ctype.Unknown{})
	if e2.CanInstantiate(v) {
		t.Errorf("instantiated flexible should no longer be instantiable")
	}
	repr, ok := e2.Chase(v)
	if !ok {
		t.Fatalf("Chase should resolve the instantiated flexible")
	}
	if _, isUnknown := repr.(ctype.Unknown); !isUnknown {
		t.Errorf("Chase(v) = %v, want Unknown", repr)
	}
	if _, ok := e.Chase(v); ok {
		t.Errorf("original env should remain uninstantiated after a derived InstantiateFlexible")
	}
}

func TestMarkInconsistentIsLocalToDerivedEnv(t *testing.T) {
	e := New()
	if e.IsInconsistent() {
		t.Fatalf("fresh env must not start inconsistent")
	}
	e2 := e.MarkInconsistent()
	if !e2.IsInconsistent() {
		t.Errorf("derived env should be inconsistent")
	}
	if e.IsInconsistent() {
		t.Errorf("original env should remain consistent")
	}
}
