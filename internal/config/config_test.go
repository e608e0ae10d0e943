package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTrimSourceExt(t *testing.T) {
	if got := TrimSourceExt("foo.mz"); got != "foo" {
		t.Fatalf("TrimSourceExt(foo.mz) = %q, want foo", got)
	}
	if got := TrimSourceExt("foo.mzi"); got != "foo" {
		t.Fatalf("TrimSourceExt(foo.mzi) = %q, want foo", got)
	}
	if got := TrimSourceExt("foo.txt"); got != "foo.txt" {
		t.Fatalf("TrimSourceExt(foo.txt) = %q, want unchanged", got)
	}
}

func TestHasSourceExt(t *testing.T) {
	if !HasSourceExt("a/b/foo.mz") {
		t.Fatalf("expected foo.mz to have a source extension")
	}
	if HasSourceExt("a/b/foo.go") {
		t.Fatalf("expected foo.go to not have a source extension")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mezzo.yaml")
	src := "includeDirs:\n  - vendor\n  - lib\nnoAutoInclude: true\ndebugLevel: 2\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.IncludeDirs) != 2 || m.IncludeDirs[0] != "vendor" || m.IncludeDirs[1] != "lib" {
		t.Fatalf("unexpected IncludeDirs: %v", m.IncludeDirs)
	}
	if !m.NoAutoInclude {
		t.Fatalf("expected NoAutoInclude true")
	}
	if m.DebugLevel != 2 {
		t.Fatalf("expected DebugLevel 2, got %d", m.DebugLevel)
	}
}

func TestManifestMergePrefersFlags(t *testing.T) {
	m := &Manifest{IncludeDirs: []string{"lib"}, DebugLevel: 1}
	merged := m.Merge([]string{"override"}, true, 0, false)
	if len(merged.IncludeDirs) != 1 || merged.IncludeDirs[0] != "override" {
		t.Fatalf("expected flag include dirs to win, got %v", merged.IncludeDirs)
	}
	if !merged.NoAutoInclude {
		t.Fatalf("expected flag NoAutoInclude to win")
	}
	if merged.DebugLevel != 1 {
		t.Fatalf("expected manifest DebugLevel to survive when flag is zero, got %d", merged.DebugLevel)
	}
}

func TestManifestMergeWithNilManifest(t *testing.T) {
	var m *Manifest
	merged := m.Merge([]string{"lib"}, false, 3, true)
	if len(merged.IncludeDirs) != 1 || merged.IncludeDirs[0] != "lib" {
		t.Fatalf("unexpected IncludeDirs: %v", merged.IncludeDirs)
	}
	if merged.DebugLevel != 3 {
		t.Fatalf("expected DebugLevel 3, got %d", merged.DebugLevel)
	}
}
