package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mezzolang/mezzo/internal/config"
)

func TestParseArgsRequiresFile(t *testing.T) {
	if _, err := ParseArgs(nil); err == nil {
		t.Fatal("expected an error with no file argument")
	}
}

func TestParseArgsCollectsIncludeDirs(t *testing.T) {
	opts, err := ParseArgs([]string{"-I", "lib", "-Ivendor", "main.mz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.IncludeDirs) != 2 || opts.IncludeDirs[0] != "lib" || opts.IncludeDirs[1] != "vendor" {
		t.Fatalf("unexpected IncludeDirs: %v", opts.IncludeDirs)
	}
	if opts.File != "main.mz" {
		t.Fatalf("unexpected File: %q", opts.File)
	}
}

func TestParseArgsFlags(t *testing.T) {
	opts, err := ParseArgs([]string{"main.mz", "--no-auto-include", "--debug", "2", "--explain-html"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.NoAutoInclude || opts.DebugLevel != 2 || !opts.ExplainHTML {
		t.Fatalf("unexpected opts: %+v", opts)
	}
}

func TestParseArgsRejectsUnknownFlag(t *testing.T) {
	if _, err := ParseArgs([]string{"--bogus", "main.mz"}); err == nil {
		t.Fatal("expected an error for an unrecognized flag")
	}
}

func TestParseArgsRejectsExtraPositional(t *testing.T) {
	if _, err := ParseArgs([]string{"a.mz", "b.mz"}); err == nil {
		t.Fatal("expected an error for a second positional argument")
	}
}

func writeTemp(t *testing.T, name, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckSucceedsOnWellTypedFile(t *testing.T) {
	path := writeTemp(t, "ok.mz", "val r: int = 1\n")
	opts := &Options{File: path, NoAutoInclude: true}
	code := Check(opts, os.Stderr)
	if code != config.ExitOK {
		t.Fatalf("expected ExitOK, got %d", code)
	}
}

func TestCheckReportsParseError(t *testing.T) {
	path := writeTemp(t, "bad.mz", "val r: int = \n")
	opts := &Options{File: path, NoAutoInclude: true}
	code := Check(opts, os.Stderr)
	if code != config.ExitParseError {
		t.Fatalf("expected ExitParseError, got %d", code)
	}
}

func TestCheckReportsTypeError(t *testing.T) {
	path := writeTemp(t, "fails.mz", "val r: int = nosuchvar\n")
	opts := &Options{File: path, NoAutoInclude: true}
	code := Check(opts, os.Stderr)
	if code != config.ExitTypeError {
		t.Fatalf("expected ExitTypeError, got %d", code)
	}
}

func TestCheckMissingFileIsFileNotFound(t *testing.T) {
	opts := &Options{File: filepath.Join(t.TempDir(), "missing.mz"), NoAutoInclude: true}
	code := Check(opts, os.Stderr)
	if code != config.ExitFileNotFound {
		t.Fatalf("expected ExitFileNotFound, got %d", code)
	}
}

func TestCheckMissingDependencyIsFatal(t *testing.T) {
	path := writeTemp(t, "needsdep.mz", "open \"nosuchmodule\"\nval r: int = 1\n")
	opts := &Options{File: path, NoAutoInclude: true}
	code := Check(opts, os.Stderr)
	if code == config.ExitOK {
		t.Fatal("expected a non-zero exit code for an unresolvable open import")
	}
}
