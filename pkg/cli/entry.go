// Package cli implements the `mezzo` command's single subcommand:
// `mezzo check <file>`. It parses flags, merges them with an optional
// `mezzo.yaml` manifest, runs the lex/parse/kind/translate/check pipeline
// over the given file, resolves its module dependencies and (if one
// exists) the interface it implements, and reports diagnostics with the
// §6 exit-code taxonomy.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/mezzolang/mezzo/internal/checker"
	"github.com/mezzolang/mezzo/internal/config"
	"github.com/mezzolang/mezzo/internal/diagnostics"
	"github.com/mezzolang/mezzo/internal/kindcheck"
	"github.com/mezzolang/mezzo/internal/lexer"
	"github.com/mezzolang/mezzo/internal/modules"
	"github.com/mezzolang/mezzo/internal/parser"
	"github.com/mezzolang/mezzo/internal/pipeline"
	"github.com/mezzolang/mezzo/internal/translate"
)

// Options is the parsed form of `mezzo check`'s command line, before any
// mezzo.yaml manifest named by --config is merged in.
type Options struct {
	File          string
	IncludeDirs   []string
	NoAutoInclude bool
	DebugLevel    int
	ExplainHTML   bool
	ConfigPath    string
}

// ParseArgs parses `check <file> [-I dir]... [--no-auto-include]
// [--debug N] [--explain-html] [--config mezzo.yaml]` from argv, not
// including the "check" word itself or argv[0].
func ParseArgs(args []string) (*Options, error) {
	opts := &Options{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-I":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("-I requires a directory argument")
			}
			opts.IncludeDirs = append(opts.IncludeDirs, args[i+1])
			i++
		case strings.HasPrefix(arg, "-I") && arg != "-I":
			opts.IncludeDirs = append(opts.IncludeDirs, strings.TrimPrefix(arg, "-I"))
		case arg == "--no-auto-include":
			opts.NoAutoInclude = true
		case arg == "--debug":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--debug requires a numeric level")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return nil, fmt.Errorf("--debug: %w", err)
			}
			opts.DebugLevel = n
			i++
		case arg == "--explain-html":
			opts.ExplainHTML = true
		case arg == "--config":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--config requires a path")
			}
			opts.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown flag %q", arg)
		default:
			if opts.File != "" {
				return nil, fmt.Errorf("unexpected extra argument %q", arg)
			}
			opts.File = arg
		}
	}
	if opts.File == "" {
		return nil, fmt.Errorf("usage: mezzo check <file> [-I dir]... [--no-auto-include] [--debug N] [--explain-html] [--config mezzo.yaml]")
	}
	return opts, nil
}

// resolve merges o with the optional manifest named by o.ConfigPath,
// flags winning over manifest values (§6).
func (o *Options) resolve() (config.Manifest, error) {
	var manifest *config.Manifest
	if o.ConfigPath != "" {
		m, err := config.LoadManifest(o.ConfigPath)
		if err != nil {
			return config.Manifest{}, fmt.Errorf("reading %s: %w", o.ConfigPath, err)
		}
		manifest = m
	}
	return manifest.Merge(o.IncludeDirs, o.NoAutoInclude, o.DebugLevel, o.ExplainHTML), nil
}

// Check runs `mezzo check` for opts, writing diagnostics to stderr, and
// returns the process exit code.
func Check(opts *Options, stderr *os.File) int {
	merged, err := opts.resolve()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return config.ExitFileNotFound
	}

	src, err := os.ReadFile(opts.File)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return config.ExitFileNotFound
	}

	absPath, err := filepath.Abs(opts.File)
	if err != nil {
		absPath = opts.File
	}

	ctx := &pipeline.Context{FilePath: absPath, SourceCode: string(src)}
	run := pipeline.New(
		lexer.Processor{},
		parser.Processor{},
		kindcheck.Processor{},
		translate.Processor{},
		checker.Processor{},
	)
	ctx = run.Run(ctx)

	loader := modules.NewLoader(merged.IncludeDirs...)
	loader.AutoInclude = !merged.NoAutoInclude

	if ctx.Module != nil {
		for _, dep := range modules.Dependencies(ctx.Module, loader.AutoInclude) {
			_, errs := loader.LoadTransitive(dep)
			for _, e := range errs {
				ctx.AddError(e)
			}
		}
	}

	// If an interface file with this module's name sits on the include
	// path, the implementation must satisfy it — but its absence is not
	// itself an error: not every .mz file implements a published
	// interface.
	if ctx.OK() {
		moduleName := config.TrimSourceExt(filepath.Base(opts.File))
		if _, err := loader.Resolve(moduleName); err == nil {
			iface, ifErrs := loader.LoadInterface(moduleName)
			for _, e := range ifErrs {
				ctx.AddError(e)
			}
			if iface != nil {
				_, checkErrs := modules.CheckInterface(ctx.Env, ctx.Heads, ctx.Bindings, iface)
				for _, e := range checkErrs {
					ctx.AddError(e)
				}
			}
		}
	}

	if len(ctx.Errors) == 0 {
		return config.ExitOK
	}

	color := wantColor(merged, stderr)
	for _, e := range ctx.Errors {
		printDiagnostic(stderr, e, color)
	}
	return exitCodeFor(ctx.Errors)
}

// exitCodeFor picks the most fundamental failure class among errs: a
// lexical failure pre-empts a parse failure, which pre-empts a kind
// failure, which pre-empts everything else (checker and module errors,
// both reported as type errors — an unsatisfied interface is, at bottom,
// a failed sub_type check).
func exitCodeFor(errs []*diagnostics.DiagnosticError) int {
	var sawInvalidCodepoint, sawLex, sawParse, sawKind bool
	for _, e := range errs {
		switch e.Code {
		case diagnostics.ErrLexInvalidCodepoint:
			sawInvalidCodepoint = true
		case diagnostics.ErrLexUnterminatedString:
			sawLex = true
		case diagnostics.ErrParseUnexpectedToken, diagnostics.ErrParseExpectedExpr,
			diagnostics.ErrParseExpectedType, diagnostics.ErrParseExpectedPattern:
			sawParse = true
		case diagnostics.ErrKindMismatch, diagnostics.ErrKindUnknownName:
			sawKind = true
		}
	}
	switch {
	case sawInvalidCodepoint:
		return config.ExitInvalidCodepoint
	case sawLex:
		return config.ExitLexError
	case sawParse:
		return config.ExitParseError
	case sawKind:
		return config.ExitKindError
	default:
		return config.ExitTypeError
	}
}

// wantColor reports whether diagnostics should carry ANSI color: not
// under NO_COLOR (https://no-color.org/), not when --explain-html asked
// for plain-text-friendly output, and only when stderr is a real
// terminal.
func wantColor(m config.Manifest, stderr *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if m.ExplainHTML {
		return false
	}
	return isatty.IsTerminal(stderr.Fd()) || isatty.IsCygwinTerminal(stderr.Fd())
}

func printDiagnostic(w *os.File, e *diagnostics.DiagnosticError, color bool) {
	line := e.Render()
	if color {
		line = ansiFg(31, line)
	}
	fmt.Fprintln(w, line)
}

func ansiFg(code int, s string) string {
	return fmt.Sprintf("\033[%dm%s\033[39m", code, s)
}
