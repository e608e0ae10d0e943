// Package modules implements the external module story of §6: dependency
// discovery from a parsed implementation, resolution of `<name>.mzi`
// interface files across an ordered include path, and interface
// compatibility checking (kind/arity agreement plus sub_type of the
// implementation's final permission against the declared one).
package modules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/diagnostics"
	"github.com/mezzolang/mezzo/internal/lexer"
	"github.com/mezzolang/mezzo/internal/parser"
	"github.com/mezzolang/mezzo/internal/surface"
	"github.com/mezzolang/mezzo/internal/tenv"
	"github.com/mezzolang/mezzo/internal/token"
	"github.com/mezzolang/mezzo/internal/translate"
	"github.com/mezzolang/mezzo/internal/tsub"
)

// AutoIncluded names the two built-in modules every implementation
// depends on unless `--no-auto-include` disables it.
var AutoIncluded = []string{"core", "pervasives"}

// Dependencies returns the module names m's implementation depends on:
// the path of every `open` import, plus (unless autoInclude is false) the
// two auto-included built-ins, each listed at most once and never m's own
// name.
func Dependencies(m *surface.Module, autoInclude bool) []string {
	seen := map[string]bool{m.Name: true}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	if autoInclude {
		for _, n := range AutoIncluded {
			add(n)
		}
	}
	for _, imp := range m.Imports {
		add(imp.Path)
	}
	return out
}

// Interface is a parsed `.mzi` file: the exported declarations a
// dependent module may rely on.
type Interface struct {
	Name   string
	Path   string
	Module *surface.Module
}

// Exports lists every name the interface declares.
func (i *Interface) Exports() []string {
	var names []string
	for _, d := range i.Module.Decls {
		switch x := d.(type) {
		case *surface.ValDecl:
			names = append(names, x.Name)
		case *surface.DataDecl:
			names = append(names, x.Name)
		}
	}
	return names
}

// Loader resolves module names to interface files across an ordered
// include path and caches every interface it parses for the lifetime of
// one invocation (§6: "an optional cache of parsed interfaces lives in
// memory for the lifetime of one invocation, keyed by module name").
// Processing tracks modules currently being loaded, so a cycle among
// `open` references is caught rather than recursing forever — the same
// role the teacher's Loader.Processing set plays during package loading.
type Loader struct {
	IncludeDirs []string
	AutoInclude bool

	cache      map[string]*Interface
	processing map[string]bool
}

// NewLoader builds a Loader over an ordered include path.
func NewLoader(includeDirs ...string) *Loader {
	return &Loader{
		IncludeDirs: includeDirs,
		AutoInclude: true,
		cache:       make(map[string]*Interface),
		processing:  make(map[string]bool),
	}
}

// Resolve finds `<name>.mzi` in the first include directory that has it
// (§6: "left-to-right; first hit wins"). Absence is fatal.
func (l *Loader) Resolve(name string) (string, error) {
	for _, dir := range l.IncludeDirs {
		candidate := filepath.Join(dir, name+".mzi")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("module %q: no %s.mzi found in include path %v", name, name, l.IncludeDirs)
}

// LoadInterface resolves and parses name's interface file, serving it
// from cache on repeat requests within this invocation.
func (l *Loader) LoadInterface(name string) (*Interface, []*diagnostics.DiagnosticError) {
	if iface, ok := l.cache[name]; ok {
		return iface, nil
	}
	path, err := l.Resolve(name)
	if err != nil {
		return nil, []*diagnostics.DiagnosticError{
			diagnostics.New(diagnostics.ErrModuleMissingExport, token.Position{}, "%s", err),
		}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, []*diagnostics.DiagnosticError{
			diagnostics.New(diagnostics.ErrModuleMissingExport, token.Position{}, "reading %s: %v", path, err),
		}
	}
	toks := lexer.All(path, string(src))
	p := parser.New(toks)
	m := p.ParseInterface(name)
	iface := &Interface{Name: name, Path: path, Module: m}
	if len(p.Errors()) == 0 {
		l.cache[name] = iface
	}
	return iface, p.Errors()
}

// LoadTransitive resolves name and every interface it (recursively)
// `open`s, returning every interface reached keyed by module name. A
// cycle among interface imports is reported as ErrModuleCycle rather
// than recursing forever.
func (l *Loader) LoadTransitive(name string) (map[string]*Interface, []*diagnostics.DiagnosticError) {
	result := make(map[string]*Interface)
	var errs []*diagnostics.DiagnosticError
	var visit func(string)
	visit = func(n string) {
		if _, done := result[n]; done {
			return
		}
		if l.processing[n] {
			errs = append(errs, diagnostics.New(diagnostics.ErrModuleCycle, token.Position{},
				"module %q participates in a cycle of open references", n))
			return
		}
		l.processing[n] = true
		defer delete(l.processing, n)

		iface, ifErrs := l.LoadInterface(n)
		errs = append(errs, ifErrs...)
		if iface == nil {
			return
		}
		for _, dep := range Dependencies(iface.Module, l.AutoInclude) {
			visit(dep)
		}
		result[n] = iface
	}
	visit(name)
	return result, errs
}

// CheckInterface verifies that a checked implementation satisfies iface:
// every exported val's final permission must sub_type the interface's
// declared type, and every exported data type must agree in arity with
// its interface declaration. heads and bindings come from the same
// translate/checker run that produced env (package translate's Heads,
// package checker's TopLevelBindings).
//
// Branch-level structural comparison for transparent (non-abstract) data
// exports is not attempted: translate's branch lowering closes over a
// private per-declaration parameter scope (see translate.lowerBranch),
// so re-lowering an interface's branches outside that call would not
// resolve the branch's own type parameters. An abstract or transparent
// data export is therefore accepted once its arity matches; this mirrors
// the richer fact-checking the design notes already flag as a planned
// extension rather than something this checker relies on today.
func CheckInterface(env *tenv.Env, heads translate.Heads, bindings map[string]ctype.VarID, iface *Interface) (*tenv.Env, []*diagnostics.DiagnosticError) {
	var errs []*diagnostics.DiagnosticError
	cur := env
	for _, d := range iface.Module.Decls {
		switch x := d.(type) {
		case *surface.ValDecl:
			n, e := checkValExport(cur, heads, bindings, x)
			errs = append(errs, e...)
			if e == nil {
				cur = n
			}
		case *surface.DataDecl:
			errs = append(errs, checkDataExport(cur, heads, x)...)
		}
	}
	return cur, errs
}

func checkValExport(env *tenv.Env, heads translate.Heads, bindings map[string]ctype.VarID, vd *surface.ValDecl) (*tenv.Env, []*diagnostics.DiagnosticError) {
	id, found := bindings[vd.Name]
	if !found {
		return env, []*diagnostics.DiagnosticError{
			diagnostics.New(diagnostics.ErrModuleMissingExport, vd.Pos,
				"interface requires %q but the implementation does not export it", vd.Name),
		}
	}
	declared, errs := translate.Type(heads, vd.Ann)
	if declared == nil {
		return env, errs
	}
	n, ok := tsub.Sub(env, id, declared)
	if !ok {
		errs = append(errs, diagnostics.New(diagnostics.ErrModuleInterfaceBroken, vd.Pos,
			"%q does not satisfy its declared interface type", vd.Name))
		return env, errs
	}
	return n, errs
}

func checkDataExport(env *tenv.Env, heads translate.Heads, dd *surface.DataDecl) []*diagnostics.DiagnosticError {
	head, found := heads[dd.Name]
	if !found {
		return []*diagnostics.DiagnosticError{
			diagnostics.New(diagnostics.ErrModuleMissingExport, dd.Pos,
				"interface requires data type %q but the implementation does not define it", dd.Name),
		}
	}
	def, found := env.DataDef(head)
	if !found {
		return []*diagnostics.DiagnosticError{
			diagnostics.New(diagnostics.ErrModuleMissingExport, dd.Pos,
				"interface requires data type %q but no definition was registered for it", dd.Name),
		}
	}
	if len(def.Params) != len(dd.Params) {
		return []*diagnostics.DiagnosticError{
			diagnostics.New(diagnostics.ErrKindMismatch, dd.Pos,
				"%q: interface declares %d parameter(s), implementation has %d",
				dd.Name, len(dd.Params), len(def.Params)),
		}
	}
	return nil
}
