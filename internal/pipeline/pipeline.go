// Package pipeline is the ambient stage-runner threading a single
// compilation unit through lex -> parse -> kind-check -> translate ->
// check, collecting diagnostics from every stage rather than aborting at
// the first failure (a later stage may still find issues worth reporting
// even once an earlier one has).
package pipeline

import (
	"github.com/mezzolang/mezzo/internal/ctype"
	"github.com/mezzolang/mezzo/internal/diagnostics"
	"github.com/mezzolang/mezzo/internal/surface"
	"github.com/mezzolang/mezzo/internal/tenv"
	"github.com/mezzolang/mezzo/internal/token"
)

// Context carries one file's state across every pipeline stage.
type Context struct {
	FilePath   string
	SourceCode string

	Tokens []token.Token
	Module *surface.Module

	// Core is the translated core syntax: the lowered annotation of each
	// top-level ValDecl that has one, keyed by name.
	Core map[string]ctype.Type

	// Heads maps every type constructor name visible in this module
	// (builtins plus its own data declarations) to the ctype.VarID
	// package translate registered it under, for internal/checker to
	// resolve a val declaration's annotations and body.
	Heads map[string]ctype.VarID

	Env *tenv.Env

	// Bindings maps every top-level name the checker processed to the
	// variable holding its final permissions, for the interface-matching
	// stage (internal/modules) to read back from Env.
	Bindings map[string]ctype.VarID

	Errors []*diagnostics.DiagnosticError
}

// AddError appends a diagnostic without aborting the stage — matches
// package diagnostics' "collect, don't abort" design.
func (c *Context) AddError(err *diagnostics.DiagnosticError) {
	c.Errors = append(c.Errors, err)
}

// OK reports whether no stage has recorded an error yet.
func (c *Context) OK() bool { return len(c.Errors) == 0 }

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline runs a fixed sequence of stages over a Context.
type Pipeline struct {
	processors []Processor
}

// New builds a Pipeline from an ordered stage list.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage in order. Stages continue to run even after an
// earlier stage records errors, so the final Context.Errors can report
// everything wrong with a file in one pass rather than stopping at the
// first lexical or syntax error.
func (p *Pipeline) Run(initial *Context) *Context {
	ctx := initial
	for _, proc := range p.processors {
		ctx = proc.Process(ctx)
	}
	return ctx
}
