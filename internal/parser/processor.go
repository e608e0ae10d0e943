package parser

import "github.com/mezzolang/mezzo/internal/pipeline"

// Processor runs the parser as a pipeline.Processor stage, populating
// ctx.Module from ctx.Tokens and appending any syntax errors to ctx.Errors.
type Processor struct{}

func (Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	p := New(ctx.Tokens)
	ctx.Module = p.ParseModule(ctx.FilePath)
	for _, err := range p.Errors() {
		ctx.AddError(err)
	}
	return ctx
}
