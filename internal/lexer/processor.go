package lexer

import "github.com/mezzolang/mezzo/internal/pipeline"

// Processor runs the lexer as a pipeline.Processor stage, populating
// ctx.Tokens from ctx.SourceCode.
type Processor struct{}

func (Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	ctx.Tokens = All(ctx.FilePath, ctx.SourceCode)
	return ctx
}
