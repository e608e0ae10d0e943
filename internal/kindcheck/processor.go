package kindcheck

import "github.com/mezzolang/mezzo/internal/pipeline"

// Processor runs kind-checking as a pipeline.Processor stage over the
// module the parser produced.
type Processor struct{}

func (Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Module == nil {
		return ctx
	}
	c := New(ctx.Module)
	c.Check(ctx.Module)
	for _, err := range c.Errors() {
		ctx.AddError(err)
	}
	return ctx
}
