package compiler

import "github.com/cstawarz/jel/internal/pipeline"

// Processor is the compiler stage of the pipeline: it consumes
// ctx.ExprRoot or ctx.ModuleRoot (depending on ctx.MWEL) and populates
// ctx.Ops with the resulting OpList. It is a no-op when an earlier
// stage already reported an error.
type Processor struct{}

func (cp *Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	if !ctx.OK() {
		return ctx
	}
	if ctx.MWEL {
		if ctx.ModuleRoot == nil {
			return ctx
		}
		c := NewMWEL(ctx.Diagnostics)
		ctx.Ops = c.CompileModule(ctx.ModuleRoot)
		return ctx
	}
	if ctx.ExprRoot == nil {
		return ctx
	}
	c := NewJEL(ctx.Diagnostics)
	ctx.Ops = c.CompileExpr(ctx.ExprRoot)
	return ctx
}
