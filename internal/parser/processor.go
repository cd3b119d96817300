package parser

import "github.com/cstawarz/jel/internal/pipeline"

// Processor is the parser stage of the pipeline: it consumes
// ctx.TokenStream and populates ctx.ExprRoot or ctx.ModuleRoot
// depending on ctx.MWEL.
type Processor struct{}

func (pp *Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	p := New(ctx.TokenStream, ctx.Diagnostics, ctx.MWEL)
	if ctx.MWEL {
		ctx.ModuleRoot = p.ParseModule()
	} else {
		ctx.ExprRoot = p.ParseExpr()
	}
	return ctx
}
