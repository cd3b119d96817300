package pipeline

// Pipeline is a fixed sequence of Processors, mirroring the teacher's
// internal/pipeline.Pipeline: stages compose by simple function
// application over a shared Context.
type Pipeline struct {
	stages []Processor
}

// New builds a Pipeline from its stages in run order.
func New(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in order, threading ctx through each. A
// stage that reports a diagnostic does not stop the pipeline by
// itself (spec.md §2: "Errors flow sideways ... but does not abort");
// callers inspect ctx.Diagnostics / ctx.OK() once Run returns. Run
// itself always calls every stage; each stage checks ctx (the compiler
// stage skips when ctx.OK() is false or its root is nil), so a failed
// parse does not panic the compiler stage on a nil root.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, stage := range p.stages {
		ctx = stage.Process(ctx)
	}
	return ctx
}
