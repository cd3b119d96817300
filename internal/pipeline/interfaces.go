// Package pipeline composes the lexer, parser, and compiler stages into
// a single run, mirroring the teacher's internal/pipeline package
// (PipelineContext + Processor), trimmed of the teacher's type-checking
// and module-resolution stages that don't apply to this front-end.
package pipeline

import "github.com/cstawarz/jel/internal/token"

// TokenStream is the interface the parser consumes. It lets the lexer's
// one-token-at-a-time NextToken be buffered for lookahead without the
// parser needing to know about the lexer's internal grouping-state
// bookkeeping.
type TokenStream interface {
	Next() token.Token
	Peek(n int) []token.Token
}

// Processor is one stage of the pipeline: it consumes and returns a
// Context, so stages compose by simple function application.
type Processor interface {
	Process(ctx *Context) *Context
}
