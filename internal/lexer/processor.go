package lexer

import (
	"github.com/cstawarz/jel/internal/pipeline"
	"github.com/cstawarz/jel/internal/token"
)

// bufferedStream adapts a Lexer's one-token-at-a-time NextToken into
// pipeline.TokenStream, giving the parser the lookahead it needs (a
// single COLON/RARROW/ASSIGN check past the current token) without
// exposing the lexer's grouping-state stack. Grounded on the teacher's
// internal/lexer bufferedLexer, trimmed of its now-unused trim-on-large-
// lookahead bookkeeping (this grammar never looks further than two
// tokens ahead).
type bufferedStream struct {
	l      *Lexer
	buffer []token.Token
}

// NewTokenStream wraps l as a pipeline.TokenStream.
func NewTokenStream(l *Lexer) pipeline.TokenStream {
	return &bufferedStream{l: l}
}

func (bs *bufferedStream) fill(n int) {
	for len(bs.buffer) <= n {
		tok := bs.l.NextToken()
		bs.buffer = append(bs.buffer, tok)
		if tok.Kind == token.EOF {
			return
		}
	}
}

// Next returns and consumes the next token.
func (bs *bufferedStream) Next() token.Token {
	bs.fill(0)
	tok := bs.buffer[0]
	if len(bs.buffer) > 1 {
		bs.buffer = bs.buffer[1:]
	} else if tok.Kind != token.EOF {
		bs.buffer = bs.buffer[:0]
	}
	return tok
}

// Peek returns up to n tokens starting at the current position without
// consuming them. Peek(0) returns the token Next() would return.
func (bs *bufferedStream) Peek(n int) []token.Token {
	bs.fill(n)
	end := n + 1
	if end > len(bs.buffer) {
		end = len(bs.buffer)
	}
	return bs.buffer[:end]
}

var _ pipeline.TokenStream = (*bufferedStream)(nil)

// Processor is the lexer stage of the pipeline: it wraps a fresh Lexer
// over ctx.SourceCode and stores the resulting TokenStream for the
// parser stage to consume.
type Processor struct{}

func (lp *Processor) Process(ctx *pipeline.Context) *pipeline.Context {
	l := New(ctx.SourceCode, ctx.MWEL, ctx.Diagnostics)
	ctx.TokenStream = NewTokenStream(l)
	return ctx
}
