// Package parser implements the JEL/MWEL grammar described in spec.md
// §4.2: an LALR-shaped grammar realized here as recursive-descent over
// an explicit precedence cascade (or/and/not/comparison/additive/
// multiplicative/unary/exponentiation/postfix/primary), since Go has
// no PLY-equivalent parser-generator in the example pack to reach for
// and hand-rolled recursive descent is the idiomatic substitute (see
// DESIGN.md). Grounded production-for-production on
// _examples/original_source/jel/parser.py and mwel/parser.py.
package parser

import (
	"fmt"

	"github.com/cstawarz/jel/internal/ast"
	"github.com/cstawarz/jel/internal/diagnostics"
	"github.com/cstawarz/jel/internal/pipeline"
	"github.com/cstawarz/jel/internal/token"
)

// Parser holds the state of a single parse. It is not reusable across
// inputs, matching the one-shot-instance discipline spec.md §5
// describes for the compiler.
type Parser struct {
	stream pipeline.TokenStream
	sink   diagnostics.Sink
	mwel   bool

	cur  token.Token
	peek token.Token

	// failed is set once a production cannot recover locally; callers
	// (ParseModule/ParseExpr) report null per spec.md §2 ("the parser
	// may return a partial or null tree when recovery fails").
	failed bool
}

// New creates a parser over stream. mwel selects the MWEL statement
// grammar (assignments, locals, compound calls, functions); when
// false only the pure JEL expression grammar is recognized.
func New(stream pipeline.TokenStream, sink diagnostics.Sink, mwel bool) *Parser {
	p := &Parser{stream: stream, sink: sink, mwel: mwel}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.stream.Next()
}

func (p *Parser) pos() ast.Pos { return ast.Pos{Line: p.cur.Line, Column: p.cur.Column} }

func (p *Parser) errorAt(kind diagnostics.Kind, tok token.Token, format string, args ...interface{}) {
	p.failed = true
	if p.sink == nil {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	diagnostics.ReportAt(p.sink, diagnostics.PhaseParser, kind, tok, msg)
}

// expect reports a syntax error and does not advance when cur doesn't
// match kind; otherwise it consumes cur and returns it.
func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.cur.Kind != kind {
		if p.cur.Kind == token.EOF {
			p.errorAt(diagnostics.Syntax, p.cur, "Input ended unexpectedly")
		} else {
			p.errorAt(diagnostics.Syntax, p.cur, "unexpected token %q, expected %s", p.cur.Lexeme, kind)
		}
		return p.cur, false
	}
	tok := p.cur
	p.advance()
	return tok, true
}

func (p *Parser) skipNewlines() {
	for p.cur.Kind == token.NEWLINE {
		p.advance()
	}
}

// ParseExpr parses a standalone JEL expression (the pure-expression
// entry point from spec.md §6's `Parser::parse`). Returns nil if
// recovery failed.
func (p *Parser) ParseExpr() ast.Expr {
	e := p.parseExpr()
	if p.failed {
		return nil
	}
	if p.cur.Kind != token.EOF {
		p.errorAt(diagnostics.Syntax, p.cur, "unexpected trailing token %q", p.cur.Lexeme)
		return nil
	}
	return e
}

// ParseModule parses a full MWEL module: a statement list terminated by
// EOF, with optional leading/trailing newlines. Returns nil if parsing
// could not recover from a syntax error (spec.md §2).
func (p *Parser) ParseModule() *ast.Module {
	if !p.mwel {
		panic("parser: ParseModule requires New(..., mwel=true)")
	}
	start := p.pos()
	p.skipNewlines()
	stmts := p.parseStmtList(token.EOF)
	if p.failed {
		return nil
	}
	return &ast.Module{Base: ast.Base{P: start}, Statements: stmts}
}
