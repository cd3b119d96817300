package parser

import (
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/cstawarz/jel/internal/ast"
	"github.com/cstawarz/jel/internal/diagnostics"
	"github.com/cstawarz/jel/internal/lexer"
	"github.com/cstawarz/jel/internal/token"
)

// parseExpr is the grammar's `expr` production: the entry point into
// the precedence cascade, starting at `or` (spec.md §4.2 precedence
// table, lowest to highest).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	pos := p.pos()
	left := p.parseAnd()
	if p.cur.Kind != token.OR {
		return left
	}
	operands := []ast.Expr{left}
	var opPos []ast.Pos
	for p.cur.Kind == token.OR {
		opPos = append(opPos, p.pos())
		p.advance()
		operands = append(operands, p.parseAnd())
	}
	return &ast.OrExpr{Base: ast.Base{P: pos}, Operands: operands, OpPos: opPos}
}

func (p *Parser) parseAnd() ast.Expr {
	pos := p.pos()
	left := p.parseNot()
	if p.cur.Kind != token.AND {
		return left
	}
	operands := []ast.Expr{left}
	var opPos []ast.Pos
	for p.cur.Kind == token.AND {
		opPos = append(opPos, p.pos())
		p.advance()
		operands = append(operands, p.parseNot())
	}
	return &ast.AndExpr{Base: ast.Base{P: pos}, Operands: operands, OpPos: opPos}
}

func (p *Parser) parseNot() ast.Expr {
	if p.cur.Kind == token.NOT && p.peek.Kind != token.IN {
		pos := p.pos()
		p.advance()
		operand := p.parseNot()
		return &ast.UnaryOp{Base: ast.Base{P: pos}, Op: "not", Operand: operand}
	}
	return p.parseComparison()
}

// comparisonOp recognizes a single comparison operator, including the
// two-token "not in" form, without consuming anything on failure.
func (p *Parser) comparisonOp() (string, ast.Pos, bool) {
	pos := p.pos()
	switch p.cur.Kind {
	case token.LESSTHAN:
		p.advance()
		return "<", pos, true
	case token.LESSTHANOREQUAL:
		p.advance()
		return "<=", pos, true
	case token.GREATERTHAN:
		p.advance()
		return ">", pos, true
	case token.GREATERTHANOREQUAL:
		p.advance()
		return ">=", pos, true
	case token.NOTEQUAL:
		p.advance()
		return "!=", pos, true
	case token.EQUAL:
		p.advance()
		return "==", pos, true
	case token.IN:
		p.advance()
		return "in", pos, true
	case token.NOT:
		if p.peek.Kind == token.IN {
			p.advance()
			p.advance()
			return "not in", pos, true
		}
	}
	return "", pos, false
}

// parseComparison implements spec.md §4.2's chained comparisons: a
// ComparisonExpr accumulates every `op additive_expr` pair in one
// left-to-right pass, so len(Operands) == len(Ops)+1 holds by
// construction rather than by a later flattening step. A parenthesized
// comparison used as the first operand is never re-entered here (it
// was already reduced to a single, Parenthetic-marked node by
// parsePrimary), which is exactly what keeps "(a<b) != (c>d)" from
// merging into one chain.
func (p *Parser) parseComparison() ast.Expr {
	pos := p.pos()
	left := p.parseAdditive()
	op, opPos, ok := p.comparisonOp()
	if !ok {
		return left
	}
	ops := []string{op}
	opPositions := []ast.Pos{opPos}
	operands := []ast.Expr{left, p.parseAdditive()}
	for {
		op, opPos, ok := p.comparisonOp()
		if !ok {
			break
		}
		ops = append(ops, op)
		opPositions = append(opPositions, opPos)
		operands = append(operands, p.parseAdditive())
	}
	return &ast.ComparisonExpr{Base: ast.Base{P: pos}, Ops: ops, OpPos: opPositions, Operands: operands}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur.Kind == token.PLUS || p.cur.Kind == token.MINUS {
		pos := p.pos()
		op := "+"
		if p.cur.Kind == token.MINUS {
			op = "-"
		}
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryOp{Base: ast.Base{P: pos}, Op: op, Operands: [2]ast.Expr{left, right}}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.cur.Kind == token.TIMES || p.cur.Kind == token.DIVIDE || p.cur.Kind == token.MODULO {
		pos := p.pos()
		var op string
		switch p.cur.Kind {
		case token.TIMES:
			op = "*"
		case token.DIVIDE:
			op = "/"
		case token.MODULO:
			op = "%"
		}
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryOp{Base: ast.Base{P: pos}, Op: op, Operands: [2]ast.Expr{left, right}}
	}
	return left
}

// parseUnary and parseExponentiation are mutually structured so that
// `-2**2` parses as `-(2**2)` (unary sits below exponentiation in the
// cascade) while `2**-1` parses as `2**(-1)` (exponentiation's RHS is
// itself a unary_expr, not a full exponentiation_expr) — spec.md §4.2.
func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Kind == token.PLUS || p.cur.Kind == token.MINUS {
		pos := p.pos()
		op := "+"
		if p.cur.Kind == token.MINUS {
			op = "-"
		}
		p.advance()
		return &ast.UnaryOp{Base: ast.Base{P: pos}, Op: op, Operand: p.parseUnary()}
	}
	return p.parseExponentiation()
}

func (p *Parser) parseExponentiation() ast.Expr {
	pos := p.pos()
	base := p.parsePostfix()
	if p.cur.Kind != token.POWER {
		return base
	}
	p.advance()
	rhs := p.parseUnary()
	return &ast.BinaryOp{Base: ast.Base{P: pos}, Op: "**", Operands: [2]ast.Expr{base, rhs}}
}

// parsePostfix handles the interleaved left-associative chain of
// calls, subscripts, and attribute accesses.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case token.LPAREN:
			pos := p.pos()
			args := p.parseCallArgs()
			expr = &ast.CallExpr{Base: ast.Base{P: pos}, Target: expr, Args: args}
		case token.LBRACKET:
			pos := p.pos()
			p.advance()
			value := p.parseExpr()
			p.expect(token.RBRACKET)
			expr = &ast.SubscriptExpr{Base: ast.Base{P: pos}, Target: expr, Value: value}
		case token.DOT:
			pos := p.pos()
			p.advance()
			name, ok := p.expect(token.IDENTIFIER)
			if !ok {
				return expr
			}
			expr = &ast.AttributeExpr{Base: ast.Base{P: pos}, Target: expr, Name: name.Lexeme}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.cur.Kind {
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		markParenthetic(inner)
		return inner
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseObjectLiteral()
	case token.STRING:
		return p.parseStringLiteral()
	case token.NUMBER:
		return p.parseNumberLiteral()
	case token.TRUE:
		p.advance()
		return &ast.BooleanLiteral{Base: ast.Base{P: pos}, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BooleanLiteral{Base: ast.Base{P: pos}, Value: false}
	case token.NULL:
		p.advance()
		return &ast.NullLiteral{Base: ast.Base{P: pos}}
	case token.IDENTIFIER:
		name := p.cur.Lexeme
		p.advance()
		return &ast.IdentifierExpr{Base: ast.Base{P: pos}, Name: name}
	case token.FUNCTION:
		if p.mwel {
			return p.parseFunctionExpr()
		}
	}
	if p.cur.Kind == token.EOF {
		p.errorAt(diagnostics.Syntax, p.cur, "Input ended unexpectedly")
	} else {
		p.errorAt(diagnostics.Syntax, p.cur, "unexpected token %q", p.cur.Lexeme)
	}
	p.advance()
	return &ast.NullLiteral{Base: ast.Base{P: pos}}
}

// markParenthetic sets the sticky flag that blocks further
// comparison/logical flattening once a node has been wrapped in
// parentheses (spec.md §4.2 "Parenthetic marking").
func markParenthetic(e ast.Expr) {
	switch n := e.(type) {
	case *ast.ComparisonExpr:
		n.Parenthetic = true
	case *ast.OrExpr:
		n.Parenthetic = true
	case *ast.AndExpr:
		n.Parenthetic = true
	}
}

func (p *Parser) parseStringLiteral() ast.Expr {
	pos := p.pos()
	value := p.cur.String
	p.advance()
	for p.cur.Kind == token.STRING {
		value += p.cur.String
		p.advance()
	}
	return &ast.StringLiteral{Base: ast.Base{P: pos}, Value: value}
}

func (p *Parser) parseNumberLiteral() ast.Expr {
	pos := p.pos()
	payload := p.cur.Number
	text := lexer.ParseNumberText(payload)
	value, err := decimal.NewFromString(text)
	if err != nil {
		p.errorAt(diagnostics.Lexical, p.cur, "invalid number literal %q", p.cur.Lexeme)
		value = decimal.Zero
	}
	tag := payload.Tag
	p.advance()
	return &ast.NumberLiteral{Base: ast.Base{P: pos}, Value: value, Tag: tag, HasTag: tag != ""}
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	pos := p.pos()
	p.advance() // '['
	var items []ast.Node
	for p.cur.Kind != token.RBRACKET && p.cur.Kind != token.EOF {
		items = append(items, p.parseArrayItem())
		if p.cur.Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACKET)
	return &ast.ArrayLiteral{Base: ast.Base{P: pos}, Items: items}
}

// parseArrayItem recognizes the "expr : expr [: expr]" range form
// interleaved with plain items (spec.md §4.2 "Array ranges").
func (p *Parser) parseArrayItem() ast.Node {
	pos := p.pos()
	start := p.parseExpr()
	if p.cur.Kind != token.COLON {
		return start
	}
	p.advance()
	stop := p.parseExpr()
	var step ast.Expr
	if p.cur.Kind == token.COLON {
		p.advance()
		step = p.parseExpr()
	}
	return &ast.ArrayItemRange{Base: ast.Base{P: pos}, Start: start, Stop: stop, Step: step}
}

// parseObjectLiteral recognizes "{ key: expr, ... }" where key is a
// STRING or IDENTIFIER (jel/parser.py's dict_key production). Duplicate
// keys are reported per spec.md §7 (a StructuralError).
func (p *Parser) parseObjectLiteral() ast.Expr {
	pos := p.pos()
	p.advance() // '{'
	items := orderedmap.New[string, ast.Expr]()
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		keyTok := p.cur
		var key string
		switch p.cur.Kind {
		case token.STRING:
			key = p.cur.String
			p.advance()
		case token.IDENTIFIER:
			key = p.cur.Lexeme
			p.advance()
		default:
			p.errorAt(diagnostics.Syntax, p.cur, "expected object key, got %q", p.cur.Lexeme)
			p.advance()
			continue
		}
		p.expect(token.COLON)
		value := p.parseExpr()
		if _, exists := items.Get(key); exists {
			p.errorAt(diagnostics.Structural, keyTok, "duplicate object key %q", key)
		}
		items.Set(key, value)
		if p.cur.Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	return &ast.ObjectLiteral{Base: ast.Base{P: pos}, Items: items}
}

// parseCallArgs parses the "(...)" argument list following a
// postfix-call target. Arguments are either all positional or all
// named (spec.md §4.2); mixing is a syntax error.
func (p *Parser) parseCallArgs() ast.CallArgs {
	p.advance() // '('
	if p.cur.Kind == token.RPAREN {
		p.advance()
		return ast.CallArgs{Positional: []ast.Expr{}}
	}

	named := p.cur.Kind == token.IDENTIFIER && (p.peek.Kind == token.ASSIGN || (p.mwel && p.peek.Kind == token.LARROW))

	if named {
		args := orderedmap.New[string, ast.Expr]()
		for p.cur.Kind != token.RPAREN && p.cur.Kind != token.EOF {
			if p.cur.Kind != token.IDENTIFIER {
				p.errorAt(diagnostics.Structural, p.cur, "mixing positional and named call arguments")
				break
			}
			name := p.cur.Lexeme
			p.advance()
			var value ast.Expr
			if p.mwel && p.cur.Kind == token.LARROW {
				arrowPos := p.pos()
				p.advance()
				target := p.parseExpr()
				attr, ok := target.(*ast.AttributeExpr)
				if !ok {
					p.errorAt(diagnostics.Structural, p.cur, "'<-' argument value must be an attribute expression")
					value = target
				} else {
					value = &ast.AttributeReferenceExpr{Base: ast.Base{P: arrowPos}, Target: attr.Target, Name: attr.Name}
				}
			} else {
				p.expect(token.ASSIGN)
				value = p.parseExpr()
			}
			args.Set(name, value)
			if p.cur.Kind == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
		return ast.CallArgs{Named: args}
	}

	var positional []ast.Expr
	for p.cur.Kind != token.RPAREN && p.cur.Kind != token.EOF {
		positional = append(positional, p.parseExpr())
		if p.cur.Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return ast.CallArgs{Positional: positional}
}

// parseFunctionExpr parses "function (args) expr end" — a
// single-expression-bodied lambda with implicit return.
func (p *Parser) parseFunctionExpr() ast.Expr {
	pos := p.pos()
	p.advance() // FUNCTION
	args := p.parseFunctionArgs()
	body := p.parseExpr()
	p.expect(token.END)
	return &ast.FunctionExpr{Base: ast.Base{P: pos}, Args: args, Body: body}
}

func (p *Parser) parseFunctionArgs() []string {
	p.expect(token.LPAREN)
	var names []string
	for p.cur.Kind != token.RPAREN && p.cur.Kind != token.EOF {
		name, ok := p.expect(token.IDENTIFIER)
		if !ok {
			break
		}
		names = append(names, name.Lexeme)
		if p.cur.Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return names
}

