package parser

import (
	"strings"

	"github.com/cstawarz/jel/internal/ast"
	"github.com/cstawarz/jel/internal/diagnostics"
	"github.com/cstawarz/jel/internal/token"
)

// parseStmtList parses statements separated by one or more NEWLINE
// tokens (spec.md §4.2 "Newlines as statement separators"), stopping
// at (without consuming) any of terminators or EOF. A trailing
// newline before the terminator is optional.
func (p *Parser) parseStmtList(terminators ...token.Kind) []ast.Stmt {
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.atAny(terminators) && p.cur.Kind != token.EOF {
		stmt := p.parseStmt()
		if p.failed {
			break
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.atAny(terminators) || p.cur.Kind == token.EOF {
			break
		}
		if p.cur.Kind != token.NEWLINE {
			p.errorAt(diagnostics.Syntax, p.cur, "expected newline after statement, got %q", p.cur.Lexeme)
			break
		}
		p.skipNewlines()
	}
	return stmts
}

func (p *Parser) atAny(kinds []token.Kind) bool {
	for _, k := range kinds {
		if p.cur.Kind == k {
			return true
		}
	}
	return false
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur.Kind {
	case token.LOCAL:
		return p.parseLocalDecl()
	case token.FUNCTION:
		return p.parseFunctionStmt(false)
	case token.RETURN:
		return p.parseReturnStmt()
	default:
		return p.parseAssignmentOrCallStmt()
	}
}

// parseLocalDecl handles both "local NAME = expr" (LocalStmt) and
// "local function NAME(...): ... end" (FunctionStmt with Local=true);
// a bare LOCAL with no following '=' is a syntax error (spec.md §4.2).
func (p *Parser) parseLocalDecl() ast.Stmt {
	p.advance() // LOCAL
	if p.cur.Kind == token.FUNCTION {
		return p.parseFunctionStmt(true)
	}
	pos := p.pos()
	nameTok, ok := p.expect(token.IDENTIFIER)
	if !ok {
		return nil
	}
	if p.cur.Kind != token.ASSIGN {
		p.errorAt(diagnostics.Syntax, p.cur, "'local' with no '=' is a syntax error")
		return nil
	}
	p.advance()
	value := p.parseExpr()
	return &ast.LocalStmt{Base: ast.Base{P: pos}, Name: nameTok.Lexeme, Value: value}
}

// parseFunctionStmt parses "function NAME(args): body end". local
// records whether a preceding 'local' keyword was already consumed by
// the caller.
func (p *Parser) parseFunctionStmt(local bool) ast.Stmt {
	pos := p.pos()
	p.advance() // FUNCTION
	nameTok, ok := p.expect(token.IDENTIFIER)
	if !ok {
		return nil
	}
	args := p.parseFunctionArgs()
	p.expect(token.COLON)
	body := p.parseStmtList(token.END)
	p.expect(token.END)
	return &ast.FunctionStmt{Base: ast.Base{P: pos}, Name: nameTok.Lexeme, Args: args, Body: body, Local: local}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	pos := p.pos()
	p.advance() // RETURN
	if p.atStmtEnd() {
		return &ast.ReturnStmt{Base: ast.Base{P: pos}}
	}
	value := p.parseExpr()
	return &ast.ReturnStmt{Base: ast.Base{P: pos}, Value: value}
}

func (p *Parser) atStmtEnd() bool {
	switch p.cur.Kind {
	case token.NEWLINE, token.EOF, token.END, token.ELSE:
		return true
	}
	return false
}

// parseAssignmentOrCallStmt covers the three statement shapes that all
// begin by parsing an ordinary expression: chained assignment,
// augmented assignment, and call statements (simple or compound).
func (p *Parser) parseAssignmentOrCallStmt() ast.Stmt {
	pos := p.pos()
	first := p.parseExpr()
	switch p.cur.Kind {
	case token.ASSIGN:
		return p.parseChainedAssignment(pos, first)
	case token.AUGASSIGN:
		return p.parseAugmentedAssignment(first)
	default:
		call, ok := first.(*ast.CallExpr)
		if !ok {
			p.errorAt(diagnostics.Syntax, p.cur, "expected an assignment or a call statement")
			return nil
		}
		return p.parseCallStmt(pos, call)
	}
}

func isAssignTarget(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IdentifierExpr, *ast.AttributeExpr, *ast.SubscriptExpr:
		return true
	}
	return false
}

// parseChainedAssignment implements spec.md §4.2's right-to-left
// chain: `a = b = c = v` builds Targets=[a,b,c] (source order) against
// one shared Value. Each loop iteration treats the previously parsed
// candidate as a target exactly when another '=' follows it.
func (p *Parser) parseChainedAssignment(pos ast.Pos, first ast.Expr) ast.Stmt {
	var targets []ast.Expr
	var targetPos []ast.Pos
	candidate := first
	for p.cur.Kind == token.ASSIGN {
		if !isAssignTarget(candidate) {
			p.errorAt(diagnostics.Structural, p.cur, "invalid assignment target")
		}
		targets = append(targets, candidate)
		targetPos = append(targetPos, p.pos())
		p.advance()
		candidate = p.parseExpr()
	}
	return &ast.ChainedAssignmentStmt{Base: ast.Base{P: pos}, Targets: targets, TargetPos: targetPos, Value: candidate}
}

func (p *Parser) parseAugmentedAssignment(target ast.Expr) ast.Stmt {
	if !isAssignTarget(target) {
		p.errorAt(diagnostics.Structural, p.cur, "invalid augmented-assignment target")
	}
	opTok := p.cur
	op := token.AugAssignOp(opTok.Lexeme)
	p.advance()
	value := p.parseExpr()
	return &ast.AugmentedAssignmentStmt{Base: ast.Base{P: target.Pos()}, Target: target, Op: op, Value: value}
}

func (p *Parser) parseCallStmt(pos ast.Pos, call *ast.CallExpr) ast.Stmt {
	if p.cur.Kind == token.RARROW || p.cur.Kind == token.COLON {
		return p.parseCompoundCallStmt(pos, call)
	}
	return &ast.SimpleCallStmt{Base: ast.Base{P: pos}, Call: call}
}

// parseOptionalLocalNames parses the "-> name, name, ..." suffix that
// introduces clause-local names, absent when no RARROW is present.
func (p *Parser) parseOptionalLocalNames() ([]string, []ast.Pos) {
	if p.cur.Kind != token.RARROW {
		return nil, nil
	}
	p.advance()
	var names []string
	var positions []ast.Pos
	for {
		namePos := p.pos()
		nameTok, ok := p.expect(token.IDENTIFIER)
		if !ok {
			break
		}
		names = append(names, nameTok.Lexeme)
		positions = append(positions, namePos)
		if p.cur.Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return names, positions
}

// parseCompoundCallStmt parses the full if/else-if/else/end form
// described in spec.md §4.2. firstCall is the already-parsed head call
// expression; its target must be a bare identifier.
func (p *Parser) parseCompoundCallStmt(pos ast.Pos, firstCall *ast.CallExpr) ast.Stmt {
	var heads []string
	var clauses []*ast.Clause

	headName, ok := firstCall.Target.(*ast.IdentifierExpr)
	if !ok {
		p.errorAt(diagnostics.Structural, p.cur, "compound call head must be a plain identifier, not a member expression")
	}
	name := ""
	if ok {
		name = headName.Name
	}
	heads = append(heads, name)

	localNames, localPos := p.parseOptionalLocalNames()
	p.expect(token.COLON)
	body := p.parseStmtList(token.ELSE, token.END)
	clauses = append(clauses, &ast.Clause{
		Base:         ast.Base{P: firstCall.Pos()},
		Args:         firstCall.Args,
		LocalNames:   localNames,
		LocalNamePos: localPos,
		Body:         body,
	})

	for p.cur.Kind == token.ELSE {
		p.advance()
		if p.cur.Kind == token.COLON {
			clausePos := p.pos()
			p.advance()
			body := p.parseStmtList(token.END)
			clauses = append(clauses, &ast.Clause{
				Base: ast.Base{P: clausePos},
				Args: ast.CallArgs{Positional: []ast.Expr{}},
				Body: body,
			})
			heads = append(heads, "")
			break
		}

		clausePos := p.pos()
		nameTok, ok := p.expect(token.IDENTIFIER)
		if !ok {
			break
		}
		if p.cur.Kind != token.LPAREN {
			p.errorAt(diagnostics.Syntax, p.cur, "expected '(' after compound-call clause head %q", nameTok.Lexeme)
			break
		}
		args := p.parseCallArgs()
		localNames, localPos := p.parseOptionalLocalNames()
		p.expect(token.COLON)
		body := p.parseStmtList(token.ELSE, token.END)
		clauses = append(clauses, &ast.Clause{
			Base:         ast.Base{P: clausePos},
			Args:         args,
			LocalNames:   localNames,
			LocalNamePos: localPos,
			Body:         body,
		})
		heads = append(heads, nameTok.Lexeme)
	}

	p.expect(token.END)
	functionName := strings.Join(heads, ":") + ":"
	return &ast.CompoundCallStmt{Base: ast.Base{P: pos}, FunctionName: functionName, Clauses: clauses}
}
