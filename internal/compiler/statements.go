package compiler

import (
	"github.com/cstawarz/jel/internal/ast"
	"github.com/cstawarz/jel/internal/diagnostics"
)

// compileStmtList installs localNames as locals of the current (already
// pushed) scope in reverse order, then compiles stmts in order — the
// shape every statement-bearing body (module, function, compound-call
// clause) shares, ported from mwel/compiler.py's compile_stmt_list.
func (c *Compiler) compileStmtList(stmts []ast.Stmt, localNames []string, pos ast.Pos) {
	c.installLocals(localNames, pos)
	for _, s := range stmts {
		c.compileStmt(s)
	}
}

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.LocalStmt:
		c.compileLocalStmt(n)
	case *ast.ChainedAssignmentStmt:
		c.compileChainedAssignmentStmt(n)
	case *ast.AugmentedAssignmentStmt:
		c.compileAugmentedAssignmentStmt(n)
	case *ast.SimpleCallStmt:
		c.compileSimpleCallStmt(n)
	case *ast.CompoundCallStmt:
		c.compileCompoundCallStmt(n)
	case *ast.FunctionStmt:
		c.compileFunctionStmt(n)
	case *ast.ReturnStmt:
		c.compileReturnStmt(n)
	default:
		p := s.Pos()
		c.errorf(diagnostics.PhaseCompiler, diagnostics.Structural, p.Line, p.Column,
			"unsupported statement node %T", s)
	}
}

func (c *Compiler) compileLocalStmt(n *ast.LocalStmt) {
	c.compileExpr(n.Value)
	p := n.Pos()
	c.newLocal(p.Line, p.Column, n.Name)
}

// compileChainedAssignmentStmt evaluates Value once and stores it into
// each target, processing targets rightmost-first (the reverse of
// Targets' source order): the rightmost target is the innermost
// assignment in `a = b = c = v` and so is stored first, duplicating
// the value for every target but the leftmost. Matches spec.md §8
// boundary scenario 5.
func (c *Compiler) compileChainedAssignmentStmt(n *ast.ChainedAssignmentStmt) {
	c.compileExpr(n.Value)
	last := len(n.Targets) - 1
	for i := last; i >= 0; i-- {
		t := n.Targets[i]
		pos := n.TargetPos[i]
		if i > 0 {
			c.emit(DUP_TOP, pos.Line, pos.Column)
		}
		switch target := t.(type) {
		case *ast.SubscriptExpr:
			c.compileExpr(target.Target)
			c.compileExpr(target.Value)
			c.emit(STORE_SUBSCR, pos.Line, pos.Column)
		case *ast.AttributeExpr:
			c.compileExpr(target.Target)
			c.emit(STORE_ATTR, pos.Line, pos.Column, target.Name)
		case *ast.IdentifierExpr:
			c.storeName(pos.Line, pos.Column, target.Name)
		}
	}
}

func (c *Compiler) compileAugmentedAssignmentStmt(n *ast.AugmentedAssignmentStmt) {
	p := n.Pos()
	switch target := n.Target.(type) {
	case *ast.SubscriptExpr:
		c.compileExpr(target.Target)
		c.compileExpr(target.Value)
		c.emit(DUP_TOP_TWO, p.Line, p.Column)
		tp := target.Pos()
		c.emit(LOAD_SUBSCR, tp.Line, tp.Column)
	case *ast.AttributeExpr:
		c.compileExpr(target.Target)
		c.emit(DUP_TOP, p.Line, p.Column)
		tp := target.Pos()
		c.emit(LOAD_ATTR, tp.Line, tp.Column, target.Name)
	default:
		c.compileExpr(n.Target)
	}

	c.compileExpr(n.Value)
	c.emit(BINARY_OP, p.Line, p.Column, binaryOpCodes[n.Op])

	switch target := n.Target.(type) {
	case *ast.SubscriptExpr:
		c.emit(ROT_THREE, p.Line, p.Column)
		c.emit(STORE_SUBSCR, p.Line, p.Column)
	case *ast.AttributeExpr:
		c.emit(ROT_TWO, p.Line, p.Column)
		c.emit(STORE_ATTR, p.Line, p.Column, target.Name)
	default:
		id := n.Target.(*ast.IdentifierExpr)
		c.storeName(p.Line, p.Column, id.Name)
	}
}

func (c *Compiler) compileSimpleCallStmt(n *ast.SimpleCallStmt) {
	p := n.Pos()
	c.compileExpr(n.Call.Target)
	c.emit(CALL_SIMPLE, p.Line, p.Column, c.compileArgList(n.Call.Args))
}

// CompoundClause is one compiled clause of a CALL_COMPOUND op: its
// argument list, the count of clause-local names to install before the
// body runs, and the body's own nested op-list.
type CompoundClause struct {
	Args      interface{}
	NumLocals int
	Body      OpList
}

func (c *Compiler) compileCompoundCallStmt(n *ast.CompoundCallStmt) {
	p := n.Pos()
	clauses := make([]CompoundClause, len(n.Clauses))
	for i, cl := range n.Clauses {
		argList := c.compileArgList(cl.Args)
		body := c.compileNested(func() {
			c.scopes.pushScope()
			c.compileStmtList(cl.Body, cl.LocalNames, cl.Pos())
			c.scopes.popScope()
		})
		clauses[i] = CompoundClause{Args: argList, NumLocals: len(cl.LocalNames), Body: body}
	}
	c.emit(CALL_COMPOUND, p.Line, p.Column, n.FunctionName, clauses)
}

// compileFunctionStmt binds a function as a name in the enclosing
// scope. When Local, the name is pre-declared as a local (initialized
// to null) before the body is compiled, so a recursive call inside the
// body resolves as a closure capture of that local rather than a
// global lookup (spec.md §4.3, boundary scenario 6).
func (c *Compiler) compileFunctionStmt(n *ast.FunctionStmt) {
	p := n.Pos()
	if n.Local {
		c.emit(LOAD_CONST, p.Line, p.Column, nil)
		c.newLocal(p.Line, p.Column, n.Name)
	}

	var closure *closureFrame
	body := c.compileNested(func() {
		c.scopes.pushScope()
		closure = c.scopes.pushClosure()
		c.compileStmtList(n.Body, n.Args, p)
		c.scopes.popClosure()
		c.scopes.popScope()
	})

	c.emit(MAKE_FUNCTION, p.Line, p.Column, len(n.Args), body, closureTuple(closure))
	c.storeName(p.Line, p.Column, n.Name)
}

func (c *Compiler) compileReturnStmt(n *ast.ReturnStmt) {
	p := n.Pos()
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		c.emit(LOAD_CONST, p.Line, p.Column, nil)
	}
	c.emit(RETURN_VALUE, p.Line, p.Column)
}
