package compiler

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/cstawarz/jel/internal/ast"
	"github.com/cstawarz/jel/internal/diagnostics"
)

// Compiler lowers a parsed AST into an op-list. A single instance
// compiles exactly one AST root (spec.md §5: "not re-entrant"); build a
// fresh one per compilation.
type Compiler struct {
	mwel    bool
	sink    diagnostics.Sink
	emitter *emitter
	scopes  *scopeStack // non-nil only in MWEL mode
}

// NewJEL returns a compiler for a bare JEL expression: no assignment,
// no locals, no closures — identifiers resolve only via LOAD_NAME.
func NewJEL(sink diagnostics.Sink) *Compiler {
	return &Compiler{sink: sink, emitter: newEmitter()}
}

// NewMWEL returns a compiler for a full MWEL module, with the
// scope/closure resolution machinery active.
func NewMWEL(sink diagnostics.Sink) *Compiler {
	return &Compiler{mwel: true, sink: sink, emitter: newEmitter(), scopes: newScopeStack()}
}

func (c *Compiler) emit(code OpCode, line, col int, args ...interface{}) {
	c.emitter.emit(code, line, col, args...)
}

func (c *Compiler) errorf(phase diagnostics.Phase, kind diagnostics.Kind, line, col int, format string, args ...interface{}) {
	if c.sink == nil {
		return
	}
	c.sink.Report(diagnostics.Diagnostic{
		Phase:   phase,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  col,
	})
}

// compileNested runs fn inside a freshly pushed op-list and returns the
// completed list — the mechanism behind every nested sub-program
// spec.md §4.3 calls for (call arguments, short-circuit operands,
// comparison operands, function/clause bodies).
func (c *Compiler) compileNested(fn func()) OpList {
	c.emitter.push()
	fn()
	return c.emitter.pop()
}

func (c *Compiler) compileExprNested(e ast.Expr) OpList {
	return c.compileNested(func() { c.compileExpr(e) })
}

// CompileExpr compiles a standalone JEL expression and returns its
// op-list. Valid in both JEL and MWEL compilers; they differ only in
// identifier loads: a JEL compiler emits LOAD_NAME, while an MWEL
// compiler resolves the name through its scopes (LOAD_GLOBAL when no
// scope declares it).
func (c *Compiler) CompileExpr(e ast.Expr) OpList {
	c.compileExpr(e)
	return c.emitter.result()
}

// CompileModule compiles an MWEL module. Panics if called on a
// compiler built with NewJEL.
func (c *Compiler) CompileModule(m *ast.Module) OpList {
	if !c.mwel {
		panic("compiler: CompileModule requires NewMWEL")
	}
	c.scopes.pushScope()
	defer c.scopes.popScope()
	c.compileStmtList(m.Statements, nil, m.Pos())
	return c.emitter.result()
}

// compileExpr dispatches on the AST expression variant via an explicit
// type switch — the idiomatic-Go replacement for the original's
// camelCase-to-snake_case reflective method dispatch (spec.md §4.3's
// "Visitor dispatch" note).
func (c *Compiler) compileExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.NumberLiteral:
		c.compileNumberLiteral(n)
	case *ast.StringLiteral:
		p := n.Pos()
		c.emit(LOAD_CONST, p.Line, p.Column, n.Value)
	case *ast.BooleanLiteral:
		p := n.Pos()
		c.emit(LOAD_CONST, p.Line, p.Column, n.Value)
	case *ast.NullLiteral:
		p := n.Pos()
		c.emit(LOAD_CONST, p.Line, p.Column, nil)
	case *ast.IdentifierExpr:
		p := n.Pos()
		if c.mwel {
			c.loadName(p.Line, p.Column, n.Name)
		} else {
			c.emit(LOAD_NAME, p.Line, p.Column, n.Name)
		}
	case *ast.ArrayLiteral:
		c.compileArrayLiteral(n)
	case *ast.ObjectLiteral:
		c.compileObjectLiteral(n)
	case *ast.UnaryOp:
		p := n.Pos()
		c.compileExpr(n.Operand)
		c.emit(UNARY_OP, p.Line, p.Column, unaryOpCodes[n.Op])
	case *ast.BinaryOp:
		p := n.Pos()
		c.compileExpr(n.Operands[0])
		c.compileExpr(n.Operands[1])
		c.emit(BINARY_OP, p.Line, p.Column, binaryOpCodes[n.Op])
	case *ast.OrExpr:
		c.compileLogical(LOGICAL_OR, n.Pos(), n.Operands)
	case *ast.AndExpr:
		c.compileLogical(LOGICAL_AND, n.Pos(), n.Operands)
	case *ast.ComparisonExpr:
		c.compileComparison(n)
	case *ast.CallExpr:
		c.compileCallExpr(n)
	case *ast.SubscriptExpr:
		p := n.Pos()
		c.compileExpr(n.Target)
		c.compileExpr(n.Value)
		c.emit(LOAD_SUBSCR, p.Line, p.Column)
	case *ast.AttributeExpr:
		p := n.Pos()
		c.compileExpr(n.Target)
		c.emit(LOAD_ATTR, p.Line, p.Column, n.Name)
	case *ast.AttributeReferenceExpr:
		p := n.Pos()
		c.compileExpr(n.Target)
		c.emit(LOAD_ATTR_REF, p.Line, p.Column, n.Name)
	case *ast.FunctionExpr:
		c.compileFunctionExpr(n)
	default:
		c.errorf(diagnostics.PhaseCompiler, diagnostics.Structural, e.Pos().Line, e.Pos().Column,
			"unsupported expression node %T", e)
	}
}

func (c *Compiler) compileNumberLiteral(n *ast.NumberLiteral) {
	p := n.Pos()
	value, _ := n.Value.Float64()
	c.emit(LOAD_CONST, p.Line, p.Column, value)
	if n.HasTag {
		c.emit(APPLY_TAG, p.Line, p.Column, n.Tag)
	}
}

func (c *Compiler) compileLogical(code OpCode, p ast.Pos, operands []ast.Expr) {
	lists := make([]OpList, len(operands))
	for i, o := range operands {
		lists[i] = c.compileExprNested(o)
	}
	c.emit(code, p.Line, p.Column, lists)
}

func (c *Compiler) compileComparison(n *ast.ComparisonExpr) {
	p := n.Pos()
	codes := make([]int, len(n.Ops))
	for i, op := range n.Ops {
		codes[i] = comparisonOpCodes[op]
	}
	lists := make([]OpList, len(n.Operands))
	for i, o := range n.Operands {
		lists[i] = c.compileExprNested(o)
	}
	c.emit(COMPARE_OP, p.Line, p.Column, codes, lists)
}

func (c *Compiler) compileCallExpr(n *ast.CallExpr) {
	p := n.Pos()
	c.compileExpr(n.Target)
	c.emit(CALL_FUNCTION, p.Line, p.Column, c.compileArgList(n.Args))
}

// compileArgList compiles a CallArgs into either a positional slice of
// op-lists or an ordered name->op-list map, matching
// mwel/compiler.py's compile_arg_list override.
func (c *Compiler) compileArgList(args ast.CallArgs) interface{} {
	if args.IsNamed() {
		result := orderedmap.New[string, OpList]()
		for pair := args.Named.Oldest(); pair != nil; pair = pair.Next() {
			result.Set(pair.Key, c.compileExprNested(pair.Value))
		}
		return result
	}
	lists := make([]OpList, len(args.Positional))
	for i, a := range args.Positional {
		lists[i] = c.compileExprNested(a)
	}
	return lists
}

func (c *Compiler) compileArrayLiteral(n *ast.ArrayLiteral) {
	p := n.Pos()
	for _, item := range n.Items {
		switch it := item.(type) {
		case *ast.ArrayItemRange:
			c.compileArrayItemRange(it)
		case ast.Expr:
			c.compileExpr(it)
		}
	}
	c.emit(BUILD_ARRAY, p.Line, p.Column, len(n.Items))
}

// compileArrayItemRange has no dedicated opcode in spec.md's opcode
// set; it lowers to an object literal with "start"/"stop"/"step" keys
// built from the existing BUILD_OBJECT op, which the runtime is
// expected to recognize positionally when building the containing
// array (see DESIGN.md's Open Question decision).
func (c *Compiler) compileArrayItemRange(n *ast.ArrayItemRange) {
	p := n.Pos()
	c.emit(LOAD_CONST, p.Line, p.Column, "start")
	c.compileExpr(n.Start)
	c.emit(LOAD_CONST, p.Line, p.Column, "stop")
	c.compileExpr(n.Stop)
	count := 2
	if n.Step != nil {
		c.emit(LOAD_CONST, p.Line, p.Column, "step")
		c.compileExpr(n.Step)
		count = 3
	}
	c.emit(BUILD_OBJECT, p.Line, p.Column, count)
}

func (c *Compiler) compileObjectLiteral(n *ast.ObjectLiteral) {
	p := n.Pos()
	count := 0
	for pair := n.Items.Oldest(); pair != nil; pair = pair.Next() {
		c.emit(LOAD_CONST, p.Line, p.Column, pair.Key)
		c.compileExpr(pair.Value)
		count++
	}
	c.emit(BUILD_OBJECT, p.Line, p.Column, count)
}

func (c *Compiler) compileFunctionExpr(n *ast.FunctionExpr) {
	p := n.Pos()
	var closure *closureFrame
	body := c.compileNested(func() {
		c.scopes.pushScope()
		closure = c.scopes.pushClosure()
		c.installLocals(n.Args, p)
		c.compileExpr(n.Body)
		bp := n.Body.Pos()
		c.emit(RETURN_VALUE, bp.Line, bp.Column)
		c.scopes.popClosure()
		c.scopes.popScope()
	})
	c.emit(MAKE_FUNCTION, p.Line, p.Column, len(n.Args), body, closureTuple(closure))
}

// installLocals binds names as locals of the current (innermost) scope
// in reverse order, matching compile_stmt_list's
// "for n in reversed(local_names): self._new_local(...)" — used both
// for function/clause parameters and for compound-call clause locals.
func (c *Compiler) installLocals(names []string, pos ast.Pos) {
	for i := len(names) - 1; i >= 0; i-- {
		c.newLocal(pos.Line, pos.Column, names[i])
	}
}

// ClosurePair is one (name, relative_depth) entry of a compiled
// function's closure tuple, in the order names were first captured.
type ClosurePair struct {
	Name          string
	RelativeDepth int
}

func closureTuple(cf *closureFrame) []ClosurePair {
	var pairs []ClosurePair
	for p := cf.names.Oldest(); p != nil; p = p.Next() {
		pairs = append(pairs, ClosurePair{Name: p.Key, RelativeDepth: p.Value})
	}
	return pairs
}
