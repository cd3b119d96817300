// Package ast defines the tagged-variant expression/statement tree
// produced by the parser and consumed by the compiler, per spec.md §3.
//
// Dispatch is via Go type switches in the compiler rather than a
// Visitor interface: the original implementation resolved visitor
// methods by munging camelCase type names into snake_case method names
// at runtime (Compiler.genops -> _cc_to_us); a type switch is the
// direct idiomatic-Go replacement for that reflection trick.
package ast

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/shopspring/decimal"
)

// Pos is a source position. Every node carries one (or, for nodes that
// combine several operator positions, a parallel slice of them).
type Pos struct {
	Line   int
	Column int
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Pos
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Base supplies Pos() to every concrete node via embedding.
type Base struct {
	P Pos
}

func (b Base) Pos() Pos { return b.P }

// ---------------------------------------------------------------------
// Literals

type NumberLiteral struct {
	Base
	Value  decimal.Decimal
	Tag    string // bare identifier suffix; "" when HasTag is false
	HasTag bool
}

func (*NumberLiteral) exprNode() {}

type StringLiteral struct {
	Base
	Value string
}

func (*StringLiteral) exprNode() {}

type BooleanLiteral struct {
	Base
	Value bool
}

func (*BooleanLiteral) exprNode() {}

type NullLiteral struct {
	Base
}

func (*NullLiteral) exprNode() {}

type IdentifierExpr struct {
	Base
	Name string
}

func (*IdentifierExpr) exprNode() {}

// ArrayItemRange is a "start:stop[:step]" item inside an array literal.
// Step is nil when absent.
type ArrayItemRange struct {
	Base
	Start Expr
	Stop  Expr
	Step  Expr
}

func (*ArrayItemRange) exprNode() {}

// ArrayLiteral's items are each either an Expr or an *ArrayItemRange;
// both satisfy Node, so callers type-switch on the concrete element.
type ArrayLiteral struct {
	Base
	Items []Node
}

func (*ArrayLiteral) exprNode() {}

// ObjectLiteral preserves insertion order via an OrderedMap, matching
// spec.md's `ordered-map<string, Expr>` data model and the original
// compiler's reliance on iteration order for op emission.
type ObjectLiteral struct {
	Base
	Items *orderedmap.OrderedMap[string, Expr]
}

func (*ObjectLiteral) exprNode() {}

// ---------------------------------------------------------------------
// Operators

// UnaryOp.Op is one of "not", "+", "-".
type UnaryOp struct {
	Base
	Op      string
	Operand Expr
}

func (*UnaryOp) exprNode() {}

// BinaryOp.Op is one of "+", "-", "*", "/", "%", "**".
type BinaryOp struct {
	Base
	Op       string
	Operands [2]Expr
}

func (*BinaryOp) exprNode() {}

// OrExpr and AndExpr are flattened n-ary forms: OpPos[i] is the position
// of the operator between Operands[i] and Operands[i+1], so
// len(OpPos) == len(Operands)-1. Parenthetic blocks further flattening
// (spec.md §4.2/§4.3).
type OrExpr struct {
	Base
	Operands    []Expr
	OpPos       []Pos
	Parenthetic bool
}

func (*OrExpr) exprNode() {}

type AndExpr struct {
	Base
	Operands    []Expr
	OpPos       []Pos
	Parenthetic bool
}

func (*AndExpr) exprNode() {}

// ComparisonExpr is a chained comparison: len(Operands) == len(Ops)+1,
// and len(OpPos) == len(Ops). Each Ops[i] is one of
// "<" "<=" ">" ">=" "!=" "==" "in" "not in".
type ComparisonExpr struct {
	Base
	Ops         []string
	OpPos       []Pos
	Operands    []Expr
	Parenthetic bool
}

func (*ComparisonExpr) exprNode() {}

// ---------------------------------------------------------------------
// Calls, access

// CallArgs is either a positional list or a named (ordered) map of
// arguments, never both — spec.md §4.2: "arguments may be either all
// positional ... or all named ... Mixing ... is a syntax error."
type CallArgs struct {
	Positional []Expr
	Named      *orderedmap.OrderedMap[string, Expr]
}

func (a CallArgs) IsNamed() bool { return a.Named != nil }

type CallExpr struct {
	Base
	Target Expr
	Args   CallArgs
}

func (*CallExpr) exprNode() {}

type SubscriptExpr struct {
	Base
	Target Expr
	Value  Expr
}

func (*SubscriptExpr) exprNode() {}

type AttributeExpr struct {
	Base
	Target Expr
	Name   string
}

func (*AttributeExpr) exprNode() {}

// AttributeReferenceExpr is an l-value-capturing form introduced by the
// `<-` token as a named-argument value: `f(a <- b.c)`. Target/Name are
// the decomposed AttributeExpr(target, name) it was built from.
type AttributeReferenceExpr struct {
	Base
	Target Expr
	Name   string
}

func (*AttributeReferenceExpr) exprNode() {}

// FunctionExpr is a single-expression-bodied lambda with implicit
// return.
type FunctionExpr struct {
	Base
	Args []string
	Body Expr
}

func (*FunctionExpr) exprNode() {}

// ---------------------------------------------------------------------
// Statements (MWEL)

type Module struct {
	Base
	Statements []Stmt
}

func (*Module) stmtNode() {}

// LocalStmt introduces a fresh local in the enclosing scope.
type LocalStmt struct {
	Base
	Name  string
	Value Expr
}

func (*LocalStmt) stmtNode() {}

// ChainedAssignmentStmt has right-to-left semantics: Targets are in
// source order, Value is evaluated once. TargetPos[i] is the source
// position of the '=' following Targets[i], so len(TargetPos) ==
// len(Targets).
type ChainedAssignmentStmt struct {
	Base
	Targets []Expr // IdentifierExpr | AttributeExpr | SubscriptExpr
	TargetPos []Pos
	Value   Expr
}

func (*ChainedAssignmentStmt) stmtNode() {}

// AugmentedAssignmentStmt.Op is the bare binary operator, e.g. "+" for
// a source-level "+=" (the trailing "=" is stripped by the parser).
type AugmentedAssignmentStmt struct {
	Base
	Target Expr // IdentifierExpr | AttributeExpr | SubscriptExpr
	Op     string
	Value  Expr
}

func (*AugmentedAssignmentStmt) stmtNode() {}

// SimpleCallStmt is a bare call in statement position.
type SimpleCallStmt struct {
	Base
	Call *CallExpr
}

func (*SimpleCallStmt) stmtNode() {}

// Clause is one head/body pair of a CompoundCallStmt.
type Clause struct {
	Base
	Args               CallArgs
	LocalNames         []string
	LocalNamePos       []Pos
	Body               []Stmt
}

// CompoundCallStmt.FunctionName is the colon-joined concatenation of
// every clause head's identifier (or "" for a bare `else:`), per
// spec.md §3: always ends in ":", e.g. "if:if::".
type CompoundCallStmt struct {
	Base
	FunctionName string
	Clauses      []*Clause
}

func (*CompoundCallStmt) stmtNode() {}

// FunctionStmt.Local is true when introduced by a preceding `local`
// keyword, which makes the function's own name resolve as a closure
// inside its own body (spec.md §4.3, boundary scenario 6).
type FunctionStmt struct {
	Base
	Name  string
	Args  []string
	Body  []Stmt
	Local bool
}

func (*FunctionStmt) stmtNode() {}

type ReturnStmt struct {
	Base
	Value Expr // nil when absent
}

func (*ReturnStmt) stmtNode() {}
