package compiler

import "fmt"

// Op is one entry of an op-list: an operation tagged with the source
// position of the construct that produced it, plus its arguments. An
// argument that is itself an OpList is a nested sub-program — e.g. a
// MAKE_FUNCTION body, or a CALL_COMPOUND clause body — embedded
// directly rather than reached via a jump offset (spec.md §5:
// "control flow is represented by structure, not jumps").
type Op struct {
	Code   OpCode
	Line   int
	Column int
	Args   []interface{}
}

func (o Op) String() string {
	return fmt.Sprintf("(%s, %d, %d, %v)", o.Code, o.Line, o.Column, o.Args)
}

// OpList is a flat sequence of Ops, in emission order.
type OpList []Op

// emitter accumulates Ops for one OpList and supports pushing a fresh
// nested list onto a stack, mirroring the original's self.ops stack in
// JELCompiler.compile / genops.
type emitter struct {
	stack []OpList
}

func newEmitter() *emitter {
	return &emitter{stack: []OpList{{}}}
}

func (e *emitter) emit(code OpCode, line, col int, args ...interface{}) {
	top := len(e.stack) - 1
	e.stack[top] = append(e.stack[top], Op{Code: code, Line: line, Column: col, Args: args})
}

// push starts a new, empty OpList (e.g. a function body or call
// clause), to be populated by subsequent emit calls and retrieved with
// pop.
func (e *emitter) push() {
	e.stack = append(e.stack, OpList{})
}

// pop finishes the current OpList and returns it, restoring the
// previous one as the emission target.
func (e *emitter) pop() OpList {
	top := len(e.stack) - 1
	ops := e.stack[top]
	e.stack = e.stack[:top]
	return ops
}

// result returns the root OpList once compilation is finished (stack
// depth back to 1).
func (e *emitter) result() OpList {
	return e.stack[0]
}
