package compiler

import (
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/cstawarz/jel/internal/diagnostics"
	"github.com/cstawarz/jel/internal/lexer"
	"github.com/cstawarz/jel/internal/parser"
)

func compileExprSrc(t *testing.T, src string) (OpList, *diagnostics.Collector) {
	t.Helper()
	sink := diagnostics.NewCollector()
	l := lexer.New(src, false, sink)
	p := parser.New(lexer.NewTokenStream(l), sink, false)
	e := p.ParseExpr()
	if sink.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, sink.Diagnostics)
	}
	c := NewJEL(sink)
	return c.CompileExpr(e), sink
}

func compileModuleSrc(t *testing.T, src string) (OpList, *diagnostics.Collector) {
	t.Helper()
	sink := diagnostics.NewCollector()
	l := lexer.New(src, true, sink)
	p := parser.New(lexer.NewTokenStream(l), sink, true)
	m := p.ParseModule()
	if sink.HasErrors() {
		t.Fatalf("parse errors for %q: %v", src, sink.Diagnostics)
	}
	c := NewMWEL(sink)
	return c.CompileModule(m), sink
}

func requireNoCompileErrors(t *testing.T, sink *diagnostics.Collector) {
	t.Helper()
	if sink.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", sink.Diagnostics)
	}
}

// findMakeFunction returns the first MAKE_FUNCTION op in ops. A `local
// function` statement emits its pre-declaration (LOAD_CONST null;
// INIT_LOCAL) ahead of MAKE_FUNCTION, so callers must search rather
// than assume index 0.
func findMakeFunction(t *testing.T, ops OpList) Op {
	t.Helper()
	for _, op := range ops {
		if op.Code == MAKE_FUNCTION {
			return op
		}
	}
	t.Fatalf("no MAKE_FUNCTION op found in %v", ops)
	return Op{}
}

func TestCompileSimpleNumberLiteral(t *testing.T) {
	// Boundary scenario 1 from spec.md §8.
	ops, sink := compileExprSrc(t, "123")
	requireNoCompileErrors(t, sink)
	if len(ops) != 1 {
		t.Fatalf("expected 1 op, got %d: %v", len(ops), ops)
	}
	if ops[0].Code != LOAD_CONST {
		t.Fatalf("expected LOAD_CONST, got %s", ops[0].Code)
	}
	if ops[0].Line != 1 || ops[0].Column != 0 {
		t.Errorf("expected position (1,0), got (%d,%d)", ops[0].Line, ops[0].Column)
	}
	v, ok := ops[0].Args[0].(float64)
	if !ok || v != 123.0 {
		t.Errorf("expected const 123.0, got %v", ops[0].Args[0])
	}
}

func TestCompileTaggedNumberLiteral(t *testing.T) {
	// Boundary scenario 2: LOAD_CONST then a separate APPLY_TAG.
	ops, sink := compileExprSrc(t, "1.23E-4ms")
	requireNoCompileErrors(t, sink)
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %d: %v", len(ops), ops)
	}
	if ops[0].Code != LOAD_CONST {
		t.Errorf("op 0: expected LOAD_CONST, got %s", ops[0].Code)
	}
	if ops[1].Code != APPLY_TAG {
		t.Errorf("op 1: expected APPLY_TAG, got %s", ops[1].Code)
	}
	if ops[1].Args[0] != "ms" {
		t.Errorf("expected tag arg 'ms', got %v", ops[1].Args[0])
	}
}

func TestCompileUntaggedNumberEmitsNoApplyTag(t *testing.T) {
	ops, sink := compileExprSrc(t, "42")
	requireNoCompileErrors(t, sink)
	for _, op := range ops {
		if op.Code == APPLY_TAG {
			t.Fatal("did not expect APPLY_TAG for an untagged number literal")
		}
	}
}

func TestCompileChainedComparisonSingleOp(t *testing.T) {
	// Boundary scenario 3: a single COMPARE_OP with nested operand op-lists.
	ops, sink := compileExprSrc(t, "a < b <= c")
	requireNoCompileErrors(t, sink)
	if len(ops) != 1 || ops[0].Code != COMPARE_OP {
		t.Fatalf("expected a single COMPARE_OP, got %v", ops)
	}
	codes, ok := ops[0].Args[0].([]int)
	if !ok || len(codes) != 2 {
		t.Fatalf("expected 2 comparison codes, got %v", ops[0].Args[0])
	}
	if codes[0] != comparisonOpCodes["<"] || codes[1] != comparisonOpCodes["<="] {
		t.Errorf("got codes %v, want [%d %d]", codes, comparisonOpCodes["<"], comparisonOpCodes["<="])
	}
	lists, ok := ops[0].Args[1].([]OpList)
	if !ok || len(lists) != 3 {
		t.Fatalf("expected 3 operand op-lists, got %v", ops[0].Args[1])
	}
	for i, list := range lists {
		if len(list) != 1 || list[0].Code != LOAD_NAME {
			t.Errorf("operand %d: expected a single LOAD_NAME, got %v", i, list)
		}
	}
}

func TestCompileArithmeticOpOrder(t *testing.T) {
	ops, sink := compileExprSrc(t, "1 + 2")
	requireNoCompileErrors(t, sink)
	if len(ops) != 3 {
		t.Fatalf("expected 3 ops, got %v", ops)
	}
	if ops[0].Code != LOAD_CONST || ops[1].Code != LOAD_CONST || ops[2].Code != BINARY_OP {
		t.Errorf("got %v, %v, %v", ops[0].Code, ops[1].Code, ops[2].Code)
	}
	if ops[2].Args[0] != binaryOpCodes["+"] {
		t.Errorf("expected binary op code for '+', got %v", ops[2].Args[0])
	}
}

func TestCompileLogicalOrNesting(t *testing.T) {
	ops, sink := compileExprSrc(t, "a or b or c")
	requireNoCompileErrors(t, sink)
	if len(ops) != 1 || ops[0].Code != LOGICAL_OR {
		t.Fatalf("expected a single LOGICAL_OR, got %v", ops)
	}
	lists, ok := ops[0].Args[0].([]OpList)
	if !ok || len(lists) != 3 {
		t.Fatalf("expected 3 nested operand lists, got %v", ops[0].Args[0])
	}
}

func TestCompileAttributeReference(t *testing.T) {
	// Boundary scenario 8.
	sink := diagnostics.NewCollector()
	l := lexer.New("foo(a <- b.c)", true, sink)
	p := parser.New(lexer.NewTokenStream(l), sink, true)
	e := p.ParseExpr()
	if sink.HasErrors() {
		t.Fatalf("parse errors: %v", sink.Diagnostics)
	}
	c := NewMWEL(sink)
	ops := c.CompileExpr(e)
	requireNoCompileErrors(t, sink)
	if len(ops) != 2 || ops[0].Code != LOAD_GLOBAL || ops[0].Args[0] != "foo" || ops[1].Code != CALL_FUNCTION {
		t.Fatalf("expected [LOAD_GLOBAL foo; CALL_FUNCTION], got %v", ops)
	}
	named, ok := ops[1].Args[0].(*orderedmap.OrderedMap[string, OpList])
	if !ok {
		t.Fatalf("expected named op-list map, got %T", ops[1].Args[0])
	}
	argOps, present := named.Get("a")
	if !present {
		t.Fatalf("expected a named argument 'a'")
	}
	if len(argOps) != 2 || argOps[0].Code != LOAD_GLOBAL || argOps[1].Code != LOAD_ATTR_REF {
		t.Errorf("expected [LOAD_GLOBAL b; LOAD_ATTR_REF c], got %v", argOps)
	}
}

func TestChainedAssignmentLowering(t *testing.T) {
	// Boundary scenario 5 from spec.md §8.
	ops, sink := compileModuleSrc(t, "a[b] = c.d = e = null\n")
	requireNoCompileErrors(t, sink)
	var codes []OpCode
	for _, op := range ops {
		codes = append(codes, op.Code)
	}
	want := []OpCode{
		LOAD_CONST, DUP_TOP, STORE_GLOBAL,
		DUP_TOP, LOAD_GLOBAL, STORE_ATTR,
		LOAD_GLOBAL, LOAD_GLOBAL, STORE_SUBSCR,
	}
	if len(codes) != len(want) {
		t.Fatalf("got %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("op %d: got %s, want %s (full: %v)", i, codes[i], want[i], codes)
		}
	}
}

func TestAugmentedAssignmentIdentifier(t *testing.T) {
	ops, sink := compileModuleSrc(t, "x += 1\n")
	requireNoCompileErrors(t, sink)
	var codes []OpCode
	for _, op := range ops {
		codes = append(codes, op.Code)
	}
	want := []OpCode{LOAD_GLOBAL, LOAD_CONST, BINARY_OP, STORE_GLOBAL}
	if len(codes) != len(want) {
		t.Fatalf("got %v, want %v", codes, want)
	}
}

func TestAugmentedAssignmentSubscript(t *testing.T) {
	ops, sink := compileModuleSrc(t, "t[i] += 1\n")
	requireNoCompileErrors(t, sink)
	var codes []OpCode
	for _, op := range ops {
		codes = append(codes, op.Code)
	}
	want := []OpCode{
		LOAD_GLOBAL, LOAD_GLOBAL, DUP_TOP_TWO, LOAD_SUBSCR,
		LOAD_CONST, BINARY_OP, ROT_THREE, STORE_SUBSCR,
	}
	if len(codes) != len(want) {
		t.Fatalf("got %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("op %d: got %s, want %s (full: %v)", i, codes[i], want[i], codes)
		}
	}
}

func TestReturnStmtWithoutValue(t *testing.T) {
	ops, sink := compileModuleSrc(t, "local function f(): return end\n")
	requireNoCompileErrors(t, sink)
	mf := findMakeFunction(t, ops)
	body := mf.Args[1].(OpList)
	if len(body) != 2 || body[0].Code != LOAD_CONST || body[1].Code != RETURN_VALUE {
		t.Errorf("expected LOAD_CONST(null); RETURN_VALUE body, got %v", body)
	}
}

func TestLocalFunctionSelfReferenceIsClosure(t *testing.T) {
	// Boundary scenario 6: recursive self-reference resolves via
	// LOAD_CLOSURE, and the closure tuple contains ("foo", 0).
	ops, sink := compileModuleSrc(t, "local function foo(): return foo end\n")
	requireNoCompileErrors(t, sink)
	mf := findMakeFunction(t, ops)
	body := mf.Args[1].(OpList)
	var found bool
	for _, op := range body {
		if op.Code == LOAD_CLOSURE && op.Args[0] == "foo" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a LOAD_CLOSURE(foo) inside the function body, got %v", body)
	}
	closure := mf.Args[2].([]ClosurePair)
	if len(closure) != 1 || closure[0].Name != "foo" || closure[0].RelativeDepth != 0 {
		t.Errorf("expected closure tuple [(foo, 0)], got %v", closure)
	}
}

func TestMultiFrameClosureCaptureRecordsIntermediateFrame(t *testing.T) {
	// Boundary scenario 7: an intermediate function that never itself
	// references x must still record x in its own closure tuple.
	src := "local function outer():\n" +
		"  local x = 1\n" +
		"  local function middle():\n" +
		"    local function inner():\n" +
		"      return x\n" +
		"    end\n" +
		"    return inner\n" +
		"  end\n" +
		"  return middle\n" +
		"end\n"
	ops, sink := compileModuleSrc(t, src)
	requireNoCompileErrors(t, sink)

	outer := findMakeFunction(t, ops)
	outerBody := outer.Args[1].(OpList)
	middleOp := findMakeFunction(t, outerBody)
	middleClosure := middleOp.Args[2].([]ClosurePair)
	foundX := false
	for _, p := range middleClosure {
		if p.Name == "x" {
			foundX = true
		}
	}
	if !foundX {
		t.Errorf("expected middle's closure tuple to record 'x' even though middle never uses it directly, got %v", middleClosure)
	}
}

func TestMakeFunctionNumArgsMatchesInitLocalCount(t *testing.T) {
	// Invariant 6 from spec.md §8.
	ops, sink := compileModuleSrc(t, "local function f(a, b, c): return a end\n")
	requireNoCompileErrors(t, sink)
	mf := findMakeFunction(t, ops)
	numArgs := mf.Args[0].(int)
	body := mf.Args[1].(OpList)
	initCount := 0
	for _, op := range body {
		if op.Code == INIT_LOCAL {
			initCount++
		}
	}
	if numArgs != initCount {
		t.Errorf("MAKE_FUNCTION.num_args=%d, but body has %d INIT_LOCAL ops", numArgs, initCount)
	}
	if numArgs != 3 {
		t.Errorf("expected num_args=3, got %d", numArgs)
	}
}

func TestFunctionArgsInstalledInReverseOrder(t *testing.T) {
	ops, sink := compileModuleSrc(t, "local function f(a, b): return a end\n")
	requireNoCompileErrors(t, sink)
	mf := findMakeFunction(t, ops)
	body := mf.Args[1].(OpList)
	var names []string
	for _, op := range body {
		if op.Code == INIT_LOCAL {
			names = append(names, op.Args[0].(string))
		}
	}
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("expected reverse-order installs [b a], got %v", names)
	}
}

func TestGlobalVsLocalResolution(t *testing.T) {
	ops, sink := compileModuleSrc(t, "local x = 1\nprint(y)\n")
	requireNoCompileErrors(t, sink)
	var sawLocal, sawGlobalPrint, sawGlobalY bool
	walkOps(ops, func(op Op) {
		if op.Code == INIT_LOCAL && op.Args[0] == "x" {
			sawLocal = true
		}
		if op.Code == LOAD_GLOBAL && op.Args[0] == "print" {
			sawGlobalPrint = true
		}
		if op.Code == LOAD_GLOBAL && op.Args[0] == "y" {
			sawGlobalY = true
		}
	})
	if !sawLocal {
		t.Error("expected an INIT_LOCAL for the freshly declared local 'x'")
	}
	if !sawGlobalPrint || !sawGlobalY {
		t.Error("expected LOAD_GLOBAL for both the undeclared 'print' and 'y'")
	}
}

// walkOps visits every op in ops and recurses into any nested op-list
// argument (positional, named, or compound-clause), so tests can find
// an op regardless of how deeply it is nested.
func walkOps(ops OpList, visit func(Op)) {
	for _, op := range ops {
		visit(op)
		for _, arg := range op.Args {
			switch v := arg.(type) {
			case OpList:
				walkOps(v, visit)
			case []OpList:
				for _, l := range v {
					walkOps(l, visit)
				}
			case *orderedmap.OrderedMap[string, OpList]:
				for pair := v.Oldest(); pair != nil; pair = pair.Next() {
					walkOps(pair.Value, visit)
				}
			case []CompoundClause:
				for _, cl := range v {
					walkOps(cl.Body, visit)
				}
			}
		}
	}
}

func TestCompoundCallLowering(t *testing.T) {
	src := "if(a == 1) -> tmp:\n  x = tmp\nelse:\n  x = 0\nend\n"
	ops, sink := compileModuleSrc(t, src)
	requireNoCompileErrors(t, sink)
	if len(ops) != 1 || ops[0].Code != CALL_COMPOUND {
		t.Fatalf("expected a single CALL_COMPOUND, got %v", ops)
	}
	name := ops[0].Args[0].(string)
	if name != "if::" {
		t.Errorf("got function_name=%q, want %q", name, "if::")
	}
	clauses := ops[0].Args[1].([]CompoundClause)
	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(clauses))
	}
	if clauses[0].NumLocals != 1 {
		t.Errorf("expected clause 0 to have 1 local ('tmp'), got %d", clauses[0].NumLocals)
	}
}

func TestArrayItemRangeLoweredAsObject(t *testing.T) {
	ops, sink := compileExprSrc(t, "[1:5]")
	requireNoCompileErrors(t, sink)
	var sawBuildObject, sawBuildArray bool
	for _, op := range ops {
		if op.Code == BUILD_OBJECT {
			sawBuildObject = true
			if op.Args[0] != 2 {
				t.Errorf("expected a 2-key range object (start, stop), got %v args", op.Args[0])
			}
		}
		if op.Code == BUILD_ARRAY {
			sawBuildArray = true
		}
	}
	if !sawBuildObject || !sawBuildArray {
		t.Errorf("expected both BUILD_OBJECT (range) and BUILD_ARRAY ops, got %v", ops)
	}
}

func TestOpListPositionsAreRealSourcePositions(t *testing.T) {
	// Invariant 1 from spec.md §8 (loosely: every op has a non-negative
	// line and column consistent with the source it was compiled from).
	ops, sink := compileExprSrc(t, "(a +\n  b)")
	requireNoCompileErrors(t, sink)
	for _, op := range ops {
		if op.Line < 1 {
			t.Errorf("op %v has invalid line %d", op, op.Line)
		}
		if op.Column < 0 {
			t.Errorf("op %v has invalid column %d", op, op.Column)
		}
	}
}

func TestScopeAndClosureStacksUnwindOnCompletion(t *testing.T) {
	// Invariant 4 from spec.md §8: after a successful compile, the
	// internal scope/closure stacks are back to their pre-compile depth.
	sink := diagnostics.NewCollector()
	l := lexer.New("local function f(): return 1 end\n", true, sink)
	p := parser.New(lexer.NewTokenStream(l), sink, true)
	m := p.ParseModule()
	requireNoCompileErrors(t, sink)
	c := NewMWEL(sink)
	c.CompileModule(m)
	if len(c.scopes.scopes) != 0 {
		t.Errorf("expected scope stack empty after compile, got depth %d", len(c.scopes.scopes))
	}
	if len(c.scopes.closures) != 0 {
		t.Errorf("expected closure stack empty after compile, got depth %d", len(c.scopes.closures))
	}
}
