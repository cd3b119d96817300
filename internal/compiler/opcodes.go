// Package compiler turns a parsed AST into an op-list: a nested
// sequence of (opcode, line, column, args...) tuples, where a sub-list
// is embedded directly as an arg rather than patched in later via
// jump offsets. Grounded on
// _examples/original_source/jel/compiler.py and mwel/compiler.py,
// which this package reproduces op-for-op (see DESIGN.md).
package compiler

// OpCode identifies one operation in an op-list. Values are stable and
// sorted alphabetically by name, exactly as the original's gen_codes
// helper assigns them via enumerate() over a fixed, alphabetized name
// list — only the representation (Go int consts vs. Python dict)
// differs.
type OpCode int

const (
	APPLY_TAG OpCode = iota
	BINARY_OP
	BUILD_ARRAY
	BUILD_OBJECT
	CALL_COMPOUND
	CALL_FUNCTION
	CALL_SIMPLE
	COMPARE_OP
	DUP_TOP
	DUP_TOP_TWO
	INIT_LOCAL
	LOAD_ATTR
	LOAD_ATTR_REF
	LOAD_CLOSURE
	LOAD_CONST
	LOAD_GLOBAL
	LOAD_LOCAL
	LOAD_NAME
	LOAD_NONLOCAL
	LOAD_SUBSCR
	LOGICAL_AND
	LOGICAL_OR
	MAKE_FUNCTION
	RETURN_VALUE
	ROT_THREE
	ROT_TWO
	STORE_ATTR
	STORE_CLOSURE
	STORE_GLOBAL
	STORE_LOCAL
	STORE_NONLOCAL
	STORE_SUBSCR
	UNARY_OP
)

var opNames = map[OpCode]string{
	APPLY_TAG:      "APPLY_TAG",
	BINARY_OP:      "BINARY_OP",
	BUILD_ARRAY:    "BUILD_ARRAY",
	BUILD_OBJECT:   "BUILD_OBJECT",
	CALL_COMPOUND:  "CALL_COMPOUND",
	CALL_FUNCTION:  "CALL_FUNCTION",
	CALL_SIMPLE:    "CALL_SIMPLE",
	COMPARE_OP:     "COMPARE_OP",
	DUP_TOP:        "DUP_TOP",
	DUP_TOP_TWO:    "DUP_TOP_TWO",
	INIT_LOCAL:     "INIT_LOCAL",
	LOAD_ATTR:      "LOAD_ATTR",
	LOAD_ATTR_REF:  "LOAD_ATTR_REF",
	LOAD_CLOSURE:   "LOAD_CLOSURE",
	LOAD_CONST:     "LOAD_CONST",
	LOAD_GLOBAL:    "LOAD_GLOBAL",
	LOAD_LOCAL:     "LOAD_LOCAL",
	LOAD_NAME:      "LOAD_NAME",
	LOAD_NONLOCAL:  "LOAD_NONLOCAL",
	LOAD_SUBSCR:    "LOAD_SUBSCR",
	LOGICAL_AND:    "LOGICAL_AND",
	LOGICAL_OR:     "LOGICAL_OR",
	MAKE_FUNCTION:  "MAKE_FUNCTION",
	RETURN_VALUE:   "RETURN_VALUE",
	ROT_THREE:      "ROT_THREE",
	ROT_TWO:        "ROT_TWO",
	STORE_ATTR:     "STORE_ATTR",
	STORE_CLOSURE:  "STORE_CLOSURE",
	STORE_GLOBAL:   "STORE_GLOBAL",
	STORE_LOCAL:    "STORE_LOCAL",
	STORE_NONLOCAL: "STORE_NONLOCAL",
	STORE_SUBSCR:   "STORE_SUBSCR",
	UNARY_OP:       "UNARY_OP",
}

func (c OpCode) String() string {
	if name, ok := opNames[c]; ok {
		return name
	}
	return "OP(?)"
}

// binaryOpCodes and unaryOpCodes are the argument values BINARY_OP and
// UNARY_OP carry — not OpCodes themselves, but small stable tags for
// the arithmetic operator, matching the original's binary_op_codes /
// unary_op_codes dicts.
var binaryOpCodes = map[string]int{
	"+":  0,
	"-":  1,
	"*":  2,
	"/":  3,
	"%":  4,
	"**": 5,
}

var unaryOpCodes = map[string]int{
	"not": 0,
	"+":   1,
	"-":   2,
}

// comparisonOpCodes backs COMPARE_OP's argument, one entry per
// comparison_op token, including the two-word "not in".
var comparisonOpCodes = map[string]int{
	"<":      0,
	"<=":     1,
	">":      2,
	">=":     3,
	"!=":     4,
	"==":     5,
	"in":     6,
	"not in": 7,
}
