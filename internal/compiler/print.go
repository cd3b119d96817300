package compiler

import (
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// PrintOps renders ops in the human-readable listing format used by
// the original compiler's print_ops: one line per op, any nested
// op-list (a call argument, a function body, a compound-call clause)
// printed indented beneath it. Grounded on
// _examples/original_source/jel/compiler.py's print_ops/_print_arg_ops.
func PrintOps(w io.Writer, ops OpList, indent int) {
	for index, op := range ops {
		fmt.Fprintf(w, "%s%4d %-14s %d:%d  ", pad(indent), index, op.Code, op.Line, op.Column)
		printArgs(w, op.Args)
		fmt.Fprintln(w)
		for _, arg := range op.Args {
			printNested(w, arg, indent)
		}
	}
}

func printArgs(w io.Writer, args []interface{}) {
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		switch v := a.(type) {
		case OpList, []OpList, *orderedmap.OrderedMap[string, OpList], []CompoundClause:
			// printed as a nested block by PrintOps's caller, not inline
		default:
			fmt.Fprintf(w, "%v", v)
		}
	}
}

// printNested recurses into any argument that itself carries an
// op-list: "arg"/"clause" labels are indented seven columns further
// in and the nested ops nine, matching the original's arg-block layout.
func printNested(w io.Writer, arg interface{}, indent int) {
	switch v := arg.(type) {
	case OpList:
		PrintOps(w, v, indent+9)
	case []OpList:
		for i, body := range v {
			fmt.Fprintf(w, "%sarg %d:\n", pad(indent+7), i)
			PrintOps(w, body, indent+9)
		}
	case *orderedmap.OrderedMap[string, OpList]:
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(w, "%sarg %s:\n", pad(indent+7), pair.Key)
			PrintOps(w, pair.Value, indent+9)
		}
	case []CompoundClause:
		for i, clause := range v {
			fmt.Fprintf(w, "%sclause %d:\n", pad(indent+7), i)
			PrintOps(w, clause.Body, indent+9)
		}
	}
}

func pad(n int) string {
	s := make([]byte, n)
	for i := range s {
		s[i] = ' '
	}
	return string(s)
}
