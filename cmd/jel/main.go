// Command jel reads a JEL expression (or, with -mwel, a full MWEL
// module) from a file argument or from stdin, compiles it, and prints
// its op-list. Grounded on
// _examples/original_source/jel/__main__.py's pipe-from-stdin,
// compile-then-print_ops shape, restructured as a pipeline.Pipeline run
// (see DESIGN.md) the way the teacher's cmd/funxy/main.go composes its
// own stages.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cstawarz/jel/internal/compiler"
	"github.com/cstawarz/jel/internal/lexer"
	"github.com/cstawarz/jel/internal/parser"
	"github.com/cstawarz/jel/internal/pipeline"
)

func readInput(args []string) (string, error) {
	if len(args) < 2 {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", fmt.Errorf("usage: %s [-mwel] [file]", args[0])
		}
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(args[1])
	return string(data), err
}

func main() {
	mwel := false
	args := os.Args
	var filtered []string
	for _, a := range args {
		if a == "-mwel" {
			mwel = true
			continue
		}
		filtered = append(filtered, a)
	}

	source, err := readInput(filtered)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	ctx := pipeline.NewContext(source, mwel)
	p := pipeline.New(&lexer.Processor{}, &parser.Processor{}, &compiler.Processor{})
	ctx = p.Run(ctx)

	if ctx.Diagnostics.HasErrors() {
		for _, d := range ctx.Diagnostics.Diagnostics {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		os.Exit(1)
	}

	ops, ok := ctx.Ops.(compiler.OpList)
	if !ok {
		fmt.Fprintln(os.Stderr, "Internal error: compiler produced no op-list")
		os.Exit(1)
	}
	compiler.PrintOps(os.Stdout, ops, 0)
}
