package pipeline

import (
	"github.com/cstawarz/jel/internal/ast"
	"github.com/cstawarz/jel/internal/diagnostics"
)

// Context holds the data threaded between pipeline stages, mirroring
// the teacher's PipelineContext trimmed to what this front-end's three
// stages actually need: no symbol table, type map, or module loader,
// since name resolution and typing are folded into the compiler stage
// itself (spec.md §4.3) and there is no module system (spec.md §1).
type Context struct {
	SourceCode string
	MWEL       bool // dialect: JEL (pure expression) or MWEL (statements)

	TokenStream TokenStream

	// ExprRoot is set when MWEL is false; ModuleRoot when MWEL is true.
	ExprRoot   ast.Expr
	ModuleRoot *ast.Module

	// Ops holds the compiler stage's result (a compiler.OpList). Typed as
	// interface{} to avoid an import cycle with the compiler package,
	// which depends on pipeline.Context through its own Processor.
	Ops interface{}

	Diagnostics *diagnostics.Collector
}

// NewContext creates a Context ready for the lexer stage.
func NewContext(source string, mwel bool) *Context {
	return &Context{
		SourceCode:  source,
		MWEL:        mwel,
		Diagnostics: diagnostics.NewCollector(),
	}
}

// OK reports whether no diagnostic has been reported so far. It does
// not check whether a root node exists.
func (c *Context) OK() bool {
	return !c.Diagnostics.HasErrors()
}
