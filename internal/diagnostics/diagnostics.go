// Package diagnostics implements the ErrorSink abstraction from spec.md
// §6: a destination for lexer/parser/compiler errors that records rather
// than raises. Modeled on the teacher's internal/diagnostics package,
// trimmed to the phases and error kinds this front-end actually reports
// (spec.md §7).
package diagnostics

import (
	"fmt"

	"github.com/cstawarz/jel/internal/token"
)

// Phase identifies which pipeline stage reported a Diagnostic.
type Phase string

const (
	PhaseLexer    Phase = "lexer"
	PhaseParser   Phase = "parser"
	PhaseCompiler Phase = "compiler"
)

// Kind is one of the three error categories from spec.md §7.
type Kind string

const (
	Lexical   Kind = "lexical"
	Syntax    Kind = "syntax"
	Structural Kind = "structural"
)

// Diagnostic is a single reported error. Token is the offending token
// when one is available; Line/Column are always populated.
type Diagnostic struct {
	Phase   Phase
	Kind    Kind
	Message string
	Token   string
	Line    int
	Column  int
}

func (d Diagnostic) Error() string {
	if d.Token != "" {
		return fmt.Sprintf("%d:%d [%s/%s] %s (near %q)",
			d.Line, d.Column, d.Phase, d.Kind, d.Message, d.Token)
	}
	return fmt.Sprintf("%d:%d [%s/%s] %s", d.Line, d.Column, d.Phase, d.Kind, d.Message)
}

// Sink is the Go shape of spec.md's ErrorSink: "(message, token?, line,
// column)". It never panics and never aborts compilation by itself.
type Sink interface {
	Report(d Diagnostic)
}

// Collector is the default Sink: it accumulates every reported
// Diagnostic for later inspection, exactly as spec.md §7 describes
// ("a batch of error records is available after a failed compilation").
type Collector struct {
	Diagnostics []Diagnostic
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

func (c *Collector) HasErrors() bool {
	return len(c.Diagnostics) > 0
}

// ReportAt is a convenience used by lexer/parser/compiler call sites to
// report an error at a specific token's position.
func ReportAt(sink Sink, phase Phase, kind Kind, tok token.Token, message string) {
	sink.Report(Diagnostic{
		Phase:   phase,
		Kind:    kind,
		Message: message,
		Token:   tok.Lexeme,
		Line:    tok.Line,
		Column:  tok.Column,
	})
}
