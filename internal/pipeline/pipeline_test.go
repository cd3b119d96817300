package pipeline

import (
	"testing"

	"github.com/cstawarz/jel/internal/diagnostics"
)

type recordingStage struct {
	name string
	log  *[]string
}

func (r recordingStage) Process(ctx *Context) *Context {
	*r.log = append(*r.log, r.name)
	return ctx
}

func TestNewContextStartsClean(t *testing.T) {
	ctx := NewContext("1 + 1", false)
	if ctx.SourceCode != "1 + 1" || ctx.MWEL {
		t.Fatalf("got %+v", ctx)
	}
	if !ctx.OK() {
		t.Fatal("fresh context should be OK")
	}
}

func TestContextOKReflectsDiagnostics(t *testing.T) {
	ctx := NewContext("", false)
	if !ctx.OK() {
		t.Fatal("expected OK before any diagnostic is reported")
	}
	ctx.Diagnostics.Report(diagnostics.Diagnostic{Phase: diagnostics.PhaseLexer, Kind: diagnostics.Lexical, Message: "boom"})
	if ctx.OK() {
		t.Fatal("expected !OK after a diagnostic is reported")
	}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	var log []string
	p := New(
		recordingStage{name: "a", log: &log},
		recordingStage{name: "b", log: &log},
		recordingStage{name: "c", log: &log},
	)
	ctx := NewContext("", false)
	p.Run(ctx)
	want := []string{"a", "b", "c"}
	if len(log) != len(want) {
		t.Fatalf("got %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("stage %d: got %s, want %s", i, log[i], want[i])
		}
	}
}

func TestPipelineRunReturnsThreadedContext(t *testing.T) {
	var log []string
	p := New(recordingStage{name: "only", log: &log})
	in := NewContext("src", true)
	out := p.Run(in)
	if out != in {
		t.Error("expected Run to return the same Context pointer it was given")
	}
}
