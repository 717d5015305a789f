package dot

import (
	"strings"
	"testing"

	"github.com/deadlocklab/ragsim/pkg/rag"
	"github.com/deadlocklab/ragsim/pkg/rag/detect"
)

func buildCycle(t *testing.T) *rag.Graph {
	t.Helper()
	g := rag.New()
	steps := []error{
		g.AddProcess("P1"),
		g.AddProcess("P2"),
		g.AddResource("R1", 1),
		g.AddResource("R2", 1),
		g.AddAllocation("R1", "P1", 1),
		g.AddAllocation("R2", "P2", 1),
		g.AddRequest("P1", "R2", 1),
		g.AddRequest("P2", "R1", 1),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestToDOT(t *testing.T) {
	snap := buildCycle(t).Snapshot()
	out := ToDOT(snap, Options{})

	for _, want := range []string{
		"digraph RAG {",
		`"P1" [shape=circle`,
		`"R1" [label="R1\n1 instance(s)"`,
		`"R1" -> "P1";`,
		`"P1" -> "R2" [style=dashed, color=red];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}

func TestToDOTHighlightsDeadlock(t *testing.T) {
	snap := buildCycle(t).Snapshot()
	res, err := detect.Detect(snap)
	if err != nil {
		t.Fatal(err)
	}
	out := ToDOT(snap, Options{Result: res})

	if !strings.Contains(out, "fillcolor=salmon") {
		t.Error("deadlocked processes should be highlighted")
	}
	if !strings.Contains(out, "fillcolor=gold") {
		t.Error("implicated resources should be highlighted")
	}
}

func TestToDOTEdgeCounts(t *testing.T) {
	snap := buildCycle(t).Snapshot()

	plain := ToDOT(snap, Options{})
	if strings.Contains(plain, `label="1"`) {
		t.Error("edge counts should be off by default")
	}
	counted := ToDOT(snap, Options{EdgeCounts: true})
	if !strings.Contains(counted, `label="1"`) {
		t.Error("EdgeCounts should label edges")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	snap := buildCycle(t).Snapshot()
	if ToDOT(snap, Options{}) != ToDOT(snap, Options{}) {
		t.Error("DOT output is not deterministic")
	}
}

func TestToDOTEmptyGraph(t *testing.T) {
	out := ToDOT(rag.New().Snapshot(), Options{})
	if !strings.HasPrefix(out, "digraph RAG {") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("unexpected empty-graph output:\n%s", out)
	}
}
