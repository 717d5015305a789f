package rag

import (
	"errors"
	"testing"
)

func TestAddProcess(t *testing.T) {
	g := New()
	if err := g.AddProcess("P1"); err != nil {
		t.Fatalf("AddProcess: %v", err)
	}
	if !g.HasProcess("P1") {
		t.Error("P1 should exist")
	}

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"duplicate process", "P1", ErrDuplicateNode},
		{"empty ID", "", ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddProcess(tt.id); !errors.Is(err, tt.want) {
				t.Errorf("AddProcess(%q) = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}

func TestAddResource(t *testing.T) {
	g := New()
	if err := g.AddResource("R1", 2); err != nil {
		t.Fatalf("AddResource: %v", err)
	}
	if total, ok := g.TotalInstances("R1"); !ok || total != 2 {
		t.Errorf("TotalInstances(R1) = %d, %v; want 2, true", total, ok)
	}

	tests := []struct {
		name  string
		id    string
		total int
		want  error
	}{
		{"duplicate resource", "R1", 1, ErrDuplicateNode},
		{"zero instances", "R2", 0, ErrInvalidArgument},
		{"negative instances", "R2", -3, ErrInvalidArgument},
		{"empty ID", "", 1, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddResource(tt.id, tt.total); !errors.Is(err, tt.want) {
				t.Errorf("AddResource(%q, %d) = %v, want %v", tt.id, tt.total, err, tt.want)
			}
		})
	}
}

func TestSharedNamespace(t *testing.T) {
	g := New()
	if err := g.AddProcess("X"); err != nil {
		t.Fatal(err)
	}
	// Process and resource IDs share one namespace.
	if err := g.AddResource("X", 1); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("AddResource(X) = %v, want ErrDuplicateNode", err)
	}
}

func TestEdgeValidation(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1"}, map[string]int{"R1": 1})

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"allocation missing process", func() error { return g.AddAllocation("R1", "P9", 1) }, ErrNotFound},
		{"allocation missing resource", func() error { return g.AddAllocation("R9", "P1", 1) }, ErrNotFound},
		{"allocation zero count", func() error { return g.AddAllocation("R1", "P1", 0) }, ErrInvalidArgument},
		{"request missing process", func() error { return g.AddRequest("P9", "R1", 1) }, ErrNotFound},
		{"request missing resource", func() error { return g.AddRequest("P1", "R9", 1) }, ErrNotFound},
		{"request negative count", func() error { return g.AddRequest("P1", "R1", -1) }, ErrInvalidArgument},
		{"remove absent allocation", func() error { return g.RemoveAllocation("R1", "P1") }, ErrNotFound},
		{"remove absent request", func() error { return g.RemoveRequest("P1", "R1") }, ErrNotFound},
		{"remove absent process", func() error { return g.RemoveProcess("P9") }, ErrNotFound},
		{"remove absent resource", func() error { return g.RemoveResource("R9") }, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	// Failed calls must not have mutated anything.
	if len(g.Allocations()) != 0 || len(g.Requests()) != 0 {
		t.Error("failed calls should leave the graph unchanged")
	}
}

func TestAllocationAccumulates(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1"}, map[string]int{"R1": 5})

	if err := g.AddAllocation("R1", "P1", 2); err != nil {
		t.Fatal(err)
	}
	if err := g.AddAllocation("R1", "P1", 1); err != nil {
		t.Fatal(err)
	}
	if count, ok := g.Allocation("R1", "P1"); !ok || count != 3 {
		t.Errorf("Allocation(R1, P1) = %d, %v; want 3, true", count, ok)
	}
}

func TestRequestReplaces(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1"}, map[string]int{"R1": 5})

	if err := g.AddRequest("P1", "R1", 2); err != nil {
		t.Fatal(err)
	}
	// A new request replaces the outstanding one rather than accumulating.
	if err := g.AddRequest("P1", "R1", 4); err != nil {
		t.Fatal(err)
	}
	if count, ok := g.Request("P1", "R1"); !ok || count != 4 {
		t.Errorf("Request(P1, R1) = %d, %v; want 4, true", count, ok)
	}
	if len(g.Requests()) != 1 {
		t.Errorf("Requests() has %d edges, want 1", len(g.Requests()))
	}
}

func TestRemoveCascades(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1", "P2"}, map[string]int{"R1": 2, "R2": 1})
	mustEdges(t, g)

	if err := g.RemoveProcess("P1"); err != nil {
		t.Fatal(err)
	}
	for _, e := range append(g.Allocations(), g.Requests()...) {
		if e.Process == "P1" {
			t.Errorf("dangling edge for removed process: %+v", e)
		}
	}

	if err := g.RemoveResource("R2"); err != nil {
		t.Fatal(err)
	}
	for _, e := range append(g.Allocations(), g.Requests()...) {
		if e.Resource == "R2" {
			t.Errorf("dangling edge for removed resource: %+v", e)
		}
	}

	if err := g.Snapshot().Validate(); err != nil {
		t.Errorf("graph inconsistent after cascades: %v", err)
	}
}

func TestRemoveResourceWithActiveAllocations(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1"}, map[string]int{"R1": 1})
	if err := g.AddAllocation("R1", "P1", 1); err != nil {
		t.Fatal(err)
	}

	// Removal while allocated is permitted; the cascade keeps consistency.
	if err := g.RemoveResource("R1"); err != nil {
		t.Fatalf("RemoveResource: %v", err)
	}
	if len(g.Allocations()) != 0 {
		t.Error("allocation edges should be gone with their resource")
	}
}

func TestAvailableClampsOversubscription(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1", "P2"}, map[string]int{"R1": 2})

	// Over-subscription is allowed for demonstration graphs.
	if err := g.AddAllocation("R1", "P1", 2); err != nil {
		t.Fatal(err)
	}
	if err := g.AddAllocation("R1", "P2", 3); err != nil {
		t.Fatal(err)
	}

	avail, err := g.Available("R1")
	if err != nil {
		t.Fatal(err)
	}
	if avail != 0 {
		t.Errorf("Available(R1) = %d, want 0 (clamped)", avail)
	}

	if _, err := g.Available("R9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Available(R9) = %v, want ErrNotFound", err)
	}
}

func TestNextIDs(t *testing.T) {
	g := New()
	if id := g.NextProcessID(); id != "P1" {
		t.Errorf("NextProcessID = %s, want P1", id)
	}
	mustBuild(t, g, []string{"P1", "P2"}, map[string]int{"R1": 1})
	if id := g.NextProcessID(); id != "P3" {
		t.Errorf("NextProcessID = %s, want P3", id)
	}
	if id := g.NextResourceID(); id != "R2" {
		t.Errorf("NextResourceID = %s, want R2", id)
	}
	// Gaps are reused.
	if err := g.RemoveProcess("P1"); err != nil {
		t.Fatal(err)
	}
	if id := g.NextProcessID(); id != "P1" {
		t.Errorf("NextProcessID after removal = %s, want P1", id)
	}
}

func TestSortedAccessors(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P2", "P1", "P10"}, map[string]int{"R2": 1, "R1": 1})

	got := g.ProcessIDs()
	want := []string{"P1", "P10", "P2"} // lexicographic, deterministic
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ProcessIDs = %v, want %v", got, want)
		}
	}
}

// mustBuild populates a graph with processes and resources, failing the
// test on any error.
func mustBuild(t *testing.T, g *Graph, processes []string, resources map[string]int) {
	t.Helper()
	for _, p := range processes {
		if err := g.AddProcess(p); err != nil {
			t.Fatalf("AddProcess(%s): %v", p, err)
		}
	}
	for r, total := range resources {
		if err := g.AddResource(r, total); err != nil {
			t.Fatalf("AddResource(%s): %v", r, err)
		}
	}
}

// mustEdges wires the standard two-process cycle used by cascade tests:
// R1→P1 allocated, P1→R2 requested, R2→P2 allocated, P2→R1 requested.
func mustEdges(t *testing.T, g *Graph) {
	t.Helper()
	steps := []error{
		g.AddAllocation("R1", "P1", 1),
		g.AddRequest("P1", "R2", 1),
		g.AddAllocation("R2", "P2", 1),
		g.AddRequest("P2", "R1", 1),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatal(err)
		}
	}
}
