package rag

import (
	"errors"
	"testing"
)

func TestSnapshotIsolation(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1"}, map[string]int{"R1": 1})
	if err := g.AddAllocation("R1", "P1", 1); err != nil {
		t.Fatal(err)
	}

	snap := g.Snapshot()

	// Later mutations must not show up in the snapshot.
	if err := g.AddProcess("P2"); err != nil {
		t.Fatal(err)
	}
	if err := g.RemoveAllocation("R1", "P1"); err != nil {
		t.Fatal(err)
	}

	if snap.HasProcess("P2") {
		t.Error("snapshot observed a later AddProcess")
	}
	if _, ok := snap.Allocation("R1", "P1"); !ok {
		t.Error("snapshot lost an allocation removed after it was taken")
	}
}

func TestRestore(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1", "P2"}, map[string]int{"R1": 2})
	if err := g.AddRequest("P1", "R1", 1); err != nil {
		t.Fatal(err)
	}
	checkpoint := g.Snapshot()

	if err := g.RemoveProcess("P1"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddResource("R2", 1); err != nil {
		t.Fatal(err)
	}

	g.Restore(checkpoint)

	if !g.Snapshot().Equal(checkpoint) {
		t.Error("restored graph differs from checkpoint")
	}
	if !g.HasProcess("P1") || g.HasResource("R2") {
		t.Error("restore did not roll back mutations")
	}

	// The checkpoint stays valid after restore: mutating the graph again
	// must not alias into it.
	if err := g.RemoveProcess("P2"); err != nil {
		t.Fatal(err)
	}
	if !checkpoint.HasProcess("P2") {
		t.Error("snapshot mutated through restored graph")
	}
}

func TestRestoreZeroSnapshot(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1"}, map[string]int{"R1": 1})

	g.Restore(Snapshot{})

	if g.ProcessCount() != 0 || g.ResourceCount() != 0 {
		t.Error("restoring the zero snapshot should empty the graph")
	}
	// The graph must stay usable.
	if err := g.AddProcess("P1"); err != nil {
		t.Fatalf("graph unusable after zero restore: %v", err)
	}
}

func TestSnapshotEqual(t *testing.T) {
	a := New()
	b := New()
	mustBuild(t, a, []string{"P1"}, map[string]int{"R1": 2})
	mustBuild(t, b, []string{"P1"}, map[string]int{"R1": 2})

	if !a.Snapshot().Equal(b.Snapshot()) {
		t.Error("identical graphs should produce equal snapshots")
	}

	if err := b.AddRequest("P1", "R1", 1); err != nil {
		t.Fatal(err)
	}
	if a.Snapshot().Equal(b.Snapshot()) {
		t.Error("different graphs should not produce equal snapshots")
	}
}

func TestSnapshotValidate(t *testing.T) {
	g := New()
	mustBuild(t, g, []string{"P1"}, map[string]int{"R1": 1})
	if err := g.AddAllocation("R1", "P1", 1); err != nil {
		t.Fatal(err)
	}
	if err := g.Snapshot().Validate(); err != nil {
		t.Errorf("well-formed snapshot: %v", err)
	}

	// Hand-build a corrupt snapshot the graph API could never produce.
	corrupt := Snapshot{
		processes: map[string]struct{}{"P1": {}},
		resources: map[string]int{},
		allocs:    map[edgeKey]int{{"P1", "R1"}: 1},
		requests:  map[edgeKey]int{},
	}
	if err := corrupt.Validate(); !errors.Is(err, ErrInvariant) {
		t.Errorf("corrupt snapshot Validate = %v, want ErrInvariant", err)
	}
}
