package history

import (
	"testing"

	"github.com/deadlocklab/ragsim/pkg/rag"
)

// snapWith returns a snapshot of a graph holding the given processes.
func snapWith(t *testing.T, processes ...string) rag.Snapshot {
	t.Helper()
	g := rag.New()
	for _, p := range processes {
		if err := g.AddProcess(p); err != nil {
			t.Fatal(err)
		}
	}
	return g.Snapshot()
}

func TestUndoRedo(t *testing.T) {
	h := New(10)
	s0 := snapWith(t)
	s1 := snapWith(t, "P1")
	s2 := snapWith(t, "P1", "P2")

	if h.CanUndo() || h.CanRedo() {
		t.Fatal("fresh history should be empty")
	}

	// Caller pushes the pre-mutation state before each change.
	h.Push(s0)
	h.Push(s1)

	got, ok := h.Undo(s2)
	if !ok || !got.Equal(s1) {
		t.Fatalf("Undo returned wrong snapshot")
	}
	if !h.CanRedo() {
		t.Error("redo should be available after undo")
	}

	got, ok = h.Redo(s1)
	if !ok || !got.Equal(s2) {
		t.Fatalf("Redo returned wrong snapshot")
	}

	got, ok = h.Undo(s2)
	if !ok || !got.Equal(s1) {
		t.Fatal("second undo failed")
	}
	got, ok = h.Undo(s1)
	if !ok || !got.Equal(s0) {
		t.Fatal("undo to initial state failed")
	}
	if _, ok := h.Undo(s0); ok {
		t.Error("undo past the beginning should report false")
	}
}

func TestPushClearsRedo(t *testing.T) {
	h := New(10)
	s0 := snapWith(t)
	s1 := snapWith(t, "P1")

	h.Push(s0)
	if _, ok := h.Undo(s1); !ok {
		t.Fatal("undo failed")
	}

	// A new mutation invalidates the undone future.
	h.Push(s0)
	if h.CanRedo() {
		t.Error("push should clear the redo stack")
	}
}

func TestDepthBound(t *testing.T) {
	h := New(3)
	for i := 0; i < 5; i++ {
		h.Push(snapWith(t, "P1"))
	}

	current := snapWith(t, "P1", "P2")
	undone := 0
	for {
		s, ok := h.Undo(current)
		if !ok {
			break
		}
		current = s
		undone++
	}
	if undone != 3 {
		t.Errorf("undo depth = %d, want 3", undone)
	}
}

func TestDefaultLimit(t *testing.T) {
	h := New(0)
	if h.limit != DefaultLimit {
		t.Errorf("limit = %d, want %d", h.limit, DefaultLimit)
	}
}

func TestReset(t *testing.T) {
	h := New(10)
	h.Push(snapWith(t, "P1"))
	if _, ok := h.Undo(snapWith(t)); !ok {
		t.Fatal("undo failed")
	}

	h.Reset()
	if h.CanUndo() || h.CanRedo() {
		t.Error("reset should drop all checkpoints")
	}
}
