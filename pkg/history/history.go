// Package history provides undo/redo checkpointing for resource allocation
// graphs.
//
// The graph core only exposes Snapshot and Restore primitives; this package
// owns the stacks. The caller pushes the pre-mutation snapshot before every
// mutating call and restores whatever Undo or Redo hands back.
package history

import "github.com/deadlocklab/ragsim/pkg/rag"

// DefaultLimit is the undo depth used by New when limit is not positive.
const DefaultLimit = 100

// History holds bounded undo and redo stacks of graph snapshots.
// Not safe for concurrent use.
type History struct {
	undo  []rag.Snapshot
	redo  []rag.Snapshot
	limit int
}

// New creates a History keeping at most limit undo checkpoints.
// A non-positive limit falls back to DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Push records a checkpoint taken before a mutation. It clears the redo
// stack, since a new mutation invalidates any previously undone future.
// The oldest checkpoint is dropped once the limit is reached.
func (h *History) Push(s rag.Snapshot) {
	h.redo = h.redo[:0]
	if len(h.undo) >= h.limit {
		h.undo = h.undo[1:]
	}
	h.undo = append(h.undo, s)
}

// Undo pops the most recent checkpoint, pushing current onto the redo
// stack. Returns false if there is nothing to undo.
func (h *History) Undo(current rag.Snapshot) (rag.Snapshot, bool) {
	if len(h.undo) == 0 {
		return rag.Snapshot{}, false
	}
	s := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return s, true
}

// Redo pops the most recently undone checkpoint, pushing current back onto
// the undo stack. Returns false if there is nothing to redo.
func (h *History) Redo(current rag.Snapshot) (rag.Snapshot, bool) {
	if len(h.redo) == 0 {
		return rag.Snapshot{}, false
	}
	s := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return s, true
}

// CanUndo reports whether an undo checkpoint is available.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo checkpoint is available.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Reset discards all checkpoints.
func (h *History) Reset() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
