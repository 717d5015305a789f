// Package rag provides the resource allocation graph at the core of the
// simulator.
//
// # Overview
//
// A resource allocation graph models processes and resources as nodes and
// their relationships as directed edges: an allocation edge (resource →
// process) records instances a resource has granted, and a request edge
// (process → resource) records instances a process is waiting for. Deadlock
// detection over this structure lives in the subpackage
// [github.com/deadlocklab/ragsim/pkg/rag/detect].
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [Graph.AddProcess] and
// [Graph.AddResource], and wire edges with [Graph.AddAllocation] and
// [Graph.AddRequest]:
//
//	g := rag.New()
//	g.AddProcess("P1")
//	g.AddResource("R1", 2)
//	g.AddAllocation("R1", "P1", 1)
//	g.AddRequest("P1", "R1", 1)
//
// Every mutating call validates its arguments before touching state, so a
// failed call never leaves a half-applied change. Removing a node cascades
// removal of its incident edges; the graph never holds dangling edges.
//
// # Snapshots
//
// [Graph.Snapshot] produces an immutable deep copy of the whole graph.
// Snapshots feed the detection engine, serve as undo/redo checkpoints via
// [Graph.Restore], and are what the serialization layer reads. A snapshot
// never observes mutations made after it was taken.
//
// # Counts and Over-Subscription
//
// Resources carry a positive instance total; edges carry counts of at
// least one. The sum of a resource's allocations may exceed its total
// (over-subscription is permitted for demonstration graphs), but
// [Graph.Available] clamps free capacity at zero so derived values never
// go negative.
//
// # Concurrency
//
// Graph is not safe for concurrent use. Callers embedding it in a
// multi-threaded host must hold one exclusive lock across any mutating
// call and across Snapshot. Snapshots themselves are immutable and need
// no locking once taken.
package rag
