package rag

import (
	"fmt"
	"maps"
	"slices"
)

// Snapshot is an immutable deep copy of a graph's state.
//
// Snapshots are what the detection engine consumes and what the undo/redo
// layer checkpoints. A snapshot never observes later mutations of the graph
// it was taken from, and restoring one never aliases state back into it.
type Snapshot struct {
	processes map[string]struct{}
	resources map[string]int
	allocs    map[edgeKey]int
	requests  map[edgeKey]int
}

// Snapshot returns a deep copy of the current graph state.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		processes: maps.Clone(g.processes),
		resources: maps.Clone(g.resources),
		allocs:    maps.Clone(g.allocs),
		requests:  maps.Clone(g.requests),
	}
}

// Restore replaces the entire graph state with the snapshot's.
// The graph copies the snapshot, so the snapshot stays valid and immutable
// afterwards. This is the undo/redo checkpoint primitive.
func (g *Graph) Restore(s Snapshot) {
	g.processes = cloneOrEmpty(s.processes)
	g.resources = cloneOrEmpty(s.resources)
	g.allocs = cloneOrEmpty(s.allocs)
	g.requests = cloneOrEmpty(s.requests)
}

// cloneOrEmpty clones m, mapping a nil map (zero-value Snapshot) to an
// empty one so the restored graph is always usable.
func cloneOrEmpty[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return maps.Clone(m)
}

// ProcessIDs returns all process IDs in ascending order.
func (s Snapshot) ProcessIDs() []string {
	return slices.Sorted(maps.Keys(s.processes))
}

// ResourceIDs returns all resource IDs in ascending order.
func (s Snapshot) ResourceIDs() []string {
	return slices.Sorted(maps.Keys(s.resources))
}

// HasProcess reports whether the snapshot contains the process.
func (s Snapshot) HasProcess(id string) bool {
	_, ok := s.processes[id]
	return ok
}

// HasResource reports whether the snapshot contains the resource.
func (s Snapshot) HasResource(id string) bool {
	_, ok := s.resources[id]
	return ok
}

// TotalInstances returns the instance total of a resource and true,
// or 0 and false if the resource is not in the snapshot.
func (s Snapshot) TotalInstances(id string) (int, bool) {
	total, ok := s.resources[id]
	return total, ok
}

// Allocation returns the allocation count between a resource and a process,
// and whether such an edge exists.
func (s Snapshot) Allocation(resourceID, processID string) (int, bool) {
	count, ok := s.allocs[edgeKey{processID, resourceID}]
	return count, ok
}

// Request returns the outstanding request count between a process and a
// resource, and whether such an edge exists.
func (s Snapshot) Request(processID, resourceID string) (int, bool) {
	count, ok := s.requests[edgeKey{processID, resourceID}]
	return count, ok
}

// Allocations returns every allocation edge, sorted by process then resource ID.
func (s Snapshot) Allocations() []Edge {
	return sortedEdges(s.allocs)
}

// Requests returns every request edge, sorted by process then resource ID.
func (s Snapshot) Requests() []Edge {
	return sortedEdges(s.requests)
}

// ProcessCount returns the number of processes in the snapshot.
func (s Snapshot) ProcessCount() int { return len(s.processes) }

// ResourceCount returns the number of resources in the snapshot.
func (s Snapshot) ResourceCount() int { return len(s.resources) }

// Equal reports whether two snapshots describe identical graph state.
func (s Snapshot) Equal(other Snapshot) bool {
	return maps.Equal(s.processes, other.processes) &&
		maps.Equal(s.resources, other.resources) &&
		maps.Equal(s.allocs, other.allocs) &&
		maps.Equal(s.requests, other.requests)
}

// Validate checks snapshot integrity: every edge endpoint must reference a
// node present in the snapshot and every edge count must be positive.
// A failure is reported as ErrInvariant, because only a bug in the graph
// layer can produce such a snapshot.
func (s Snapshot) Validate() error {
	for _, group := range []struct {
		kind  string
		edges map[edgeKey]int
	}{
		{"allocation", s.allocs},
		{"request", s.requests},
	} {
		for k, count := range group.edges {
			if _, ok := s.processes[k.process]; !ok {
				return fmt.Errorf("%w: %s edge references missing process %s", ErrInvariant, group.kind, k.process)
			}
			if _, ok := s.resources[k.resource]; !ok {
				return fmt.Errorf("%w: %s edge references missing resource %s", ErrInvariant, group.kind, k.resource)
			}
			if count < 1 {
				return fmt.Errorf("%w: %s edge %s/%s has non-positive count %d", ErrInvariant, group.kind, k.process, k.resource, count)
			}
		}
	}
	return nil
}
