package rag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrInvalidArgument is returned when a call carries a malformed value:
	// an empty node ID, a non-positive instance total, or an edge count < 1.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateNode is returned by [Graph.AddProcess] and [Graph.AddResource]
	// when the ID is already taken by any node in the graph. Process and
	// resource IDs share a single namespace.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrNotFound is returned when an operation references a process,
	// resource, or edge that does not exist in the graph.
	ErrNotFound = errors.New("not found")

	// ErrInvariant is returned when internal graph consistency is broken,
	// e.g. an edge referencing a missing node survives into a snapshot.
	// It always indicates a bug in the caller or in this package, never a
	// recoverable runtime condition.
	ErrInvariant = errors.New("graph invariant violated")
)

// edgeKey identifies an edge by its process and resource endpoints.
// Allocation edges run resource→process and request edges process→resource,
// but both are keyed the same way.
type edgeKey struct {
	process  string
	resource string
}

// Edge is an allocation or request edge with its instance count.
// For allocations the resource grants Count instances to the process;
// for requests the process is waiting for Count additional instances.
type Edge struct {
	Process  string
	Resource string
	Count    int
}

// Graph is a resource allocation graph: process and resource nodes joined
// by allocation (resource→process) and request (process→resource) edges.
// Every mutating method validates its arguments before touching state, so
// a failed call leaves the graph exactly as it was.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	processes map[string]struct{}
	resources map[string]int // resource ID -> total instances
	allocs    map[edgeKey]int
	requests  map[edgeKey]int
}

// New creates an empty resource allocation graph.
func New() *Graph {
	return &Graph{
		processes: make(map[string]struct{}),
		resources: make(map[string]int),
		allocs:    make(map[edgeKey]int),
		requests:  make(map[edgeKey]int),
	}
}

// AddProcess adds a process node.
// Returns ErrInvalidArgument if id is empty, or ErrDuplicateNode if the
// ID is already used by a process or resource.
func (g *Graph) AddProcess(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty process ID", ErrInvalidArgument)
	}
	if g.hasNode(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	g.processes[id] = struct{}{}
	return nil
}

// AddResource adds a resource node with the given instance total.
// Returns ErrInvalidArgument if id is empty or total < 1, or
// ErrDuplicateNode if the ID is already used by a process or resource.
func (g *Graph) AddResource(id string, total int) error {
	if id == "" {
		return fmt.Errorf("%w: empty resource ID", ErrInvalidArgument)
	}
	if total < 1 {
		return fmt.Errorf("%w: resource %s needs at least 1 instance, got %d", ErrInvalidArgument, id, total)
	}
	if g.hasNode(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	g.resources[id] = total
	return nil
}

// RemoveProcess removes a process and every edge incident to it.
// Returns ErrNotFound if the process does not exist.
func (g *Graph) RemoveProcess(id string) error {
	if _, ok := g.processes[id]; !ok {
		return fmt.Errorf("%w: process %s", ErrNotFound, id)
	}
	delete(g.processes, id)
	g.dropEdges(func(k edgeKey) bool { return k.process == id })
	return nil
}

// RemoveResource removes a resource and every edge incident to it.
// Removal is permitted even while allocations are active; the cascade
// keeps the graph free of dangling edges.
// Returns ErrNotFound if the resource does not exist.
func (g *Graph) RemoveResource(id string) error {
	if _, ok := g.resources[id]; !ok {
		return fmt.Errorf("%w: resource %s", ErrNotFound, id)
	}
	delete(g.resources, id)
	g.dropEdges(func(k edgeKey) bool { return k.resource == id })
	return nil
}

// AddAllocation records that resourceID grants count instances to processID,
// accumulating onto any existing allocation edge between the pair.
// Over-subscribing a resource beyond its instance total is allowed; the
// detection engine treats such a resource as having zero available capacity.
// Returns ErrNotFound if either endpoint is missing, or ErrInvalidArgument
// if count < 1.
func (g *Graph) AddAllocation(resourceID, processID string, count int) error {
	if err := g.checkEdge(processID, resourceID, count); err != nil {
		return err
	}
	g.allocs[edgeKey{processID, resourceID}] += count
	return nil
}

// AddRequest records that processID is waiting for count instances of
// resourceID. A graph holds at most one request edge per pair: a new
// request replaces any prior one.
// Returns ErrNotFound if either endpoint is missing, or ErrInvalidArgument
// if count < 1.
func (g *Graph) AddRequest(processID, resourceID string, count int) error {
	if err := g.checkEdge(processID, resourceID, count); err != nil {
		return err
	}
	g.requests[edgeKey{processID, resourceID}] = count
	return nil
}

// RemoveAllocation removes the allocation edge between resourceID and processID.
// Returns ErrNotFound if no such edge exists.
func (g *Graph) RemoveAllocation(resourceID, processID string) error {
	k := edgeKey{processID, resourceID}
	if _, ok := g.allocs[k]; !ok {
		return fmt.Errorf("%w: allocation %s→%s", ErrNotFound, resourceID, processID)
	}
	delete(g.allocs, k)
	return nil
}

// RemoveRequest removes the request edge between processID and resourceID.
// Returns ErrNotFound if no such edge exists.
func (g *Graph) RemoveRequest(processID, resourceID string) error {
	k := edgeKey{processID, resourceID}
	if _, ok := g.requests[k]; !ok {
		return fmt.Errorf("%w: request %s→%s", ErrNotFound, processID, resourceID)
	}
	delete(g.requests, k)
	return nil
}

// NextProcessID returns the first unused ID of the form "P<n>", n ≥ 1.
func (g *Graph) NextProcessID() string {
	return g.nextID("P")
}

// NextResourceID returns the first unused ID of the form "R<n>", n ≥ 1.
func (g *Graph) NextResourceID() string {
	return g.nextID("R")
}

func (g *Graph) nextID(prefix string) string {
	for n := 1; ; n++ {
		id := fmt.Sprintf("%s%d", prefix, n)
		if !g.hasNode(id) {
			return id
		}
	}
}

// HasProcess reports whether a process with the given ID exists.
func (g *Graph) HasProcess(id string) bool {
	_, ok := g.processes[id]
	return ok
}

// HasResource reports whether a resource with the given ID exists.
func (g *Graph) HasResource(id string) bool {
	_, ok := g.resources[id]
	return ok
}

// ProcessIDs returns all process IDs in ascending order.
func (g *Graph) ProcessIDs() []string {
	return slices.Sorted(maps.Keys(g.processes))
}

// ResourceIDs returns all resource IDs in ascending order.
func (g *Graph) ResourceIDs() []string {
	return slices.Sorted(maps.Keys(g.resources))
}

// TotalInstances returns the instance total of a resource and true,
// or 0 and false if the resource does not exist.
func (g *Graph) TotalInstances(id string) (int, bool) {
	total, ok := g.resources[id]
	return total, ok
}

// Available returns the free instance count of a resource: its total minus
// the sum of its allocations, clamped at zero so an over-subscribed
// resource never reports negative capacity.
// Returns ErrNotFound if the resource does not exist.
func (g *Graph) Available(id string) (int, error) {
	total, ok := g.resources[id]
	if !ok {
		return 0, fmt.Errorf("%w: resource %s", ErrNotFound, id)
	}
	avail := total
	for k, count := range g.allocs {
		if k.resource == id {
			avail -= count
		}
	}
	return max(avail, 0), nil
}

// Allocation returns the allocation count between a resource and a process,
// and whether such an edge exists.
func (g *Graph) Allocation(resourceID, processID string) (int, bool) {
	count, ok := g.allocs[edgeKey{processID, resourceID}]
	return count, ok
}

// Request returns the outstanding request count between a process and a
// resource, and whether such an edge exists.
func (g *Graph) Request(processID, resourceID string) (int, bool) {
	count, ok := g.requests[edgeKey{processID, resourceID}]
	return count, ok
}

// Allocations returns every allocation edge, sorted by process then resource ID.
func (g *Graph) Allocations() []Edge {
	return sortedEdges(g.allocs)
}

// Requests returns every request edge, sorted by process then resource ID.
func (g *Graph) Requests() []Edge {
	return sortedEdges(g.requests)
}

// ProcessCount returns the number of processes in the graph.
func (g *Graph) ProcessCount() int { return len(g.processes) }

// ResourceCount returns the number of resources in the graph.
func (g *Graph) ResourceCount() int { return len(g.resources) }

func (g *Graph) hasNode(id string) bool {
	if _, ok := g.processes[id]; ok {
		return true
	}
	_, ok := g.resources[id]
	return ok
}

// checkEdge validates both endpoints and the count for a new edge.
func (g *Graph) checkEdge(processID, resourceID string, count int) error {
	if _, ok := g.processes[processID]; !ok {
		return fmt.Errorf("%w: process %s", ErrNotFound, processID)
	}
	if _, ok := g.resources[resourceID]; !ok {
		return fmt.Errorf("%w: resource %s", ErrNotFound, resourceID)
	}
	if count < 1 {
		return fmt.Errorf("%w: edge count must be at least 1, got %d", ErrInvalidArgument, count)
	}
	return nil
}

func (g *Graph) dropEdges(match func(edgeKey) bool) {
	maps.DeleteFunc(g.allocs, func(k edgeKey, _ int) bool { return match(k) })
	maps.DeleteFunc(g.requests, func(k edgeKey, _ int) bool { return match(k) })
}

func sortedEdges(m map[edgeKey]int) []Edge {
	edges := make([]Edge, 0, len(m))
	for k, count := range m {
		edges = append(edges, Edge{Process: k.process, Resource: k.resource, Count: count})
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.Process != b.Process {
			if a.Process < b.Process {
				return -1
			}
			return 1
		}
		if a.Resource < b.Resource {
			return -1
		}
		if a.Resource > b.Resource {
			return 1
		}
		return 0
	})
	return edges
}
