package graphio

import (
	"fmt"

	"github.com/deadlocklab/ragsim/pkg/rag"
)

// =============================================================================
// Record - Canonical Serialization Format
// =============================================================================

// Record is the canonical serialization format for resource allocation
// graphs. Used for files on disk, API payloads, and scenario storage.
//
// The format is human-readable and designed for round-trip fidelity:
// a graph serialized and loaded again is equal to the original.
type Record struct {
	Processes   []string           `json:"processes" bson:"processes"`
	Resources   []ResourceRecord   `json:"resources" bson:"resources"`
	Allocations []AllocationRecord `json:"allocations" bson:"allocations"`
	Requests    []RequestRecord    `json:"requests" bson:"requests"`
}

// ResourceRecord is a resource node with its instance total.
type ResourceRecord struct {
	ID             string `json:"id" bson:"id"`
	TotalInstances int    `json:"total_instances" bson:"total_instances"`
}

// AllocationRecord is a resource→process allocation edge.
type AllocationRecord struct {
	Resource string `json:"resource" bson:"resource"`
	Process  string `json:"process" bson:"process"`
	Count    int    `json:"count" bson:"count"`
}

// RequestRecord is a process→resource request edge.
type RequestRecord struct {
	Process  string `json:"process" bson:"process"`
	Resource string `json:"resource" bson:"resource"`
	Count    int    `json:"count" bson:"count"`
}

// =============================================================================
// Snapshot ↔ Record Conversion
// =============================================================================

// FromSnapshot converts a graph snapshot to its serialization format.
// All collections are sorted by ID for deterministic output.
func FromSnapshot(s rag.Snapshot) Record {
	rec := Record{
		Processes:   s.ProcessIDs(),
		Resources:   make([]ResourceRecord, 0, s.ResourceCount()),
		Allocations: []AllocationRecord{},
		Requests:    []RequestRecord{},
	}
	if rec.Processes == nil {
		rec.Processes = []string{}
	}
	for _, id := range s.ResourceIDs() {
		total, _ := s.TotalInstances(id)
		rec.Resources = append(rec.Resources, ResourceRecord{ID: id, TotalInstances: total})
	}
	for _, e := range s.Allocations() {
		rec.Allocations = append(rec.Allocations, AllocationRecord{Resource: e.Resource, Process: e.Process, Count: e.Count})
	}
	for _, e := range s.Requests() {
		rec.Requests = append(rec.Requests, RequestRecord{Process: e.Process, Resource: e.Resource, Count: e.Count})
	}
	return rec
}

// FromGraph converts a live graph to its serialization format.
func FromGraph(g *rag.Graph) Record {
	return FromSnapshot(g.Snapshot())
}

// ToGraph builds a new graph from a record.
//
// The record is validated in full before any node is created, so loading
// is all-or-nothing: on failure no graph is returned and nothing the
// caller holds has been touched. Any invariant violation (duplicate IDs,
// non-positive totals or counts, edges referencing missing nodes, or a
// duplicate edge for the same endpoint pair) is reported as
// rag.ErrInvalidArgument.
func ToGraph(rec Record) (*rag.Graph, error) {
	if err := validate(rec); err != nil {
		return nil, err
	}

	g := rag.New()
	for _, id := range rec.Processes {
		if err := g.AddProcess(id); err != nil {
			return nil, err
		}
	}
	for _, r := range rec.Resources {
		if err := g.AddResource(r.ID, r.TotalInstances); err != nil {
			return nil, err
		}
	}
	for _, a := range rec.Allocations {
		if err := g.AddAllocation(a.Resource, a.Process, a.Count); err != nil {
			return nil, err
		}
	}
	for _, r := range rec.Requests {
		if err := g.AddRequest(r.Process, r.Resource, r.Count); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// validate checks every graph invariant the record can violate, reporting
// the first violation wrapped in rag.ErrInvalidArgument.
func validate(rec Record) error {
	nodes := make(map[string]struct{}, len(rec.Processes)+len(rec.Resources))
	processes := make(map[string]struct{}, len(rec.Processes))
	resources := make(map[string]struct{}, len(rec.Resources))

	for _, id := range rec.Processes {
		if id == "" {
			return fmt.Errorf("%w: empty process ID", rag.ErrInvalidArgument)
		}
		if _, dup := nodes[id]; dup {
			return fmt.Errorf("%w: duplicate node ID %q", rag.ErrInvalidArgument, id)
		}
		nodes[id] = struct{}{}
		processes[id] = struct{}{}
	}
	for _, r := range rec.Resources {
		if r.ID == "" {
			return fmt.Errorf("%w: empty resource ID", rag.ErrInvalidArgument)
		}
		if _, dup := nodes[r.ID]; dup {
			return fmt.Errorf("%w: duplicate node ID %q", rag.ErrInvalidArgument, r.ID)
		}
		if r.TotalInstances < 1 {
			return fmt.Errorf("%w: resource %q has non-positive instance total %d", rag.ErrInvalidArgument, r.ID, r.TotalInstances)
		}
		nodes[r.ID] = struct{}{}
		resources[r.ID] = struct{}{}
	}

	allocPairs := make(map[[2]string]struct{}, len(rec.Allocations))
	for _, a := range rec.Allocations {
		if err := checkEdge(processes, resources, a.Process, a.Resource, a.Count, "allocation"); err != nil {
			return err
		}
		pair := [2]string{a.Resource, a.Process}
		if _, dup := allocPairs[pair]; dup {
			return fmt.Errorf("%w: duplicate allocation edge %s→%s", rag.ErrInvalidArgument, a.Resource, a.Process)
		}
		allocPairs[pair] = struct{}{}
	}

	reqPairs := make(map[[2]string]struct{}, len(rec.Requests))
	for _, r := range rec.Requests {
		if err := checkEdge(processes, resources, r.Process, r.Resource, r.Count, "request"); err != nil {
			return err
		}
		pair := [2]string{r.Process, r.Resource}
		if _, dup := reqPairs[pair]; dup {
			return fmt.Errorf("%w: duplicate request edge %s→%s", rag.ErrInvalidArgument, r.Process, r.Resource)
		}
		reqPairs[pair] = struct{}{}
	}
	return nil
}

func checkEdge(processes, resources map[string]struct{}, process, resource string, count int, kind string) error {
	if _, ok := processes[process]; !ok {
		return fmt.Errorf("%w: %s edge references unknown process %q", rag.ErrInvalidArgument, kind, process)
	}
	if _, ok := resources[resource]; !ok {
		return fmt.Errorf("%w: %s edge references unknown resource %q", rag.ErrInvalidArgument, kind, resource)
	}
	if count < 1 {
		return fmt.Errorf("%w: %s edge %s/%s has non-positive count %d", rag.ErrInvalidArgument, kind, process, resource, count)
	}
	return nil
}
