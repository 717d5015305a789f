// Package detect implements deadlock detection over resource allocation
// graph snapshots.
//
// Detection uses iterative resource reduction: starting from the free
// capacity of every resource, it repeatedly retires any process whose
// outstanding requests can all be satisfied, releasing that process's
// allocations back into the pool. Processes that can never be retired are
// deadlocked. The scan order is ascending process ID and restarts after
// every retirement, so results are fully deterministic.
//
// The engine consumes an immutable [rag.Snapshot] and never mutates it;
// calling [Detect] twice on the same snapshot yields identical results.
package detect

import (
	"fmt"
	"slices"
	"strings"

	"github.com/deadlocklab/ragsim/pkg/rag"
)

// Result describes the outcome of one detection run. It is a pure value
// computed from a snapshot and holds no reference back into the live graph.
type Result struct {
	// Deadlocked lists the IDs of permanently blocked processes,
	// ascending. Empty when the graph is deadlock-free.
	Deadlocked []string `json:"deadlocked"`

	// Implicated lists the IDs of resources involved in the deadlock:
	// resources for which some deadlocked process has an outstanding
	// request that the final free capacity cannot satisfy. Ascending.
	Implicated []string `json:"implicated"`

	// available is the final work vector after reduction, kept for
	// suggestion generation.
	available map[string]int

	// snap is the snapshot the result was computed from.
	snap rag.Snapshot

	// suggestions is built lazily by Suggestions.
	suggestions []Suggestion
}

// Suggestion is one resolution step a caller may present to the user.
type Suggestion struct {
	// Action is either ActionRelease or ActionTerminate.
	Action string `json:"action"`
	// Process is the deadlocked process the suggestion applies to.
	Process string `json:"process"`
	// Resource is set for release suggestions: the held resource to give up.
	Resource string `json:"resource,omitempty"`
	// Count is the number of instances released by the suggestion.
	Count int `json:"count,omitempty"`
	// Text is the human-readable form of the suggestion.
	Text string `json:"text"`
}

// Suggestion actions.
const (
	ActionRelease   = "release"
	ActionTerminate = "terminate"
)

// Detect runs deadlock detection on a snapshot.
//
// It returns rag.ErrInvariant if the snapshot is malformed (an edge
// referencing a node absent from the snapshot); that is always a bug in
// the graph layer, never a user condition. On a well-formed snapshot
// Detect cannot fail.
func Detect(snap rag.Snapshot) (*Result, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	// Free capacity per resource, clamped at zero so an over-subscribed
	// resource contributes nothing rather than negative capacity.
	available := make(map[string]int, snap.ResourceCount())
	for _, r := range snap.ResourceIDs() {
		total, _ := snap.TotalInstances(r)
		for _, p := range snap.ProcessIDs() {
			if count, ok := snap.Allocation(r, p); ok {
				total -= count
			}
		}
		available[r] = max(total, 0)
	}

	unfinished := snap.ProcessIDs()
	resources := snap.ResourceIDs()

	reqsByProcess := make(map[string][]rag.Edge)
	for _, e := range snap.Requests() {
		reqsByProcess[e.Process] = append(reqsByProcess[e.Process], e)
	}

	// Reduction loop: retire the first (ascending) process whose requests
	// all fit into the available pool, release its allocations, and rescan
	// from the top. Stops when a full pass retires nobody.
	for {
		retired := -1
		for i, p := range unfinished {
			if canFinish(reqsByProcess[p], available) {
				retired = i
				break
			}
		}
		if retired < 0 {
			break
		}
		p := unfinished[retired]
		for _, r := range resources {
			if count, ok := snap.Allocation(r, p); ok {
				available[r] += count
			}
		}
		unfinished = slices.Delete(unfinished, retired, retired+1)
	}

	if unfinished == nil {
		unfinished = []string{}
	}
	res := &Result{
		Deadlocked: unfinished,
		available:  available,
		snap:       snap,
	}

	// A resource is implicated when a deadlocked process's outstanding
	// request on it exceeds the final free capacity.
	implicated := make(map[string]struct{})
	for _, p := range res.Deadlocked {
		for _, r := range resources {
			if count, ok := snap.Request(p, r); ok && count > available[r] {
				implicated[r] = struct{}{}
			}
		}
	}
	res.Implicated = make([]string, 0, len(implicated))
	for r := range implicated {
		res.Implicated = append(res.Implicated, r)
	}
	slices.Sort(res.Implicated)

	return res, nil
}

// canFinish reports whether every outstanding request in reqs fits into
// the available pool. A process with no requests can always finish.
func canFinish(reqs []rag.Edge, available map[string]int) bool {
	for _, req := range reqs {
		if req.Count > available[req.Resource] {
			return false
		}
	}
	return true
}

// HasDeadlock reports whether any process is deadlocked.
func (r *Result) HasDeadlock() bool { return len(r.Deadlocked) > 0 }

// Suggestions returns best-effort resolution steps in deterministic order,
// computing them on first call. An empty deadlocked set yields no
// suggestions. The heuristics never fail: when nothing better can be
// determined a generic terminate suggestion is emitted.
func (r *Result) Suggestions() []Suggestion {
	if r.suggestions != nil || !r.HasDeadlock() {
		return r.suggestions
	}

	var out []Suggestion

	// Per deadlocked process: suggest releasing the held resource with the
	// fewest dependent requesters (ties broken by resource ID).
	for _, p := range r.Deadlocked {
		if s, ok := r.releaseSuggestion(p); ok {
			out = append(out, s)
		}
	}

	// Terminate the process on the shortest allocation→request cycle back
	// to itself; ties broken by process ID.
	if victim, ok := r.terminationVictim(); ok {
		out = append(out, Suggestion{
			Action:  ActionTerminate,
			Process: victim,
			Text:    fmt.Sprintf("Terminate %s to break the shortest wait cycle", victim),
		})
	}

	if len(out) == 0 {
		out = append(out, Suggestion{
			Action: ActionTerminate,
			Text:   "Terminate one process in the deadlocked set",
		})
	}

	r.suggestions = out
	return r.suggestions
}

// releaseSuggestion picks the held resource of p with the fewest dependent
// requesters. Returns false if p holds nothing.
func (r *Result) releaseSuggestion(p string) (Suggestion, bool) {
	best := ""
	bestCount := 0
	bestRequesters := 0
	for _, rid := range r.snap.ResourceIDs() {
		count, ok := r.snap.Allocation(rid, p)
		if !ok {
			continue
		}
		requesters := 0
		for _, q := range r.snap.ProcessIDs() {
			if _, waiting := r.snap.Request(q, rid); waiting {
				requesters++
			}
		}
		if best == "" || requesters < bestRequesters {
			best, bestCount, bestRequesters = rid, count, requesters
		}
	}
	if best == "" {
		return Suggestion{}, false
	}
	return Suggestion{
		Action:   ActionRelease,
		Process:  p,
		Resource: best,
		Count:    bestCount,
		Text:     fmt.Sprintf("Release %d instance(s) of %s held by %s", bestCount, best, p),
	}, true
}

// terminationVictim finds the deadlocked process with the shortest cycle
// through its allocation and request edges back to itself.
func (r *Result) terminationVictim() (string, bool) {
	best := ""
	bestLen := 0
	for _, p := range r.Deadlocked {
		if l := r.shortestCycle(p); l > 0 && (best == "" || l < bestLen) {
			best, bestLen = p, l
		}
	}
	return best, best != ""
}

// shortestCycle returns the length in edges of the shortest directed cycle
// through p, walking request edges process→resource and allocation edges
// resource→process. Returns 0 if p is on no cycle.
func (r *Result) shortestCycle(p string) int {
	type step struct {
		node    string
		process bool
		dist    int
	}
	seen := map[string]bool{}
	queue := []step{{node: p, process: true, dist: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.process {
			for _, e := range r.snap.Requests() {
				if e.Process != cur.node {
					continue
				}
				if !seen["r:"+e.Resource] {
					seen["r:"+e.Resource] = true
					queue = append(queue, step{node: e.Resource, process: false, dist: cur.dist + 1})
				}
			}
		} else {
			for _, e := range r.snap.Allocations() {
				if e.Resource != cur.node {
					continue
				}
				if e.Process == p {
					return cur.dist + 1
				}
				if !seen["p:"+e.Process] {
					seen["p:"+e.Process] = true
					queue = append(queue, step{node: e.Process, process: true, dist: cur.dist + 1})
				}
			}
		}
	}
	return 0
}

// Guide renders a multi-line resolution guide for display to the user.
// For a deadlock-free result it reports a safe state.
func (r *Result) Guide() string {
	if !r.HasDeadlock() {
		return "No deadlock detected. The system is in a safe state."
	}

	var b strings.Builder
	b.WriteString("Deadlock Resolution Guide\n\n")
	fmt.Fprintf(&b, "Deadlocked processes: %s\n", strings.Join(r.Deadlocked, ", "))
	fmt.Fprintf(&b, "Implicated resources: %s\n\n", strings.Join(r.Implicated, ", "))

	for _, p := range r.Deadlocked {
		var reqs, held []string
		for _, rid := range r.snap.ResourceIDs() {
			if count, ok := r.snap.Request(p, rid); ok {
				reqs = append(reqs, fmt.Sprintf("%s (%d requested)", rid, count))
			}
			if count, ok := r.snap.Allocation(rid, p); ok {
				held = append(held, fmt.Sprintf("%s (%d allocated)", rid, count))
			}
		}
		fmt.Fprintf(&b, "- %s: requests %s; holds %s\n", p, joinOrNone(reqs), joinOrNone(held))
	}

	b.WriteString("\nHow to resolve:\n")
	for i, s := range r.Suggestions() {
		fmt.Fprintf(&b, "%d. %s.\n", i+1, s.Text)
	}
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
