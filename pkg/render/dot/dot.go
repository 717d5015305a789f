// Package dot renders resource allocation graphs as Graphviz diagrams.
//
// Processes are drawn as circles and resources as boxes labelled with
// their instance totals. Allocation edges (resource→process) are solid;
// request edges (process→resource) are dashed red. When a detection
// result is supplied, deadlocked processes and implicated resources are
// highlighted.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/deadlocklab/ragsim/pkg/rag"
	"github.com/deadlocklab/ragsim/pkg/rag/detect"
)

// Options configures diagram generation.
type Options struct {
	// Result highlights deadlocked processes and implicated resources
	// when non-nil.
	Result *detect.Result

	// EdgeCounts labels each edge with its instance count.
	EdgeCounts bool
}

// ToDOT converts a graph snapshot to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG] or [RenderPNG].
// Output is deterministic: nodes and edges appear in ascending ID order.
func ToDOT(s rag.Snapshot, opts Options) string {
	deadlocked := make(map[string]bool)
	implicated := make(map[string]bool)
	if opts.Result != nil {
		for _, p := range opts.Result.Deadlocked {
			deadlocked[p] = true
		}
		for _, r := range opts.Result.Implicated {
			implicated[r] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph RAG {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14];\n")
	buf.WriteString("\n")

	for _, p := range s.ProcessIDs() {
		attrs := []string{"shape=circle", "style=filled", "fillcolor=lightblue"}
		if deadlocked[p] {
			attrs = append(attrs, "fillcolor=salmon", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p, strings.Join(attrs, ", "))
	}
	for _, r := range s.ResourceIDs() {
		total, _ := s.TotalInstances(r)
		attrs := []string{
			fmt.Sprintf("label=%q", fmt.Sprintf("%s\n%d instance(s)", r, total)),
			"shape=box", "style=filled", "fillcolor=lightgreen",
		}
		if implicated[r] {
			attrs = append(attrs, "fillcolor=gold", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", r, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Allocations() {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Resource, e.Process, edgeAttrs(e.Count, false, opts))
	}
	for _, e := range s.Requests() {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Process, e.Resource, edgeAttrs(e.Count, true, opts))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func edgeAttrs(count int, request bool, opts Options) string {
	var attrs []string
	if request {
		attrs = append(attrs, "style=dashed", "color=red")
	}
	if opts.EdgeCounts {
		attrs = append(attrs, fmt.Sprintf("label=\"%d\"", count))
	}
	if len(attrs) == 0 {
		return ""
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
