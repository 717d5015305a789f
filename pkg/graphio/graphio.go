// Package graphio serializes resource allocation graphs to and from their
// canonical JSON record format.
//
// The record format is shared by graph files on disk, the HTTP API, and
// the scenario store. Output is deterministic (all collections sorted by
// ID), and loading is all-or-nothing: a record that violates any graph
// invariant is rejected before a single node is built.
package graphio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/deadlocklab/ragsim/pkg/rag"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// Marshal converts a graph snapshot to indented JSON bytes.
func Marshal(s rag.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a Record without validating it.
// Use ToGraph to validate and build a graph.
func Unmarshal(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode: %w", err)
	}
	return rec, nil
}

// Write writes a graph snapshot as JSON to an io.Writer.
func Write(s rag.Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromSnapshot(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a graph snapshot to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(s rag.Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(s, f)
}

// Read decodes a JSON record from an io.Reader and builds a validated graph.
func Read(r io.Reader) (*rag.Graph, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToGraph(rec)
}

// ReadFile reads a JSON graph file and returns the validated graph.
func ReadFile(path string) (*rag.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
