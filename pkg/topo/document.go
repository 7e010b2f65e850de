package topo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"
)

// =============================================================================
// Document - Topology Serialization
// =============================================================================

// Document is the canonical serialization format for topologies.
// Used for JSON files, cache entries, and archive records.
//
// The format is human-readable and designed for round-trip fidelity:
// generate → mesh → export → re-import produces identical results.
type Document struct {
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	NodeCount int       `json:"node_count" bson:"node_count"`
	Edges     []EdgeDoc `json:"edges" bson:"edges"`
	Meta      *Meta     `json:"meta,omitempty" bson:"meta,omitempty"`
}

// EdgeDoc is a serialized undirected link, normalized to U < V.
type EdgeDoc struct {
	U         int  `json:"u" bson:"u"`
	V         int  `json:"v" bson:"v"`
	Redundant bool `json:"redundant,omitempty" bson:"redundant,omitempty"`
}

// Meta records how a topology was produced, for reproducibility.
type Meta struct {
	Seed        uint64    `json:"seed,omitempty" bson:"seed,omitempty"`
	Prob        float64   `json:"prob,omitempty" bson:"prob,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty" bson:"generated_at,omitempty"`
}

// ToDocument converts the graph to its serialization format.
// Edges are normalized (u < v) and sorted by (u, v) for deterministic
// output. Name and meta may be empty.
func (g *Graph) ToDocument(name string, meta *Meta) *Document {
	edges := g.Edges()
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.U != b.U {
			return a.U - b.U
		}
		return a.V - b.V
	})

	doc := &Document{
		Name:      name,
		NodeCount: g.Nodes(),
		Edges:     make([]EdgeDoc, len(edges)),
		Meta:      meta,
	}
	for i, e := range edges {
		doc.Edges[i] = EdgeDoc{U: e.U, V: e.V, Redundant: e.Redundant}
	}
	return doc
}

// FromDocument rebuilds a graph from its serialized form.
// Duplicate edges in the document are tolerated and collapsed; range and
// capacity violations are returned as errors.
func FromDocument(doc *Document) (*Graph, error) {
	g, err := New(doc.NodeCount)
	if err != nil {
		return nil, fmt.Errorf("node count %d: %w", doc.NodeCount, err)
	}
	for _, e := range doc.Edges {
		var addErr error
		if e.Redundant {
			addErr = g.AddRedundantEdge(e.U, e.V)
		} else {
			addErr = g.AddEdge(e.U, e.V)
		}
		if addErr != nil && !errors.Is(addErr, ErrDuplicateEdge) {
			return nil, fmt.Errorf("edge %d-%d: %w", e.U, e.V, addErr)
		}
	}
	return g, nil
}

// =============================================================================
// Topology Serialization API
// =============================================================================

// Marshal converts a document to pretty-printed JSON bytes.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a document.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &doc, nil
}

// WriteFile writes a document to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(doc, f)
}

// Write writes a document as JSON to an io.Writer.
func Write(doc *Document, w io.Writer) error {
	return writeTo(doc, w)
}

// ReadFile reads a JSON file and returns the decoded graph.
// Returns validation errors for edges that violate store constraints.
func ReadFile(path string) (*Graph, *Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrom(f)
}

// Read decodes a JSON topology from an io.Reader into a graph.
func Read(r io.Reader) (*Graph, *Document, error) {
	return readFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeTo(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (*Graph, *Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	g, err := FromDocument(&doc)
	if err != nil {
		return nil, nil, err
	}
	return g, &doc, nil
}
