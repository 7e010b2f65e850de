package topo

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New(5)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.AddEdge(4, 0)
	g.AddEdge(1, 2)
	g.AddEdge(0, 1)
	g.AddRedundantEdge(3, 2)
	return g
}

func TestToDocumentDeterministic(t *testing.T) {
	g := buildTestGraph(t)

	doc := g.ToDocument("lab", &Meta{Seed: 42, Prob: 0.15})
	if doc.Name != "lab" {
		t.Errorf("Name = %q, want %q", doc.Name, "lab")
	}
	if doc.NodeCount != 5 {
		t.Errorf("NodeCount = %d, want 5", doc.NodeCount)
	}

	want := []EdgeDoc{
		{U: 0, V: 1},
		{U: 0, V: 4},
		{U: 1, V: 2},
		{U: 2, V: 3, Redundant: true},
	}
	if len(doc.Edges) != len(want) {
		t.Fatalf("Edges len = %d, want %d", len(doc.Edges), len(want))
	}
	for i, e := range want {
		if doc.Edges[i] != e {
			t.Errorf("Edges[%d] = %+v, want %+v", i, doc.Edges[i], e)
		}
	}

	// A second export is byte-identical.
	a, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	b, err := Marshal(g.ToDocument("lab", &Meta{Seed: 42, Prob: 0.15}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("repeated export differs")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	g := buildTestGraph(t)
	doc := g.ToDocument("roundtrip", &Meta{Seed: 7, Prob: 0.2, GeneratedAt: time.Unix(0, 0).UTC()})

	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	rebuilt, redoc, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if redoc.Name != "roundtrip" {
		t.Errorf("Name = %q, want %q", redoc.Name, "roundtrip")
	}
	if rebuilt.Nodes() != g.Nodes() || rebuilt.EdgeCount() != g.EdgeCount() {
		t.Errorf("rebuilt shape = (%d, %d), want (%d, %d)",
			rebuilt.Nodes(), rebuilt.EdgeCount(), g.Nodes(), g.EdgeCount())
	}
	if !rebuilt.IsRedundant(2, 3) {
		t.Error("redundant mark lost in round trip")
	}
	for _, e := range g.Edges() {
		if !rebuilt.HasEdge(e.U, e.V) {
			t.Errorf("edge %d-%d missing after round trip", e.U, e.V)
		}
	}
}

func TestFromDocumentDuplicatesTolerated(t *testing.T) {
	doc := &Document{
		NodeCount: 3,
		Edges: []EdgeDoc{
			{U: 0, V: 1},
			{U: 1, V: 0}, // same link, reversed
			{U: 1, V: 2},
		},
	}
	g, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
}

func TestFromDocumentInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"zero nodes", &Document{NodeCount: 0}},
		{"over max nodes", &Document{NodeCount: MaxNodes + 1}},
		{"edge out of range", &Document{NodeCount: 2, Edges: []EdgeDoc{{U: 0, V: 5}}}},
		{"self loop", &Document{NodeCount: 2, Edges: []EdgeDoc{{U: 1, V: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromDocument(tt.doc); err == nil {
				t.Error("FromDocument() error = nil, want error")
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "topology.json")

	if err := WriteFile(g.ToDocument("file-test", nil), path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	rebuilt, doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if doc.Name != "file-test" {
		t.Errorf("Name = %q, want %q", doc.Name, "file-test")
	}
	if rebuilt.EdgeCount() != g.EdgeCount() {
		t.Errorf("EdgeCount() = %d, want %d", rebuilt.EdgeCount(), g.EdgeCount())
	}
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("ReadFile() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "open") {
		t.Errorf("error = %v, want open context", err)
	}
}

func TestReadMalformed(t *testing.T) {
	_, _, err := Read(strings.NewReader("{not json"))
	if err == nil {
		t.Fatal("Read() error = nil, want error")
	}
}
