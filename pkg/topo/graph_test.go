package topo

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr error
	}{
		{"single node", 1, nil},
		{"typical", 50, nil},
		{"maximum", MaxNodes, nil},
		{"zero", 0, ErrNoNodes},
		{"negative", -3, ErrNoNodes},
		{"over maximum", MaxNodes + 1, ErrTooManyNodes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.n)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New(%d) error = %v, want %v", tt.n, err, tt.wantErr)
			}
			if tt.wantErr == nil && g.Nodes() != tt.n {
				t.Errorf("Nodes() = %d, want %d", g.Nodes(), tt.n)
			}
		})
	}
}

func TestAddEdgeValidation(t *testing.T) {
	tests := []struct {
		name    string
		u, v    int
		wantErr error
	}{
		{"valid", 0, 1, nil},
		{"negative endpoint", -1, 2, ErrNodeRange},
		{"endpoint too large", 0, 5, ErrNodeRange},
		{"both out of range", 7, 9, ErrNodeRange},
		{"self loop", 2, 2, ErrSelfLoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(5)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := g.AddEdge(tt.u, tt.v); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddEdge(%d, %d) error = %v, want %v", tt.u, tt.v, err, tt.wantErr)
			}
		})
	}
}

func TestAddEdgeDuplicate(t *testing.T) {
	g, err := New(3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := g.AddEdge(0, 1); err != nil {
		t.Fatalf("AddEdge(0, 1) error = %v", err)
	}

	// Same edge in both orders is a duplicate.
	if err := g.AddEdge(0, 1); !errors.Is(err, ErrDuplicateEdge) {
		t.Errorf("AddEdge(0, 1) again error = %v, want ErrDuplicateEdge", err)
	}
	if err := g.AddEdge(1, 0); !errors.Is(err, ErrDuplicateEdge) {
		t.Errorf("AddEdge(1, 0) error = %v, want ErrDuplicateEdge", err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestAddEdgeSymmetry(t *testing.T) {
	g, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := g.AddEdge(2, 0); err != nil {
		t.Fatalf("AddEdge(2, 0) error = %v", err)
	}

	if !g.HasEdge(2, 0) || !g.HasEdge(0, 2) {
		t.Error("edge must be visible from both endpoints")
	}
	if g.DegreeOf(0) != 1 || g.DegreeOf(2) != 1 {
		t.Errorf("degrees = %d, %d, want 1, 1", g.DegreeOf(0), g.DegreeOf(2))
	}
}

func TestNeighborCapacity(t *testing.T) {
	g, err := New(MaxNeighbors + 2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Fill node 0 exactly to the ceiling.
	for i := 1; i <= MaxNeighbors; i++ {
		if err := g.AddEdge(0, i); err != nil {
			t.Fatalf("AddEdge(0, %d) error = %v", i, err)
		}
	}
	if g.DegreeOf(0) != MaxNeighbors {
		t.Fatalf("DegreeOf(0) = %d, want %d", g.DegreeOf(0), MaxNeighbors)
	}

	// The next link must fail without touching the other endpoint.
	extra := MaxNeighbors + 1
	if err := g.AddEdge(0, extra); !errors.Is(err, ErrNeighborCapacity) {
		t.Fatalf("AddEdge over capacity error = %v, want ErrNeighborCapacity", err)
	}
	if g.DegreeOf(extra) != 0 {
		t.Errorf("DegreeOf(%d) = %d after failed add, want 0", extra, g.DegreeOf(extra))
	}
	if g.EdgeCount() != MaxNeighbors {
		t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), MaxNeighbors)
	}

	// The full node can still be the far endpoint of nothing, but other
	// nodes keep linking among themselves.
	if err := g.AddEdge(1, 2); err != nil {
		t.Errorf("AddEdge(1, 2) error = %v", err)
	}
}

func TestNeighborsOfInsertionOrder(t *testing.T) {
	g, err := New(6)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	order := []int{3, 1, 5, 2}
	for _, v := range order {
		if err := g.AddEdge(0, v); err != nil {
			t.Fatalf("AddEdge(0, %d) error = %v", v, err)
		}
	}

	got := g.NeighborsOf(0)
	if len(got) != len(order) {
		t.Fatalf("NeighborsOf(0) len = %d, want %d", len(got), len(order))
	}
	for i, v := range order {
		if got[i] != v {
			t.Errorf("NeighborsOf(0)[%d] = %d, want %d", i, got[i], v)
		}
	}

	// The returned slice is a copy.
	got[0] = 99
	if g.NeighborsOf(0)[0] != 3 {
		t.Error("NeighborsOf must return a copy")
	}
}

func TestNeighborsOfOutOfRange(t *testing.T) {
	g, err := New(3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := g.NeighborsOf(-1); got != nil {
		t.Errorf("NeighborsOf(-1) = %v, want nil", got)
	}
	if got := g.NeighborsOf(3); got != nil {
		t.Errorf("NeighborsOf(3) = %v, want nil", got)
	}
	if g.DegreeOf(17) != 0 {
		t.Errorf("DegreeOf(17) = %d, want 0", g.DegreeOf(17))
	}
	if g.HasEdge(-1, 0) {
		t.Error("HasEdge(-1, 0) = true, want false")
	}
}

func TestEdgesNormalized(t *testing.T) {
	g, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.AddEdge(3, 1)
	g.AddEdge(0, 2)
	g.AddRedundantEdge(2, 1)

	edges := g.Edges()
	if len(edges) != 3 {
		t.Fatalf("Edges() len = %d, want 3", len(edges))
	}
	for _, e := range edges {
		if e.U >= e.V {
			t.Errorf("edge %d-%d not normalized", e.U, e.V)
		}
	}

	var redundant int
	for _, e := range edges {
		if e.Redundant {
			redundant++
			if e.U != 1 || e.V != 2 {
				t.Errorf("redundant edge = %d-%d, want 1-2", e.U, e.V)
			}
		}
	}
	if redundant != 1 {
		t.Errorf("redundant edges = %d, want 1", redundant)
	}
}

func TestIsRedundant(t *testing.T) {
	g, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.AddEdge(0, 1)
	g.AddRedundantEdge(1, 2)

	if g.IsRedundant(0, 1) {
		t.Error("IsRedundant(0, 1) = true, want false")
	}
	if !g.IsRedundant(1, 2) || !g.IsRedundant(2, 1) {
		t.Error("IsRedundant(1, 2) = false, want true in both orders")
	}
	if g.IsRedundant(0, 3) {
		t.Error("IsRedundant on missing edge = true, want false")
	}
	if g.RedundantCount() != 1 {
		t.Errorf("RedundantCount() = %d, want 1", g.RedundantCount())
	}
}

func TestClone(t *testing.T) {
	g, err := New(4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	g.AddEdge(0, 1)
	g.AddRedundantEdge(1, 2)

	c := g.Clone()
	if c.Nodes() != g.Nodes() || c.EdgeCount() != g.EdgeCount() {
		t.Fatalf("clone shape = (%d, %d), want (%d, %d)",
			c.Nodes(), c.EdgeCount(), g.Nodes(), g.EdgeCount())
	}
	if !c.IsRedundant(1, 2) {
		t.Error("clone lost redundant mark")
	}

	// Mutating the clone must not affect the original.
	c.AddEdge(2, 3)
	if g.HasEdge(2, 3) {
		t.Error("mutating clone affected original")
	}
	if g.EdgeCount() != 2 {
		t.Errorf("original EdgeCount() = %d, want 2", g.EdgeCount())
	}
}
