package topo

import (
	"errors"
	"slices"
)

// Capacity ceilings for the bounded store. These mirror the fixed-size
// neighbor tables of constrained mesh deployments: a node can track at most
// MaxNeighbors peers, and a single mesh segment tops out at MaxNodes nodes.
const (
	// MaxNodes is the hard ceiling on node count per topology.
	MaxNodes = 1000

	// MaxNeighbors is the per-node adjacency ceiling.
	MaxNeighbors = 80
)

var (
	// ErrNoNodes is returned by [New] when the requested node count is
	// smaller than one. Topologies always contain at least the gateway.
	ErrNoNodes = errors.New("topology must have at least one node")

	// ErrTooManyNodes is returned by [New] when the requested node count
	// exceeds MaxNodes.
	ErrTooManyNodes = errors.New("node count exceeds MaxNodes")

	// ErrNodeRange is returned by [Graph.AddEdge] when an endpoint id is
	// negative or not below the node count.
	ErrNodeRange = errors.New("node id out of range")

	// ErrSelfLoop is returned by [Graph.AddEdge] when both endpoints are
	// the same node. Mesh links always connect distinct nodes.
	ErrSelfLoop = errors.New("self loops are not allowed")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when the link already
	// exists. The graph is unchanged; callers that merely want the link
	// present can ignore it.
	ErrDuplicateEdge = errors.New("edge already exists")

	// ErrNeighborCapacity is returned by [Graph.AddEdge] when either
	// endpoint's adjacency list is full. The graph is unchanged: the edge
	// is stored on both endpoints or on neither.
	ErrNeighborCapacity = errors.New("neighbor capacity exceeded")
)

// NodeID identifies a node. Ids are dense integers 0..N-1, assigned at
// creation; the alias keeps signatures readable without forcing conversions
// in index-heavy traversal code.
type NodeID = int

// Edge is an undirected link with U < V after normalization.
// Redundant marks links added by the redundancy planner rather than the
// original topology.
type Edge struct {
	U, V      NodeID
	Redundant bool
}

// Graph is a bounded undirected adjacency store.
//
// Neighbor lists preserve insertion order; that order is part of the
// contract, since the connectivity analyzer derives block and cut-vertex
// ordering from it. The zero value is not usable - use New.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	adj       [][]NodeID
	edgeCount int
	redundant map[int]bool // edgeKey(u,v) set for planner-added links
}

// New creates a graph with n nodes, 0..n-1, and no edges.
// Returns ErrNoNodes for n < 1 and ErrTooManyNodes for n > MaxNodes.
func New(n int) (*Graph, error) {
	if n < 1 {
		return nil, ErrNoNodes
	}
	if n > MaxNodes {
		return nil, ErrTooManyNodes
	}
	return &Graph{
		adj:       make([][]NodeID, n),
		redundant: make(map[int]bool),
	}, nil
}

// Nodes returns the node count.
func (g *Graph) Nodes() int { return len(g.adj) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// AddEdge adds the undirected link u-v.
// Returns ErrNodeRange, ErrSelfLoop, ErrDuplicateEdge, or
// ErrNeighborCapacity; on any error the graph is unchanged.
func (g *Graph) AddEdge(u, v NodeID) error {
	return g.addEdge(u, v, false)
}

// AddRedundantEdge adds the undirected link u-v tagged as planner-added.
// Validation matches [Graph.AddEdge].
func (g *Graph) AddRedundantEdge(u, v NodeID) error {
	return g.addEdge(u, v, true)
}

func (g *Graph) addEdge(u, v NodeID, redundant bool) error {
	if u < 0 || u >= len(g.adj) || v < 0 || v >= len(g.adj) {
		return ErrNodeRange
	}
	if u == v {
		return ErrSelfLoop
	}
	if g.HasEdge(u, v) {
		return ErrDuplicateEdge
	}
	// Check both endpoints before touching either, so a full list on one
	// side never leaves a half-inserted edge.
	if len(g.adj[u]) >= MaxNeighbors || len(g.adj[v]) >= MaxNeighbors {
		return ErrNeighborCapacity
	}
	g.adj[u] = append(g.adj[u], v)
	g.adj[v] = append(g.adj[v], u)
	g.edgeCount++
	if redundant {
		g.redundant[edgeKey(u, v)] = true
	}
	return nil
}

// HasEdge reports whether the link u-v exists, in either order.
// Returns false for out-of-range ids.
func (g *Graph) HasEdge(u, v NodeID) bool {
	if u < 0 || u >= len(g.adj) || v < 0 || v >= len(g.adj) {
		return false
	}
	return slices.Contains(g.adj[u], v)
}

// IsRedundant reports whether the link u-v was added by the planner.
// Returns false for missing edges.
func (g *Graph) IsRedundant(u, v NodeID) bool {
	if !g.HasEdge(u, v) {
		return false
	}
	return g.redundant[edgeKey(u, v)]
}

// DegreeOf returns the neighbor count of v, or 0 for out-of-range ids.
func (g *Graph) DegreeOf(v NodeID) int {
	if v < 0 || v >= len(g.adj) {
		return 0
	}
	return len(g.adj[v])
}

// NeighborsOf returns a copy of v's neighbor list in insertion order.
// Returns nil for out-of-range ids. The copy can be modified freely.
func (g *Graph) NeighborsOf(v NodeID) []NodeID {
	if v < 0 || v >= len(g.adj) {
		return nil
	}
	return slices.Clone(g.adj[v])
}

// Neighbors returns v's neighbor list without copying.
// The returned slice must be treated as read-only; it is the traversal
// fast path for the analyzer.
func (g *Graph) Neighbors(v NodeID) []NodeID {
	if v < 0 || v >= len(g.adj) {
		return nil
	}
	return g.adj[v]
}

// Edges returns every undirected edge exactly once, normalized to U < V.
// Order is deterministic: ascending lower endpoint, then adjacency
// insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)
	for u := range g.adj {
		for _, v := range g.adj[u] {
			if u < v {
				edges = append(edges, Edge{U: u, V: v, Redundant: g.redundant[edgeKey(u, v)]})
			}
		}
	}
	return edges
}

// RedundantCount returns the number of planner-added links.
func (g *Graph) RedundantCount() int { return len(g.redundant) }

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		adj:       make([][]NodeID, len(g.adj)),
		edgeCount: g.edgeCount,
		redundant: make(map[int]bool, len(g.redundant)),
	}
	for i, nbrs := range g.adj {
		c.adj[i] = slices.Clone(nbrs)
	}
	for k, v := range g.redundant {
		c.redundant[k] = v
	}
	return c
}

// edgeKey packs a normalized edge into a single map key.
// Safe because node ids are below MaxNodes.
func edgeKey(u, v NodeID) int {
	if u > v {
		u, v = v, u
	}
	return u*MaxNodes + v
}
