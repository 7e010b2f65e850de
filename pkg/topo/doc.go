// Package topo provides a bounded undirected graph store for network
// topologies.
//
// # Overview
//
// Meshify analyzes mesh-network topologies for single points of failure and
// adds redundant links to remove them. This package provides the core data
// structure: a dense-id adjacency store with hard capacity ceilings, sized
// for field deployments where per-node neighbor tables are fixed-size.
//
// Node ids are dense integers 0..N-1. Node 0 is by convention the gateway
// (the border router of the mesh); nothing in this package treats it
// specially, but renderers and reports do.
//
// # Basic Usage
//
// Create a graph with [New], link nodes with [Graph.AddEdge], and query with
// [Graph.HasEdge], [Graph.DegreeOf], and [Graph.NeighborsOf]:
//
//	g, _ := topo.New(5)
//	g.AddEdge(0, 1)
//	g.AddEdge(1, 2)
//	g.HasEdge(2, 1) // true
//
// Neighbor lists preserve insertion order, and every traversal in meshify
// relies on that: analyzing the same graph twice yields identical results.
//
// # Capacity
//
// The store enforces two ceilings, [MaxNodes] and [MaxNeighbors]. Exceeding
// either returns a sentinel error and leaves the graph unchanged. Callers
// treat capacity errors as recoverable: a link that cannot be added is
// skipped, not fatal.
//
// # Serialization
//
// [Document] is the canonical wire format (JSON files, cache entries,
// archive records). Use [Graph.ToDocument] / [FromDocument] to convert and
// [WriteFile] / [ReadFile] for files. Serialized edge lists are normalized
// (u < v) and sorted, so output is deterministic.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. The analysis pipeline is
// single-threaded by design; callers must synchronize if they share a graph
// across goroutines.
package topo
