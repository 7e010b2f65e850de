// Package pkg provides the core libraries for meshify topology analysis.
//
// # Overview
//
// Meshify makes mesh network topologies fault tolerant: it finds the cut
// vertices (nodes whose failure splits the network), pairs up the leaf
// blocks of the block-cut tree, and adds redundant links until no single
// point of failure remains. The pkg directory is organized into three
// main areas:
//
//  1. Domain core - graph store, connectivity analysis, generation
//  2. Rendering - DOT serialization and SVG/PNG output
//  3. Infrastructure - pipeline orchestration, caching, run history
//
// # Architecture
//
// The typical data flow through meshify:
//
//	Topology (generated or loaded from JSON)
//	         ↓
//	    [topo] package (bounded adjacency store)
//	         ↓
//	    [bicon] package (cut vertices + biconnected blocks)
//	         ↓
//	    [bicon] classify + plan (pair leaf blocks, add links)
//	         ↓
//	    [render/dot] package (DOT/SVG/PNG output)
//
// # Quick Start
//
// Generate a topology, find its weak points, and mesh them away:
//
//	import (
//	    "github.com/topomesh/meshify/pkg/bicon"
//	    "github.com/topomesh/meshify/pkg/gen"
//	)
//
//	// 1. Generate a seeded random topology
//	opts := gen.Options{Nodes: 50, Prob: 0.15, Seed: 42}
//	g, _ := gen.Generate(&opts, nil)
//
//	// 2. Find cut vertices and biconnected blocks
//	a, _ := bicon.Analyze(g)
//
//	// 3. Pair leaf blocks and add redundant links
//	cls := bicon.Classify(a)
//	plan, _ := bicon.BuildPlan(g, a, cls)
//	added, _ := bicon.ApplyPlan(g, plan, nil)
//
//	// 4. Verify
//	after, _ := bicon.Analyze(g)
//	fmt.Println(added, "links added,", len(after.CutVertices), "cut vertices left")
//
// # Main Packages
//
// ## Domain Core
//
// [topo] - Bounded undirected adjacency store with hard node and
// per-node neighbor ceilings, plus the JSON document format used by
// files, cache entries, and archive records.
//
// [bicon] - Connectivity analysis: an iterative Hopcroft-Tarjan pass
// over a fixed edge arena yields cut vertices and biconnected blocks,
// the classifier positions each block in the block-cut tree, and the
// planner pairs leaf blocks into redundant links.
//
// [gen] - Seeded random topology generator: a spanning backbone with
// locality-biased cross links, reproducible from a single seed.
//
// ## Rendering
//
// [render/dot] - DOT serialization with cut vertices and redundant
// links highlighted, and SVG/PNG rasterization via go-graphviz.
//
// ## Infrastructure
//
// [pipeline] - The staged run used by every entry point:
// generate/load → analyze → plan → re-analyze → render, with per-stage
// timings, content-hash cache keys, and a run id.
//
// [cache] - Artifact cache with file, Redis, and null backends behind
// one interface. Rendering is the slow stage; an unchanged topology
// never renders twice.
//
// [archive] - Run history records with file and MongoDB backends,
// serving the history command and the HTTP API.
//
// [errors] - Coded errors shared by the CLI and the HTTP API, plus the
// input validation helpers.
//
// [buildinfo] - Version, commit, and build date injected via ldflags.
//
// # Common Workflows
//
// Load a topology file and analyze it:
//
//	g, doc, _ := topo.ReadFile("topo.json")
//	a, _ := bicon.Analyze(g)
//	fmt.Println(doc.Name, "has", len(a.CutVertices), "cut vertices")
//
// Run the full pipeline with caching:
//
//	c, _ := cache.NewFileCache("")
//	runner := pipeline.NewRunner(c, nil, nil)
//	res, _ := runner.Execute(ctx, pipeline.Options{Nodes: 50, Formats: []string{"svg"}})
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/bicon/...     # Specific package
//	go test -run Example        # Examples only
//
// [topo]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/topo
// [bicon]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/bicon
// [gen]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/gen
// [render/dot]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/render/dot
// [pipeline]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/cache
// [archive]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/archive
// [errors]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/topomesh/meshify/pkg/buildinfo
package pkg
