// Package bicon decomposes undirected topologies into biconnected
// components and plans redundant links that remove single points of failure.
//
// # Overview
//
// A cut vertex (articulation point) is a node whose failure partitions the
// network. The analyzer finds every cut vertex and carves the graph into
// blocks - maximal biconnected subgraphs - in one depth-first pass
// (Tarjan's low-link algorithm). Blocks partition the edge set: every link
// belongs to exactly one block, while a node may sit in several.
//
// Blocks and cut vertices together form the block-cut tree. Blocks with
// exactly one cut-vertex member are its leaves: dangling attachment points
// whose loss isolates a whole branch. The planner pairs those leaves and
// connects their interior representatives, merging leaf blocks until the
// structure collapses toward a single biconnected whole.
//
// # Usage
//
//	analysis, err := bicon.Analyze(g)
//	if len(analysis.CutVertices) > 0 {
//	    cls := bicon.Classify(analysis)
//	    plan, err := bicon.BuildPlan(g, analysis, cls)
//	    if err == nil {
//	        bicon.ApplyPlan(g, plan, logger)
//	    }
//	}
//
// # Traversal Guarantees
//
// The traversal is iterative (an explicit frame stack, no recursion), so
// graph depth never threatens the goroutine stack. Every Analyze call owns
// its state: analyses never share arrays, and repeated runs over an
// unmodified graph produce identical output, because neighbor lists are
// iterated in insertion order and roots ascend 0..N-1.
//
// # Capacity
//
// Tree and back edges pass through a bounded arena while blocks are carved
// out. If a topology is dense enough to overflow it, the analysis finishes
// with Truncated set and an ErrArenaFull error: cut-vertex flags stay
// exact (they never depend on the arena), block extraction stops at the
// overflow point. Callers degrade to best effort rather than aborting.
//
// The planner is a heuristic, not a minimum-edge-addition algorithm: it is
// exact on chains and simple stars and a practical approximation on wider
// block-cut forests. Pairs it cannot connect are reported, never silently
// dropped.
package bicon
