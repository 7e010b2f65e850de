package bicon

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/topomesh/meshify/pkg/topo"
)

const (
	// DefaultArenaCap bounds the edge arena used while carving blocks.
	// Topologies dense enough to exceed it (possible only near the
	// MaxNodes * MaxNeighbors ceiling) get a truncated result instead of
	// an abort.
	DefaultArenaCap = 25000

	// MaxBlocks bounds the block table. Unreachable for topologies within
	// [topo.MaxNodes] (block count never exceeds N-1), kept as a hard stop.
	MaxBlocks = 1250
)

var (
	// ErrArenaFull is returned (wrapped) when the edge arena overflows.
	// The analysis still completes: cut-vertex flags are exact, block
	// extraction stops at the overflow point, and Analysis.Truncated is set.
	ErrArenaFull = errors.New("edge arena full")

	// ErrTooManyBlocks is returned (wrapped) when the block table
	// overflows. See ErrArenaFull for the partial-result contract.
	ErrTooManyBlocks = errors.New("block table full")
)

// Block is one maximal biconnected subgraph.
// Blocks partition the edge set: every edge belongs to exactly one block.
type Block struct {
	ID      int           // discovery index, 0-based
	Members []topo.NodeID // unique members, in edge-traversal order
	Edges   []topo.Edge   // the block's edges, normalized U < V
}

// IsBridge reports whether the block is a single bridge edge.
func (b *Block) IsBridge() bool { return len(b.Members) == 2 }

// Analysis is the result of one connectivity decomposition.
// Every call to [Analyze] returns a freshly allocated Analysis; results
// never share state with the analyzer or with each other.
type Analysis struct {
	Nodes       int
	Edges       int
	CutVertices []topo.NodeID // ascending id order
	IsCut       []bool        // indexed by node id
	Blocks      []Block       // discovery order
	Truncated   bool          // capacity overflow: block data is partial
}

// IsCutVertex reports whether v is a cut vertex. Range-safe.
func (a *Analysis) IsCutVertex(v topo.NodeID) bool {
	return v >= 0 && v < len(a.IsCut) && a.IsCut[v]
}

// Options tunes an analysis run.
type Options struct {
	// Logger receives traversal diagnostics. Nil disables logging.
	Logger *log.Logger

	// ArenaCap overrides DefaultArenaCap when positive. The effective
	// capacity never exceeds the graph's edge count.
	ArenaCap int
}

// Analyze decomposes the graph with default options.
func Analyze(g *topo.Graph) (*Analysis, error) {
	return AnalyzeWith(g, Options{})
}

// AnalyzeWith decomposes the graph into blocks and cut vertices.
//
// The traversal is iterative and runs once per unvisited node, so
// disconnected graphs are covered component by component. A single-node
// graph yields zero blocks and zero cut vertices.
//
// On capacity overflow the returned Analysis carries partial block data
// with Truncated set, alongside a wrapped ErrArenaFull or
// ErrTooManyBlocks. Cut-vertex output is exact either way.
func AnalyzeWith(g *topo.Graph, opts Options) (*Analysis, error) {
	n := g.Nodes()
	m := g.EdgeCount()

	arenaCap := opts.ArenaCap
	if arenaCap <= 0 {
		arenaCap = DefaultArenaCap
	}
	if m < arenaCap {
		arenaCap = m
	}

	a := &analyzer{
		g:        g,
		logger:   opts.Logger,
		disc:     make([]int, n),
		low:      make([]int, n),
		isCut:    make([]bool, n),
		mark:     make([]int, n),
		arena:    make([]arenaEdge, 0, arenaCap),
		arenaCap: arenaCap,
	}
	for v := range a.disc {
		a.disc[v] = -1
	}

	for r := 0; r < n; r++ {
		if a.disc[r] == -1 {
			a.component(r)
		}
	}

	res := &Analysis{
		Nodes:     n,
		Edges:     m,
		IsCut:     a.isCut,
		Blocks:    a.blocks,
		Truncated: a.truncated,
	}
	for v := 0; v < n; v++ {
		if a.isCut[v] {
			res.CutVertices = append(res.CutVertices, v)
		}
	}

	if a.logger != nil {
		a.logger.Debug("analysis complete",
			"nodes", n, "edges", m,
			"blocks", len(res.Blocks), "cut_vertices", len(res.CutVertices))
	}

	if a.truncated {
		return res, fmt.Errorf("analysis truncated: %w", a.overflowErr)
	}
	return res, nil
}

// dfsFrame is one node's traversal state on the explicit stack.
type dfsFrame struct {
	v        topo.NodeID
	parent   topo.NodeID // -1 for a component root
	next     int         // cursor into the neighbor list
	children int         // tree children discovered so far
}

type arenaEdge struct {
	u, v topo.NodeID
}

// analyzer holds the per-run state. One instance per AnalyzeWith call.
type analyzer struct {
	g      *topo.Graph
	logger *log.Logger

	disc  []int
	low   []int
	isCut []bool
	mark  []int // member dedup stamps, value = block id + 1

	frames   []dfsFrame
	arena    []arenaEdge
	arenaCap int
	clock    int

	blocks      []Block
	truncated   bool
	overflowErr error
}

// component traverses one connected component rooted at root.
func (a *analyzer) component(root topo.NodeID) {
	a.discover(root)
	a.frames = append(a.frames, dfsFrame{v: root, parent: -1})

	for len(a.frames) > 0 {
		f := &a.frames[len(a.frames)-1]
		nbrs := a.g.Neighbors(f.v)

		if f.next < len(nbrs) {
			w := nbrs[f.next]
			f.next++

			if a.disc[w] == -1 {
				// Tree edge: record it and descend.
				f.children++
				a.pushEdge(f.v, w)
				a.discover(w)
				a.frames = append(a.frames, dfsFrame{v: w, parent: f.v})
				// f may point into freed backing memory now; the next
				// iteration re-takes the top frame.
				continue
			}
			if w != f.parent && a.disc[w] < a.disc[f.v] {
				// Back edge to an ancestor, seen from the deeper end:
				// record it and lift the low link.
				a.pushEdge(f.v, w)
				if a.disc[w] < a.low[f.v] {
					a.low[f.v] = a.disc[w]
				}
			}
			continue
		}

		// Neighbors exhausted: unwind this frame.
		done := *f
		a.frames = a.frames[:len(a.frames)-1]

		if done.parent == -1 {
			// Root rule: a root separates iff it has two or more tree
			// children.
			if done.children > 1 {
				a.isCut[done.v] = true
			}
			a.sweepResidue(done.v)
			continue
		}

		p := &a.frames[len(a.frames)-1]
		if a.low[done.v] < a.low[p.v] {
			a.low[p.v] = a.low[done.v]
		}
		if a.low[done.v] >= a.disc[p.v] {
			// Nothing below done.v reaches above p.v, so p.v caps a
			// finished block.
			a.popBlock(p.v, done.v)
			if p.parent != -1 {
				a.isCut[p.v] = true
			}
		}
	}
}

func (a *analyzer) discover(v topo.NodeID) {
	a.disc[v] = a.clock
	a.low[v] = a.clock
	a.clock++
}

func (a *analyzer) pushEdge(u, v topo.NodeID) {
	if len(a.arena) >= a.arenaCap {
		a.overflow(ErrArenaFull)
		return
	}
	a.arena = append(a.arena, arenaEdge{u: u, v: v})
}

// popBlock carves one block: every arena entry above and including the
// tree edge (u,v).
func (a *analyzer) popBlock(u, v topo.NodeID) {
	idx := -1
	for i := len(a.arena) - 1; i >= 0; i-- {
		if a.arena[i].u == u && a.arena[i].v == v {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Defensive bound: a truncated arena can lose the marker. Consume
		// what is left so later blocks stay disjoint.
		if !a.truncated && a.logger != nil {
			a.logger.Warn("edge missing from arena", "u", u, "v", v)
		}
		if len(a.arena) == 0 {
			return
		}
		idx = 0
	}
	a.carve(a.arena[idx:])
	a.arena = a.arena[:idx]
}

// sweepResidue collects any edges left on the arena after a root's
// traversal. With the pop rule above the arena is always empty here; the
// sweep keeps the edge partition closed if that invariant ever breaks.
func (a *analyzer) sweepResidue(root topo.NodeID) {
	if len(a.arena) == 0 {
		return
	}
	if !a.truncated && a.logger != nil {
		a.logger.Warn("arena residue after root traversal",
			"root", root, "edges", len(a.arena))
	}
	a.carve(a.arena)
	a.arena = a.arena[:0]
}

// carve appends one block built from arena entries in push order.
func (a *analyzer) carve(entries []arenaEdge) {
	if len(entries) == 0 {
		return
	}
	if len(a.blocks) >= MaxBlocks {
		a.overflow(ErrTooManyBlocks)
		return
	}

	id := len(a.blocks)
	b := Block{
		ID:      id,
		Members: make([]topo.NodeID, 0, len(entries)+1),
		Edges:   make([]topo.Edge, 0, len(entries)),
	}
	for _, e := range entries {
		b.Edges = append(b.Edges, topo.Edge{
			U:         min(e.u, e.v),
			V:         max(e.u, e.v),
			Redundant: a.g.IsRedundant(e.u, e.v),
		})
		if a.mark[e.u] != id+1 {
			a.mark[e.u] = id + 1
			b.Members = append(b.Members, e.u)
		}
		if a.mark[e.v] != id+1 {
			a.mark[e.v] = id + 1
			b.Members = append(b.Members, e.v)
		}
	}
	a.blocks = append(a.blocks, b)
}

func (a *analyzer) overflow(err error) {
	if a.truncated {
		return
	}
	a.truncated = true
	a.overflowErr = err
	if a.logger != nil {
		a.logger.Warn("capacity exceeded, block extraction truncated",
			"cause", err, "arena_cap", a.arenaCap, "blocks", len(a.blocks))
	}
}
