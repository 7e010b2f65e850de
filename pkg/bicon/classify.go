package bicon

import "github.com/topomesh/meshify/pkg/topo"

// BlockKind is the position of a block in the block-cut tree.
type BlockKind int

const (
	// KindIsolated marks a block with no cut-vertex members: a
	// biconnected subgraph that is a whole connected component.
	KindIsolated BlockKind = iota

	// KindLeaf marks a block with exactly one cut-vertex member, its sole
	// attachment point to the rest of the graph.
	KindLeaf

	// KindInternal marks a block with two or more cut-vertex members.
	KindInternal
)

// String returns the lowercase kind name.
func (k BlockKind) String() string {
	switch k {
	case KindIsolated:
		return "isolated"
	case KindLeaf:
		return "leaf"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Classified pairs a block with its block-cut-tree position.
type Classified struct {
	Block    *Block
	Kind     BlockKind
	CutCount int           // cut-vertex members
	Cuts     []topo.NodeID // the cut members, in member order
}

// Classify labels every block of the analysis by counting its cut-vertex
// members. Block discovery order is preserved, so the derived leaf order
// is deterministic.
func Classify(a *Analysis) []Classified {
	cls := make([]Classified, len(a.Blocks))
	for i := range a.Blocks {
		b := &a.Blocks[i]
		c := Classified{Block: b}
		for _, v := range b.Members {
			if a.IsCut[v] {
				c.CutCount++
				c.Cuts = append(c.Cuts, v)
			}
		}
		switch {
		case c.CutCount == 0:
			c.Kind = KindIsolated
		case c.CutCount == 1:
			c.Kind = KindLeaf
		default:
			c.Kind = KindInternal
		}
		cls[i] = c
	}
	return cls
}

// LeafBlocks filters the leaf blocks, preserving discovery order.
func LeafBlocks(cls []Classified) []Classified {
	var leaves []Classified
	for _, c := range cls {
		if c.Kind == KindLeaf {
			leaves = append(leaves, c)
		}
	}
	return leaves
}

// Representative picks the node a new external link should attach to:
// the first non-cut member in member order, preserving the block's
// interior cohesion. When every member is a cut vertex (a bridge between
// two cut vertices), the first member.
func Representative(b *Block, isCut []bool) topo.NodeID {
	for _, v := range b.Members {
		if v >= 0 && v < len(isCut) && !isCut[v] {
			return v
		}
	}
	return b.Members[0]
}
