package bicon

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/topomesh/meshify/pkg/topo"
)

var (
	// ErrAlreadyBiconnected is returned by [BuildPlan] when the analysis
	// found no cut vertices. Informational: callers skip the mesh stage.
	ErrAlreadyBiconnected = errors.New("topology has no cut vertices")

	// ErrTooFewLeaves is returned by [BuildPlan] when fewer than two leaf
	// blocks exist, leaving nothing to pair. Informational.
	ErrTooFewLeaves = errors.New("fewer than two leaf blocks")
)

// Reasons a leaf-block pair was skipped rather than connected.
const (
	SkipSameRepresentative = "representatives coincide"
	SkipLinkExists         = "link already exists"
	SkipNoCapacity         = "no spare neighbor capacity"
)

// PlannedLink is one redundant link the planner wants to add.
type PlannedLink struct {
	U, V   topo.NodeID
	BlockU int // leaf block providing U
	BlockV int // leaf block providing V
}

// SkippedPair records a leaf-block pair that could not be connected.
// Skips are reported, never silent: they mark redundancy gaps left in the
// topology.
type SkippedPair struct {
	BlockU, BlockV int
	U, V           topo.NodeID
	Reason         string
}

// Plan is the planner's output: links to add and pairs it had to skip.
type Plan struct {
	Links   []PlannedLink
	Skipped []SkippedPair
}

// BuildPlan pairs leaf blocks and picks the links that merge them.
//
// Pairing is deterministic in leaf discovery order: (leaf 0, leaf 1),
// (leaf 2, leaf 3), and so on; an odd count wraps the final leaf back to
// leaf 0, closing a cycle across otherwise-dangling branches. Each pair
// is connected through its block representatives when they differ, the
// link does not already exist, and both endpoints have spare capacity.
//
// Returns ErrAlreadyBiconnected or ErrTooFewLeaves when there is nothing
// to plan; both are informational rather than failures.
func BuildPlan(g *topo.Graph, a *Analysis, cls []Classified) (*Plan, error) {
	if len(a.CutVertices) == 0 {
		return nil, ErrAlreadyBiconnected
	}
	leaves := LeafBlocks(cls)
	if len(leaves) < 2 {
		return nil, ErrTooFewLeaves
	}

	plan := &Plan{}
	for i := 0; i < len(leaves); i += 2 {
		j := i + 1
		if j == len(leaves) {
			j = 0
		}
		li, lj := leaves[i], leaves[j]
		u := Representative(li.Block, a.IsCut)
		v := Representative(lj.Block, a.IsCut)

		switch {
		case u == v:
			plan.skip(li, lj, u, v, SkipSameRepresentative)
		case g.HasEdge(u, v):
			plan.skip(li, lj, u, v, SkipLinkExists)
		case g.DegreeOf(u) >= topo.MaxNeighbors || g.DegreeOf(v) >= topo.MaxNeighbors:
			plan.skip(li, lj, u, v, SkipNoCapacity)
		default:
			plan.Links = append(plan.Links, PlannedLink{
				U: u, V: v,
				BlockU: li.Block.ID,
				BlockV: lj.Block.ID,
			})
		}
	}
	return plan, nil
}

func (p *Plan) skip(li, lj Classified, u, v topo.NodeID, reason string) {
	p.Skipped = append(p.Skipped, SkippedPair{
		BlockU: li.Block.ID,
		BlockV: lj.Block.ID,
		U:      u, V: v,
		Reason: reason,
	})
}

// ApplyPlan inserts the planned links, tagged redundant.
//
// Application is best effort: a link that has become a duplicate or hits
// a capacity ceiling (both possible when pairs share representatives) is
// recorded on the plan's skip list and logged, not fatal. Returns the
// number of links actually added.
func ApplyPlan(g *topo.Graph, p *Plan, logger *log.Logger) (int, error) {
	added := 0
	for _, l := range p.Links {
		err := g.AddRedundantEdge(l.U, l.V)
		switch {
		case err == nil:
			added++
			if logger != nil {
				logger.Debug("redundant link added", "u", l.U, "v", l.V)
			}
		case errors.Is(err, topo.ErrDuplicateEdge), errors.Is(err, topo.ErrNeighborCapacity):
			reason := SkipLinkExists
			if errors.Is(err, topo.ErrNeighborCapacity) {
				reason = SkipNoCapacity
			}
			p.Skipped = append(p.Skipped, SkippedPair{
				BlockU: l.BlockU, BlockV: l.BlockV,
				U: l.U, V: l.V,
				Reason: reason,
			})
			if logger != nil {
				logger.Warn("redundant link skipped", "u", l.U, "v", l.V, "reason", reason)
			}
		default:
			return added, fmt.Errorf("add redundant link %d-%d: %w", l.U, l.V, err)
		}
	}
	return added, nil
}
