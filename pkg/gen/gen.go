// Package gen produces seeded random mesh topologies: a spanning tree
// backbone that guarantees connectivity, plus locality-biased cross links
// that favor nearby node ids. The same Options always produce the same
// topology, so generation doubles as a fixture factory for tests and
// cached pipeline runs.
package gen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/topomesh/meshify/pkg/topo"
)

// Generation defaults. Probability steers cross-link density: the target
// link count is Nodes * Prob * 10.
const (
	DefaultNodes = 50
	DefaultProb  = 0.15
)

var (
	// ErrNodeCount is returned by [Generate] when Options.Nodes is negative
	// or exceeds topo.MaxNodes.
	ErrNodeCount = errors.New("node count out of range")

	// ErrProbability is returned by [Generate] when Options.Prob falls
	// outside (0, 1].
	ErrProbability = errors.New("probability out of range")

	// ErrDegenerate is returned by [Generate] when the requested topology
	// is too small to carry a backbone. One node has nothing to link.
	ErrDegenerate = errors.New("topology too small to generate")
)

// Options configures [Generate]. Zero fields take defaults; Seed 0 derives
// a seed from the clock and writes the resolved value back, so callers can
// record what was actually used.
type Options struct {
	Nodes int     // node count, 2..topo.MaxNodes
	Prob  float64 // cross-link density, (0, 1]
	Seed  uint64
}

// Validate fills defaults and rejects out-of-range fields. [Generate]
// calls it implicitly; callers that need resolved defaults before
// generating, such as the pipeline, may call it themselves.
func (o *Options) Validate() error {
	if o.Nodes == 0 {
		o.Nodes = DefaultNodes
	}
	if o.Nodes < 0 || o.Nodes > topo.MaxNodes {
		return fmt.Errorf("%w: %d not in 2..%d", ErrNodeCount, o.Nodes, topo.MaxNodes)
	}
	if o.Nodes < 2 {
		return fmt.Errorf("%w: %d node(s)", ErrDegenerate, o.Nodes)
	}
	if o.Prob == 0 {
		o.Prob = DefaultProb
	}
	if o.Prob < 0 || o.Prob > 1 {
		return fmt.Errorf("%w: %v not in (0, 1]", ErrProbability, o.Prob)
	}
	if o.Seed == 0 {
		o.Seed = uint64(time.Now().UnixNano())
	}
	return nil
}

// Generate builds a connected topology from opts.
//
// Node i joins the backbone through a uniformly chosen earlier node, which
// yields one spanning tree over all ids. Cross links are then sampled
// uniformly and accepted with probability 1/(1 + |u-v|/10), biasing the
// mesh toward local links the way radio reach would. Candidates that hit a
// full adjacency list are skipped and counted, never fatal.
func Generate(opts *Options, logger *log.Logger) (*topo.Graph, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n := opts.Nodes
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))

	g, err := topo.New(n)
	if err != nil {
		return nil, err
	}

	for i := 1; i < n; i++ {
		if err := attachToBackbone(g, rng, i); err != nil {
			return nil, err
		}
	}

	target := int(float64(n) * opts.Prob * 10)
	added, skips := 0, 0
	for attempts := 0; added < target && attempts < 3*target; attempts++ {
		u, v := rng.IntN(n), rng.IntN(n)
		if u == v || g.HasEdge(u, v) {
			continue
		}
		dist := u - v
		if dist < 0 {
			dist = -dist
		}
		if rng.Float64() > 1.0/(1.0+float64(dist)/10.0) {
			continue
		}
		switch err := g.AddEdge(u, v); {
		case err == nil:
			added++
		case errors.Is(err, topo.ErrNeighborCapacity):
			skips++
		default:
			return nil, fmt.Errorf("cross link %d-%d: %w", u, v, err)
		}
	}

	if logger != nil {
		if skips > 0 {
			logger.Warn("cross links skipped at capacity", "skipped", skips)
		}
		logger.Debug("topology generated",
			"nodes", n, "edges", g.EdgeCount(), "cross_links", added, "seed", opts.Seed)
	}
	return g, nil
}

// attachToBackbone links node i to an earlier node. A uniform pick keeps
// tree shapes varied; when the pick sits at capacity the probe walks the
// earlier ids, which always finds room since a tree uses 2(n-1) of the
// 80n available adjacency slots.
func attachToBackbone(g *topo.Graph, rng *rand.Rand, i int) error {
	p := rng.IntN(i)
	for range i {
		err := g.AddEdge(i, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, topo.ErrNeighborCapacity) {
			return fmt.Errorf("backbone link %d-%d: %w", i, p, err)
		}
		p = (p + 1) % i
	}
	return fmt.Errorf("backbone link for node %d: %w", i, topo.ErrNeighborCapacity)
}
