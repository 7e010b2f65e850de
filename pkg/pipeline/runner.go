package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/topomesh/meshify/pkg/bicon"
	"github.com/topomesh/meshify/pkg/cache"
	"github.com/topomesh/meshify/pkg/gen"
	"github.com/topomesh/meshify/pkg/topo"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and serve API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options; each run analyzes into its own state.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete generate → analyze → mesh → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	total := time.Now()

	// Stage 1: Generate
	genStart := time.Now()
	genOpts := opts.GenOptions()
	g, err := gen.Generate(&genOpts, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	genTime := time.Since(genStart)

	opts.Logger.Info("generated topology",
		"nodes", g.Nodes(),
		"edges", g.EdgeCount(),
		"seed", genOpts.Seed,
		"duration", genTime)

	meta := &topo.Meta{
		Seed:        genOpts.Seed,
		Prob:        genOpts.Prob,
		GeneratedAt: time.Now().UTC(),
	}
	result, err := r.run(ctx, g, meta, opts)
	if err != nil {
		return nil, err
	}
	result.Seed = genOpts.Seed
	result.Stats.Durations["generate"] = genTime
	result.Stats.Total = time.Since(total)
	return result, nil
}

// ExecuteGraph runs analysis, meshing, and rendering against an existing
// topology, skipping generation. The graph is mutated in place when meshing
// runs. meta may be nil; when present it is carried into the result document
// so provenance survives a generate-save-mesh round trip.
func (r *Runner) ExecuteGraph(ctx context.Context, g *topo.Graph, meta *topo.Meta, opts Options) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("nil topology")
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	total := time.Now()
	result, err := r.run(ctx, g, meta, opts)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		result.Seed = meta.Seed
	}
	result.Stats.Total = time.Since(total)
	return result, nil
}

// run is the shared back half of the pipeline: analyze, mesh when cut
// vertices call for it, confirm, render.
func (r *Runner) run(ctx context.Context, g *topo.Graph, meta *topo.Meta, opts Options) (*Result, error) {
	result := &Result{
		RunID: uuid.NewString(),
		Graph: g,
		Stats: Stats{Durations: make(map[string]time.Duration)},
	}

	// Stage 2: Analyze
	analyzeStart := time.Now()
	before, err := bicon.AnalyzeWith(g, bicon.Options{Logger: opts.Logger})
	if err != nil {
		if before == nil {
			return nil, fmt.Errorf("analyze: %w", err)
		}
		// Arena overflow: cut flags are exact, block membership is not.
		opts.Logger.Warn("analysis truncated", "err", err)
	}
	analyzeTime := time.Since(analyzeStart)

	cls := bicon.Classify(before)
	leaves := len(bicon.LeafBlocks(cls))

	result.Analysis = before
	result.Stats.Durations["analyze"] = analyzeTime
	result.Stats.CutsBefore = len(before.CutVertices)
	result.Stats.CutsAfter = len(before.CutVertices)
	result.Stats.Blocks = len(before.Blocks)
	result.Stats.LeafBlocks = leaves

	opts.Logger.Info("analyzed connectivity",
		"cut_vertices", len(before.CutVertices),
		"blocks", len(before.Blocks),
		"leaf_blocks", leaves,
		"duration", analyzeTime)

	// Stages 3+4: Mesh and confirm, only when the diagnosis calls for it
	switch {
	case len(before.CutVertices) == 0:
		opts.Logger.Info("topology already biconnected")
	case opts.SkipMesh:
		opts.Logger.Info("meshing skipped by request")
	case before.Truncated:
		opts.Logger.Warn("meshing skipped, block data is partial")
	default:
		if err := r.mesh(g, before, cls, result, opts); err != nil {
			return nil, err
		}
	}

	// Final document and content hash. The hash covers the bare topology
	// only, so artifact identity never depends on names or timestamps.
	result.Doc = g.ToDocument(opts.Name, meta)
	bare, err := topo.Marshal(g.ToDocument("", nil))
	if err != nil {
		return nil, fmt.Errorf("serialize topology: %w", err)
	}
	result.TopoHash = cache.Hash(bare)
	result.Stats.NodeCount = g.Nodes()
	result.Stats.EdgeCount = g.EdgeCount()

	// Stage 5: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.renderCached(ctx, g, result.Analysis, result.TopoHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.Durations["render"] = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.Durations["render"])

	return result, nil
}

// mesh plans redundant links from the diagnosis, applies them, and
// re-analyzes to confirm the new state.
func (r *Runner) mesh(g *topo.Graph, before *bicon.Analysis, cls []bicon.Classified, result *Result, opts Options) error {
	planStart := time.Now()
	plan, err := bicon.BuildPlan(g, before, cls)
	switch {
	case errors.Is(err, bicon.ErrAlreadyBiconnected), errors.Is(err, bicon.ErrTooFewLeaves):
		// Informational: nothing to pair. The first analysis stays final.
		opts.Logger.Info("nothing to mesh", "reason", err)
		return nil
	case err != nil:
		return fmt.Errorf("plan: %w", err)
	}

	added, err := bicon.ApplyPlan(g, plan, opts.Logger)
	if err != nil {
		return fmt.Errorf("apply plan: %w", err)
	}
	planTime := time.Since(planStart)

	result.Plan = plan
	result.Stats.EdgesAdded = added
	result.Stats.EdgesSkipped = len(plan.Skipped)
	result.Stats.Durations["plan"] = planTime

	opts.Logger.Info("meshed topology",
		"links_added", added,
		"links_skipped", len(plan.Skipped),
		"duration", planTime)

	// Stage 4: Confirm
	reStart := time.Now()
	after, err := bicon.AnalyzeWith(g, bicon.Options{Logger: opts.Logger})
	if err != nil {
		if after == nil {
			return fmt.Errorf("reanalyze: %w", err)
		}
		opts.Logger.Warn("confirmation analysis truncated", "err", err)
	}
	reTime := time.Since(reStart)

	result.Before = before
	result.Analysis = after
	result.Stats.CutsAfter = len(after.CutVertices)
	result.Stats.Durations["reanalyze"] = reTime

	opts.Logger.Info("confirmed connectivity",
		"cut_vertices_before", len(before.CutVertices),
		"cut_vertices_after", len(after.CutVertices),
		"duration", reTime)

	return nil
}

// RenderWithCacheInfo renders artifacts with caching and returns cache hit
// info. The analysis may be nil, which drops cut-vertex styling.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *topo.Graph, a *bicon.Analysis, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	bare, err := topo.Marshal(g.ToDocument("", nil))
	if err != nil {
		return nil, false, fmt.Errorf("serialize topology for cache key: %w", err)
	}
	return r.renderCached(ctx, g, a, cache.Hash(bare), opts)
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *topo.Graph, a *bicon.Analysis, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, a, opts)
	return artifacts, err
}

// renderCached serves all requested formats from the cache when possible,
// otherwise renders and backfills the cache.
func (r *Runner) renderCached(ctx context.Context, g *topo.Graph, a *bicon.Analysis, topoHash string, opts Options) (map[string][]byte, bool, error) {
	keyer := r.keyerFor(opts)

	// Try to get all formats from cache (unless refresh requested)
	if !opts.Refresh {
		artifacts := make(map[string][]byte)
		allCached := true

		for _, format := range opts.Formats {
			key := keyer.ArtifactKey(topoHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}

		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := Render(ctx, g, a, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		key := keyer.ArtifactKey(topoHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}

	return rendered, false, nil // Cache miss
}

// keyerFor returns the runner's keyer, scoped when the run is named.
// Named runs keep their cache entries apart so clearing one project
// never touches another.
func (r *Runner) keyerFor(opts Options) cache.Keyer {
	if opts.Name == "" {
		return r.Keyer
	}
	return cache.NewScopedKeyer(r.Keyer, "name:"+opts.Name+":")
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
