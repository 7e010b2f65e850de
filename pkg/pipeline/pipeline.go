// Package pipeline wires topology generation, connectivity analysis,
// redundancy meshing, and rendering into one reusable flow.
//
// This package implements the complete generate → analyze → mesh → render
// pipeline shared by the CLI and the serve API. Centralizing the flow keeps
// behavior identical across entry points and gives both a single place for
// artifact caching.
//
// # Architecture
//
// A full run moves through five stages:
//
//  1. Generate: build a seeded random connected topology (or accept a loaded one)
//  2. Analyze: decompose the topology into biconnected blocks and cut vertices
//  3. Mesh: when cut vertices exist, plan and insert redundant links
//  4. Confirm: re-run the analysis on the meshed topology
//  5. Render: produce artifacts in the requested formats (DOT, SVG, PNG, JSON)
//
// The mesh and confirm stages are skipped when the first analysis finds no
// cut vertices or when SkipMesh is set.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Nodes:   80,
//	    Seed:    42,
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run against an existing topology instead of generating one:
//
//	g, doc, err := topo.ReadFile("mesh.json")
//	result, err := runner.ExecuteGraph(ctx, g, doc.Meta, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/topomesh/meshify/pkg/bicon"
	"github.com/topomesh/meshify/pkg/cache"
	"github.com/topomesh/meshify/pkg/gen"
	"github.com/topomesh/meshify/pkg/topo"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Serve
// =============================================================================

const (
	// DefaultNodes is the default topology size.
	DefaultNodes = gen.DefaultNodes

	// DefaultProb is the default cross-link density.
	DefaultProb = gen.DefaultProb
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// DefaultFormat is the format used when none is requested. DOT is the
// cheapest to produce and needs no Graphviz engine.
const DefaultFormat = FormatDOT

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Generator options
	Nodes int     `json:"nodes,omitempty"`
	Prob  float64 `json:"prob,omitempty"`
	Seed  uint64  `json:"seed,omitempty"`

	// Mesh options
	SkipMesh bool `json:"skip_mesh,omitempty"` // analyze and render only, never mutate

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // degree labels on DOT nodes

	// Name labels the run and scopes its cache keys. Empty is fine.
	Name string `json:"name,omitempty"`

	// Refresh bypasses the artifact cache and re-renders.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	// Graph is the final topology, meshed when meshing ran.
	Graph *topo.Graph

	// Doc is the canonical serialized form of Graph, carrying the run
	// name and generation provenance.
	Doc *topo.Document

	// TopoHash is the content hash of the bare topology. Name and
	// provenance metadata do not affect it, so identical structures
	// share artifacts regardless of labeling.
	TopoHash string

	// Seed is the generator seed that was actually used. Zero when the
	// topology was loaded and carried no recorded seed.
	Seed uint64

	// Before is the pre-mesh analysis. Nil when no meshing ran.
	Before *bicon.Analysis

	// Analysis is the analysis of the final topology: the confirmation
	// run when meshing happened, otherwise the sole analysis.
	Analysis *bicon.Analysis

	// Plan is the executed redundancy plan. Nil when no meshing ran.
	Plan *bicon.Plan

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains counters and timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics. The structural counters
// (CutsBefore, Blocks, LeafBlocks) describe the first analysis, the one
// that diagnosed the topology; NodeCount, EdgeCount, and CutsAfter
// describe the delivered result.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	EdgesAdded   int
	EdgesSkipped int
	CutsBefore   int
	CutsAfter    int
	Blocks       int
	LeafBlocks   int

	// Durations holds per-stage wall time keyed by stage name:
	// generate, analyze, plan, reanalyze, render.
	Durations map[string]time.Duration

	// Total is the wall time of the whole run.
	Total time.Duration
}

// CacheInfo tracks cache hits for cached pipeline stages.
type CacheInfo struct {
	RenderHit bool // whether every requested artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. This method is idempotent - calling it multiple times has the
// same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForGenerate(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForGenerate checks the generator fields and applies defaults.
// Bounds live in the gen package; this just surfaces them early so API
// callers fail before any work starts.
func (o *Options) ValidateForGenerate() error {
	genOpts := o.GenOptions()
	if err := genOpts.Validate(); err != nil {
		return err
	}
	o.Nodes = genOpts.Nodes
	o.Prob = genOpts.Prob
	// Seed stays as given; zero means the generator picks one at run time.

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// GenOptions returns the generator configuration for this run.
func (o *Options) GenOptions() gen.Options {
	return gen.Options{
		Nodes: o.Nodes,
		Prob:  o.Prob,
		Seed:  o.Seed,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}
