package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/topomesh/meshify/pkg/cache"
	"github.com/topomesh/meshify/pkg/topo"
)

func quietRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	return NewRunner(c, nil, log.New(io.Discard))
}

// buildPath returns the path topology 0-1-...-(n-1).
func buildPath(t *testing.T, n int) *topo.Graph {
	t.Helper()
	g, err := topo.New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	for i := 0; i+1 < n; i++ {
		if err := g.AddEdge(i, i+1); err != nil {
			t.Fatalf("AddEdge(%d, %d): %v", i, i+1, err)
		}
	}
	return g
}

func buildTriangle(t *testing.T) *topo.Graph {
	t.Helper()
	g, err := topo.New(3)
	if err != nil {
		t.Fatalf("New(3): %v", err)
	}
	for _, e := range [][2]int{{0, 1}, {0, 2}, {1, 2}} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%d, %d): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"json", false},
		{"invalid", true},
		{"DOT", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"dot", "svg"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"dot", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Empty options should pass: %v", err)
	}

	if opts.Nodes != DefaultNodes {
		t.Errorf("Nodes should be %d, got %d", DefaultNodes, opts.Nodes)
	}
	if opts.Prob != DefaultProb {
		t.Errorf("Prob should be %v, got %v", DefaultProb, opts.Prob)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats should be [%s], got %v", DefaultFormat, opts.Formats)
	}
	if opts.Seed != 0 {
		t.Errorf("Seed should stay 0 until generation, got %d", opts.Seed)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative nodes", Options{Nodes: -3}},
		{"single node", Options{Nodes: 1}},
		{"too many nodes", Options{Nodes: topo.MaxNodes + 1}},
		{"negative prob", Options{Prob: -0.5}},
		{"prob above one", Options{Prob: 1.5}},
		{"bad format", Options{Formats: []string{"bmp"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Errorf("ValidateAndSetDefaults() should fail for %+v", tt.opts)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Nodes: 20, Seed: 7}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalProb := opts.Prob
	originalFormats := len(opts.Formats)

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Prob != originalProb {
		t.Error("Prob changed on second call")
	}
	if len(opts.Formats) != originalFormats {
		t.Error("Formats changed on second call")
	}
	if opts.Seed != 7 {
		t.Errorf("Seed changed on second call: %d", opts.Seed)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Detailed: true}

	keyOpts := opts.ArtifactKeyOpts(FormatSVG)
	if keyOpts.Format != FormatSVG {
		t.Errorf("Format = %q, want %q", keyOpts.Format, FormatSVG)
	}
	if !keyOpts.Detailed {
		t.Error("Detailed flag should carry over")
	}
}

func TestExecuteGraphPath(t *testing.T) {
	r := quietRunner(t, nil)
	g := buildPath(t, 5)

	res, err := r.ExecuteGraph(context.Background(), g, nil, Options{
		Formats: []string{FormatDOT, FormatJSON},
	})
	if err != nil {
		t.Fatalf("ExecuteGraph: %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if len(res.TopoHash) != 64 {
		t.Errorf("TopoHash should be a sha256 hex digest, got %q", res.TopoHash)
	}

	s := res.Stats
	if s.CutsBefore != 3 || s.CutsAfter != 0 {
		t.Errorf("cuts before/after = %d/%d, want 3/0", s.CutsBefore, s.CutsAfter)
	}
	if s.Blocks != 4 || s.LeafBlocks != 2 {
		t.Errorf("blocks/leaves = %d/%d, want 4/2", s.Blocks, s.LeafBlocks)
	}
	if s.EdgesAdded != 1 || s.EdgesSkipped != 0 {
		t.Errorf("added/skipped = %d/%d, want 1/0", s.EdgesAdded, s.EdgesSkipped)
	}
	if s.NodeCount != 5 || s.EdgeCount != 5 {
		t.Errorf("nodes/edges = %d/%d, want 5/5", s.NodeCount, s.EdgeCount)
	}

	if res.Before == nil || res.Plan == nil {
		t.Fatal("Before and Plan should be set after meshing")
	}
	if len(res.Plan.Links) != 1 || res.Plan.Links[0].U != 4 || res.Plan.Links[0].V != 0 {
		t.Errorf("planned links = %+v, want single 4-0", res.Plan.Links)
	}
	if !res.Graph.IsRedundant(0, 4) {
		t.Error("meshed link 0-4 should be tagged redundant")
	}

	dotSrc := string(res.Artifacts[FormatDOT])
	if !strings.Contains(dotSrc, `0 -- 4 [color="#00AA00"`) {
		t.Errorf("DOT artifact should style the redundant link, got:\n%s", dotSrc)
	}

	doc, err := topo.Unmarshal(res.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("JSON artifact should decode: %v", err)
	}
	if doc.NodeCount != 5 || len(doc.Edges) != 5 {
		t.Errorf("JSON artifact nodes/edges = %d/%d, want 5/5", doc.NodeCount, len(doc.Edges))
	}

	for _, stage := range []string{"analyze", "plan", "reanalyze", "render"} {
		if _, ok := s.Durations[stage]; !ok {
			t.Errorf("missing %q duration", stage)
		}
	}
	if _, ok := s.Durations["generate"]; ok {
		t.Error("loaded topologies should not report a generate duration")
	}
}

func TestExecuteGraphSkipMesh(t *testing.T) {
	r := quietRunner(t, nil)
	g := buildPath(t, 5)

	res, err := r.ExecuteGraph(context.Background(), g, nil, Options{SkipMesh: true})
	if err != nil {
		t.Fatalf("ExecuteGraph: %v", err)
	}

	if res.Stats.CutsBefore != 3 || res.Stats.CutsAfter != 3 {
		t.Errorf("cuts before/after = %d/%d, want 3/3", res.Stats.CutsBefore, res.Stats.CutsAfter)
	}
	if res.Before != nil || res.Plan != nil {
		t.Error("skip-mesh runs should not plan")
	}
	if res.Stats.EdgesAdded != 0 || res.Graph.EdgeCount() != 4 {
		t.Error("skip-mesh runs should leave the topology untouched")
	}
	if _, ok := res.Stats.Durations["plan"]; ok {
		t.Error("skip-mesh runs should not report a plan duration")
	}
}

func TestExecuteGraphBiconnected(t *testing.T) {
	r := quietRunner(t, nil)
	g := buildTriangle(t)

	res, err := r.ExecuteGraph(context.Background(), g, nil, Options{})
	if err != nil {
		t.Fatalf("ExecuteGraph: %v", err)
	}

	if res.Stats.CutsBefore != 0 || res.Stats.CutsAfter != 0 {
		t.Error("triangle has no cut vertices")
	}
	if res.Before != nil || res.Plan != nil {
		t.Error("biconnected topologies should skip meshing")
	}
	if res.Stats.Blocks != 1 || res.Stats.LeafBlocks != 0 {
		t.Errorf("blocks/leaves = %d/%d, want 1/0", res.Stats.Blocks, res.Stats.LeafBlocks)
	}
}

func TestExecuteDeterministicBySeed(t *testing.T) {
	r := quietRunner(t, nil)
	opts := Options{
		Nodes:   30,
		Seed:    7,
		Formats: []string{FormatDOT, FormatJSON},
	}

	res1, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	res2, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if res1.Seed != 7 || res2.Seed != 7 {
		t.Errorf("seeds = %d/%d, want 7/7", res1.Seed, res2.Seed)
	}
	if res1.TopoHash != res2.TopoHash {
		t.Error("same seed should produce the same topology hash")
	}
	if !bytes.Equal(res1.Artifacts[FormatDOT], res2.Artifacts[FormatDOT]) {
		t.Error("same seed should produce identical DOT output")
	}
	if !bytes.Equal(res1.Artifacts[FormatJSON], res2.Artifacts[FormatJSON]) {
		t.Error("same seed should produce identical JSON output")
	}
	if res1.RunID == res2.RunID {
		t.Error("run ids should differ between executions")
	}
}

func TestExecuteSeedResolved(t *testing.T) {
	r := quietRunner(t, nil)

	res, err := r.Execute(context.Background(), Options{Nodes: 12})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Seed == 0 {
		t.Error("zero seed should be resolved to the one actually used")
	}
	if res.Doc.Meta == nil || res.Doc.Meta.Seed != res.Seed {
		t.Error("document meta should record the resolved seed")
	}
	if _, ok := res.Stats.Durations["generate"]; !ok {
		t.Error("generated runs should report a generate duration")
	}
}

func TestExecuteGraphRenderCacheHit(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := quietRunner(t, fc)
	opts := Options{Formats: []string{FormatDOT, FormatJSON}}

	res1, err := r.ExecuteGraph(context.Background(), buildPath(t, 5), nil, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if res1.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}

	res2, err := r.ExecuteGraph(context.Background(), buildPath(t, 5), nil, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !res2.CacheInfo.RenderHit {
		t.Error("second run should hit the cache")
	}
	if !bytes.Equal(res1.Artifacts[FormatDOT], res2.Artifacts[FormatDOT]) {
		t.Error("cached DOT artifact should match the rendered one")
	}

	// Refresh bypasses the cache
	opts.Refresh = true
	res3, err := r.ExecuteGraph(context.Background(), buildPath(t, 5), nil, opts)
	if err != nil {
		t.Fatalf("refresh run: %v", err)
	}
	if res3.CacheInfo.RenderHit {
		t.Error("refresh runs should re-render")
	}
}

func TestExecuteGraphNamedRunsScopeCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := quietRunner(t, fc)

	res1, err := r.ExecuteGraph(context.Background(), buildPath(t, 5), nil, Options{Name: "prod"})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if res1.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if res1.Doc.Name != "prod" {
		t.Errorf("document name = %q, want prod", res1.Doc.Name)
	}

	// Same topology, different name: separate cache namespace.
	res2, err := r.ExecuteGraph(context.Background(), buildPath(t, 5), nil, Options{Name: "staging"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res2.CacheInfo.RenderHit {
		t.Error("a different run name should not share cached artifacts")
	}
	if res1.TopoHash != res2.TopoHash {
		t.Error("the topology hash itself should not depend on the name")
	}

	res3, err := r.ExecuteGraph(context.Background(), buildPath(t, 5), nil, Options{Name: "prod"})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if !res3.CacheInfo.RenderHit {
		t.Error("repeating a named run should hit its own namespace")
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := quietRunner(t, nil)

	if _, err := r.Execute(context.Background(), Options{Nodes: -3}); err == nil {
		t.Error("negative node count should fail")
	}
	if _, err := r.ExecuteGraph(context.Background(), buildPath(t, 3), nil, Options{Formats: []string{"bmp"}}); err == nil {
		t.Error("unknown format should fail")
	}
	if _, err := r.ExecuteGraph(context.Background(), nil, nil, Options{}); err == nil {
		t.Error("nil topology should fail")
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	g := buildTriangle(t)

	_, err := Render(context.Background(), g, nil, Options{Formats: []string{"bmp"}})
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error = %v, want unsupported format", err)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Error("NewRunner should fill nil collaborators")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
