package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/topomesh/meshify/pkg/archive"
	errs "github.com/topomesh/meshify/pkg/errors"
	"github.com/topomesh/meshify/pkg/gen"
	"github.com/topomesh/meshify/pkg/pipeline"
	"github.com/topomesh/meshify/pkg/topo"
)

// meshOpts holds the command-line flags for the mesh command.
type meshOpts struct {
	nodes    int     // node count when generating
	prob     float64 // cross-link density when generating
	seed     uint64  // random seed when generating
	name     string  // run name, scopes the cache and the archive record
	formats  string  // comma-separated artifact formats
	outDir   string  // artifact output directory
	noCache  bool    // disable the artifact cache
	skipMesh bool    // analyze and render only, add no links
	refresh  bool    // re-render even on a cache hit
	detailed bool    // label nodes with degree information
}

// meshCommand creates the mesh command, the full pipeline in one step.
func (c *CLI) meshCommand() *cobra.Command {
	var formatsStr string
	opts := meshOpts{
		nodes:  cmp.Or(c.cfg.Generate.Nodes, gen.DefaultNodes),
		prob:   cmp.Or(c.cfg.Generate.Prob, gen.DefaultProb),
		outDir: ".",
	}

	cmd := &cobra.Command{
		Use:   "mesh [topo.json]",
		Short: "Make a topology fault tolerant",
		Long: `Run the full pipeline: analyze the topology, pair up its leaf blocks,
add redundant links until no cut vertex remains, and render the result.

With a file argument the topology is loaded from disk; without one a fresh
topology is generated first (the generator flags apply). Artifacts are
written per --formats and the run is recorded in the history archive.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = formatsStr
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runMesh(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.nodes, "nodes", "n", opts.nodes, fmt.Sprintf("node count when generating (%d-%d)", minNodes, topo.MaxNodes))
	cmd.Flags().Float64VarP(&opts.prob, "prob", "p", opts.prob, "cross-link density when generating (0, 1]")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed when generating (0 picks one)")
	cmd.Flags().StringVar(&opts.name, "name", "", "run name (scopes cache entries and the archive record)")
	cmd.Flags().StringVarP(&formatsStr, "formats", "f", "", "artifact format(s): dot (default), svg, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", opts.outDir, "artifact output directory")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.skipMesh, "skip-mesh", false, "analyze and render only, add no links")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if artifacts are cached")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with degree information")

	return cmd
}

// runMesh executes the pipeline and reports the outcome.
func (c *CLI) runMesh(ctx context.Context, input string, opts meshOpts) error {
	if err := errs.ValidateTopologyName(opts.name); err != nil {
		return err
	}
	if input == "" {
		if err := errs.ValidateNodeCount(opts.nodes, minNodes, topo.MaxNodes); err != nil {
			return err
		}
		if err := errs.ValidateProbability(opts.prob); err != nil {
			return err
		}
	}

	pOpts := pipeline.Options{
		Nodes:    opts.nodes,
		Prob:     opts.prob,
		Seed:     opts.seed,
		SkipMesh: opts.skipMesh,
		Formats:  parseFormats(opts.formats),
		Detailed: opts.detailed,
		Name:     opts.name,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Meshing topology...")
	spinner.Start()

	var res *pipeline.Result
	if input == "" {
		res, err = runner.Execute(ctx, pOpts)
	} else {
		var g *topo.Graph
		var doc *topo.Document
		g, doc, err = topo.ReadFile(input)
		if err != nil {
			spinner.Stop()
			return fmt.Errorf("load topology %s: %w", input, err)
		}
		// A name straight from the file is untrusted; only adopt it if it
		// would be safe as an artifact file name.
		if pOpts.Name == "" && errs.ValidateTopologyName(doc.Name) == nil {
			pOpts.Name = doc.Name
		}
		res, err = runner.ExecuteGraph(ctx, g, doc.Meta, pOpts)
	}
	if err != nil {
		spinner.StopWithError("Meshing failed")
		return fmt.Errorf("mesh: %w", err)
	}

	switch {
	case res.Analysis.Truncated:
		spinner.StopWithWarning("Analysis truncated, topology left unchanged")
	case opts.skipMesh && res.Stats.CutsBefore > 0:
		spinner.StopWithWarning(fmt.Sprintf("Found %d cut vertices, linking skipped", res.Stats.CutsBefore))
	case res.Stats.CutsBefore == 0:
		spinner.StopWithSuccess("Topology already fault tolerant")
	case res.Stats.CutsAfter > 0:
		spinner.StopWithWarning(fmt.Sprintf("%d cut vertices remain after %d new links", res.Stats.CutsAfter, res.Stats.EdgesAdded))
	default:
		spinner.StopWithSuccess(fmt.Sprintf("Added %d redundant links, no cut vertices remain", res.Stats.EdgesAdded))
	}

	printMeshReport(res)
	if res.Plan != nil {
		for _, s := range res.Plan.Skipped {
			printDetail("Skipped pair %d %s %d: %s", s.U, iconArrow, s.V, s.Reason)
		}
	}

	// The json artifact is the bare topology; the file on disk should carry
	// name and provenance so it can seed later runs.
	if slices.Contains(pOpts.Formats, pipeline.FormatJSON) {
		if full, err := topo.Marshal(res.Doc); err == nil {
			res.Artifacts[pipeline.FormatJSON] = full
		}
	}

	paths, err := writeArtifacts(res.Artifacts, pOpts.Formats, opts.outDir, artifactBase(pOpts.Name, input))
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}

	c.archiveRun(ctx, res, pOpts.Name)

	printNextStep("Serve the artifacts", "meshify serve --dir "+opts.outDir)
	return nil
}

// printMeshReport prints the run summary box.
func printMeshReport(res *pipeline.Result) {
	st := res.Stats

	links := StyleValue.Render(strconv.Itoa(st.EdgeCount))
	if st.EdgesAdded > 0 {
		links += StyleSuccess.Render(fmt.Sprintf(" (+%d)", st.EdgesAdded))
	}

	blocks := fmt.Sprintf("%d", st.Blocks)
	if st.LeafBlocks > 0 {
		blocks += fmt.Sprintf(" (%d leaf)", st.LeafBlocks)
	}

	added := StyleDim.Render("0")
	if st.EdgesAdded > 0 {
		added = StyleSuccess.Render(strconv.Itoa(st.EdgesAdded))
	}

	rows := [][2]string{
		{"Nodes", StyleValue.Render(strconv.Itoa(st.NodeCount))},
		{"Links", links},
		{"Avg degree", StyleValue.Render(fmt.Sprintf("%.2f", averageDegree(st.NodeCount, st.EdgeCount)))},
		{"Blocks", StyleValue.Render(blocks)},
		{"Cut vertices", formatCutChange(st.CutsBefore, st.CutsAfter)},
		{"Links added", added},
	}
	if st.EdgesSkipped > 0 {
		rows = append(rows, [2]string{"Pairs skipped", StyleWarning.Render(strconv.Itoa(st.EdgesSkipped))})
	}
	if timings := formatTimings(st); timings != "" {
		rows = append(rows, [2]string{"Timing", StyleDim.Render(timings)})
	}
	total := StyleValue.Render(formatDuration(st.Total))
	if res.CacheInfo.RenderHit {
		total += StyleDim.Render(" · ") + styleCached.Render(iconCached)
	}
	rows = append(rows, [2]string{"Total", total})

	printReport("Mesh Report", rows)
}

// pipelineStages is the report order for per-stage timings.
var pipelineStages = []string{"generate", "analyze", "plan", "reanalyze", "render"}

// formatTimings formats the per-stage durations that actually ran.
func formatTimings(st pipeline.Stats) string {
	var parts []string
	for _, stage := range pipelineStages {
		if d, ok := st.Durations[stage]; ok {
			parts = append(parts, stage+" "+formatDuration(d))
		}
	}
	return strings.Join(parts, " · ")
}

// formatDuration trims a duration to a readable precision.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(100 * time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

// archiveRun records the run in the history archive. Archiving is
// advisory: failures are logged and the command still succeeds.
func (c *CLI) archiveRun(ctx context.Context, res *pipeline.Result, name string) {
	store, err := c.newArchive(ctx)
	if err != nil {
		c.Logger.Warn("Run not archived", "err", err)
		return
	}
	defer func() { _ = store.Close(ctx) }()

	run := &archive.Run{
		ID:         res.RunID,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
		Nodes:      res.Stats.NodeCount,
		Edges:      res.Stats.EdgeCount,
		EdgesAdded: res.Stats.EdgesAdded,
		CutsBefore: res.Stats.CutsBefore,
		CutsAfter:  res.Stats.CutsAfter,
		Blocks:     res.Stats.Blocks,
		LeafBlocks: res.Stats.LeafBlocks,
		Seed:       res.Seed,
		DurationMS: res.Stats.Total.Milliseconds(),
	}
	if err := store.Put(ctx, run); err != nil {
		c.Logger.Warn("Run not archived", "err", err)
		return
	}
	c.Logger.Debug("Archived run", "id", run.ID)
}
