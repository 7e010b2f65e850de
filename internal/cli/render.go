package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topomesh/meshify/pkg/bicon"
	errs "github.com/topomesh/meshify/pkg/errors"
	"github.com/topomesh/meshify/pkg/pipeline"
	"github.com/topomesh/meshify/pkg/topo"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	formats  string // comma-separated artifact formats
	outDir   string // artifact output directory, "" means next to the input
	noCache  bool   // disable the artifact cache
	refresh  bool   // re-render even on a cache hit
	detailed bool   // label nodes with degree information
}

// renderCommand creates the render command for re-rendering a topology.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render <topo.json>",
		Short: "Render a topology to DOT, SVG, PNG, or JSON",
		Long: `Render an existing topology without changing it.

Cut vertices are highlighted and redundant links are drawn in green, the
same styling the mesh command uses. Artifacts are cached by content hash,
so an unchanged topology never renders twice.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = formatsStr
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "formats", "f", "", "artifact format(s): dot (default), svg, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "artifact output directory (default: next to the input)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if artifacts are cached")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with degree information")

	return cmd
}

// runRender loads, analyzes, and renders the topology.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	g, doc, err := topo.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load topology %s: %w", input, err)
	}

	// Analyze first so cut vertices show up styled in the render.
	a, err := bicon.AnalyzeWith(g, bicon.Options{Logger: c.Logger})
	if a == nil {
		return fmt.Errorf("analyze: %w", err)
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	pOpts := pipeline.Options{
		Formats:  formats,
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	}
	if errs.ValidateTopologyName(doc.Name) == nil {
		pOpts.Name = doc.Name
	}

	spinner := newSpinnerWithContext(ctx, "Rendering topology...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, g, a, pOpts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.StopWithSuccess("Rendered topology")
	printStats(g.Nodes(), g.EdgeCount(), cacheHit)

	outDir := opts.outDir
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	paths, err := writeArtifacts(artifacts, formats, outDir, artifactBase(pOpts.Name, input))
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// artifactBase derives the artifact file base name: the run name when set,
// otherwise the input file name without extension, otherwise "topo".
func artifactBase(name, input string) string {
	if name != "" {
		return name
	}
	if input != "" {
		b := filepath.Base(input)
		return strings.TrimSuffix(b, filepath.Ext(b))
	}
	return "topo"
}

// writeArtifacts writes rendered artifacts as <dir>/<base>.<format> in the
// requested format order and returns the written paths.
func writeArtifacts(artifacts map[string][]byte, formats []string, dir, base string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := filepath.Join(dir, base+"."+format)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
