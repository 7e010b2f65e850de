package cli

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	errs "github.com/topomesh/meshify/pkg/errors"
	"github.com/topomesh/meshify/pkg/gen"
	"github.com/topomesh/meshify/pkg/topo"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	nodes  int     // node count, minNodes..topo.MaxNodes
	prob   float64 // cross-link density in (0, 1]
	seed   uint64  // random seed, 0 picks one
	output string  // output path, "-" for stdout
	name   string  // optional topology name for the document
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{
		nodes:  cmp.Or(c.cfg.Generate.Nodes, gen.DefaultNodes),
		prob:   cmp.Or(c.cfg.Generate.Prob, gen.DefaultProb),
		output: "topo.json",
	}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random connected topology",
		Long: `Generate a random connected topology and write it as a JSON document.

Every node joins a spanning backbone, then cross links are sampled with the
given density, biased toward nearby node ids. Seed 0 picks a fresh seed and
records the one used in the document metadata, so any topology can be
reproduced exactly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateGenerateOpts(&opts); err != nil {
				return err
			}
			return c.runGenerate(opts)
		},
	}

	cmd.Flags().IntVarP(&opts.nodes, "nodes", "n", opts.nodes, fmt.Sprintf("node count (%d-%d)", minNodes, topo.MaxNodes))
	cmd.Flags().Float64VarP(&opts.prob, "prob", "p", opts.prob, "cross-link density in (0, 1]")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, `output file ("-" for stdout)`)
	cmd.Flags().StringVar(&opts.name, "name", "", "topology name recorded in the document")

	return cmd
}

// validateGenerateOpts checks the flag values before any work happens.
// The CLI enforces a higher node floor than the library.
func validateGenerateOpts(opts *generateOpts) error {
	if err := errs.ValidateNodeCount(opts.nodes, minNodes, topo.MaxNodes); err != nil {
		return err
	}
	if err := errs.ValidateProbability(opts.prob); err != nil {
		return err
	}
	if err := errs.ValidateTopologyName(opts.name); err != nil {
		return err
	}
	if opts.output != "-" {
		return errs.ValidateOutputPath(opts.output)
	}
	return nil
}

// runGenerate builds the topology and writes the document.
func (c *CLI) runGenerate(opts generateOpts) error {
	genOpts := gen.Options{Nodes: opts.nodes, Prob: opts.prob, Seed: opts.seed}
	g, err := gen.Generate(&genOpts, c.Logger)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	meta := &topo.Meta{Seed: genOpts.Seed, Prob: genOpts.Prob, GeneratedAt: time.Now().UTC()}
	doc := g.ToDocument(opts.name, meta)

	path := opts.output
	if path == "-" {
		path = ""
	}
	out, err := openOutput(path)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer out.Close()

	if err := topo.Write(doc, out); err != nil {
		return fmt.Errorf("write topology: %w", err)
	}

	// Writing to stdout: the document is the output, keep it clean.
	if path == "" {
		return nil
	}

	printSuccess("Generated topology (seed %s)", StyleNumber.Render(strconv.FormatUint(genOpts.Seed, 10)))
	printStats(g.Nodes(), g.EdgeCount(), false)
	printFile(path)
	printNextStep("Analyze connectivity", "meshify analyze "+path)
	return nil
}

// nopCloser wraps a Writer with a no-op Close, for stdout output.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
