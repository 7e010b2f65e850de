package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topomesh/meshify/pkg/bicon"
	"github.com/topomesh/meshify/pkg/topo"
)

// maxListedNodes caps inline node-id lists; longer lists get a "+n more".
const maxListedNodes = 16

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <topo.json>",
		Short: "Report cut vertices and biconnected blocks",
		Long: `Analyze a topology's connectivity without changing it.

The report lists the cut vertices (nodes whose failure would split the
network) and summarizes the biconnected blocks by kind: leaf blocks hang
off a single cut vertex, internal blocks join several, isolated blocks
have none and are already fault tolerant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit a JSON report instead of the summary")

	return cmd
}

// runAnalyze loads the topology and prints the connectivity report.
func (c *CLI) runAnalyze(input string, asJSON bool) error {
	g, doc, err := topo.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load topology %s: %w", input, err)
	}

	a, err := bicon.AnalyzeWith(g, bicon.Options{Logger: c.Logger})
	if a == nil {
		return fmt.Errorf("analyze: %w", err)
	}
	cls := bicon.Classify(a)

	if asJSON {
		return writeAnalysisJSON(os.Stdout, doc.Name, a, cls)
	}

	printAnalysis(input, doc.Name, a, cls)
	if a.Truncated {
		printWarning("Analysis truncated: block data is partial, cut vertices are exact")
	}
	if len(a.CutVertices) > 0 {
		printNextStep("Add redundant links", "meshify mesh "+input)
	}
	return nil
}

// analysisReport is the machine-readable analyze output.
type analysisReport struct {
	Name        string        `json:"name,omitempty"`
	Nodes       int           `json:"nodes"`
	Links       int           `json:"links"`
	CutVertices []topo.NodeID `json:"cut_vertices"`
	Blocks      []blockReport `json:"blocks"`
	Truncated   bool          `json:"truncated,omitempty"`
}

// blockReport is one block in the JSON report.
type blockReport struct {
	ID      int           `json:"id"`
	Kind    string        `json:"kind"`
	Size    int           `json:"size"`
	Cuts    []topo.NodeID `json:"cuts,omitempty"`
	Members []topo.NodeID `json:"members"`
}

// writeAnalysisJSON emits the report as indented JSON.
func writeAnalysisJSON(w io.Writer, name string, a *bicon.Analysis, cls []bicon.Classified) error {
	report := analysisReport{
		Name:        name,
		Nodes:       a.Nodes,
		Links:       a.Edges,
		CutVertices: a.CutVertices,
		Blocks:      make([]blockReport, 0, len(cls)),
		Truncated:   a.Truncated,
	}
	if report.CutVertices == nil {
		report.CutVertices = []topo.NodeID{}
	}
	for _, cl := range cls {
		report.Blocks = append(report.Blocks, blockReport{
			ID:      cl.Block.ID,
			Kind:    cl.Kind.String(),
			Size:    len(cl.Block.Members),
			Cuts:    cl.Cuts,
			Members: cl.Block.Members,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// printAnalysis prints the human-readable connectivity summary.
func printAnalysis(input, name string, a *bicon.Analysis, cls []bicon.Classified) {
	title := name
	if title == "" {
		title = input
	}
	fmt.Println(StyleTitle.Render(title))

	leaf, internal, isolated := countKinds(cls)

	printKeyValue("Nodes", strconv.Itoa(a.Nodes))
	printKeyValue("Links", strconv.Itoa(a.Edges))
	printKeyValue("Avg degree", fmt.Sprintf("%.2f", averageDegree(a.Nodes, a.Edges)))
	printKeyValue("Blocks", fmt.Sprintf("%d (%d leaf, %d internal, %d isolated)", len(cls), leaf, internal, isolated))

	if len(a.CutVertices) == 0 {
		printKeyValue("Cut vertices", StyleSuccess.Render("none"))
		printNewline()
		printSuccess("Topology is biconnected, no single point of failure")
		return
	}
	printKeyValue("Cut vertices", fmt.Sprintf("%d: %s", len(a.CutVertices), formatNodeList(a.CutVertices, maxListedNodes)))
}

// countKinds tallies blocks by their block-cut-tree position.
func countKinds(cls []bicon.Classified) (leaf, internal, isolated int) {
	for _, cl := range cls {
		switch cl.Kind {
		case bicon.KindLeaf:
			leaf++
		case bicon.KindInternal:
			internal++
		case bicon.KindIsolated:
			isolated++
		}
	}
	return leaf, internal, isolated
}

// averageDegree returns 2E/N, the mean number of links per node.
func averageDegree(nodes, links int) float64 {
	if nodes == 0 {
		return 0
	}
	return 2 * float64(links) / float64(nodes)
}

// formatNodeList formats node ids as "0, 4, 17", eliding after max entries.
func formatNodeList(ids []topo.NodeID, max int) string {
	if len(ids) == 0 {
		return "none"
	}
	shown := ids
	if max > 0 && len(shown) > max {
		shown = shown[:max]
	}
	parts := make([]string, len(shown))
	for i, id := range shown {
		parts[i] = strconv.Itoa(id)
	}
	s := strings.Join(parts, ", ")
	if rest := len(ids) - len(shown); rest > 0 {
		s += fmt.Sprintf(" +%d more", rest)
	}
	return s
}
