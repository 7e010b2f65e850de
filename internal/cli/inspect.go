package cli

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/topomesh/meshify/pkg/bicon"
	"github.com/topomesh/meshify/pkg/topo"
)

// inspectCommand creates the inspect command, an interactive block browser.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <topo.json>",
		Short: "Browse biconnected blocks interactively",
		Long: `Analyze a topology and browse its biconnected blocks in an interactive
list showing kind, size, and cut-vertex members per block. Press enter to
print the full member list of the selected block.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0])
		},
	}
}

// runInspect analyzes the topology and opens the block browser.
func (c *CLI) runInspect(input string) error {
	g, doc, err := topo.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load topology %s: %w", input, err)
	}
	if doc.Name != "" {
		printInfo("Topology: %s", StyleHighlight.Render(doc.Name))
	}

	a, err := bicon.AnalyzeWith(g, bicon.Options{Logger: c.Logger})
	if a == nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if a.Truncated {
		printWarning("Analysis truncated: the block list is incomplete")
	}

	cls := bicon.Classify(a)
	if len(cls) == 0 {
		printInfo("No blocks to browse")
		return nil
	}

	model, err := tea.NewProgram(newBlockListModel(cls)).Run()
	if err != nil {
		return fmt.Errorf("run block browser: %w", err)
	}

	final, ok := model.(blockListModel)
	if !ok || final.Selected == nil {
		return nil
	}

	cl := final.Selected
	printNewline()
	fmt.Println(StyleTitle.Render(fmt.Sprintf("Block %d", cl.Block.ID)) + " " + styleBlockKind(cl.Kind.String()))
	printKeyValue("Size", strconv.Itoa(len(cl.Block.Members)))
	printKeyValue("Links", strconv.Itoa(len(cl.Block.Edges)))
	printKeyValue("Cut members", formatNodeList(cl.Cuts, 0))
	printKeyValue("Members", formatNodeList(cl.Block.Members, 0))
	if cl.Block.IsBridge() {
		printDetail("bridge: two nodes joined by a single link")
	}
	return nil
}
