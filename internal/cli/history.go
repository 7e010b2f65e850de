package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/topomesh/meshify/pkg/archive"
)

// historyCommand creates the history command.
func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived pipeline runs",
		Long: `List archived pipeline runs, newest first.

Every mesh run records its counts and timings in the archive; this command
shows them as a table. Configure [archive] in the config file to share one
history across hosts via MongoDB.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistory(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")

	return cmd
}

// runHistory lists the most recent runs.
func (c *CLI) runHistory(ctx context.Context, limit int) error {
	store, err := c.newArchive(ctx)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = store.Close(ctx) }()

	runs, err := store.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		printInfo("No archived runs yet")
		printNextStep("Run the pipeline", "meshify mesh")
		return nil
	}

	fmt.Println(renderHistoryTable(runs))
	return nil
}

// renderHistoryTable formats runs as a bordered table.
func renderHistoryTable(runs []*archive.Run) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		name := r.Name
		if name == "" {
			name = "—"
		}
		rows = append(rows, []string{
			formatRelativeTime(r.CreatedAt),
			shortID(r.ID),
			name,
			strconv.Itoa(r.Nodes),
			strconv.Itoa(r.Edges),
			fmt.Sprintf("%d %s %d", r.CutsBefore, iconArrow, r.CutsAfter),
			strconv.Itoa(r.EdgesAdded),
			formatDuration(time.Duration(r.DurationMS) * time.Millisecond),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("When", "Run", "Name", "Nodes", "Links", "Cuts", "Added", "Took").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(runs) {
				return lipgloss.NewStyle()
			}
			switch col {
			case 0, 7:
				return lipgloss.NewStyle().Foreground(colorDim)
			case 5:
				if runs[row].CutsAfter > 0 {
					return lipgloss.NewStyle().Foreground(colorYellow)
				}
				return lipgloss.NewStyle().Foreground(colorGreen)
			default:
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
		}).
		Render()
}

// shortID returns the first UUID group, enough to identify a run.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatRelativeTime formats a timestamp relative to now for recent times,
// falling back to a date for anything older than a week.
func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
