package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/topomesh/meshify/pkg/bicon"
)

// listDimStyle renders list chrome (hints, position counter).
var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// blockListModel - Interactive block browser
// =============================================================================

// blockListModel is the bubbletea model for browsing biconnected blocks.
type blockListModel struct {
	Blocks   []bicon.Classified
	Cursor   int
	Offset   int
	Height   int
	Selected *bicon.Classified
}

// newBlockListModel creates a block list over the classified analysis.
func newBlockListModel(cls []bicon.Classified) blockListModel {
	return blockListModel{
		Blocks: cls,
		Height: 15,
	}
}

func (m blockListModel) Init() tea.Cmd {
	return nil
}

func (m blockListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Blocks)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Blocks) == 0 {
				return m, tea.Quit
			}
			block := m.Blocks[m.Cursor]
			m.Selected = &block
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m blockListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Biconnected Blocks"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ members  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Blocks) {
		end = len(m.Blocks)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cl := m.Blocks[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		cuts := formatNodeList(cl.Cuts, 4)
		if len(cl.Cuts) == 0 {
			cuts = "—"
		}

		rows = append(rows, []string{
			cursor,
			strconv.Itoa(cl.Block.ID),
			cl.Kind.String(),
			strconv.Itoa(len(cl.Block.Members)),
			cuts,
			formatNodeList(cl.Block.Members, 6),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Kind", "Size", "Cut members", "Members").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Blocks) {
				return lipgloss.NewStyle()
			}
			cl := m.Blocks[actualIdx]
			isCurrent := actualIdx == m.Cursor

			base := lipgloss.NewStyle()
			switch col {
			case 2:
				switch cl.Kind {
				case bicon.KindLeaf:
					base = base.Foreground(colorYellow)
				case bicon.KindInternal:
					base = base.Foreground(colorWhite)
				default:
					base = base.Foreground(colorDim)
				}
			case 4:
				base = base.Foreground(colorCyan)
			default:
				base = base.Foreground(colorWhite)
			}

			if isCurrent {
				return base.Bold(true)
			}
			if col != 2 && col != 4 {
				return base.Foreground(colorGray)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Blocks))))

	return b.String()
}
