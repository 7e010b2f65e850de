package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/topomesh/meshify/pkg/bicon"
)

// blockList builds a model over the blocks of a path graph with n nodes,
// which has n-1 blocks of two nodes each.
func blockList(t *testing.T, n int) blockListModel {
	t.Helper()
	g := pathGraph(t, n)
	a, err := bicon.AnalyzeWith(g, bicon.Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return newBlockListModel(bicon.Classify(a))
}

func pressKey(t *testing.T, m blockListModel, key tea.KeyMsg) (blockListModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(key)
	next, ok := updated.(blockListModel)
	if !ok {
		t.Fatalf("Update returned %T, want blockListModel", updated)
	}
	return next, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestBlockListNavigation(t *testing.T) {
	m := blockList(t, 5)
	if len(m.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(m.Blocks))
	}

	down := tea.KeyMsg{Type: tea.KeyDown}
	up := tea.KeyMsg{Type: tea.KeyUp}

	m, _ = pressKey(t, m, down)
	m, _ = pressKey(t, m, down)
	if m.Cursor != 2 {
		t.Errorf("cursor = %d after two downs, want 2", m.Cursor)
	}

	m, _ = pressKey(t, m, up)
	m, _ = pressKey(t, m, up)
	m, _ = pressKey(t, m, up)
	if m.Cursor != 0 {
		t.Errorf("cursor = %d, should clamp at the top", m.Cursor)
	}

	// The cursor also clamps at the bottom.
	for range 10 {
		m, _ = pressKey(t, m, down)
	}
	if m.Cursor != 3 {
		t.Errorf("cursor = %d, should clamp at the last block", m.Cursor)
	}
}

func TestBlockListWindowing(t *testing.T) {
	m := blockList(t, 5)
	m.Height = 2

	down := tea.KeyMsg{Type: tea.KeyDown}
	for range 3 {
		m, _ = pressKey(t, m, down)
	}
	if m.Cursor != 3 {
		t.Fatalf("cursor = %d, want 3", m.Cursor)
	}
	if m.Offset != 2 {
		t.Errorf("offset = %d, window should follow the cursor", m.Offset)
	}

	up := tea.KeyMsg{Type: tea.KeyUp}
	for range 3 {
		m, _ = pressKey(t, m, up)
	}
	if m.Offset != 0 {
		t.Errorf("offset = %d, window should scroll back up", m.Offset)
	}
}

func TestBlockListSelect(t *testing.T) {
	m := blockList(t, 5)

	m, _ = pressKey(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !isQuit(cmd) {
		t.Error("enter should quit the program")
	}
	if m.Selected == nil {
		t.Fatal("enter should select the block under the cursor")
	}
	if m.Selected.Block.ID != m.Blocks[1].Block.ID {
		t.Errorf("selected block %d, want %d", m.Selected.Block.ID, m.Blocks[1].Block.ID)
	}
}

func TestBlockListQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		m := blockList(t, 3)
		m, cmd := pressKey(t, m, key)
		if !isQuit(cmd) {
			t.Errorf("%q should quit", key.String())
		}
		if m.Selected != nil {
			t.Errorf("%q should not select a block", key.String())
		}
	}
}

func TestBlockListEnterOnEmpty(t *testing.T) {
	m := newBlockListModel(nil)
	m, cmd := pressKey(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !isQuit(cmd) {
		t.Error("enter on an empty list should quit")
	}
	if m.Selected != nil {
		t.Error("nothing to select in an empty list")
	}
}

func TestBlockListResize(t *testing.T) {
	m := blockList(t, 3)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m = updated.(blockListModel)
	if m.Height != 14 {
		t.Errorf("height = %d after resize, want 14", m.Height)
	}

	updated, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 4})
	m = updated.(blockListModel)
	if m.Height != 5 {
		t.Errorf("height = %d, should clamp at the minimum", m.Height)
	}
}

func TestBlockListView(t *testing.T) {
	m := blockList(t, 5)

	view := m.View()
	for _, want := range []string{"Biconnected Blocks", "Kind", "Members", "[1/4]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}
