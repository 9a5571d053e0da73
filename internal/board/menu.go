package board

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// menuAction is a command chosen from the context menu.
type menuAction int

const (
	menuNone menuAction = iota
	menuEdit
	menuDelete
	menuDuplicate
	menuSelectBatch
	menuSelectBatchBelow
)

var menuEntries = []struct {
	action menuAction
	label  string
}{
	{menuEdit, "Edit operation"},
	{menuDelete, "Delete selection"},
	{menuDuplicate, "Duplicate selection"},
	{menuSelectBatch, "Select batch"},
	{menuSelectBatchBelow, "Select batch below"},
}

// contextMenu offers the cursor item's commands as a chooser, mirroring what
// the single-key bindings do.
type contextMenu struct {
	choice int
}

func newContextMenu() *contextMenu {
	return &contextMenu{}
}

func (d *contextMenu) Update(msg tea.KeyMsg) dialogResult {
	switch msg.String() {
	case "esc":
		return dialogResult{done: true, cancelled: true}
	case "j", "down":
		if d.choice < len(menuEntries)-1 {
			d.choice++
		}
	case "k", "up":
		if d.choice > 0 {
			d.choice--
		}
	case "enter":
		return dialogResult{done: true, menu: menuEntries[d.choice].action}
	}
	return dialogResult{}
}

func (d *contextMenu) View(width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Actions") + "\n")
	for i, entry := range menuEntries {
		marker := "  "
		if i == d.choice {
			marker = "> "
		}
		b.WriteString(marker + entry.label + "\n")
	}
	b.WriteString(dimStyle.Render("enter choose · esc close"))
	return renderDialogBox(b.String(), width)
}
