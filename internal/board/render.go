package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mbakke/floorline/internal/batchcolor"
	"github.com/mbakke/floorline/internal/models"
)

const labelWidth = 16

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dd3fc"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	grabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB900"))
	todayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#16C60C"))
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)
	focusedFieldStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dd3fc"))
)

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if !m.ready {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			dimStyle.Render("waiting for store..."))
	}
	if m.dialog != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.dialog.View(m.width))
	}

	header := m.renderHeader()
	axis := m.renderAxis()
	body := m.renderRows()
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, header, axis, body, footer)
}

func (m *Model) renderHeader() string {
	title := headerStyle.Render("Floorline")
	mode := "view"
	if m.editMode {
		mode = "edit"
	}
	span := fmt.Sprintf("%s — %s  [%s, %s]",
		m.view.start.Format("2006-01-02"),
		m.view.end.Format("2006-01-02"),
		m.view.zoom, mode)
	line := title + "  " + dimStyle.Render(span)
	if m.searching || m.searchTerm != "" {
		line += "  " + axisStyle.Render("/"+m.searchTerm)
		if m.searching {
			line += axisStyle.Render("▌")
		}
	}
	if m.sel.Len() > 0 {
		line += dimStyle.Render(fmt.Sprintf("  %d selected", m.sel.Len()))
	}
	if m.loading {
		line += dimStyle.Render("  loading…")
	}
	return line
}

// renderAxis draws the tick row under the header: left, middle and right
// timestamps aligned to the chart area.
func (m *Model) renderAxis() string {
	chart := m.chartWidth()
	if chart <= 0 {
		return ""
	}
	layout := "Jan 02"
	if m.view.zoom == ZoomHour || m.view.zoom == ZoomDay {
		layout = "Jan 02 15:04"
	}
	left := m.view.start.Format(layout)
	mid := m.view.start.Add(m.view.end.Sub(m.view.start) / 2).Format(layout)
	right := m.view.end.Format(layout)

	line := make([]byte, chart)
	for i := range line {
		line[i] = ' '
	}
	copy(line, left)
	if pos := chart/2 - len(mid)/2; pos > len(left) && pos+len(mid) <= chart {
		copy(line[pos:], mid)
	}
	if pos := chart - len(right); pos > 0 {
		copy(line[pos:], right)
	}
	return strings.Repeat(" ", labelWidth) + axisStyle.Render(string(line))
}

func (m *Model) chartWidth() int {
	w := m.width - labelWidth
	if w < 0 {
		return 0
	}
	return w
}

// timeToCol maps an instant to a chart column, clamped to the chart edges.
func (m *Model) timeToCol(t time.Time) int {
	span := m.view.end.Sub(m.view.start)
	if span <= 0 {
		return 0
	}
	col := int(int64(m.chartWidth()) * int64(t.Sub(m.view.start)) / int64(span))
	if col < 0 {
		return 0
	}
	if col >= m.chartWidth() {
		return m.chartWidth() - 1
	}
	return col
}

func (m *Model) renderRows() string {
	chart := m.chartWidth()
	from, to := m.window.Slice(len(m.rows))
	if from >= to {
		return dimStyle.Render("  no rows in window")
	}

	itemsByRow := make(map[string][]Item)
	for _, it := range m.items {
		itemsByRow[it.Op.EquipmentID] = append(itemsByRow[it.Op.EquipmentID], it)
	}
	cursorID := ""
	if item, ok := m.cursorItem(); ok {
		cursorID = item.Op.ID
	}
	todayCol := -1
	if now := m.now(); !now.Before(m.view.start) && !now.After(m.view.end) {
		todayCol = m.timeToCol(now)
	}

	var rows []string
	for i := from; i < to; i++ {
		row := m.rows[i]
		rows = append(rows, m.renderRow(row, itemsByRow[row.ID], chart, cursorID, todayCol))
		for pad := 1; pad < m.rowHeight; pad++ {
			secondary := ""
			if pad == 1 {
				secondary = row.Description
			}
			rows = append(rows, m.renderRowGap(secondary, chart, todayCol))
		}
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderRow(row models.Equipment, items []Item, chart int, cursorID string, todayCol int) string {
	label := row.Tag
	if label == "" {
		label = row.Description
	}
	if len(label) > labelWidth-2 {
		label = label[:labelWidth-2]
	}
	style := labelStyle
	if row.ID == m.grabbedRowID {
		style = grabStyle
		label = "≡ " + label
	}
	padded := fmt.Sprintf("%-*s", labelWidth, label)

	// Paint bars over an empty lane, later items over earlier ones.
	cells := make([]string, chart)
	for c := range cells {
		if c == todayCol {
			cells[c] = todayStyle.Render("│")
		} else {
			cells[c] = dimStyle.Render("·")
		}
	}
	for _, it := range items {
		fromCol := m.timeToCol(it.Op.Start)
		toCol := m.timeToCol(it.Op.End)
		fill := "█"
		if it.Bordered {
			fill = "▒"
		}
		barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(batchcolor.Hex(it.Color)))
		if m.sel.Has(it.Op.ID) {
			barStyle = barStyle.Reverse(true)
		}
		if it.Op.ID == cursorID {
			barStyle = barStyle.Bold(true).Underline(true)
		}
		for c := fromCol; c <= toCol && c < chart; c++ {
			cells[c] = barStyle.Render(fill)
		}
	}
	return style.Render(padded) + strings.Join(cells, "")
}

// renderRowGap fills the extra lines of a multi-line row, carrying the
// today marker through and the row description on the first gap line.
func (m *Model) renderRowGap(secondary string, chart, todayCol int) string {
	if len(secondary) > labelWidth-2 {
		secondary = secondary[:labelWidth-2]
	}
	label := dimStyle.Render(fmt.Sprintf("  %-*s", labelWidth-2, secondary))
	cells := make([]string, chart)
	for c := range cells {
		if c == todayCol {
			cells[c] = todayStyle.Render("│")
		} else {
			cells[c] = " "
		}
	}
	return label + strings.Join(cells, "")
}

func (m *Model) renderFooter() string {
	hints := "j/k item  J/K rows  h/l pan  +/- zoom  t now  enter/space select  a batch  H/L move  d dup  e edit  / search  ctrl+z undo  q quit"
	line := dimStyle.Render(truncate(hints, m.width))
	if n, ok := m.log.Latest(); ok {
		style := infoStyle
		if n.Level == "error" {
			style = errorStyle
		}
		return style.Render(truncate(n.Text, m.width)) + "\n" + line
	}
	if m.loadErr != nil {
		return errorStyle.Render(truncate("load failed: "+m.loadErr.Error(), m.width)) + "\n" + line
	}
	return "\n" + line
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

// renderForm draws a field dialog with the focused field highlighted.
func renderForm(f *fieldForm, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(f.title) + "\n\n")
	for i, field := range f.fields {
		label := fmt.Sprintf("%-14s", field.label+":")
		value := field.value
		if i == f.focus {
			b.WriteString(focusedFieldStyle.Render(label) + value + focusedFieldStyle.Render("▌") + "\n")
			continue
		}
		b.WriteString(dimStyle.Render(label) + value + "\n")
	}
	if f.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(f.errMsg))
	}
	b.WriteString("\n" + dimStyle.Render("enter save · tab next · esc cancel"))
	return renderDialogBox(b.String(), width)
}

func renderDialogBox(content string, width int) string {
	max := width - 8
	if max > 0 {
		return dialogStyle.MaxWidth(max).Render(content)
	}
	return dialogStyle.Render(content)
}
