package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mbakke/floorline/internal/models"
)

const timeLayout = "2006-01-02 15:04"

// dialog is a modal input surface. Update consumes every key until the
// dialog reports done.
type dialog interface {
	Update(msg tea.KeyMsg) dialogResult
	View(width int) string
}

// dialogResult carries the outcome of a finished dialog. Exactly one of the
// payload fields is set when done and not cancelled.
type dialogResult struct {
	done      bool
	cancelled bool

	op            *models.Operation
	equipment     *models.Equipment
	batch         *models.Batch
	confirmDelete bool
	duplicateTo   *string
	menu          menuAction
}

type (
	equipmentSavedMsg struct {
		equipment models.Equipment
		err       error
	}

	batchSavedMsg struct {
		batch models.Batch
		err   error
	}
)

// updateDialog routes a key to the open dialog and applies its outcome.
func (m *Model) updateDialog(msg tea.KeyMsg) tea.Cmd {
	res := m.dialog.Update(msg)
	if !res.done {
		return nil
	}
	m.dialog = nil
	if res.cancelled {
		return nil
	}

	switch {
	case res.op != nil:
		var cmd tea.Cmd
		m.operations, cmd = m.pipe.SaveNow(m.operations, *res.op, &m.hist)
		m.refresh()
		return cmd

	case res.equipment != nil:
		e := *res.equipment
		return func() tea.Msg {
			saved, err := m.gateway.SaveEquipment(context.Background(), e)
			return equipmentSavedMsg{equipment: saved, err: err}
		}

	case res.batch != nil:
		b := *res.batch
		return func() tea.Msg {
			saved, err := m.gateway.SaveBatch(context.Background(), b)
			return batchSavedMsg{batch: saved, err: err}
		}

	case res.confirmDelete:
		cmd := m.pipe.Delete(m.operations, m.sel.IDs(), &m.hist)
		m.sel.Clear()
		return cmd

	case res.duplicateTo != nil:
		return m.pipe.Duplicate(m.operations, m.sel.IDs(), *res.duplicateTo, &m.hist)

	case res.menu != menuNone:
		return m.runMenuAction(res.menu)
	}
	return nil
}

// runMenuAction dispatches a context-menu choice to the same paths the
// single-key bindings use.
func (m *Model) runMenuAction(action menuAction) tea.Cmd {
	item, ok := m.cursorItem()
	if !ok {
		return nil
	}
	switch action {
	case menuEdit:
		m.dialog = newOperationDialog(item.Op, m.rows, m.batches, m.view.start)
	case menuDelete:
		if !m.editMode {
			m.log.Info("enable edit mode to delete")
			return nil
		}
		if m.sel.Len() == 0 {
			m.sel.SetExact(item.Op.ID)
		}
		m.dialog = newConfirmDeleteDialog(m.sel.Len())
	case menuDuplicate:
		if !m.editMode {
			m.log.Info("enable edit mode to duplicate")
			return nil
		}
		if m.sel.Len() == 0 {
			m.sel.SetExact(item.Op.ID)
		}
		m.dialog = newDuplicateDialog(m.batches)
	case menuSelectBatch:
		m.sel.SelectBatch(item.Op, m.operations)
	case menuSelectBatchBelow:
		m.sel.SelectBatchBelow(item.Op, m.operations, m.rows)
	}
	return nil
}

// --- text field plumbing ---

type textField struct {
	label string
	value string
}

type fieldForm struct {
	title  string
	fields []textField
	focus  int
	errMsg string
}

// handleKey edits the focused field. Returns submit=true on enter,
// cancel=true on esc.
func (f *fieldForm) handleKey(msg tea.KeyMsg) (submit, cancel bool) {
	switch msg.String() {
	case "esc":
		return false, true
	case "enter":
		return true, false
	case "tab", "down":
		f.focus = (f.focus + 1) % len(f.fields)
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
	case "backspace":
		v := f.fields[f.focus].value
		if len(v) > 0 {
			f.fields[f.focus].value = v[:len(v)-1]
		}
	default:
		if msg.Type == tea.KeyRunes || msg.String() == " " {
			f.fields[f.focus].value += string(msg.Runes)
		}
	}
	return false, false
}

func (f *fieldForm) get(i int) string {
	return strings.TrimSpace(f.fields[i].value)
}

// --- operation editor ---

type operationDialog struct {
	form     fieldForm
	original models.Operation
	rows     []models.Equipment
	batches  []models.Batch
}

// newOperationDialog edits an existing operation or, with a zero value,
// creates one starting at the window's left edge.
func newOperationDialog(op models.Operation, rows []models.Equipment, batches []models.Batch, windowStart time.Time) *operationDialog {
	start, end := op.Start, op.End
	if op.ID == "" {
		start = windowStart
		end = windowStart.Add(duplicateOffset)
	}
	tag := ""
	for _, e := range rows {
		if e.ID == op.EquipmentID {
			tag = e.Tag
		}
	}
	number := ""
	for _, b := range batches {
		if b.ID == op.BatchID {
			number = b.Number
		}
	}
	title := "New operation"
	if op.ID != "" {
		title = "Edit operation"
	}
	return &operationDialog{
		original: op,
		rows:     rows,
		batches:  batches,
		form: fieldForm{
			title: title,
			fields: []textField{
				{label: "Equipment tag", value: tag},
				{label: "Batch number", value: number},
				{label: "Start", value: start.Format(timeLayout)},
				{label: "End", value: end.Format(timeLayout)},
				{label: "Type", value: op.Type},
				{label: "Description", value: op.Description},
			},
		},
	}
}

func (d *operationDialog) Update(msg tea.KeyMsg) dialogResult {
	submit, cancel := d.form.handleKey(msg)
	if cancel {
		return dialogResult{done: true, cancelled: true}
	}
	if !submit {
		return dialogResult{}
	}

	op := d.original
	op.Description = d.form.get(5)
	op.Type = d.form.get(4)

	op.EquipmentID = ""
	for _, e := range d.rows {
		if strings.EqualFold(e.Tag, d.form.get(0)) {
			op.EquipmentID = e.ID
		}
	}
	if op.EquipmentID == "" {
		d.form.errMsg = "unknown equipment tag"
		return dialogResult{}
	}

	op.BatchID = ""
	if number := d.form.get(1); number != "" {
		for _, b := range d.batches {
			if strings.EqualFold(b.Number, number) {
				op.BatchID = b.ID
			}
		}
		if op.BatchID == "" {
			d.form.errMsg = "unknown batch number"
			return dialogResult{}
		}
	}

	start, err := time.ParseInLocation(timeLayout, d.form.get(2), time.Local)
	if err != nil {
		d.form.errMsg = "start must be YYYY-MM-DD HH:MM"
		return dialogResult{}
	}
	end, err := time.ParseInLocation(timeLayout, d.form.get(3), time.Local)
	if err != nil {
		d.form.errMsg = "end must be YYYY-MM-DD HH:MM"
		return dialogResult{}
	}
	if end.Before(start) {
		d.form.errMsg = "end precedes start"
		return dialogResult{}
	}
	op.Start, op.End = start, end

	return dialogResult{done: true, op: &op}
}

func (d *operationDialog) View(width int) string {
	return renderForm(&d.form, width)
}

// --- equipment editor ---

type equipmentDialog struct {
	form     fieldForm
	original models.Equipment
}

func newEquipmentDialog(e models.Equipment) *equipmentDialog {
	title := "New equipment"
	if e.ID != "" {
		title = "Edit equipment"
	}
	return &equipmentDialog{
		original: e,
		form: fieldForm{
			title: title,
			fields: []textField{
				{label: "Tag", value: e.Tag},
				{label: "Description", value: e.Description},
			},
		},
	}
}

func (d *equipmentDialog) Update(msg tea.KeyMsg) dialogResult {
	submit, cancel := d.form.handleKey(msg)
	if cancel {
		return dialogResult{done: true, cancelled: true}
	}
	if !submit {
		return dialogResult{}
	}
	if d.form.get(0) == "" {
		d.form.errMsg = "tag is required"
		return dialogResult{}
	}
	e := d.original
	e.Tag = d.form.get(0)
	e.Description = d.form.get(1)
	return dialogResult{done: true, equipment: &e}
}

func (d *equipmentDialog) View(width int) string {
	return renderForm(&d.form, width)
}

// --- batch editor ---

type batchDialog struct {
	form     fieldForm
	original models.Batch
	existing []models.Batch
}

func newBatchDialog(b models.Batch, existing []models.Batch) *batchDialog {
	title := "New batch"
	if b.ID != "" {
		title = "Edit batch"
	}
	return &batchDialog{
		original: b,
		existing: existing,
		form: fieldForm{
			title: title,
			fields: []textField{
				{label: "Batch number", value: b.Number},
				{label: "Notes", value: b.Notes},
			},
		},
	}
}

func (d *batchDialog) Update(msg tea.KeyMsg) dialogResult {
	submit, cancel := d.form.handleKey(msg)
	if cancel {
		return dialogResult{done: true, cancelled: true}
	}
	if !submit {
		return dialogResult{}
	}
	number := d.form.get(0)
	if number == "" {
		d.form.errMsg = "batch number is required"
		return dialogResult{}
	}
	// The number is the practical unique key; catch collisions before the
	// store does.
	for _, b := range d.existing {
		if b.ID != d.original.ID && strings.EqualFold(b.Number, number) {
			d.form.errMsg = fmt.Sprintf("batch %s already exists", b.Number)
			return dialogResult{}
		}
	}
	b := d.original
	b.Number = number
	b.Notes = d.form.get(1)
	return dialogResult{done: true, batch: &b}
}

func (d *batchDialog) View(width int) string {
	return renderForm(&d.form, width)
}

// --- delete confirmation ---

type confirmDeleteDialog struct {
	count int
}

func newConfirmDeleteDialog(count int) *confirmDeleteDialog {
	return &confirmDeleteDialog{count: count}
}

func (d *confirmDeleteDialog) Update(msg tea.KeyMsg) dialogResult {
	switch msg.String() {
	case "y", "enter":
		return dialogResult{done: true, confirmDelete: true}
	case "n", "esc":
		return dialogResult{done: true, cancelled: true}
	}
	return dialogResult{}
}

func (d *confirmDeleteDialog) View(width int) string {
	noun := "operations"
	if d.count == 1 {
		noun = "operation"
	}
	return renderDialogBox(fmt.Sprintf("Delete %d %s? (y/n)", d.count, noun), width)
}

// --- duplicate batch chooser ---

type duplicateDialog struct {
	batches []models.Batch
	choice  int // 0 = no batch, 1..n = batches[choice-1]
}

func newDuplicateDialog(batches []models.Batch) *duplicateDialog {
	return &duplicateDialog{batches: batches}
}

func (d *duplicateDialog) Update(msg tea.KeyMsg) dialogResult {
	switch msg.String() {
	case "esc":
		return dialogResult{done: true, cancelled: true}
	case "j", "down":
		if d.choice < len(d.batches) {
			d.choice++
		}
	case "k", "up":
		if d.choice > 0 {
			d.choice--
		}
	case "enter":
		id := ""
		if d.choice > 0 {
			id = d.batches[d.choice-1].ID
		}
		return dialogResult{done: true, duplicateTo: &id}
	}
	return dialogResult{}
}

func (d *duplicateDialog) View(width int) string {
	var b strings.Builder
	b.WriteString("Duplicate to batch:\n")
	lines := append([]string{"(no batch)"}, batchNumbers(d.batches)...)
	for i, line := range lines {
		marker := "  "
		if i == d.choice {
			marker = "> "
		}
		b.WriteString(marker + line + "\n")
	}
	return renderDialogBox(b.String(), width)
}

func batchNumbers(batches []models.Batch) []string {
	out := make([]string, 0, len(batches))
	for _, b := range batches {
		out = append(out, models.BatchKey(b))
	}
	return out
}
