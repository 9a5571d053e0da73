package board

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/mbakke/floorline/internal/models"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeInto(d dialog, s string) {
	for _, r := range s {
		d.Update(keyRunes(string(r)))
	}
}

func pressTab(d dialog) { d.Update(tea.KeyMsg{Type: tea.KeyTab}) }

func pressEnter(d dialog) dialogResult { return d.Update(tea.KeyMsg{Type: tea.KeyEnter}) }

func TestBatchDialogRejectsDuplicateNumber(t *testing.T) {
	existing := []models.Batch{
		{ID: "b1", Number: "26-HTS-01"},
	}
	d := newBatchDialog(models.Batch{}, existing)
	typeInto(d, "26-hts-01")

	res := pressEnter(d)
	require.False(t, res.done, "case-insensitive collision must keep the dialog open")
	require.NotEmpty(t, d.form.errMsg)

	// Editing the colliding batch itself is allowed.
	d = newBatchDialog(existing[0], existing)
	res = pressEnter(d)
	require.True(t, res.done)
	require.NotNil(t, res.batch)
	require.Equal(t, "26-HTS-01", res.batch.Number)
}

func TestBatchDialogRequiresNumber(t *testing.T) {
	d := newBatchDialog(models.Batch{}, nil)
	res := pressEnter(d)
	require.False(t, res.done)
	require.NotEmpty(t, d.form.errMsg)
}

func TestOperationDialogValidatesFields(t *testing.T) {
	rows := []models.Equipment{{ID: "e1", Tag: "FV-01"}}
	batches := []models.Batch{{ID: "b1", Number: "26-HTS-01"}}
	windowStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	d := newOperationDialog(models.Operation{}, rows, batches, windowStart)

	// Unknown equipment tag.
	typeInto(d, "GHOST")
	res := pressEnter(d)
	require.False(t, res.done)
	require.Equal(t, "unknown equipment tag", d.form.errMsg)

	// Fix the tag; a matching lookup is case-insensitive.
	d = newOperationDialog(models.Operation{}, rows, batches, windowStart)
	typeInto(d, "fv-01")
	res = pressEnter(d)
	require.True(t, res.done)
	require.NotNil(t, res.op)
	require.Equal(t, "e1", res.op.EquipmentID)
	require.Empty(t, res.op.BatchID)
	require.Equal(t, "2026-03-01 00:00", res.op.Start.Format(timeLayout))
}

func TestOperationDialogRejectsUnknownBatchAndInvertedSpan(t *testing.T) {
	rows := []models.Equipment{{ID: "e1", Tag: "FV-01"}}
	windowStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	d := newOperationDialog(models.Operation{}, rows, nil, windowStart)
	typeInto(d, "FV-01")
	pressTab(d)
	typeInto(d, "26-HTS-99")
	res := pressEnter(d)
	require.False(t, res.done)
	require.Equal(t, "unknown batch number", d.form.errMsg)

	// End before start.
	op := models.Operation{
		ID:          "a",
		EquipmentID: "e1",
		Start:       windowStart.AddDate(0, 0, 3),
		End:         windowStart,
	}
	d = newOperationDialog(op, rows, nil, windowStart)
	res = pressEnter(d)
	require.False(t, res.done)
	require.Equal(t, "end precedes start", d.form.errMsg)
}

func TestOperationDialogEscCancels(t *testing.T) {
	d := newOperationDialog(models.Operation{}, nil, nil, time.Now())
	res := d.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.True(t, res.done)
	require.True(t, res.cancelled)
}

func TestEquipmentDialogRequiresTag(t *testing.T) {
	d := newEquipmentDialog(models.Equipment{})
	res := pressEnter(d)
	require.False(t, res.done)

	typeInto(d, "FV-09")
	res = pressEnter(d)
	require.True(t, res.done)
	require.NotNil(t, res.equipment)
	require.Equal(t, "FV-09", res.equipment.Tag)
}

func TestConfirmDeleteDialog(t *testing.T) {
	d := newConfirmDeleteDialog(3)

	res := d.Update(keyRunes("y"))
	require.True(t, res.done)
	require.True(t, res.confirmDelete)

	d = newConfirmDeleteDialog(1)
	res = d.Update(keyRunes("n"))
	require.True(t, res.done)
	require.True(t, res.cancelled)
	require.False(t, res.confirmDelete)
}

func TestDuplicateDialogChoosesBatch(t *testing.T) {
	batches := []models.Batch{
		{ID: "b1", Number: "26-HTS-01"},
		{ID: "b2", Number: "26-CIQ-02"},
	}
	d := newDuplicateDialog(batches)

	// Default choice is "no batch".
	res := pressEnter(d)
	require.True(t, res.done)
	require.NotNil(t, res.duplicateTo)
	require.Empty(t, *res.duplicateTo)

	d = newDuplicateDialog(batches)
	d.Update(keyRunes("j"))
	d.Update(keyRunes("j"))
	res = pressEnter(d)
	require.True(t, res.done)
	require.Equal(t, "b2", *res.duplicateTo)

	// Cursor is clamped at the list end.
	d = newDuplicateDialog(batches)
	for i := 0; i < 10; i++ {
		d.Update(keyRunes("j"))
	}
	res = pressEnter(d)
	require.Equal(t, "b2", *res.duplicateTo)
}
