package board

import (
	"strings"
	"time"

	"github.com/mbakke/floorline/internal/batchcolor"
	"github.com/mbakke/floorline/internal/models"
)

// Fixed colors for item categories that override the batch ladder.
const (
	colorMaintenance = "#ff9800"
	colorEngineering = "#e8d4a2"
	colorNoBatch     = "#d3d3d3"
)

// Item is one renderable bar: an operation joined with its batch and the
// derived presentation attributes.
type Item struct {
	Op          models.Operation
	Type        models.OperationType
	Title       string
	BatchNumber string
	Color       string

	// Bordered marks production items without a batch, which render with an
	// outline so the missing assignment stands out.
	Bordered bool
}

// deriveItem joins an operation with the batch index and resolves its
// presentation. Color precedence: maintenance, then engineering, then the
// batch ladder, then the no-batch gray.
func deriveItem(op models.Operation, batches map[string]models.Batch) Item {
	item := Item{
		Op:    op,
		Type:  models.ClassifyType(op.Type),
		Title: op.Description,
	}

	batch, hasBatch := batches[op.BatchID]
	if hasBatch {
		item.BatchNumber = batch.Number
		if item.Title == "" {
			item.Title = batch.Number
		}
	}

	switch {
	case item.Type == models.TypeMaintenance:
		item.Color = colorMaintenance
	case item.Type == models.TypeEngineering:
		item.Color = colorEngineering
	case hasBatch:
		item.Color = batchcolor.Color(models.BatchKey(batch))
	default:
		item.Color = colorNoBatch
		item.Bordered = true
	}
	return item
}

// deriveItems derives presentation for each operation whose equipment row
// exists. Operations pointing at unknown equipment are dropped; they have no
// row to render on.
func deriveItems(ops []models.Operation, equipment []models.Equipment, batches []models.Batch) []Item {
	rows := make(map[string]struct{}, len(equipment))
	for _, e := range equipment {
		rows[e.ID] = struct{}{}
	}
	byID := make(map[string]models.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	items := make([]Item, 0, len(ops))
	for _, op := range ops {
		if _, ok := rows[op.EquipmentID]; !ok {
			continue
		}
		items = append(items, deriveItem(op, byID))
	}
	return items
}

// matchesSearch reports whether an item matches a case-insensitive search
// term across its batch, type, text fields and owning equipment.
func matchesSearch(item Item, equipment map[string]models.Equipment, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	fields := []string{
		item.Op.BatchID,
		item.BatchNumber,
		string(item.Type),
		item.Title,
		item.Op.Description,
	}
	if e, ok := equipment[item.Op.EquipmentID]; ok {
		fields = append(fields, e.Tag, e.Description)
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// filterItems keeps items matching the search term.
func filterItems(items []Item, equipment []models.Equipment, term string) []Item {
	if strings.TrimSpace(term) == "" {
		return items
	}
	byID := make(map[string]models.Equipment, len(equipment))
	for _, e := range equipment {
		byID[e.ID] = e
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if matchesSearch(it, byID, term) {
			out = append(out, it)
		}
	}
	return out
}

// overlaps reports whether an item touches the [start, end] window.
func overlaps(item Item, start, end time.Time) bool {
	return !item.Op.Start.After(end) && !item.Op.End.Before(start)
}

// itemsInRange keeps items whose span intersects the [start, end] window.
func itemsInRange(items []Item, start, end time.Time) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if overlaps(it, start, end) {
			out = append(out, it)
		}
	}
	return out
}

// visibleRows returns the rows that should render. In edit mode all rows
// show so empty lanes stay reachable as drop targets; in view mode only rows
// with at least one filtered item inside the time window remain.
func visibleRows(equipment []models.Equipment, items []Item, start, end time.Time, editMode bool) []models.Equipment {
	if editMode {
		return equipment
	}
	active := make(map[string]struct{})
	for _, it := range items {
		if overlaps(it, start, end) {
			active[it.Op.EquipmentID] = struct{}{}
		}
	}
	out := make([]models.Equipment, 0, len(active))
	for _, e := range equipment {
		if _, ok := active[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// itemsForRows keeps only items whose row is currently visible.
func itemsForRows(items []Item, rows []models.Equipment) []Item {
	keep := make(map[string]struct{}, len(rows))
	for _, e := range rows {
		keep[e.ID] = struct{}{}
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if _, ok := keep[it.Op.EquipmentID]; ok {
			out = append(out, it)
		}
	}
	return out
}
