package board

import "github.com/mbakke/floorline/internal/models"

// selection tracks the set of selected operation ids.
type selection struct {
	ids map[string]struct{}
}

func newSelection() selection {
	return selection{ids: make(map[string]struct{})}
}

// Has reports whether an operation is selected.
func (s *selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the selection size.
func (s *selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in no particular order.
func (s *selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

// Clear empties the selection.
func (s *selection) Clear() {
	s.ids = make(map[string]struct{})
}

// SetExact replaces the selection with exactly one operation.
func (s *selection) SetExact(id string) {
	s.ids = map[string]struct{}{id: {}}
}

// Set replaces the selection with the given ids.
func (s *selection) Set(ids []string) {
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Toggle flips one operation's membership.
func (s *selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// SelectBatch replaces the selection with every operation sharing the
// anchor's batch, across all rows. An anchor without a batch is a no-op so a
// stray gesture cannot wipe an existing selection.
func (s *selection) SelectBatch(anchor models.Operation, ops []models.Operation) {
	if anchor.BatchID == "" {
		return
	}
	var ids []string
	for _, op := range ops {
		if op.BatchID == anchor.BatchID {
			ids = append(ids, op.ID)
		}
	}
	s.Set(ids)
}

// SelectBatchBelow is SelectBatch restricted to rows at or after the
// anchor's row in the given row ordering.
func (s *selection) SelectBatchBelow(anchor models.Operation, ops []models.Operation, rows []models.Equipment) {
	if anchor.BatchID == "" {
		return
	}
	rowIndex := make(map[string]int, len(rows))
	for i, e := range rows {
		rowIndex[e.ID] = i
	}
	anchorRow, ok := rowIndex[anchor.EquipmentID]
	if !ok {
		return
	}
	var ids []string
	for _, op := range ops {
		if op.BatchID != anchor.BatchID {
			continue
		}
		if row, ok := rowIndex[op.EquipmentID]; ok && row >= anchorRow {
			ids = append(ids, op.ID)
		}
	}
	s.Set(ids)
}

// Prune drops selected ids that no longer exist in the operation set.
func (s *selection) Prune(ops []models.Operation) {
	present := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		present[op.ID] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := present[id]; !ok {
			delete(s.ids, id)
		}
	}
}
