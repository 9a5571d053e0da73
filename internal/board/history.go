package board

import "github.com/mbakke/floorline/internal/models"

// history holds bounded undo/redo stacks of full operation-set snapshots.
// One snapshot per committed mutation, never one per keystroke; the pipeline
// decides when a mutation counts as committed.
type history struct {
	undo  [][]models.Operation
	redo  [][]models.Operation
	depth int

	// applying suppresses pushes while a replayed snapshot round-trips
	// through the normal mutation path.
	applying bool
}

func newHistory(depth int) history {
	if depth <= 0 {
		depth = defaultHistoryDepth
	}
	return history{depth: depth}
}

const defaultHistoryDepth = 50

// Push records the pre-mutation snapshot and clears the redo stack. Pushes
// during replay are dropped. The oldest snapshot falls off once the stack is
// full.
func (h *history) Push(before []models.Operation) {
	if h.applying {
		return
	}
	h.undo = append(h.undo, models.Clone(before))
	if len(h.undo) > h.depth {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// CanUndo reports whether an undo snapshot exists.
func (h *history) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether a redo snapshot exists.
func (h *history) CanRedo() bool {
	return len(h.redo) > 0
}

// Undo pops the newest undo snapshot, pushing the current state onto the
// redo stack. Returns false when there is nothing to undo.
func (h *history) Undo(current []models.Operation) ([]models.Operation, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	snapshot := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, models.Clone(current))
	if len(h.redo) > h.depth {
		h.redo = h.redo[1:]
	}
	return snapshot, true
}

// Redo pops the newest redo snapshot, pushing the current state back onto
// the undo stack. Returns false when there is nothing to redo.
func (h *history) Redo(current []models.Operation) ([]models.Operation, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	snapshot := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, models.Clone(current))
	if len(h.undo) > h.depth {
		h.undo = h.undo[1:]
	}
	return snapshot, true
}

// BeginApply marks the start of a snapshot replay; pushes are suppressed
// until EndApply.
func (h *history) BeginApply() { h.applying = true }

// EndApply re-enables pushes.
func (h *history) EndApply() { h.applying = false }
