package board

// virtualWindow maps the full filtered row list onto the bounded slice that
// actually renders. Offsets are clamped on every transition so the window
// never runs past the row list.
type virtualWindow struct {
	offset   int
	pageSize int

	// wheelAccum collects wheel deltas until they cross wheelThreshold,
	// stepping the offset one row per crossing.
	wheelAccum     int
	wheelThreshold int

	// Row-label drag panning: offset moves relative to where the drag
	// started, converted to row units by the row height.
	dragging        bool
	dragStartY      int
	dragStartOffset int
}

func newVirtualWindow(wheelThreshold int) virtualWindow {
	if wheelThreshold <= 0 {
		wheelThreshold = defaultWheelThreshold
	}
	return virtualWindow{pageSize: minPageSize, wheelThreshold: wheelThreshold}
}

const (
	minPageSize           = 3
	defaultWheelThreshold = 30
)

// computePageSize derives how many rows fit in the available vertical
// space. A partially visible row counts once more than 70% of it fits; the
// page never drops below three rows.
func computePageSize(availableHeight, rowHeight, headerHeight int) int {
	if rowHeight <= 0 {
		return minPageSize
	}
	usable := availableHeight - headerHeight
	if usable < 0 {
		usable = 0
	}
	per := usable / rowHeight
	if usable%rowHeight*10 > rowHeight*7 {
		per++
	}
	if per < minPageSize {
		per = minPageSize
	}
	return per
}

// Resize recomputes the page size for new dimensions and re-clamps.
func (w *virtualWindow) Resize(availableHeight, rowHeight, headerHeight, totalRows int) {
	w.pageSize = computePageSize(availableHeight, rowHeight, headerHeight)
	w.Clamp(totalRows)
}

// Clamp forces the offset into [0, max(0, totalRows-pageSize)].
func (w *virtualWindow) Clamp(totalRows int) {
	max := totalRows - w.pageSize
	if max < 0 {
		max = 0
	}
	if w.offset > max {
		w.offset = max
	}
	if w.offset < 0 {
		w.offset = 0
	}
}

// Step moves the offset by whole rows.
func (w *virtualWindow) Step(rows, totalRows int) {
	w.offset += rows
	w.Clamp(totalRows)
}

// SetOffset jumps to an absolute offset.
func (w *virtualWindow) SetOffset(offset, totalRows int) {
	w.offset = offset
	w.Clamp(totalRows)
}

// Wheel accumulates a vertical wheel delta, stepping the offset one row per
// threshold crossing. Nothing moves while all rows fit on one page.
func (w *virtualWindow) Wheel(delta, totalRows int) {
	if totalRows <= w.pageSize {
		return
	}
	w.wheelAccum += delta
	for w.wheelAccum >= w.wheelThreshold || w.wheelAccum <= -w.wheelThreshold {
		dir := 1
		if w.wheelAccum < 0 {
			dir = -1
		}
		w.wheelAccum -= dir * w.wheelThreshold
		w.Step(dir, totalRows)
	}
}

// StartDrag begins a pointer drag of the row window.
func (w *virtualWindow) StartDrag(y int) {
	w.dragging = true
	w.dragStartY = y
	w.dragStartOffset = w.offset
}

// Drag applies pointer movement relative to the drag origin. Dragging down
// moves the window up, mirroring direct manipulation of the row list.
func (w *virtualWindow) Drag(y, rowHeight, totalRows int) {
	if !w.dragging || rowHeight <= 0 {
		return
	}
	rows := -(y - w.dragStartY) / rowHeight
	w.SetOffset(w.dragStartOffset+rows, totalRows)
}

// EndDrag finishes a pointer drag.
func (w *virtualWindow) EndDrag() {
	w.dragging = false
}

// Slice returns the visible [from, to) bounds for a filtered row count.
func (w *virtualWindow) Slice(totalRows int) (int, int) {
	w.Clamp(totalRows)
	from := w.offset
	to := from + w.pageSize
	if to > totalRows {
		to = totalRows
	}
	return from, to
}
