// Package board implements the interactive scheduling board: equipment rows
// on the vertical axis, a zoomable time axis on the horizontal, and
// operations rendered as colored bars.
package board

import (
	"context"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/mbakke/floorline/internal/models"
	"github.com/mbakke/floorline/internal/store"
)

const (
	readyPollInterval = 100 * time.Millisecond
	refreshInterval   = 30 * time.Second

	defaultRowHeight = 2
	headerHeight     = 3
	footerHeight     = 2

	// chartTop is the first body line: header and axis take one line each.
	chartTop = 2

	doubleClickWindow = 400 * time.Millisecond
)

// reorderPublisher is the optional gateway capability for recording row
// reorder gestures in the audit log.
type reorderPublisher interface {
	PublishReorder(ctx context.Context, draggedID, targetID string)
}

// Config parameterizes the board model.
type Config struct {
	Gateway        store.Gateway
	Logger         zerolog.Logger
	RowHeight      int
	WheelThreshold int
	Debounce       time.Duration
	HistoryDepth   int
	Rollback       RollbackPolicy
	DefaultZoom    ZoomLevel
	Now            func() time.Time
}

func (c Config) normalize() Config {
	if c.RowHeight <= 0 {
		c.RowHeight = defaultRowHeight
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if !validZoom(c.DefaultZoom) {
		c.DefaultZoom = ZoomMonth
	}
	return c
}

// Model is the board's top-level bubbletea model.
type Model struct {
	gateway store.Gateway
	logger  zerolog.Logger
	now     func() time.Time

	rowHeight int
	width     int
	height    int

	ready   bool
	loading bool
	loadGen int
	loadErr error

	equipment  []models.Equipment
	operations []models.Operation
	batches    []models.Batch

	view   viewport
	window virtualWindow
	sel    selection
	hist   history
	pipe   pipeline
	log    *noticeLog

	// Derived per refresh: the filtered visible rows and their items,
	// sorted row-major then by start time. The cursor indexes items.
	rows   []models.Equipment
	items  []Item
	cursor int

	editMode     bool
	searching    bool
	searchTerm   string
	grabbedRowID string

	lastClickX  int
	lastClickY  int
	lastClickAt time.Time

	dialog dialog
}

// Messages owned by the model.
type (
	readyTickMsg   struct{}
	refreshTickMsg struct{}

	boardDataMsg struct {
		gen        int
		equipment  []models.Equipment
		operations []models.Operation
		batches    []models.Batch
		err        error
	}

	rowOrderSavedMsg struct {
		id  string
		err error
	}
)

// New builds a board model over a gateway.
func New(cfg Config) *Model {
	cfg = cfg.normalize()
	log := newNoticeLog(5)
	m := &Model{
		gateway:   cfg.Gateway,
		logger:    cfg.Logger,
		now:       cfg.Now,
		rowHeight: cfg.RowHeight,
		view:      newViewport(cfg.DefaultZoom, cfg.Now()),
		window:    newVirtualWindow(cfg.WheelThreshold),
		sel:       newSelection(),
		hist:      newHistory(cfg.HistoryDepth),
		log:       log,
	}
	m.pipe = newPipeline(cfg.Gateway, log, cfg.Logger, cfg.Debounce, cfg.Rollback)
	return m
}

// Run starts the board program.
func Run(cfg Config) error {
	program := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	return err
}

// Init waits for the gateway readiness signal before issuing the first load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		readyTickCmd(),
		tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} }),
	)
}

func readyTickCmd() tea.Cmd {
	return tea.Tick(readyPollInterval, func(time.Time) tea.Msg { return readyTickMsg{} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.window.Resize(m.height-footerHeight, m.rowHeight, headerHeight, len(m.rows))
		return m, nil

	case readyTickMsg:
		if m.gateway != nil && m.gateway.Ready() {
			m.ready = true
			return m, m.loadCmd()
		}
		return m, readyTickCmd()

	case refreshTickMsg:
		cmd := tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
		// A background refresh must never clobber unsaved local edits.
		if !m.ready || m.pipe.Dirty() || m.pipe.Deleting() || m.dialog != nil {
			return m, cmd
		}
		return m, tea.Batch(cmd, m.loadCmd())

	case boardDataMsg:
		m.applyData(typed)
		return m, nil

	case commitTickMsg:
		return m, m.pipe.Commit(typed.gen, m.operations, &m.hist)

	case opSavedMsg:
		m.operations = m.pipe.HandleSaved(m.operations, typed)
		m.refresh()
		return m, nil

	case opDeletedMsg:
		m.operations = m.pipe.HandleDeleted(m.operations, typed)
		m.sel.Prune(m.operations)
		m.refresh()
		return m, nil

	case duplicatedMsg:
		return m, m.applyDuplicated(typed)

	case reconcileResultMsg:
		m.pipe.HandleReconcile(typed)
		return m, nil

	case equipmentSavedMsg:
		if typed.err != nil {
			m.logger.Error().Err(typed.err).Msg("equipment save failed")
			m.log.Error("equipment save failed: " + typed.err.Error())
			return m, nil
		}
		replaced := false
		for i := range m.equipment {
			if m.equipment[i].ID == typed.equipment.ID {
				m.equipment[i] = typed.equipment
				replaced = true
			}
		}
		if !replaced {
			m.equipment = append(m.equipment, typed.equipment)
		}
		m.equipment = models.SortEquipment(m.equipment)
		m.refresh()
		return m, nil

	case batchSavedMsg:
		if typed.err != nil {
			m.logger.Error().Err(typed.err).Msg("batch save failed")
			m.log.Error("batch save failed: " + typed.err.Error())
			return m, nil
		}
		replaced := false
		for i := range m.batches {
			if m.batches[i].ID == typed.batch.ID {
				m.batches[i] = typed.batch
				replaced = true
			}
		}
		if !replaced {
			m.batches = append(m.batches, typed.batch)
		}
		models.SortBatches(m.batches)
		m.refresh()
		return m, nil

	case rowOrderSavedMsg:
		if typed.err != nil {
			m.logger.Error().Err(typed.err).Str("equipment_id", typed.id).Msg("row order save failed")
			m.log.Error("row order save failed: " + typed.err.Error())
		}
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(typed)

	case tea.KeyMsg:
		return m, m.handleKey(typed)
	}

	return m, nil
}

// loadCmd fetches the full board state for the current time window. The
// generation stamp discards results that a newer load has superseded.
func (m *Model) loadCmd() tea.Cmd {
	m.loadGen++
	gen := m.loadGen
	m.loading = true
	start, end := m.view.start, m.view.end
	gateway := m.gateway
	return func() tea.Msg {
		ctx := context.Background()
		equipment, err := gateway.ListEquipment(ctx)
		if err != nil {
			return boardDataMsg{gen: gen, err: err}
		}
		ops, err := gateway.ListOperations(ctx, start, end)
		if err != nil {
			return boardDataMsg{gen: gen, err: err}
		}
		batches, err := gateway.ListBatches(ctx)
		if err != nil {
			return boardDataMsg{gen: gen, err: err}
		}
		return boardDataMsg{gen: gen, equipment: equipment, operations: ops, batches: batches}
	}
}

func (m *Model) applyData(msg boardDataMsg) {
	if msg.gen != m.loadGen {
		return
	}
	m.loading = false
	if msg.err != nil {
		m.loadErr = msg.err
		m.logger.Error().Err(msg.err).Msg("board load failed")
		m.log.Error("load failed: " + msg.err.Error())
		return
	}
	// Deletes still in flight would be resurrected by this snapshot.
	if m.pipe.Deleting() || m.pipe.Dirty() {
		return
	}
	m.loadErr = nil
	m.equipment = models.SortEquipment(msg.equipment)
	m.operations = msg.operations
	m.batches = msg.batches
	m.sel.Prune(m.operations)
	m.refresh()
}

// refresh rebuilds the derived row and item lists after any state change.
func (m *Model) refresh() {
	all := deriveItems(m.operations, m.equipment, m.batches)
	filtered := filterItems(all, m.equipment, m.searchTerm)
	// The gateway's range filter is advisory; an out-of-range record must
	// not paint a clamped sliver at the chart edge or take the cursor.
	inRange := itemsInRange(filtered, m.view.start, m.view.end)
	m.rows = visibleRows(m.equipment, filtered, m.view.start, m.view.end, m.editMode)
	m.items = sortItemsRowMajor(itemsForRows(inRange, m.rows), m.rows)
	m.window.Clamp(len(m.rows))
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// sortItemsRowMajor orders items by their row's position, then start time,
// then id for a stable cursor walk.
func sortItemsRowMajor(items []Item, rows []models.Equipment) []Item {
	rowIndex := make(map[string]int, len(rows))
	for i, e := range rows {
		rowIndex[e.ID] = i
	}
	sort.SliceStable(items, func(a, b int) bool {
		ra, rb := rowIndex[items[a].Op.EquipmentID], rowIndex[items[b].Op.EquipmentID]
		if ra != rb {
			return ra < rb
		}
		if !items[a].Op.Start.Equal(items[b].Op.Start) {
			return items[a].Op.Start.Before(items[b].Op.Start)
		}
		return items[a].Op.ID < items[b].Op.ID
	})
	return items
}

func (m *Model) cursorItem() (Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return Item{}, false
	}
	return m.items[m.cursor], true
}

// rowIndexOf returns the position of an equipment id in the visible rows.
func (m *Model) rowIndexOf(equipmentID string) int {
	for i, e := range m.rows {
		if e.ID == equipmentID {
			return i
		}
	}
	return -1
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			// Ctrl turns the wheel into a zoom gesture, one level per event.
			if msg.Ctrl {
				if m.view.ZoomIn() {
					m.refresh()
					return m.loadCmd()
				}
				return nil
			}
			m.window.Wheel(-m.window.wheelThreshold, len(m.rows))
		case tea.MouseButtonWheelDown:
			if msg.Ctrl {
				if m.view.ZoomOut() {
					m.refresh()
					return m.loadCmd()
				}
				return nil
			}
			m.window.Wheel(m.window.wheelThreshold, len(m.rows))
		case tea.MouseButtonLeft:
			if cmd := m.handleCanvasClick(msg.X, msg.Y); cmd != nil {
				return cmd
			}
			m.window.StartDrag(msg.Y)
		}
	case tea.MouseActionMotion:
		m.window.Drag(msg.Y, m.rowHeight, len(m.rows))
	case tea.MouseActionRelease:
		m.window.EndDrag()
	}
	return nil
}

// handleCanvasClick tracks click timing and turns a double click on empty
// canvas into an operation create. Returns nil for single clicks so the
// press falls through to drag handling.
func (m *Model) handleCanvasClick(x, y int) tea.Cmd {
	isDouble := m.now().Sub(m.lastClickAt) <= doubleClickWindow &&
		x == m.lastClickX && y == m.lastClickY
	m.lastClickX, m.lastClickY = x, y
	m.lastClickAt = m.now()
	if !isDouble || !m.editMode {
		return nil
	}
	return m.createAtCell(x, y)
}

// createAtCell creates a one-day production operation at the clicked row and
// time. Cells covered by an existing bar are left to selection gestures.
func (m *Model) createAtCell(x, y int) tea.Cmd {
	col := x - labelWidth
	if col < 0 || col >= m.chartWidth() {
		return nil
	}
	row := m.rowAt(y)
	if row < 0 {
		return nil
	}
	equipmentID := m.rows[row].ID
	for _, it := range m.items {
		if it.Op.EquipmentID == equipmentID &&
			col >= m.timeToCol(it.Op.Start) && col <= m.timeToCol(it.Op.End) {
			return nil
		}
	}
	start := m.colToTime(col)
	op := models.Operation{
		EquipmentID: equipmentID,
		Start:       start,
		End:         start.Add(24 * time.Hour),
		Type:        string(models.TypeProduction),
	}
	var cmd tea.Cmd
	m.operations, cmd = m.pipe.SaveNow(m.operations, op, &m.hist)
	m.refresh()
	return cmd
}

// rowAt maps a terminal line to a visible row index, or -1 when the line is
// outside the body.
func (m *Model) rowAt(y int) int {
	line := y - chartTop
	if line < 0 || m.rowHeight <= 0 {
		return -1
	}
	from, to := m.window.Slice(len(m.rows))
	idx := from + line/m.rowHeight
	if idx >= to {
		return -1
	}
	return idx
}

// colToTime is the inverse of timeToCol.
func (m *Model) colToTime(col int) time.Time {
	chart := m.chartWidth()
	span := m.view.end.Sub(m.view.start)
	if chart <= 0 || span <= 0 {
		return m.view.start
	}
	return m.view.start.Add(time.Duration(int64(span) * int64(col) / int64(chart)))
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.dialog != nil {
		return m.updateDialog(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.grabbedRowID != "" {
		return m.handleGrabbedKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit

	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
			m.scrollCursorIntoView()
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.scrollCursorIntoView()
		}
	case "J":
		m.window.Step(1, len(m.rows))
	case "K":
		m.window.Step(-1, len(m.rows))

	case "h", "left":
		m.view.Pan(-1)
		m.refresh()
		return m.loadCmd()
	case "l", "right":
		m.view.Pan(1)
		m.refresh()
		return m.loadCmd()
	case "+", "=":
		if m.view.ZoomIn() {
			m.refresh()
			return m.loadCmd()
		}
	case "-":
		if m.view.ZoomOut() {
			m.refresh()
			return m.loadCmd()
		}
	case "t":
		m.view.JumpToNow(m.now())
		m.refresh()
		return m.loadCmd()

	case "enter":
		if item, ok := m.cursorItem(); ok {
			m.sel.SetExact(item.Op.ID)
		}
	case " ", "x":
		if item, ok := m.cursorItem(); ok {
			m.sel.Toggle(item.Op.ID)
		}
	case "a":
		if item, ok := m.cursorItem(); ok {
			m.sel.SelectBatch(item.Op, m.operations)
		}
	case "A":
		if item, ok := m.cursorItem(); ok {
			m.sel.SelectBatchBelow(item.Op, m.operations, m.rows)
		}
	case "esc":
		m.sel.Clear()

	case "/":
		m.searching = true

	case "e":
		m.editMode = !m.editMode
		m.refresh()

	// Mutating gestures below require edit mode; dialogs are exempt since
	// opening one is still just viewing until it saves.
	case "H":
		if m.editMode {
			return m.moveSelection(-1)
		}
	case "L":
		if m.editMode {
			return m.moveSelection(1)
		}
	case "[":
		if m.editMode {
			return m.resizeSelection(true, -1)
		}
	case "{":
		if m.editMode {
			return m.resizeSelection(true, 1)
		}
	case "]":
		if m.editMode {
			return m.resizeSelection(false, 1)
		}
	case "}":
		if m.editMode {
			return m.resizeSelection(false, -1)
		}

	case "backspace", "delete":
		if m.editMode && m.sel.Len() > 0 {
			m.dialog = newConfirmDeleteDialog(m.sel.Len())
		}

	case "ctrl+z":
		return m.undo()
	case "ctrl+y", "Z":
		return m.redo()

	case "d":
		if m.editMode && m.sel.Len() > 0 {
			m.dialog = newDuplicateDialog(m.batches)
		}
	case "n":
		m.dialog = newOperationDialog(models.Operation{}, m.rows, m.batches, m.view.start)
	case "o":
		if item, ok := m.cursorItem(); ok {
			m.dialog = newOperationDialog(item.Op, m.rows, m.batches, m.view.start)
		}
	case "E":
		if m.editMode {
			m.dialog = newEquipmentDialog(models.Equipment{Order: len(m.equipment)})
		}
	case "B":
		m.dialog = newBatchDialog(models.Batch{}, m.batches)

	case "m":
		if _, ok := m.cursorItem(); ok {
			m.dialog = newContextMenu()
		}

	case "R":
		if m.editMode {
			if item, ok := m.cursorItem(); ok {
				m.grabbedRowID = item.Op.EquipmentID
			} else if len(m.rows) > 0 {
				m.grabbedRowID = m.rows[0].ID
			}
		}
	}
	return nil
}

// scrollCursorIntoView nudges the window so the cursor item's row is inside
// the visible slice.
func (m *Model) scrollCursorIntoView() {
	item, ok := m.cursorItem()
	if !ok {
		return
	}
	row := m.rowIndexOf(item.Op.EquipmentID)
	if row < 0 {
		return
	}
	from, to := m.window.Slice(len(m.rows))
	if row < from {
		m.window.SetOffset(row, len(m.rows))
	} else if row >= to {
		m.window.SetOffset(row-m.window.pageSize+1, len(m.rows))
	}
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.refresh()
	case "esc":
		m.searching = false
		m.searchTerm = ""
		m.refresh()
	case "backspace":
		if len(m.searchTerm) > 0 {
			m.searchTerm = m.searchTerm[:len(m.searchTerm)-1]
			m.refresh()
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.searchTerm += string(msg.Runes)
			m.refresh()
		}
	}
	return nil
}

// handleGrabbedKey moves a grabbed row through the order until dropped.
func (m *Model) handleGrabbedKey(msg tea.KeyMsg) tea.Cmd {
	neighbor := func(delta int) string {
		idx := -1
		for i := range m.equipment {
			if m.equipment[i].ID == m.grabbedRowID {
				idx = i
				break
			}
		}
		if idx < 0 || idx+delta < 0 || idx+delta >= len(m.equipment) {
			return ""
		}
		return m.equipment[idx+delta].ID
	}

	switch msg.String() {
	case "j", "down":
		if target := neighbor(1); target != "" {
			models.Reorder(m.equipment, m.grabbedRowID, target)
			m.refresh()
		}
	case "k", "up":
		if target := neighbor(-1); target != "" {
			models.Reorder(m.equipment, m.grabbedRowID, target)
			m.refresh()
		}
	case "enter", "R":
		return m.dropGrabbedRow()
	case "esc":
		m.grabbedRowID = ""
		return m.loadCmd()
	}
	return nil
}

// dropGrabbedRow persists the new dense order, one save per row,
// concurrently, and records the gesture when the gateway supports it.
func (m *Model) dropGrabbedRow() tea.Cmd {
	dragged := m.grabbedRowID
	m.grabbedRowID = ""

	targetID := ""
	for i := range m.equipment {
		if m.equipment[i].ID == dragged && i+1 < len(m.equipment) {
			targetID = m.equipment[i+1].ID
		}
	}

	cmds := make([]tea.Cmd, 0, len(m.equipment)+1)
	for _, e := range m.equipment {
		e := e
		cmds = append(cmds, func() tea.Msg {
			err := m.gateway.SaveEquipmentOrder(context.Background(), e.ID, e.Order)
			return rowOrderSavedMsg{id: e.ID, err: err}
		})
	}
	if pub, ok := m.gateway.(reorderPublisher); ok {
		cmds = append(cmds, func() tea.Msg {
			pub.PublishReorder(context.Background(), dragged, targetID)
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// moveStep is the pan granularity for keyboard moves at each zoom level.
func moveStep(zoom ZoomLevel) time.Duration {
	switch zoom {
	case ZoomHour:
		return 15 * time.Minute
	case ZoomDay:
		return 30 * time.Minute
	case ZoomWeek:
		return 2 * time.Hour
	case ZoomMonth:
		return 6 * time.Hour
	case ZoomQuarter:
		return 24 * time.Hour
	case ZoomYear:
		return 7 * 24 * time.Hour
	}
	return 30 * time.Minute
}

// moveSelection shifts every selected operation by one step, through the
// debounced pipeline.
func (m *Model) moveSelection(direction int) tea.Cmd {
	if m.sel.Len() == 0 {
		return nil
	}
	delta := moveStep(m.view.zoom) * time.Duration(direction)
	var cmd tea.Cmd
	m.operations, cmd = m.pipe.Stage(m.operations, m.sel.IDs(), func(op models.Operation) models.Operation {
		return op.Shift(delta)
	})
	m.refresh()
	return cmd
}

// resizeSelection adjusts one edge of a single selected operation. Multiple
// selections refuse the gesture; a uniform edge change across differently
// sized bars rarely means anything.
func (m *Model) resizeSelection(startEdge bool, direction int) tea.Cmd {
	if m.sel.Len() != 1 {
		if m.sel.Len() > 1 {
			m.log.Info("resize needs a single selected operation")
		}
		return nil
	}
	delta := moveStep(m.view.zoom) * time.Duration(direction)
	var cmd tea.Cmd
	m.operations, cmd = m.pipe.Stage(m.operations, m.sel.IDs(), func(op models.Operation) models.Operation {
		next := op
		if startEdge {
			next.Start = next.Start.Add(delta)
		} else {
			next.End = next.End.Add(delta)
		}
		if next.End.Before(next.Start) {
			return op
		}
		next.ModifiedOn = time.Now().UTC()
		return next
	})
	m.refresh()
	return cmd
}

// undo flushes any pending commit, swaps in the previous snapshot and
// reconciles the store against it.
func (m *Model) undo() tea.Cmd {
	flush := m.pipe.Flush(m.operations, &m.hist)
	snapshot, ok := m.hist.Undo(m.operations)
	if !ok {
		return flush
	}
	return m.applySnapshot(snapshot, flush)
}

func (m *Model) redo() tea.Cmd {
	flush := m.pipe.Flush(m.operations, &m.hist)
	snapshot, ok := m.hist.Redo(m.operations)
	if !ok {
		return flush
	}
	return m.applySnapshot(snapshot, flush)
}

func (m *Model) applySnapshot(snapshot []models.Operation, flush tea.Cmd) tea.Cmd {
	m.hist.BeginApply()
	reconcile := m.pipe.Reconcile(m.operations, snapshot)
	m.operations = models.Clone(snapshot)
	m.hist.EndApply()
	m.sel.Prune(m.operations)
	m.refresh()
	return tea.Batch(flush, reconcile)
}

// applyDuplicated folds freshly created copies in, moves the selection to
// them and biases the window so the new group sits in the upper quarter.
func (m *Model) applyDuplicated(msg duplicatedMsg) tea.Cmd {
	if msg.failures > 0 {
		m.log.Error("some duplicates failed to save")
	}
	if len(msg.created) == 0 {
		return nil
	}
	m.operations = append(m.operations, msg.created...)
	ids := make([]string, 0, len(msg.created))
	for _, op := range msg.created {
		ids = append(ids, op.ID)
	}
	m.sel.Set(ids)
	m.refresh()

	minRow := -1
	for _, op := range msg.created {
		if row := m.rowIndexOf(op.EquipmentID); row >= 0 && (minRow == -1 || row < minRow) {
			minRow = row
		}
	}
	if minRow >= 0 {
		m.window.SetOffset(minRow-m.window.pageSize/4, len(m.rows))
	}
	m.log.Info("duplicated selection one day forward")
	return nil
}
