package board

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/mbakke/floorline/internal/models"
	"github.com/mbakke/floorline/internal/store"
)

const (
	defaultDebounce = 300 * time.Millisecond

	// duplicateOffset is how far duplicated operations shift forward.
	duplicateOffset = 24 * time.Hour
)

// RollbackPolicy controls what happens to the local state when a background
// save fails.
type RollbackPolicy string

const (
	// RollbackNone keeps the optimistic local state and only reports the
	// failure.
	RollbackNone RollbackPolicy = "none"

	// RollbackOnFailure restores each failed operation to its pre-commit
	// state.
	RollbackOnFailure RollbackPolicy = "on-failure"
)

// ParseRollbackPolicy resolves a config value, defaulting to on-failure.
func ParseRollbackPolicy(raw string) RollbackPolicy {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RollbackNone):
		return RollbackNone
	default:
		return RollbackOnFailure
	}
}

// Messages emitted by pipeline commands.
type (
	commitTickMsg struct{ gen int }

	opSavedMsg struct {
		op   models.Operation
		prev models.Operation
		err  error
	}

	opDeletedMsg struct {
		id  string
		err error
	}

	duplicatedMsg struct {
		created  []models.Operation
		failures int
	}

	reconcileResultMsg struct{ err error }
)

// pendingCommit accumulates staged edits between the first local mutation
// and the debounce firing. The before snapshot is taken once, at the first
// stage, so the eventual history push captures the state preceding the whole
// gesture.
type pendingCommit struct {
	before []models.Operation
	dirty  map[string]struct{}
	gen    int
}

// pipeline runs the optimistic mutation flow: apply locally, debounce, push
// one history snapshot per commit, persist in the background and report or
// roll back failures.
type pipeline struct {
	gateway  store.Gateway
	notifier Notifier
	logger   zerolog.Logger
	debounce time.Duration
	rollback RollbackPolicy

	pending *pendingCommit

	// deleting counts in-flight deletes. Reloads are suppressed while
	// nonzero so a stale fetch cannot resurrect a removed operation.
	deleting int
}

func newPipeline(gateway store.Gateway, notifier Notifier, logger zerolog.Logger, debounce time.Duration, rollback RollbackPolicy) pipeline {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if rollback == "" {
		rollback = RollbackOnFailure
	}
	return pipeline{
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
		debounce: debounce,
		rollback: rollback,
	}
}

// Deleting reports whether deletes are in flight.
func (p *pipeline) Deleting() bool { return p.deleting > 0 }

// Dirty reports whether staged edits await their debounce.
func (p *pipeline) Dirty() bool { return p.pending != nil }

// Stage applies a mutation to the given ids locally and (re)arms the
// debounce timer. Repeated stages within the debounce window coalesce into a
// single commit.
func (p *pipeline) Stage(ops []models.Operation, ids []string, mutate func(models.Operation) models.Operation) ([]models.Operation, tea.Cmd) {
	if len(ids) == 0 {
		return ops, nil
	}
	if p.pending == nil {
		p.pending = &pendingCommit{
			before: models.Clone(ops),
			dirty:  make(map[string]struct{}),
		}
	}
	p.pending.gen++

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for i := range ops {
		if _, ok := want[ops[i].ID]; !ok {
			continue
		}
		ops[i] = mutate(ops[i])
		p.pending.dirty[ops[i].ID] = struct{}{}
	}

	gen := p.pending.gen
	return ops, tea.Tick(p.debounce, func(time.Time) tea.Msg {
		return commitTickMsg{gen: gen}
	})
}

// Commit finalizes the pending edits when the firing timer is the latest
// one. Stale timers from superseded stages are ignored.
func (p *pipeline) Commit(gen int, ops []models.Operation, hist *history) tea.Cmd {
	if p.pending == nil || gen != p.pending.gen {
		return nil
	}
	return p.commit(ops, hist)
}

// Flush commits pending edits immediately. Undo and redo call this first so
// the replayed snapshot cannot interleave with a still-armed debounce.
func (p *pipeline) Flush(ops []models.Operation, hist *history) tea.Cmd {
	if p.pending == nil {
		return nil
	}
	return p.commit(ops, hist)
}

func (p *pipeline) commit(ops []models.Operation, hist *history) tea.Cmd {
	pc := p.pending
	p.pending = nil

	hist.Push(pc.before)
	prevByID, skipped := models.OperationsByID(pc.before)
	p.logSkipped(skipped)

	cmds := make([]tea.Cmd, 0, len(pc.dirty))
	for _, op := range ops {
		if _, dirty := pc.dirty[op.ID]; !dirty {
			continue
		}
		cmds = append(cmds, p.saveCmd(op, prevByID[op.ID]))
	}
	return tea.Batch(cmds...)
}

// SaveNow persists a single operation outside the debounce path: dialog
// edits and creations. The history snapshot is taken before the local
// apply. New operations join the local set when the save confirms, so a
// failed create leaves no ghost bar.
func (p *pipeline) SaveNow(ops []models.Operation, op models.Operation, hist *history) ([]models.Operation, tea.Cmd) {
	hist.Push(ops)
	var prev models.Operation
	for i := range ops {
		if op.ID != "" && ops[i].ID == op.ID {
			prev = ops[i]
			ops[i] = op
			break
		}
	}
	return ops, p.saveCmd(op, prev)
}

func (p *pipeline) saveCmd(op, prev models.Operation) tea.Cmd {
	return func() tea.Msg {
		saved, err := p.gateway.SaveOperation(context.Background(), op)
		if err != nil {
			return opSavedMsg{op: op, prev: prev, err: err}
		}
		return opSavedMsg{op: saved, prev: prev}
	}
}

// HandleSaved folds a save result into the operation set. Failures notify
// and, under the on-failure policy, restore the pre-commit state of the one
// failed operation; successful siblings from the same commit keep their new
// state.
func (p *pipeline) HandleSaved(ops []models.Operation, msg opSavedMsg) []models.Operation {
	if msg.err != nil {
		p.logger.Error().Err(msg.err).Str("operation_id", msg.op.ID).Msg("operation save failed")
		p.notifier.Error("save failed: " + msg.err.Error())
		if p.rollback == RollbackOnFailure && msg.prev.ID != "" {
			for i := range ops {
				if ops[i].ID == msg.prev.ID {
					ops[i] = msg.prev
					break
				}
			}
		}
		return ops
	}
	for i := range ops {
		if ops[i].ID == msg.op.ID {
			ops[i] = msg.op
			return ops
		}
	}
	return append(ops, msg.op)
}

// Delete removes the given operations. One history snapshot covers the whole
// set; removal from the local state waits for each confirmation.
func (p *pipeline) Delete(ops []models.Operation, ids []string, hist *history) tea.Cmd {
	if len(ids) == 0 {
		return nil
	}
	hist.Push(ops)
	p.deleting += len(ids)
	cmds := make([]tea.Cmd, 0, len(ids))
	for _, id := range ids {
		id := id
		cmds = append(cmds, func() tea.Msg {
			return opDeletedMsg{id: id, err: p.gateway.DeleteOperation(context.Background(), id)}
		})
	}
	return tea.Batch(cmds...)
}

// HandleDeleted folds a delete result into the operation set.
func (p *pipeline) HandleDeleted(ops []models.Operation, msg opDeletedMsg) []models.Operation {
	if p.deleting > 0 {
		p.deleting--
	}
	if msg.err != nil {
		p.logger.Error().Err(msg.err).Str("operation_id", msg.id).Msg("operation delete failed")
		p.notifier.Error("delete failed: " + msg.err.Error())
		return ops
	}
	out := ops[:0]
	for _, op := range ops {
		if op.ID != msg.id {
			out = append(out, op)
		}
	}
	return out
}

// Duplicate creates day-shifted copies of the selected operations under the
// chosen batch. All copies save in one command so the selection can switch
// to the new set atomically when the result lands.
func (p *pipeline) Duplicate(ops []models.Operation, ids []string, batchID string, hist *history) tea.Cmd {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var sources []models.Operation
	for _, op := range ops {
		if _, ok := want[op.ID]; ok {
			sources = append(sources, op)
		}
	}
	if len(sources) == 0 {
		return nil
	}
	hist.Push(ops)

	return func() tea.Msg {
		msg := duplicatedMsg{}
		for _, src := range sources {
			dup := src
			dup.ID = ""
			dup.BatchID = batchID
			dup.Start = src.Start.Add(duplicateOffset)
			dup.End = src.End.Add(duplicateOffset)
			dup.CreatedOn = time.Time{}
			dup.ModifiedOn = time.Time{}
			saved, err := p.gateway.SaveOperation(context.Background(), dup)
			if err != nil {
				p.logger.Error().Err(err).Str("source_id", src.ID).Msg("duplicate save failed")
				msg.failures++
				continue
			}
			msg.created = append(msg.created, saved)
		}
		return msg
	}
}

// Reconcile persists the difference between the displayed state and a
// replayed history snapshot: operations absent from the target are deleted,
// every target operation is upserted. All writes run concurrently.
func (p *pipeline) Reconcile(current, target []models.Operation) tea.Cmd {
	targetByID, skipped := models.OperationsByID(target)
	p.logSkipped(skipped)

	var cmds []tea.Cmd
	for _, op := range current {
		if _, ok := targetByID[op.ID]; ok {
			continue
		}
		id := op.ID
		cmds = append(cmds, func() tea.Msg {
			return reconcileResultMsg{err: p.gateway.DeleteOperation(context.Background(), id)}
		})
	}
	for _, op := range target {
		op := op
		cmds = append(cmds, func() tea.Msg {
			_, err := p.gateway.SaveOperation(context.Background(), op)
			return reconcileResultMsg{err: err}
		})
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// logSkipped records operations excluded from id-keyed maps. A record
// without an id must never silently match anything, so each exclusion is an
// anomaly worth a log line.
func (p *pipeline) logSkipped(skipped []models.Operation) {
	for _, op := range skipped {
		p.logger.Warn().
			Str("equipment_id", op.EquipmentID).
			Str("description", op.Description).
			Msg("operation without id excluded from id-keyed lookup")
	}
}

// HandleReconcile reports reconcile write failures.
func (p *pipeline) HandleReconcile(msg reconcileResultMsg) {
	if msg.err == nil {
		return
	}
	p.logger.Error().Err(msg.err).Msg("history reconcile write failed")
	p.notifier.Error("history sync failed: " + msg.err.Error())
}
