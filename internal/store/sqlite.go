package store

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mbakke/floorline/internal/db"
	"github.com/mbakke/floorline/internal/events"
	"github.com/mbakke/floorline/internal/models"
)

// SQLiteGateway implements Gateway over the local sqlite store.
type SQLiteGateway struct {
	equipment  *db.EquipmentRepository
	operations *db.OperationRepository
	batches    *db.BatchRepository
	publisher  events.Publisher
	logger     zerolog.Logger
	ready      atomic.Bool
}

// Options configures the sqlite gateway.
type Options struct {
	DB        *db.DB
	Publisher events.Publisher
	Logger    zerolog.Logger
}

// Open wires the gateway against an open database handle and flips the
// readiness signal. The signal stays false when the handle is missing, so a
// failed initialization leaves the gateway permanently not-ready rather
// than in a distinct error state.
func Open(opts Options) *SQLiteGateway {
	g := &SQLiteGateway{
		publisher: opts.Publisher,
		logger:    opts.Logger,
	}
	if opts.DB == nil {
		return g
	}
	g.equipment = db.NewEquipmentRepository(opts.DB)
	g.operations = db.NewOperationRepository(opts.DB)
	g.batches = db.NewBatchRepository(opts.DB)
	g.ready.Store(true)
	return g
}

// Ready reports whether the gateway can accept calls.
func (g *SQLiteGateway) Ready() bool {
	return g.ready.Load()
}

func (g *SQLiteGateway) guard() error {
	if !g.ready.Load() {
		return ErrNotReady
	}
	return nil
}

// ListEquipment returns all equipment ordered by the persisted order.
func (g *SQLiteGateway) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	return g.equipment.List(ctx)
}

// ListOperations returns operations overlapping [start, end].
func (g *SQLiteGateway) ListOperations(ctx context.Context, start, end time.Time) ([]models.Operation, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	return g.operations.ListRange(ctx, start, end)
}

// ListBatches returns all batches sorted by number.
func (g *SQLiteGateway) ListBatches(ctx context.Context) ([]models.Batch, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	return g.batches.List(ctx)
}

// SaveEquipment upserts an equipment record.
func (g *SQLiteGateway) SaveEquipment(ctx context.Context, e models.Equipment) (models.Equipment, error) {
	if err := g.guard(); err != nil {
		return models.Equipment{}, err
	}
	saved, err := g.equipment.Save(ctx, e)
	if err != nil {
		return models.Equipment{}, err
	}
	g.publish(ctx, &models.Event{
		Type:       models.EventTypeEquipmentSaved,
		EntityType: models.EntityTypeEquipment,
		EntityID:   saved.ID,
	})
	return saved, nil
}

// SaveEquipmentOrder persists just the order field for one equipment row.
// Reorder gestures issue one call per row; the gesture itself is recorded
// separately through PublishReorder.
func (g *SQLiteGateway) SaveEquipmentOrder(ctx context.Context, id string, order int) error {
	if err := g.guard(); err != nil {
		return err
	}
	return g.equipment.SaveOrder(ctx, id, order)
}

// SaveOperation upserts an operation. Updates that move either time bound
// carry the old and new span in the published event payload.
func (g *SQLiteGateway) SaveOperation(ctx context.Context, op models.Operation) (models.Operation, error) {
	if err := g.guard(); err != nil {
		return models.Operation{}, err
	}
	created := op.ID == ""
	var prev *models.Operation
	if !created {
		prev, _ = g.operations.Get(ctx, op.ID)
	}
	saved, err := g.operations.Save(ctx, op)
	if err != nil {
		return models.Operation{}, err
	}
	eventType := models.EventTypeOperationUpdated
	if created {
		eventType = models.EventTypeOperationCreated
	}
	event := &models.Event{
		Type:       eventType,
		EntityType: models.EntityTypeOperation,
		EntityID:   saved.ID,
	}
	if prev != nil && (!prev.Start.Equal(saved.Start) || !prev.End.Equal(saved.End)) {
		payload, err := json.Marshal(models.SpanChangedPayload{
			OldStart: prev.Start,
			OldEnd:   prev.End,
			NewStart: saved.Start,
			NewEnd:   saved.End,
		})
		if err != nil {
			g.logger.Warn().Err(err).Msg("marshal span change payload")
		} else {
			event.Payload = payload
		}
	}
	g.publish(ctx, event)
	return saved, nil
}

// DeleteOperation removes an operation by id.
func (g *SQLiteGateway) DeleteOperation(ctx context.Context, id string) error {
	if err := g.guard(); err != nil {
		return err
	}
	if err := g.operations.Delete(ctx, id); err != nil {
		return err
	}
	g.publish(ctx, &models.Event{
		Type:       models.EventTypeOperationDeleted,
		EntityType: models.EntityTypeOperation,
		EntityID:   id,
	})
	return nil
}

// SaveBatch upserts a batch, rejecting duplicate numbers.
func (g *SQLiteGateway) SaveBatch(ctx context.Context, b models.Batch) (models.Batch, error) {
	if err := g.guard(); err != nil {
		return models.Batch{}, err
	}
	saved, err := g.batches.Save(ctx, b)
	if err != nil {
		return models.Batch{}, err
	}
	g.publish(ctx, &models.Event{
		Type:       models.EventTypeBatchSaved,
		EntityType: models.EntityTypeBatch,
		EntityID:   saved.ID,
	})
	return saved, nil
}

// DeleteEquipment always fails: equipment deletion is disabled by policy.
func (g *SQLiteGateway) DeleteEquipment(ctx context.Context, id string) error {
	return ErrEquipmentDeleteDisabled
}

// DeleteBatch always fails: batch deletion is disabled by policy.
func (g *SQLiteGateway) DeleteBatch(ctx context.Context, id string) error {
	return ErrBatchDeleteDisabled
}

// PublishReorder records a reorder gesture in the audit log. Row order
// itself is persisted per-row through SaveEquipment.
func (g *SQLiteGateway) PublishReorder(ctx context.Context, draggedID, targetID string) {
	payload, err := json.Marshal(models.ReorderPayload{DraggedID: draggedID, TargetID: targetID})
	if err != nil {
		g.logger.Warn().Err(err).Msg("marshal reorder payload")
		return
	}
	g.publish(ctx, &models.Event{
		Type:       models.EventTypeEquipmentReordered,
		EntityType: models.EntityTypeEquipment,
		EntityID:   draggedID,
		Payload:    payload,
	})
}

func (g *SQLiteGateway) publish(ctx context.Context, event *models.Event) {
	if g.publisher == nil {
		return
	}
	g.publisher.Publish(ctx, event)
}

var _ Gateway = (*SQLiteGateway)(nil)
