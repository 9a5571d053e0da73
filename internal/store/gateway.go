// Package store defines the persistence gateway the board talks to.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mbakke/floorline/internal/models"
)

// Gateway errors. Policy errors are fixed: equipment and batch deletion are
// permanently unsupported. ErrNotReady marks a programming-contract
// violation — callers must wait for the readiness signal before issuing any
// gateway call.
var (
	ErrNotReady                = errors.New("store: gateway accessed before the backing client is ready")
	ErrEquipmentDeleteDisabled = errors.New("store: equipment deletion is disabled")
	ErrBatchDeleteDisabled     = errors.New("store: batch deletion is disabled")
)

// Gateway abstracts the scheduling data store. Expected failures (remote
// rejection, validation) come back as error returns; the gateway never
// panics for them.
type Gateway interface {
	// Ready reports whether the backing client finished initializing.
	// No other method may be called before this returns true.
	Ready() bool

	// ListEquipment returns all equipment ordered by the persisted order.
	ListEquipment(ctx context.Context) ([]models.Equipment, error)

	// ListOperations returns operations overlapping [start, end]. The range
	// filter is advisory; callers must tolerate out-of-range records.
	ListOperations(ctx context.Context, start, end time.Time) ([]models.Operation, error)

	// ListBatches returns all batches sorted by number.
	ListBatches(ctx context.Context) ([]models.Batch, error)

	// SaveEquipment upserts an equipment record and returns the stored form.
	SaveEquipment(ctx context.Context, e models.Equipment) (models.Equipment, error)

	// SaveEquipmentOrder persists only the order field of one equipment
	// row. Reorder gestures issue one call per row so a single failure
	// cannot block the rest of the order from landing.
	SaveEquipmentOrder(ctx context.Context, id string, order int) error

	// SaveOperation upserts an operation and returns the stored form. A
	// record without an id is created.
	SaveOperation(ctx context.Context, op models.Operation) (models.Operation, error)

	// DeleteOperation removes an operation by id.
	DeleteOperation(ctx context.Context, id string) error

	// SaveBatch upserts a batch, rejecting duplicate batch numbers.
	SaveBatch(ctx context.Context, b models.Batch) (models.Batch, error)

	// DeleteEquipment always fails with ErrEquipmentDeleteDisabled.
	DeleteEquipment(ctx context.Context, id string) error

	// DeleteBatch always fails with ErrBatchDeleteDisabled.
	DeleteBatch(ctx context.Context, id string) error
}
