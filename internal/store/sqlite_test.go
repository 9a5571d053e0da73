package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mbakke/floorline/internal/db"
	"github.com/mbakke/floorline/internal/events"
	"github.com/mbakke/floorline/internal/models"
)

func openTestGateway(t *testing.T, publisher events.Publisher) *SQLiteGateway {
	t.Helper()
	database, err := db.Open(db.Options{Path: ":memory:", Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return Open(Options{DB: database, Publisher: publisher, Logger: zerolog.Nop()})
}

func TestGatewayNotReadyWithoutDatabase(t *testing.T) {
	g := Open(Options{Logger: zerolog.Nop()})
	require.False(t, g.Ready())

	ctx := context.Background()
	_, err := g.ListEquipment(ctx)
	require.ErrorIs(t, err, ErrNotReady)
	_, err = g.ListOperations(ctx, time.Now(), time.Now())
	require.ErrorIs(t, err, ErrNotReady)
	_, err = g.SaveOperation(ctx, models.Operation{EquipmentID: "e1"})
	require.ErrorIs(t, err, ErrNotReady)
	require.ErrorIs(t, g.DeleteOperation(ctx, "x"), ErrNotReady)
	require.ErrorIs(t, g.SaveEquipmentOrder(ctx, "x", 0), ErrNotReady)
}

func TestGatewayDeletePoliciesAreFixed(t *testing.T) {
	g := openTestGateway(t, nil)
	ctx := context.Background()

	require.ErrorIs(t, g.DeleteEquipment(ctx, "any"), ErrEquipmentDeleteDisabled)
	require.ErrorIs(t, g.DeleteBatch(ctx, "any"), ErrBatchDeleteDisabled)
}

func TestGatewayRoundTripPublishesEvents(t *testing.T) {
	publisher := events.NewPublisher()
	var published []models.EventType
	require.NoError(t, publisher.Subscribe("test", events.Filter{}, func(e *models.Event) {
		published = append(published, e.Type)
	}))

	g := openTestGateway(t, publisher)
	require.True(t, g.Ready())
	ctx := context.Background()

	equipment, err := g.SaveEquipment(ctx, models.Equipment{Tag: "FV-01"})
	require.NoError(t, err)

	batch, err := g.SaveBatch(ctx, models.Batch{Number: "26-HTS-01"})
	require.NoError(t, err)

	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	op, err := g.SaveOperation(ctx, models.Operation{
		EquipmentID: equipment.ID,
		BatchID:     batch.ID,
		Start:       start,
		End:         start.Add(4 * time.Hour),
	})
	require.NoError(t, err)

	// Update is distinguished from create.
	op.Description = "primary"
	_, err = g.SaveOperation(ctx, op)
	require.NoError(t, err)

	require.NoError(t, g.DeleteOperation(ctx, op.ID))

	require.Equal(t, []models.EventType{
		models.EventTypeEquipmentSaved,
		models.EventTypeBatchSaved,
		models.EventTypeOperationCreated,
		models.EventTypeOperationUpdated,
		models.EventTypeOperationDeleted,
	}, published)

	ops, err := g.ListOperations(ctx, start.Add(-time.Hour), start.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestSaveEquipmentOrderPersistsOnly(t *testing.T) {
	g := openTestGateway(t, nil)
	ctx := context.Background()

	a, err := g.SaveEquipment(ctx, models.Equipment{Tag: "FV-01", Order: 0})
	require.NoError(t, err)
	b, err := g.SaveEquipment(ctx, models.Equipment{Tag: "FV-02", Order: 1})
	require.NoError(t, err)

	require.NoError(t, g.SaveEquipmentOrder(ctx, a.ID, 1))
	require.NoError(t, g.SaveEquipmentOrder(ctx, b.ID, 0))

	list, err := g.ListEquipment(ctx)
	require.NoError(t, err)
	require.Equal(t, b.ID, list[0].ID)
	require.Equal(t, a.ID, list[1].ID)

	require.ErrorIs(t, g.SaveEquipmentOrder(ctx, "ghost", 5), db.ErrEquipmentNotFound)
}

func TestSaveOperationPublishesSpanChange(t *testing.T) {
	publisher := events.NewPublisher()
	var updates []*models.Event
	require.NoError(t, publisher.Subscribe("test", events.Filter{
		EventTypes: []models.EventType{models.EventTypeOperationUpdated},
	}, func(e *models.Event) { updates = append(updates, e) }))

	g := openTestGateway(t, publisher)
	ctx := context.Background()
	equipment, err := g.SaveEquipment(ctx, models.Equipment{Tag: "FV-01"})
	require.NoError(t, err)

	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	op, err := g.SaveOperation(ctx, models.Operation{
		EquipmentID: equipment.ID,
		Start:       start,
		End:         start.Add(4 * time.Hour),
	})
	require.NoError(t, err)

	// An update leaving the span alone carries no payload.
	op.Description = "primary"
	op, err = g.SaveOperation(ctx, op)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Empty(t, updates[0].Payload)

	_, err = g.SaveOperation(ctx, op.Shift(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, updates, 2)

	var payload models.SpanChangedPayload
	require.NoError(t, json.Unmarshal(updates[1].Payload, &payload))
	require.True(t, payload.OldStart.Equal(start))
	require.True(t, payload.NewStart.Equal(start.Add(24*time.Hour)))
	require.True(t, payload.OldEnd.Equal(start.Add(4*time.Hour)))
	require.True(t, payload.NewEnd.Equal(start.Add(28*time.Hour)))
}

func TestGatewayDuplicateBatchNumberSurfaces(t *testing.T) {
	g := openTestGateway(t, nil)
	ctx := context.Background()

	_, err := g.SaveBatch(ctx, models.Batch{Number: "26-HTS-01"})
	require.NoError(t, err)
	_, err = g.SaveBatch(ctx, models.Batch{Number: "26-HTS-01"})
	require.ErrorIs(t, err, db.ErrDuplicateBatchNumber)
}

func TestPublishReorderRecordsGesture(t *testing.T) {
	publisher := events.NewPublisher()
	var got *models.Event
	require.NoError(t, publisher.Subscribe("test", events.Filter{
		EventTypes: []models.EventType{models.EventTypeEquipmentReordered},
	}, func(e *models.Event) { got = e }))

	g := openTestGateway(t, publisher)
	g.PublishReorder(context.Background(), "eq-drag", "eq-target")

	require.NotNil(t, got)
	require.Equal(t, "eq-drag", got.EntityID)
	require.Contains(t, string(got.Payload), "eq-target")
}
