package models

import (
	"encoding/json"
	"time"
)

// EventType categorizes schedule events.
type EventType string

const (
	EventTypeOperationCreated EventType = "operation.created"
	EventTypeOperationUpdated EventType = "operation.updated"
	EventTypeOperationDeleted EventType = "operation.deleted"

	EventTypeEquipmentSaved     EventType = "equipment.saved"
	EventTypeEquipmentReordered EventType = "equipment.reordered"

	EventTypeBatchSaved EventType = "batch.saved"
)

// EntityType identifies the kind of record an event relates to.
type EntityType string

const (
	EntityTypeOperation EntityType = "operation"
	EntityTypeEquipment EntityType = "equipment"
	EntityTypeBatch     EntityType = "batch"
)

// Event is an append-only audit log entry for schedule changes.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of record this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related record.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SpanChangedPayload is the payload for operation.updated events caused by
// a move or resize.
type SpanChangedPayload struct {
	OldStart time.Time `json:"old_start"`
	OldEnd   time.Time `json:"old_end"`
	NewStart time.Time `json:"new_start"`
	NewEnd   time.Time `json:"new_end"`
}

// ReorderPayload is the payload for equipment.reordered events.
type ReorderPayload struct {
	DraggedID string `json:"dragged_id"`
	TargetID  string `json:"target_id"`
}
