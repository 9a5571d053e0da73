package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// OperationType categorizes scheduled operations.
type OperationType string

const (
	TypeProduction    OperationType = "Production"
	TypeMaintenance   OperationType = "Maintenance"
	TypeEngineering   OperationType = "Engineering"
	TypeMiscellaneous OperationType = "Miscellaneous"
)

// Legacy numeric type codes carried over from the hosted store's option set.
// Records imported from older exports still use them.
const (
	typeCodeProduction    = 566210000
	typeCodeMaintenance   = 566210001
	typeCodeEngineering   = 566210002
	typeCodeMiscellaneous = 566210003
)

// ClassifyType resolves a raw type field to an OperationType. Matching is by
// case-insensitive substring first, then by legacy numeric code. Anything
// unrecognized classifies as Production.
func ClassifyType(raw string) OperationType {
	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "maintenance"):
		return TypeMaintenance
	case strings.Contains(lowered, "engineering"):
		return TypeEngineering
	case strings.Contains(lowered, "miscellaneous"):
		return TypeMiscellaneous
	case strings.Contains(lowered, "production"):
		return TypeProduction
	}
	if code, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		switch code {
		case typeCodeMaintenance:
			return TypeMaintenance
		case typeCodeEngineering:
			return TypeEngineering
		case typeCodeMiscellaneous:
			return TypeMiscellaneous
		case typeCodeProduction:
			return TypeProduction
		}
	}
	return TypeProduction
}

// Operation is a time-bounded activity assigned to one equipment row.
type Operation struct {
	// ID is the unique identifier. Records without one are invalid for any
	// id-keyed lookup or delete.
	ID string `json:"id"`

	// EquipmentID is the owning row.
	EquipmentID string `json:"equipment_id"`

	// BatchID is the optional owning batch.
	BatchID string `json:"batch_id,omitempty"`

	// Start and End bound the operation. End must not precede Start.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Type is the raw category value; resolve with ClassifyType.
	Type string `json:"type"`

	// Description is the free-text label.
	Description string `json:"description"`

	CreatedOn  time.Time `json:"created_on"`
	ModifiedOn time.Time `json:"modified_on"`
}

// Operation validation errors.
var (
	ErrMissingEquipment = errors.New("operation requires an equipment id")
	ErrInvertedSpan     = errors.New("operation end precedes start")
)

// Validate checks the storage invariants of an operation.
func (o Operation) Validate() error {
	if strings.TrimSpace(o.EquipmentID) == "" {
		return ErrMissingEquipment
	}
	if !o.End.IsZero() && !o.Start.IsZero() && o.End.Before(o.Start) {
		return ErrInvertedSpan
	}
	return nil
}

// Shift returns a copy with both bounds moved by delta.
func (o Operation) Shift(delta time.Duration) Operation {
	o.Start = o.Start.Add(delta)
	o.End = o.End.Add(delta)
	o.ModifiedOn = time.Now().UTC()
	return o
}

// Clone copies the operation set. Snapshots taken for the history stacks go
// through here so later edits never alias a snapshot.
func Clone(ops []Operation) []Operation {
	return append([]Operation(nil), ops...)
}

// OperationsByID maps operations by id, skipping records without a usable
// identifier. The second return lists the skipped records so callers can
// log the anomaly; a missing id must never silently match anything.
func OperationsByID(ops []Operation) (map[string]Operation, []Operation) {
	byID := make(map[string]Operation, len(ops))
	var skipped []Operation
	for _, op := range ops {
		if strings.TrimSpace(op.ID) == "" {
			skipped = append(skipped, op)
			continue
		}
		byID[op.ID] = op
	}
	return byID, skipped
}
