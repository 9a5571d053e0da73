package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mbakke/floorline/internal/models"
)

// Operation repository errors.
var (
	ErrOperationNotFound = errors.New("operation not found")
	ErrMissingID         = errors.New("operation id is required")
)

// OperationRepository handles operation persistence.
type OperationRepository struct {
	db *DB
}

// NewOperationRepository creates a new OperationRepository.
func NewOperationRepository(db *DB) *OperationRepository {
	return &OperationRepository{db: db}
}

const operationColumns = `id, equipment_id, batch_id, start_time, end_time, type, description, created_on, modified_on`

// ListRange returns operations overlapping [start, end]. The filter is
// advisory: callers must tolerate out-of-range records, matching the remote
// store this gateway stands in for.
func (r *OperationRepository) ListRange(ctx context.Context, start, end time.Time) ([]models.Operation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+operationColumns+`
		FROM operations
		WHERE start_time <= ? AND end_time >= ?
		ORDER BY start_time, rowid
	`, end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var list []models.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return list, nil
}

// Get retrieves one operation by id.
func (r *OperationRepository) Get(ctx context.Context, id string) (*models.Operation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+operationColumns+` FROM operations WHERE id = ?
	`, id)
	var op models.Operation
	var batchID sql.NullString
	var startRaw, endRaw, createdRaw, modifiedRaw string
	err := row.Scan(&op.ID, &op.EquipmentID, &batchID, &startRaw, &endRaw,
		&op.Type, &op.Description, &createdRaw, &modifiedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOperationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get operation: %w", err)
	}
	op.BatchID = batchID.String
	op.Start = parseStamp(startRaw)
	op.End = parseStamp(endRaw)
	op.CreatedOn = parseStamp(createdRaw)
	op.ModifiedOn = parseStamp(modifiedRaw)
	return &op, nil
}

// Save upserts an operation. A record without an id is created with a fresh
// uuid and creation stamp; the stored record is returned.
func (r *OperationRepository) Save(ctx context.Context, op models.Operation) (models.Operation, error) {
	if err := op.Validate(); err != nil {
		return models.Operation{}, err
	}
	now := time.Now().UTC()
	if op.ID == "" {
		op.ID = uuid.New().String()
		op.CreatedOn = now
	}
	if op.CreatedOn.IsZero() {
		op.CreatedOn = now
	}
	op.ModifiedOn = now

	var batchID any
	if op.BatchID != "" {
		batchID = op.BatchID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO operations (`+operationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			equipment_id = excluded.equipment_id,
			batch_id = excluded.batch_id,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			type = excluded.type,
			description = excluded.description,
			modified_on = excluded.modified_on
	`,
		op.ID,
		op.EquipmentID,
		batchID,
		op.Start.UTC().Format(time.RFC3339),
		op.End.UTC().Format(time.RFC3339),
		op.Type,
		op.Description,
		op.CreatedOn.Format(time.RFC3339),
		op.ModifiedOn.Format(time.RFC3339),
	)
	if err != nil {
		return models.Operation{}, fmt.Errorf("save operation: %w", err)
	}
	return op, nil
}

// Delete removes an operation by id.
func (r *OperationRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	if affected == 0 {
		return ErrOperationNotFound
	}
	return nil
}

func scanOperation(rows *sql.Rows) (models.Operation, error) {
	var op models.Operation
	var batchID sql.NullString
	var startRaw, endRaw, createdRaw, modifiedRaw string
	if err := rows.Scan(&op.ID, &op.EquipmentID, &batchID, &startRaw, &endRaw,
		&op.Type, &op.Description, &createdRaw, &modifiedRaw); err != nil {
		return models.Operation{}, fmt.Errorf("scan operation: %w", err)
	}
	op.BatchID = batchID.String
	op.Start = parseStamp(startRaw)
	op.End = parseStamp(endRaw)
	op.CreatedOn = parseStamp(createdRaw)
	op.ModifiedOn = parseStamp(modifiedRaw)
	return op, nil
}

func parseStamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
