package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mbakke/floorline/internal/models"
)

// Batch repository errors.
var (
	ErrBatchNotFound        = errors.New("batch not found")
	ErrDuplicateBatchNumber = errors.New("batch number already in use")
)

// BatchRepository handles batch persistence.
type BatchRepository struct {
	db *DB
}

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(db *DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns all batches sorted case-insensitively by number.
func (r *BatchRepository) List(ctx context.Context) ([]models.Batch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, number, notes, created_on, modified_on
		FROM batches
		ORDER BY LOWER(number)
	`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var list []models.Batch
	for rows.Next() {
		var b models.Batch
		var createdRaw, modifiedRaw string
		if err := rows.Scan(&b.ID, &b.Number, &b.Notes, &createdRaw, &modifiedRaw); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.CreatedOn = parseStamp(createdRaw)
		b.ModifiedOn = parseStamp(modifiedRaw)
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return list, nil
}

// Save upserts a batch. A number colliding with a different batch's number
// returns ErrDuplicateBatchNumber without writing.
func (r *BatchRepository) Save(ctx context.Context, b models.Batch) (models.Batch, error) {
	if strings.TrimSpace(b.Number) == "" {
		return models.Batch{}, fmt.Errorf("batch number is required")
	}

	var existingID string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM batches WHERE LOWER(number) = LOWER(?)`, b.Number,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Batch{}, fmt.Errorf("check batch number: %w", err)
	}
	if existingID != "" && existingID != b.ID {
		return models.Batch{}, ErrDuplicateBatchNumber
	}

	now := time.Now().UTC()
	if b.ID == "" {
		b.ID = uuid.New().String()
		b.CreatedOn = now
	}
	if b.CreatedOn.IsZero() {
		b.CreatedOn = now
	}
	b.ModifiedOn = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO batches (id, number, notes, created_on, modified_on)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			notes = excluded.notes,
			modified_on = excluded.modified_on
	`, b.ID, b.Number, b.Notes, b.CreatedOn.Format(time.RFC3339), b.ModifiedOn.Format(time.RFC3339))
	if err != nil {
		return models.Batch{}, fmt.Errorf("save batch: %w", err)
	}
	return b, nil
}
