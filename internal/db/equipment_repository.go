package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mbakke/floorline/internal/models"
)

// Equipment repository errors.
var ErrEquipmentNotFound = errors.New("equipment not found")

// EquipmentRepository handles equipment persistence.
type EquipmentRepository struct {
	db *DB
}

// NewEquipmentRepository creates a new EquipmentRepository.
func NewEquipmentRepository(db *DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// List returns all equipment ordered by ord ascending, ties by insertion
// order (rowid).
func (r *EquipmentRepository) List(ctx context.Context) ([]models.Equipment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tag, description, ord
		FROM equipment
		ORDER BY ord, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	defer rows.Close()

	var list []models.Equipment
	for rows.Next() {
		var e models.Equipment
		if err := rows.Scan(&e.ID, &e.Tag, &e.Description, &e.Order); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}
	return list, nil
}

// Get retrieves one equipment record by id.
func (r *EquipmentRepository) Get(ctx context.Context, id string) (*models.Equipment, error) {
	var e models.Equipment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tag, description, ord FROM equipment WHERE id = ?
	`, id).Scan(&e.ID, &e.Tag, &e.Description, &e.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEquipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get equipment: %w", err)
	}
	return &e, nil
}

// Save upserts an equipment record. A record without an id is created with
// a fresh uuid; the stored record is returned.
func (r *EquipmentRepository) Save(ctx context.Context, e models.Equipment) (models.Equipment, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO equipment (id, tag, description, ord)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tag = excluded.tag,
			description = excluded.description,
			ord = excluded.ord
	`, e.ID, e.Tag, e.Description, e.Order)
	if err != nil {
		return models.Equipment{}, fmt.Errorf("save equipment: %w", err)
	}
	return e, nil
}

// SaveOrder persists just the order field for one equipment row.
func (r *EquipmentRepository) SaveOrder(ctx context.Context, id string, order int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE equipment SET ord = ? WHERE id = ?`, order, id)
	if err != nil {
		return fmt.Errorf("save equipment order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save equipment order: %w", err)
	}
	if affected == 0 {
		return ErrEquipmentNotFound
	}
	return nil
}
