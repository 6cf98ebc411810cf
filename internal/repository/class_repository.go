package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/conduct-api/internal/models"
)

// ClassRepository manages persistence for classes and their week schedules.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// GetByID returns a class including its start date and schedule config.
func (r *ClassRepository) GetByID(ctx context.Context, id string) (*models.Class, error) {
	query := `SELECT id, name, grade, homeroom_teacher_id, start_date, schedule_config, created_at, updated_at
FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get class %s: %w", id, err)
	}
	return &class, nil
}

// UpdateSchedule replaces the curated week schedule for a class.
func (r *ClassRepository) UpdateSchedule(ctx context.Context, id string, schedule json.RawMessage) error {
	query := `UPDATE classes SET schedule_config = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, schedule, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update class schedule %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
