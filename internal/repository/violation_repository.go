package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/conduct-api/internal/models"
)

// ViolationRepository reads the immutable violation/commendation catalog.
type ViolationRepository struct {
	db *sqlx.DB
}

// NewViolationRepository constructs a new repository.
func NewViolationRepository(db *sqlx.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

// List returns the full catalog grouped by category.
func (r *ViolationRepository) List(ctx context.Context) ([]models.ViolationType, error) {
	query := `SELECT id, category, name, points FROM violation_types ORDER BY category ASC, name ASC`
	var types []models.ViolationType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list violation types: %w", err)
	}
	return types, nil
}
