package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/conduct-api/internal/models"
)

// RosterRepository reads the class roster from the users table.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a new repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// List returns the active students of a class, optionally narrowed to one
// group, ordered by group then name.
func (r *RosterRepository) List(ctx context.Context, filter models.RosterFilter) ([]models.Student, error) {
	query := `SELECT id, full_name, class_id, group_number FROM users
WHERE class_id = $1 AND role = $2 AND active = TRUE`
	args := []interface{}{filter.ClassID, models.RoleStudent}
	if filter.GroupNumber != nil {
		query += fmt.Sprintf(" AND group_number = $%d", len(args)+1)
		args = append(args, *filter.GroupNumber)
	}
	query += " ORDER BY group_number ASC, full_name ASC"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return students, nil
}

// FindUserByEmail returns a user row for authentication.
func (r *RosterRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, full_name, role, class_id, group_number, active, last_login, created_at, updated_at
FROM users WHERE email = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}
