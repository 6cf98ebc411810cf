package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/conduct-api/internal/models"
	"github.com/noah-isme/conduct-api/internal/schoolweek"
)

// ConductRepository manages persistence for conduct logs, daily notes and
// the duty-roster grid.
type ConductRepository struct {
	db *sqlx.DB
}

// NewConductRepository constructs a new repository.
func NewConductRepository(db *sqlx.DB) *ConductRepository {
	return &ConductRepository{db: db}
}

// ListByRange returns log records for a class and date range. A group scope
// filters through the students' current group assignment.
func (r *ConductRepository) ListByRange(ctx context.Context, filter models.ConductLogFilter) ([]models.ConductLog, error) {
	query := `SELECT l.id, l.class_id, l.student_id, l.violation_type_id, l.quantity, l.log_date, l.note, l.reporter_id, l.week_number, l.created_at
FROM conduct_logs l`
	args := []interface{}{filter.ClassID, filter.From, filter.To}
	where := " WHERE l.class_id = $1 AND l.log_date >= $2 AND l.log_date <= $3"
	if filter.GroupNumber != nil {
		query += " JOIN users u ON u.id = l.student_id"
		where += fmt.Sprintf(" AND u.group_number = $%d", len(args)+1)
		args = append(args, *filter.GroupNumber)
	}
	if filter.StudentID != "" {
		where += fmt.Sprintf(" AND l.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	query += where + " ORDER BY l.log_date ASC, l.created_at ASC"

	var logs []models.ConductLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list conduct logs: %w", err)
	}
	return logs, nil
}

// GetByID returns one log record.
func (r *ConductRepository) GetByID(ctx context.Context, id string) (*models.ConductLog, error) {
	query := `SELECT id, class_id, student_id, violation_type_id, quantity, log_date, note, reporter_id, week_number, created_at
FROM conduct_logs WHERE id = $1`
	var log models.ConductLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get conduct log %s: %w", id, err)
	}
	return &log, nil
}

// BulkUpsert persists one day's submissions in a single transaction.
// Resubmitting the same (student, violation, date) replaces quantity and
// note instead of appending, which keeps day-level submission idempotent.
func (r *ConductRepository) BulkUpsert(ctx context.Context, logs []models.ConductLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO conduct_logs (id, class_id, student_id, violation_type_id, quantity, log_date, note, reporter_id, week_number, created_at)
VALUES (:id, :class_id, :student_id, :violation_type_id, :quantity, :log_date, :note, :reporter_id, :week_number, :created_at)
ON CONFLICT (student_id, violation_type_id, log_date)
DO UPDATE SET quantity = EXCLUDED.quantity, note = EXCLUDED.note, reporter_id = EXCLUDED.reporter_id, week_number = EXCLUDED.week_number`

	now := time.Now().UTC()
	for i := range logs {
		if logs[i].ID == "" {
			logs[i].ID = uuid.NewString()
		}
		if logs[i].CreatedAt.IsZero() {
			logs[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, logs[i]); err != nil {
			return fmt.Errorf("upsert conduct log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk upsert: %w", err)
	}
	return nil
}

// Delete removes one record by id.
func (r *ConductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM conduct_logs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete conduct log: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetNote returns the daily note for (class, date, group), if any.
func (r *ConductRepository) GetNote(ctx context.Context, classID string, date schoolweek.Date, group int) (*models.DailyNote, error) {
	query := `SELECT class_id, note_date, group_number, content, updated_at
FROM daily_notes WHERE class_id = $1 AND note_date = $2 AND group_number = $3`
	var note models.DailyNote
	if err := r.db.GetContext(ctx, &note, query, classID, date, group); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get daily note: %w", err)
	}
	return &note, nil
}

// ListNotes returns every daily note for a class and date range, optionally
// narrowed to one group.
func (r *ConductRepository) ListNotes(ctx context.Context, classID string, from, to schoolweek.Date, group *int) ([]models.DailyNote, error) {
	query := `SELECT class_id, note_date, group_number, content, updated_at
FROM daily_notes WHERE class_id = $1 AND note_date >= $2 AND note_date <= $3`
	args := []interface{}{classID, from, to}
	if group != nil {
		query += fmt.Sprintf(" AND group_number = $%d", len(args)+1)
		args = append(args, *group)
	}
	query += " ORDER BY note_date ASC, group_number ASC"

	var notes []models.DailyNote
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("list daily notes: %w", err)
	}
	return notes, nil
}

// UpsertNote creates or overwrites the daily note for its composite key.
func (r *ConductRepository) UpsertNote(ctx context.Context, note *models.DailyNote) error {
	note.UpdatedAt = time.Now().UTC()
	query := `INSERT INTO daily_notes (class_id, note_date, group_number, content, updated_at)
VALUES (:class_id, :note_date, :group_number, :content, :updated_at)
ON CONFLICT (class_id, note_date, group_number)
DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("upsert daily note: %w", err)
	}
	return nil
}

// ListDutyCells returns the duty grid for a class and date.
func (r *ConductRepository) ListDutyCells(ctx context.Context, classID string, date schoolweek.Date) ([]models.DutyCell, error) {
	query := `SELECT class_id, cell_date, slot, student_id, done
FROM duty_cells WHERE class_id = $1 AND cell_date = $2 ORDER BY slot ASC`
	var cells []models.DutyCell
	if err := r.db.SelectContext(ctx, &cells, query, classID, date); err != nil {
		return nil, fmt.Errorf("list duty cells: %w", err)
	}
	return cells, nil
}

// UpsertDutyCell persists one toggled duty cell.
func (r *ConductRepository) UpsertDutyCell(ctx context.Context, cell *models.DutyCell) error {
	query := `INSERT INTO duty_cells (class_id, cell_date, slot, student_id, done)
VALUES (:class_id, :cell_date, :slot, :student_id, :done)
ON CONFLICT (class_id, cell_date, slot)
DO UPDATE SET student_id = EXCLUDED.student_id, done = EXCLUDED.done`
	if _, err := r.db.NamedExecContext(ctx, query, cell); err != nil {
		return fmt.Errorf("upsert duty cell: %w", err)
	}
	return nil
}
