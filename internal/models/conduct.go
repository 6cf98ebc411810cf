package models

import (
	"time"

	"github.com/noah-isme/conduct-api/internal/schoolweek"
)

// ConductLog is the atomic scored fact: one student, one violation type,
// one calendar day. Quantity multiplies the violation type's points. At most
// one row exists per (student_id, violation_type_id, log_date); day-level
// resubmission is an upsert at that granularity.
type ConductLog struct {
	ID              string          `db:"id" json:"id"`
	ClassID         string          `db:"class_id" json:"class_id"`
	StudentID       string          `db:"student_id" json:"student_id"`
	ViolationTypeID string          `db:"violation_type_id" json:"violation_type_id"`
	Quantity        int             `db:"quantity" json:"quantity"`
	LogDate         schoolweek.Date `db:"log_date" json:"log_date"`
	Note            *string         `db:"note" json:"note,omitempty"`
	ReporterID      string          `db:"reporter_id" json:"reporter_id"`
	WeekNumber      int             `db:"week_number" json:"week_number"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// ConductLogFilter selects log records for a class and date range, with an
// optional group scope.
type ConductLogFilter struct {
	ClassID     string
	From        schoolweek.Date
	To          schoolweek.Date
	GroupNumber *int
	StudentID   string
}

// DailyLogEntry is one line of a day-level bulk submission.
type DailyLogEntry struct {
	StudentID       string  `json:"student_id" validate:"required"`
	ViolationTypeID string  `json:"violation_type_id" validate:"required"`
	Quantity        int     `json:"quantity" validate:"required,min=1"`
	Note            *string `json:"note,omitempty"`
}

// DailyNote is a free-text annotation keyed by class, date and optional
// group. Upsert only; there is no delete operation.
type DailyNote struct {
	ClassID     string          `db:"class_id" json:"class_id"`
	NoteDate    schoolweek.Date `db:"note_date" json:"note_date"`
	GroupNumber int             `db:"group_number" json:"group_number"`
	Content     string          `db:"content" json:"content"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// DutyCell is one slot of the duty-roster grid. Toggled optimistically by
// clients; the server upserts and returns the authoritative grid.
type DutyCell struct {
	ClassID   string          `db:"class_id" json:"class_id"`
	CellDate  schoolweek.Date `db:"cell_date" json:"cell_date"`
	Slot      int             `db:"slot" json:"slot"`
	StudentID string          `db:"student_id" json:"student_id"`
	Done      bool            `db:"done" json:"done"`
}
