package models

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/conduct-api/internal/schoolweek"
)

// Class represents an academic class or section. StartDate anchors the
// academic week numbering; ScheduleConfig carries the user-curated week
// schedule (raw JSON, decoded lazily by the week resolver).
type Class struct {
	ID                string           `db:"id" json:"id"`
	Name              string           `db:"name" json:"name"`
	Grade             string           `db:"grade" json:"grade"`
	HomeroomTeacherID *string          `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	StartDate         *schoolweek.Date `db:"start_date" json:"start_date,omitempty"`
	ScheduleConfig    json.RawMessage  `db:"schedule_config" json:"schedule_config,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// Start returns the class start date, zero when unset.
func (c *Class) Start() schoolweek.Date {
	if c == nil || c.StartDate == nil {
		return schoolweek.Date{}
	}
	return *c.StartDate
}
