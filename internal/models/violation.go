package models

// ViolationType is an immutable catalog entry defining a point value.
// Positive points are commendations, negative points are infractions.
type ViolationType struct {
	ID       string  `db:"id" json:"id"`
	Category string  `db:"category" json:"category"`
	Name     string  `db:"name" json:"name"`
	Points   float64 `db:"points" json:"points"`
}
