package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleTeacher     UserRole = "TEACHER"
	RoleMonitor     UserRole = "MONITOR"
	RoleGroupLeader UserRole = "GROUP_LEADER"
	RoleStudent     UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	ClassID      *string    `db:"class_id" json:"class_id,omitempty"`
	GroupNumber  int        `db:"group_number" json:"group_number"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Student is the roster projection of a user: the fields the tracking and
// scoring surfaces need. GroupNumber 0 means unassigned.
type Student struct {
	ID          string `db:"id" json:"id"`
	FullName    string `db:"full_name" json:"full_name"`
	ClassID     string `db:"class_id" json:"class_id"`
	GroupNumber int    `db:"group_number" json:"group_number"`
}

// RosterFilter narrows roster listing by class and optional group.
type RosterFilter struct {
	ClassID     string
	GroupNumber *int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
