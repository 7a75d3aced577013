package models

import "time"

// Student is the authorization record granting a user the right to book
// lessons at a school. It is created exactly once per (user, school) pair at
// approval time and is never flipped back to unauthorized here.
type Student struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	Authorized     bool      `db:"authorized" json:"authorized"`
	RequestID      *string   `db:"request_id" json:"request_id,omitempty"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
}
