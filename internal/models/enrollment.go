package models

import "time"

// RequestStatus represents the lifecycle of an enrollment request.
type RequestStatus string

// Possible request statuses. PENDING is the only non-terminal state.
const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// EnrollmentRequest captures a student's application to join a school.
type EnrollmentRequest struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"student_id"`
	SchoolID        string        `db:"school_id" json:"school_id"`
	Status          RequestStatus `db:"status" json:"status"`
	Message         *string       `db:"message" json:"message,omitempty"`
	RejectionReason *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ProcessedBy     *string       `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt     *time.Time    `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// EnrollmentStatus is the derived view of where a student stands with a school.
// CanBook is the single predicate the booking engine consults.
type EnrollmentStatus struct {
	IsEnrolled     bool           `json:"is_enrolled"`
	RequestStatus  *RequestStatus `json:"request_status,omitempty"`
	EnrollmentDate *time.Time     `json:"enrollment_date,omitempty"`
	CanBook        bool           `json:"can_book"`
}
