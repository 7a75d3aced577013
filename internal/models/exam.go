package models

import "time"

// ExamRegistration is owned by the exam subsystem; this service only reads it
// for history and financial aggregation, and records payment status.
type ExamRegistration struct {
	ID            string     `db:"id" json:"id"`
	ExamID        string     `db:"exam_id" json:"exam_id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	Result        *string    `db:"result" json:"result,omitempty"`
	Score         *float64   `db:"score" json:"score,omitempty"`
	Paid          bool       `db:"paid" json:"paid"`
	Amount        *float64   `db:"amount" json:"amount,omitempty"`
	PaymentMethod *string    `db:"payment_method" json:"payment_method,omitempty"`
	PaymentDate   *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
