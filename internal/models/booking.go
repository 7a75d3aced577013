package models

import "time"

// LessonBooking ties a student to a lesson. Attended is tri-state: nil until
// the instructor records the outcome. Once attendance is set the booking is a
// historical fact and only payment fields may change.
type LessonBooking struct {
	ID             string     `db:"id" json:"id"`
	LessonID       string     `db:"lesson_id" json:"lesson_id"`
	StudentID      string     `db:"student_id" json:"student_id"`
	Attended       *bool      `db:"attended" json:"attended,omitempty"`
	Feedback       *string    `db:"feedback" json:"feedback,omitempty"`
	Rating         *int       `db:"rating" json:"rating,omitempty"`
	Paid           bool       `db:"paid" json:"paid"`
	Amount         *float64   `db:"amount" json:"amount,omitempty"`
	PaymentMethod  *string    `db:"payment_method" json:"payment_method,omitempty"`
	PaymentDate    *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	IdempotencyKey *string    `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// BookingDetail enriches a booking with its lesson context for history views.
type BookingDetail struct {
	LessonBooking
	LessonType      LessonType   `db:"lesson_type" json:"lesson_type"`
	LessonDateTime  time.Time    `db:"date_time" json:"lesson_date_time"`
	DurationMinutes int          `db:"duration_minutes" json:"duration_minutes"`
	InstructorID    string       `db:"instructor_id" json:"instructor_id"`
	LessonStatus    LessonStatus `db:"lesson_status" json:"lesson_status"`
	Price           float64      `db:"price" json:"price"`
}
