package models

import "time"

// LessonStatus represents the lifecycle of a lesson instance.
type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "SCHEDULED"
	LessonStatusCompleted LessonStatus = "COMPLETED"
	LessonStatusCancelled LessonStatus = "CANCELLED"
)

// LessonType identifies what kind of instruction a lesson delivers.
type LessonType string

const (
	LessonTypeCode      LessonType = "CODE"
	LessonTypeTheory    LessonType = "THEORY"
	LessonTypeDriving   LessonType = "DRIVING"
	LessonTypePractical LessonType = "PRACTICAL"
)

// IsTheory reports whether the type counts toward the theory bucket.
func (t LessonType) IsTheory() bool {
	return t == LessonTypeCode || t == LessonTypeTheory
}

// IsPractical reports whether the type counts toward the practical bucket.
func (t LessonType) IsPractical() bool {
	return t == LessonTypeDriving || t == LessonTypePractical
}

// Lesson is a bookable lesson instance with capacity. CurrentBookings is
// maintained exclusively through the booking engine's increment/decrement.
type Lesson struct {
	ID              string       `db:"id" json:"id"`
	SchoolID        string       `db:"school_id" json:"school_id"`
	InstructorID    string       `db:"instructor_id" json:"instructor_id"`
	Type            LessonType   `db:"lesson_type" json:"type"`
	DateTime        time.Time    `db:"date_time" json:"date_time"`
	DurationMinutes int          `db:"duration_minutes" json:"duration_minutes"`
	Capacity        int          `db:"capacity" json:"capacity"`
	CurrentBookings int          `db:"current_bookings" json:"current_bookings"`
	Price           float64      `db:"price" json:"price"`
	Status          LessonStatus `db:"status" json:"status"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// LessonFilter provides filters for listing lessons.
type LessonFilter struct {
	SchoolID     string
	InstructorID string
	Type         LessonType
	Status       LessonStatus
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
