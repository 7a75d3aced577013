package models

import "time"

// StudentLessonStats accumulates attended-lesson counters per student and
// school. Incremented only by attended completions, classified by lesson type.
type StudentLessonStats struct {
	ID                        string     `db:"id" json:"id"`
	StudentID                 string     `db:"student_id" json:"student_id"`
	SchoolID                  string     `db:"school_id" json:"school_id"`
	CompletedLessons          int        `db:"completed_lessons" json:"completed_lessons"`
	CompletedTheoryLessons    int        `db:"completed_theory_lessons" json:"completed_theory_lessons"`
	CompletedPracticalLessons int        `db:"completed_practical_lessons" json:"completed_practical_lessons"`
	LastLessonDate            *time.Time `db:"last_lesson_date" json:"last_lesson_date,omitempty"`
}

// CompletionEvent records a processed completion keyed by the caller-supplied
// idempotency key, so retried deliveries never double count.
type CompletionEvent struct {
	ID             string     `db:"id" json:"id"`
	IdempotencyKey string     `db:"idempotency_key" json:"idempotency_key"`
	StudentID      string     `db:"student_id" json:"student_id"`
	SchoolID       string     `db:"school_id" json:"school_id"`
	LessonType     LessonType `db:"lesson_type" json:"lesson_type"`
	Attended       bool       `db:"attended" json:"attended"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ExamType selects which eligibility threshold applies.
type ExamType string

const (
	ExamTypeTheory    ExamType = "theory"
	ExamTypePractical ExamType = "practical"
)

// EligibilityResult is the outcome of an exam eligibility check.
type EligibilityResult struct {
	Eligible         bool     `json:"eligible"`
	ExamType         ExamType `json:"exam_type"`
	RequiredLessons  int      `json:"required_lessons"`
	CompletedLessons int      `json:"completed_lessons"`
	Reason           string   `json:"reason,omitempty"`
}
