package models

import "time"

// FinancialSummary aggregates a student's money position at one school.
// TotalDue equals TotalPending; there is no separate overdue concept.
type FinancialSummary struct {
	StudentID       string     `json:"student_id"`
	SchoolID        string     `json:"school_id"`
	LessonRevenue   float64    `json:"lesson_revenue"`
	ExamRevenue     float64    `json:"exam_revenue"`
	TotalRevenue    float64    `json:"total_revenue"`
	LessonPending   float64    `json:"lesson_pending"`
	ExamPending     float64    `json:"exam_pending"`
	TotalPending    float64    `json:"total_pending"`
	TotalDue        float64    `json:"total_due"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`
}

// CompleteProfile composes the read-only student view.
type CompleteProfile struct {
	Student   Student             `json:"student"`
	Stats     *StudentLessonStats `json:"stats,omitempty"`
	Lessons   []BookingDetail     `json:"lessons"`
	Exams     []ExamRegistration  `json:"exams"`
	Financial FinancialSummary    `json:"financial"`
}
