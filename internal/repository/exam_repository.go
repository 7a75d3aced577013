package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/drivehub/dsm-api/internal/models"
)

// ExamRepository reads exam registrations owned by the exam subsystem and
// records payment status on them.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = `id, exam_id, student_id, result, score, paid, amount, payment_method, payment_date, created_at`

// FindByID returns an exam registration by its ID.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.ExamRegistration, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_registrations WHERE id = $1`, examColumns)
	var registration models.ExamRegistration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ListByStudent returns a student's exam registrations, newest first.
func (r *ExamRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ExamRegistration, error) {
	query := fmt.Sprintf(`SELECT %s FROM exam_registrations WHERE student_id = $1 ORDER BY created_at DESC`, examColumns)
	var registrations []models.ExamRegistration
	if err := r.db.SelectContext(ctx, &registrations, query, studentID); err != nil {
		return nil, fmt.Errorf("list exam registrations: %w", err)
	}
	return registrations, nil
}

// UpdatePayment records payment details on an exam registration.
func (r *ExamRepository) UpdatePayment(ctx context.Context, id string, amount float64, method string, paidAt time.Time) error {
	const query = `UPDATE exam_registrations SET paid = TRUE, amount = $2, payment_method = $3, payment_date = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, amount, method, paidAt)
	if err != nil {
		return fmt.Errorf("update exam payment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExamPaymentTotals aggregates paid and pending exam amounts for a student.
type ExamPaymentTotals struct {
	PaidTotal       float64    `db:"paid_total"`
	PendingTotal    float64    `db:"pending_total"`
	LastPaymentDate *time.Time `db:"last_payment_date"`
}

// SummarizePayments computes exam payment totals for a student.
func (r *ExamRepository) SummarizePayments(ctx context.Context, studentID string) (*ExamPaymentTotals, error) {
	const query = `SELECT
        COALESCE(SUM(CASE WHEN paid THEN COALESCE(amount, 0) ELSE 0 END), 0) AS paid_total,
        COALESCE(SUM(CASE WHEN NOT paid THEN COALESCE(amount, 0) ELSE 0 END), 0) AS pending_total,
        MAX(CASE WHEN paid THEN payment_date END) AS last_payment_date
        FROM exam_registrations
        WHERE student_id = $1`
	var totals ExamPaymentTotals
	if err := r.db.GetContext(ctx, &totals, query, studentID); err != nil {
		return nil, fmt.Errorf("summarize exam payments: %w", err)
	}
	return &totals, nil
}
