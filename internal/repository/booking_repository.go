package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/drivehub/dsm-api/internal/models"
)

// BookingRepository handles persistence of lesson bookings and the capacity
// counter they share with lessons.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, lesson_id, student_id, attended, feedback, rating, paid, amount, payment_method, payment_date, idempotency_key, created_at`

// FindByID returns a booking by its ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.LessonBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_bookings WHERE id = $1`, bookingColumns)
	var booking models.LessonBooking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByLessonAndStudent returns the booking for a lesson/student pair.
func (r *BookingRepository) FindByLessonAndStudent(ctx context.Context, lessonID, studentID string) (*models.LessonBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_bookings WHERE lesson_id = $1 AND student_id = $2`, bookingColumns)
	var booking models.LessonBooking
	if err := r.db.GetContext(ctx, &booking, query, lessonID, studentID); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIdempotencyKey returns the booking created under a given key.
func (r *BookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.LessonBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_bookings WHERE idempotency_key = $1`, bookingColumns)
	var booking models.LessonBooking
	if err := r.db.GetContext(ctx, &booking, query, key); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateWithCapacity inserts the booking and increments the lesson's counter
// in one transaction. The lesson row is locked first, and the status/capacity
// check repeats under the lock, so concurrent bookings against the same lesson
// serialize and the counter can never exceed capacity.
func (r *BookingRepository) CreateWithCapacity(ctx context.Context, booking *models.LessonBooking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lesson struct {
		Status          models.LessonStatus `db:"status"`
		Capacity        int                 `db:"capacity"`
		CurrentBookings int                 `db:"current_bookings"`
	}
	const lockQuery = `SELECT status, capacity, current_bookings FROM lessons WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &lesson, lockQuery, booking.LessonID); err != nil {
		return err
	}
	if lesson.Status != models.LessonStatusScheduled {
		err = ErrLessonNotBookable
		return err
	}
	if lesson.CurrentBookings >= lesson.Capacity {
		err = ErrLessonFull
		return err
	}

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO lesson_bookings (id, lesson_id, student_id, paid, amount, idempotency_key, created_at)
        VALUES (:id, :lesson_id, :student_id, :paid, :amount, :idempotency_key, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, booking); err != nil {
		if isUniqueViolation(err, "uq_lesson_bookings_pair") {
			err = ErrDuplicateBooking
			return err
		}
		return fmt.Errorf("create booking: %w", err)
	}

	const incrementQuery = `UPDATE lessons SET current_bookings = current_bookings + 1, updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, incrementQuery, booking.LessonID, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment lesson bookings: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	return nil
}

// DeleteWithRelease removes the booking and gives its slot back, refusing once
// attendance is recorded. The decrement is floored at zero.
func (r *BookingRepository) DeleteWithRelease(ctx context.Context, bookingID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var booking struct {
		LessonID string `db:"lesson_id"`
		Attended *bool  `db:"attended"`
	}
	const lockQuery = `SELECT lesson_id, attended FROM lesson_bookings WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &booking, lockQuery, bookingID); err != nil {
		return err
	}
	if booking.Attended != nil {
		err = ErrAttendanceMarked
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM lesson_bookings WHERE id = $1`, bookingID); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	const decrementQuery = `UPDATE lessons SET current_bookings = GREATEST(current_bookings - 1, 0), updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, decrementQuery, booking.LessonID, time.Now().UTC()); err != nil {
		return fmt.Errorf("decrement lesson bookings: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel tx: %w", err)
	}
	return nil
}

// UpdateAttendance overwrites the attendance outcome on a booking.
func (r *BookingRepository) UpdateAttendance(ctx context.Context, id string, attended bool, feedback *string, rating *int) error {
	const query = `UPDATE lesson_bookings SET attended = $2, feedback = $3, rating = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, attended, feedback, rating)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePayment records payment details on a booking.
func (r *BookingRepository) UpdatePayment(ctx context.Context, id string, amount float64, method string, paidAt time.Time) error {
	const query = `UPDATE lesson_bookings SET paid = TRUE, amount = $2, payment_method = $3, payment_date = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, amount, method, paidAt)
	if err != nil {
		return fmt.Errorf("update booking payment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDetailsByStudent returns a student's bookings joined with lesson context
// for a school, most recent lesson first.
func (r *BookingRepository) ListDetailsByStudent(ctx context.Context, studentID, schoolID string) ([]models.BookingDetail, error) {
	const query = `SELECT b.id, b.lesson_id, b.student_id, b.attended, b.feedback, b.rating, b.paid, b.amount,
        b.payment_method, b.payment_date, b.idempotency_key, b.created_at,
        l.lesson_type, l.date_time, l.duration_minutes, l.instructor_id, l.status AS lesson_status, l.price
        FROM lesson_bookings b
        JOIN lessons l ON l.id = b.lesson_id
        WHERE b.student_id = $1 AND l.school_id = $2
        ORDER BY l.date_time DESC`
	var details []models.BookingDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID, schoolID); err != nil {
		return nil, fmt.Errorf("list student bookings: %w", err)
	}
	return details, nil
}

// LessonPaymentTotals aggregates paid and pending lesson amounts for a
// student at a school. Pending bookings fall back to the lesson list price
// when no amount was recorded.
type LessonPaymentTotals struct {
	PaidTotal       float64    `db:"paid_total"`
	PendingTotal    float64    `db:"pending_total"`
	LastPaymentDate *time.Time `db:"last_payment_date"`
}

// SummarizePayments computes lesson payment totals for a student and school.
func (r *BookingRepository) SummarizePayments(ctx context.Context, studentID, schoolID string) (*LessonPaymentTotals, error) {
	const query = `SELECT
        COALESCE(SUM(CASE WHEN b.paid THEN COALESCE(b.amount, l.price) ELSE 0 END), 0) AS paid_total,
        COALESCE(SUM(CASE WHEN NOT b.paid THEN COALESCE(b.amount, l.price) ELSE 0 END), 0) AS pending_total,
        MAX(CASE WHEN b.paid THEN b.payment_date END) AS last_payment_date
        FROM lesson_bookings b
        JOIN lessons l ON l.id = b.lesson_id
        WHERE b.student_id = $1 AND l.school_id = $2`
	var totals LessonPaymentTotals
	if err := r.db.GetContext(ctx, &totals, query, studentID, schoolID); err != nil {
		return nil, fmt.Errorf("summarize lesson payments: %w", err)
	}
	return &totals, nil
}
