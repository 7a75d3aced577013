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

// EnrollmentRequestRepository handles persistence of enrollment requests.
type EnrollmentRequestRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRequestRepository constructs the repository.
func NewEnrollmentRequestRepository(db *sqlx.DB) *EnrollmentRequestRepository {
	return &EnrollmentRequestRepository{db: db}
}

const enrollmentRequestColumns = `id, student_id, school_id, status, message, rejection_reason, processed_by, processed_at, created_at, updated_at`

// FindByID returns an enrollment request by its ID.
func (r *EnrollmentRequestRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollment_requests WHERE id = $1`, enrollmentRequestColumns)
	var request models.EnrollmentRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindLatestByPair returns the most recent request for a student/school pair.
func (r *EnrollmentRequestRepository) FindLatestByPair(ctx context.Context, studentID, schoolID string) (*models.EnrollmentRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollment_requests WHERE student_id = $1 AND school_id = $2 ORDER BY created_at DESC LIMIT 1`, enrollmentRequestColumns)
	var request models.EnrollmentRequest
	if err := r.db.GetContext(ctx, &request, query, studentID, schoolID); err != nil {
		return nil, err
	}
	return &request, nil
}

// ExistsPending checks whether a pending request exists for the pair.
func (r *EnrollmentRequestRepository) ExistsPending(ctx context.Context, studentID, schoolID string) (bool, error) {
	const query = `SELECT 1 FROM enrollment_requests WHERE student_id = $1 AND school_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, schoolID, models.RequestStatusPending); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return true, nil
}

// Create persists a new pending request. The partial unique index on pending
// (student_id, school_id) backs the single-pending invariant under races.
func (r *EnrollmentRequestRepository) Create(ctx context.Context, request *models.EnrollmentRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	if request.Status == "" {
		request.Status = models.RequestStatusPending
	}
	const query = `INSERT INTO enrollment_requests (id, student_id, school_id, status, message, created_at, updated_at)
        VALUES (:id, :student_id, :school_id, :status, :message, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		if isUniqueViolation(err, "uq_enrollment_requests_pending") {
			return ErrPendingRequestExists
		}
		return fmt.Errorf("create enrollment request: %w", err)
	}
	return nil
}

// Approve marks the request approved and creates the authorization record in
// one transaction so a crash can never leave an approved-but-unauthorized state.
func (r *EnrollmentRequestRepository) Approve(ctx context.Context, requestID, processedBy string, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const updateQuery = `UPDATE enrollment_requests SET status = $2, processed_by = $3, processed_at = $4, updated_at = $4
        WHERE id = $1 AND status = $5`
	var res sql.Result
	if res, err = tx.ExecContext(ctx, updateQuery, requestID, models.RequestStatusApproved, processedBy, now, models.RequestStatusPending); err != nil {
		return fmt.Errorf("approve request: %w", err)
	}
	affected, raErr := res.RowsAffected()
	if raErr == nil && affected == 0 {
		err = ErrRequestNotPending
		return err
	}

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.EnrollmentDate.IsZero() {
		student.EnrollmentDate = now
	}
	const insertQuery = `INSERT INTO students (id, user_id, school_id, authorized, request_id, enrollment_date)
        VALUES (:id, :user_id, :school_id, :authorized, :request_id, :enrollment_date)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, student); err != nil {
		if isUniqueViolation(err, "uq_students_user_school") {
			err = ErrStudentExists
			return err
		}
		return fmt.Errorf("create student record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit approve tx: %w", err)
	}
	return nil
}

// Reject marks a pending request rejected with the given reason.
func (r *EnrollmentRequestRepository) Reject(ctx context.Context, requestID, processedBy, reason string) error {
	now := time.Now().UTC()
	const query = `UPDATE enrollment_requests SET status = $2, rejection_reason = $3, processed_by = $4, processed_at = $5, updated_at = $5
        WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, requestID, models.RequestStatusRejected, reason, processedBy, now, models.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("reject request: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrRequestNotPending
	}
	return nil
}
