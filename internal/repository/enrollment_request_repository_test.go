package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/drivehub/dsm-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRequestRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRequestRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "school_id", "status", "message", "rejection_reason", "processed_by", "processed_at", "created_at", "updated_at"}).
		AddRow("req-1", "u1", "sch-1", models.RequestStatusPending, nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, school_id, status, message, rejection_reason, processed_by, processed_at, created_at, updated_at FROM enrollment_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnRows(rows)

	request, err := repo.FindByID(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPending, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRequestRepositoryExistsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollment_requests WHERE student_id = $1 AND school_id = $2 AND status = $3 LIMIT 1")).
		WithArgs("u1", "sch-1", models.RequestStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsPending(context.Background(), "u1", "sch-1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollment_requests WHERE student_id = $1 AND school_id = $2 AND status = $3 LIMIT 1")).
		WithArgs("u2", "sch-1", models.RequestStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsPending(context.Background(), "u2", "sch-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRequestRepositoryCreateMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRequestRepository(db)

	mock.ExpectExec("INSERT INTO enrollment_requests").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_enrollment_requests_pending"})

	err := repo.Create(context.Background(), &models.EnrollmentRequest{StudentID: "u1", SchoolID: "sch-1"})
	require.ErrorIs(t, err, ErrPendingRequestExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRequestRepositoryApprove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollment_requests SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student := &models.Student{UserID: "u1", SchoolID: "sch-1", Authorized: true}
	err := repo.Approve(context.Background(), "req-1", "admin-1", student)
	require.NoError(t, err)
	require.NotEmpty(t, student.ID)
	require.False(t, student.EnrollmentDate.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRequestRepositoryApproveNotPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollment_requests SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), "req-1", "admin-1", &models.Student{UserID: "u1", SchoolID: "sch-1"})
	require.ErrorIs(t, err, ErrRequestNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRequestRepositoryApproveStudentExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollment_requests SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO students").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_students_user_school"})
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), "req-1", "admin-1", &models.Student{UserID: "u1", SchoolID: "sch-1"})
	require.ErrorIs(t, err, ErrStudentExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRequestRepositoryRejectNotPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRequestRepository(db)

	mock.ExpectExec("UPDATE enrollment_requests SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Reject(context.Background(), "req-1", "admin-1", "missing paperwork")
	require.ErrorIs(t, err, ErrRequestNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}
