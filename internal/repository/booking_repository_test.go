package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/drivehub/dsm-api/internal/models"
)

func expectLessonLock(mock sqlmock.Sqlmock, status models.LessonStatus, capacity, current int) {
	rows := sqlmock.NewRows([]string{"status", "capacity", "current_bookings"}).
		AddRow(status, capacity, current)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, capacity, current_bookings FROM lessons WHERE id = $1 FOR UPDATE")).
		WithArgs("lesson-1").
		WillReturnRows(rows)
}

func TestBookingRepositoryCreateWithCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	expectLessonLock(mock, models.LessonStatusScheduled, 2, 1)
	mock.ExpectExec("INSERT INTO lesson_bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lessons SET current_bookings = current_bookings + 1, updated_at = $2 WHERE id = $1")).
		WithArgs("lesson-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking := &models.LessonBooking{LessonID: "lesson-1", StudentID: "stu-1"}
	err := repo.CreateWithCapacity(context.Background(), booking)
	require.NoError(t, err)
	require.NotEmpty(t, booking.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateWithCapacityFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	expectLessonLock(mock, models.LessonStatusScheduled, 2, 2)
	mock.ExpectRollback()

	err := repo.CreateWithCapacity(context.Background(), &models.LessonBooking{LessonID: "lesson-1", StudentID: "stu-1"})
	require.ErrorIs(t, err, ErrLessonFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateWithCapacityNotScheduled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	expectLessonLock(mock, models.LessonStatusCancelled, 2, 0)
	mock.ExpectRollback()

	err := repo.CreateWithCapacity(context.Background(), &models.LessonBooking{LessonID: "lesson-1", StudentID: "stu-1"})
	require.ErrorIs(t, err, ErrLessonNotBookable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateWithCapacityDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	expectLessonLock(mock, models.LessonStatusScheduled, 2, 1)
	mock.ExpectExec("INSERT INTO lesson_bookings").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_lesson_bookings_pair"})
	mock.ExpectRollback()

	err := repo.CreateWithCapacity(context.Background(), &models.LessonBooking{LessonID: "lesson-1", StudentID: "stu-1"})
	require.ErrorIs(t, err, ErrDuplicateBooking)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryDeleteWithRelease(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT lesson_id, attended FROM lesson_bookings WHERE id = $1 FOR UPDATE")).
		WithArgs("booking-1").
		WillReturnRows(sqlmock.NewRows([]string{"lesson_id", "attended"}).AddRow("lesson-1", nil))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lesson_bookings WHERE id = $1")).
		WithArgs("booking-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lessons SET current_bookings = GREATEST(current_bookings - 1, 0), updated_at = $2 WHERE id = $1")).
		WithArgs("lesson-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithRelease(context.Background(), "booking-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryDeleteWithReleaseAfterAttendance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT lesson_id, attended FROM lesson_bookings WHERE id = $1 FOR UPDATE")).
		WithArgs("booking-1").
		WillReturnRows(sqlmock.NewRows([]string{"lesson_id", "attended"}).AddRow("lesson-1", true))
	mock.ExpectRollback()

	err := repo.DeleteWithRelease(context.Background(), "booking-1")
	require.ErrorIs(t, err, ErrAttendanceMarked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateAttendanceMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE lesson_bookings SET attended").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAttendance(context.Background(), "missing", true, nil, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositorySummarizePayments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT(.|\\s)+FROM lesson_bookings b(.|\\s)+JOIN lessons l").
		WithArgs("stu-1", "sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"paid_total", "pending_total", "last_payment_date"}).
			AddRow(300.0, 100.0, paidAt))

	totals, err := repo.SummarizePayments(context.Background(), "stu-1", "sch-1")
	require.NoError(t, err)
	require.Equal(t, 300.0, totals.PaidTotal)
	require.Equal(t, 100.0, totals.PendingTotal)
	require.NotNil(t, totals.LastPaymentDate)
	require.NoError(t, mock.ExpectationsWereMet())
}
