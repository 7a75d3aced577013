package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/drivehub/dsm-api/internal/models"
)

func TestStatsRepositoryFindByPair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "school_id", "completed_lessons", "completed_theory_lessons", "completed_practical_lessons", "last_lesson_date"}).
		AddRow("stats-1", "stu-1", "sch-1", 21, 12, 9, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, school_id, completed_lessons, completed_theory_lessons, completed_practical_lessons, last_lesson_date FROM student_lesson_stats WHERE student_id = $1 AND school_id = $2")).
		WithArgs("stu-1", "sch-1").
		WillReturnRows(rows)

	stats, err := repo.FindByPair(context.Background(), "stu-1", "sch-1")
	require.NoError(t, err)
	require.Equal(t, 21, stats.CompletedLessons)
	require.Equal(t, 12, stats.CompletedTheoryLessons)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepositoryApplyCompletion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO completion_events").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO student_lesson_stats(.|\\s)+ON CONFLICT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "school_id", "completed_lessons", "completed_theory_lessons", "completed_practical_lessons", "last_lesson_date"}).
			AddRow("stats-1", "stu-1", "sch-1", 1, 1, 0, time.Now()))
	mock.ExpectCommit()

	stats, err := repo.ApplyCompletion(context.Background(), &models.CompletionEvent{
		IdempotencyKey: "evt-1",
		StudentID:      "stu-1",
		SchoolID:       "sch-1",
		LessonType:     models.LessonTypeTheory,
		Attended:       true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, stats.CompletedLessons)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepositoryApplyCompletionDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO completion_events").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "completion_events_idempotency_key_key"})
	mock.ExpectRollback()

	_, err := repo.ApplyCompletion(context.Background(), &models.CompletionEvent{
		IdempotencyKey: "evt-1",
		StudentID:      "stu-1",
		SchoolID:       "sch-1",
		LessonType:     models.LessonTypeTheory,
		Attended:       true,
	})
	require.ErrorIs(t, err, ErrDuplicateCompletion)
	require.NoError(t, mock.ExpectationsWereMet())
}
