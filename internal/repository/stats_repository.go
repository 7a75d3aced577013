package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/drivehub/dsm-api/internal/models"
)

// StatsRepository handles per-student lesson counters and the completion
// events that deduplicate them.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

const statsColumns = `id, student_id, school_id, completed_lessons, completed_theory_lessons, completed_practical_lessons, last_lesson_date`

// FindByPair returns the stats row for a student/school pair.
func (r *StatsRepository) FindByPair(ctx context.Context, studentID, schoolID string) (*models.StudentLessonStats, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_lesson_stats WHERE student_id = $1 AND school_id = $2`, statsColumns)
	var stats models.StudentLessonStats
	if err := r.db.GetContext(ctx, &stats, query, studentID, schoolID); err != nil {
		return nil, err
	}
	return &stats, nil
}

// FindEventByKey returns a previously processed completion event, if any.
func (r *StatsRepository) FindEventByKey(ctx context.Context, key string) (*models.CompletionEvent, error) {
	const query = `SELECT id, idempotency_key, student_id, school_id, lesson_type, attended, created_at
        FROM completion_events WHERE idempotency_key = $1`
	var event models.CompletionEvent
	if err := r.db.GetContext(ctx, &event, query, key); err != nil {
		return nil, err
	}
	return &event, nil
}

// ApplyCompletion records the completion event and bumps the counters in one
// transaction. The unique key on completion_events makes retried deliveries
// fail with ErrDuplicateCompletion instead of double counting.
func (r *StatsRepository) ApplyCompletion(ctx context.Context, event *models.CompletionEvent) (*models.StudentLessonStats, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin completion tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const insertEvent = `INSERT INTO completion_events (id, idempotency_key, student_id, school_id, lesson_type, attended, created_at)
        VALUES (:id, :idempotency_key, :student_id, :school_id, :lesson_type, :attended, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertEvent, event); err != nil {
		if isUniqueViolation(err, "") {
			err = ErrDuplicateCompletion
			return nil, err
		}
		return nil, fmt.Errorf("record completion event: %w", err)
	}

	theoryInc := 0
	if event.LessonType.IsTheory() {
		theoryInc = 1
	}
	practicalInc := 0
	if event.LessonType.IsPractical() {
		practicalInc = 1
	}
	now := time.Now().UTC()

	upsert := fmt.Sprintf(`INSERT INTO student_lesson_stats (id, student_id, school_id, completed_lessons, completed_theory_lessons, completed_practical_lessons, last_lesson_date)
        VALUES ($1, $2, $3, 1, $4, $5, $6)
        ON CONFLICT (student_id, school_id) DO UPDATE SET
            completed_lessons = student_lesson_stats.completed_lessons + 1,
            completed_theory_lessons = student_lesson_stats.completed_theory_lessons + EXCLUDED.completed_theory_lessons,
            completed_practical_lessons = student_lesson_stats.completed_practical_lessons + EXCLUDED.completed_practical_lessons,
            last_lesson_date = EXCLUDED.last_lesson_date
        RETURNING %s`, statsColumns)

	var stats models.StudentLessonStats
	if err = tx.QueryRowxContext(ctx, upsert, uuid.NewString(), event.StudentID, event.SchoolID, theoryInc, practicalInc, now).StructScan(&stats); err != nil {
		return nil, fmt.Errorf("upsert lesson stats: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit completion tx: %w", err)
	}
	return &stats, nil
}
