package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/internal/repository"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
)

type statsRepository interface {
	FindByPair(ctx context.Context, studentID, schoolID string) (*models.StudentLessonStats, error)
	FindEventByKey(ctx context.Context, key string) (*models.CompletionEvent, error)
	ApplyCompletion(ctx context.Context, event *models.CompletionEvent) (*models.StudentLessonStats, error)
}

// RecordCompletionRequest is a completion event delivered by the lesson
// pipeline. The idempotency key makes redelivery safe.
type RecordCompletionRequest struct {
	StudentID      string            `json:"student_id" validate:"required"`
	SchoolID       string            `json:"school_id" validate:"required"`
	LessonType     models.LessonType `json:"lesson_type" validate:"required"`
	Attended       bool              `json:"attended"`
	IdempotencyKey string            `json:"idempotency_key" validate:"required"`
}

// ProgressService maintains per-student lesson counters from completion
// events.
type ProgressService struct {
	stats     statsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressService constructs ProgressService.
func NewProgressService(stats statsRepository, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{stats: stats, validator: validate, logger: logger}
}

// RecordLessonCompletion applies one completion event to the student's
// counters. A replayed key is a no-op that returns the current counters. A
// non-attended event never increments anything and requires counters to
// already exist; the first recorded event cannot be a no-show.
func (s *ProgressService) RecordLessonCompletion(ctx context.Context, req RecordCompletionRequest) (*models.StudentLessonStats, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion event")
	}
	if !req.LessonType.IsTheory() && !req.LessonType.IsPractical() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown lesson type")
	}

	event, err := s.stats.FindEventByKey(ctx, req.IdempotencyKey)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check idempotency key")
	}
	if event != nil {
		return s.currentStats(ctx, req.StudentID, req.SchoolID)
	}

	if !req.Attended {
		// No-shows are not counted and no event is stored. A missing counters
		// row means nothing was ever completed, which a no-show cannot start.
		stats, err := s.stats.FindByPair(ctx, req.StudentID, req.SchoolID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "no lesson progress recorded for student")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson stats")
		}
		return stats, nil
	}

	stats, err := s.stats.ApplyCompletion(ctx, &models.CompletionEvent{
		IdempotencyKey: req.IdempotencyKey,
		StudentID:      req.StudentID,
		SchoolID:       req.SchoolID,
		LessonType:     req.LessonType,
		Attended:       req.Attended,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateCompletion) {
			return s.currentStats(ctx, req.StudentID, req.SchoolID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record lesson completion")
	}

	s.logger.Info("lesson completion recorded",
		zap.String("student_id", req.StudentID),
		zap.String("school_id", req.SchoolID),
		zap.String("lesson_type", string(req.LessonType)),
		zap.Int("completed_lessons", stats.CompletedLessons),
	)
	return stats, nil
}

// GetStats returns the counters for a student/school pair. A student with no
// recorded completions has zero counters, not a missing row.
func (s *ProgressService) GetStats(ctx context.Context, studentID, schoolID string) (*models.StudentLessonStats, error) {
	return s.currentStats(ctx, studentID, schoolID)
}

func (s *ProgressService) currentStats(ctx context.Context, studentID, schoolID string) (*models.StudentLessonStats, error) {
	stats, err := s.stats.FindByPair(ctx, studentID, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.StudentLessonStats{StudentID: studentID, SchoolID: schoolID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson stats")
	}
	return stats, nil
}
