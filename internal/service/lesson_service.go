package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/drivehub/dsm-api/internal/models"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
)

type lessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error
}

// CreateLessonRequest is the payload for scheduling a lesson.
type CreateLessonRequest struct {
	SchoolID        string            `json:"school_id" validate:"required"`
	InstructorID    string            `json:"instructor_id" validate:"required"`
	Type            models.LessonType `json:"type" validate:"required,oneof=CODE THEORY DRIVING PRACTICAL"`
	DateTime        time.Time         `json:"date_time" validate:"required"`
	DurationMinutes int               `json:"duration_minutes" validate:"required,gt=0"`
	Capacity        int               `json:"capacity" validate:"required,gte=1"`
	Price           float64           `json:"price" validate:"gte=0"`
}

// UpdateLessonStatusRequest transitions a lesson's lifecycle state.
type UpdateLessonStatusRequest struct {
	Status models.LessonStatus `json:"status" validate:"required,oneof=SCHEDULED COMPLETED CANCELLED"`
}

// LessonService manages the lesson catalog.
type LessonService struct {
	lessons   lessonRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs LessonService.
func NewLessonService(lessons lessonRepository, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{lessons: lessons, validator: validate, logger: logger}
}

// CreateLesson schedules a new lesson with an empty booking counter.
func (s *LessonService) CreateLesson(ctx context.Context, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	lesson := &models.Lesson{
		SchoolID:        req.SchoolID,
		InstructorID:    req.InstructorID,
		Type:            req.Type,
		DateTime:        req.DateTime,
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
		Price:           req.Price,
		Status:          models.LessonStatusScheduled,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	s.logger.Info("lesson created",
		zap.String("lesson_id", lesson.ID),
		zap.String("school_id", lesson.SchoolID),
		zap.String("type", string(lesson.Type)),
	)
	return lesson, nil
}

// GetLesson returns a lesson by ID.
func (s *LessonService) GetLesson(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// ListLessons returns lessons matching the filter plus the total match count.
func (s *LessonService) ListLessons(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	lessons, total, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, total, nil
}

// UpdateLessonStatus moves a lesson between lifecycle states. Completed and
// cancelled are terminal.
func (s *LessonService) UpdateLessonStatus(ctx context.Context, id string, req UpdateLessonStatusRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	lesson, err := s.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson.Status != models.LessonStatusScheduled && lesson.Status != req.Status {
		return nil, appErrors.Clone(appErrors.ErrLessonNotAvailable, "lesson is already finalized")
	}

	if err := s.lessons.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson status")
	}
	lesson.Status = req.Status

	s.logger.Info("lesson status updated",
		zap.String("lesson_id", id),
		zap.String("status", string(req.Status)),
	)
	return lesson, nil
}
