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

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.LessonBooking, error)
	FindByLessonAndStudent(ctx context.Context, lessonID, studentID string) (*models.LessonBooking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.LessonBooking, error)
	CreateWithCapacity(ctx context.Context, booking *models.LessonBooking) error
	DeleteWithRelease(ctx context.Context, bookingID string) error
	UpdateAttendance(ctx context.Context, id string, attended bool, feedback *string, rating *int) error
}

type lessonReader interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// BookLessonRequest is the payload for booking a slot on a lesson.
type BookLessonRequest struct {
	LessonID       string `json:"lesson_id" validate:"required"`
	StudentID      string `json:"student_id" validate:"required"`
	IdempotencyKey string `json:"-"`
}

// MarkAttendanceRequest records whether the student showed up, with optional
// instructor feedback and a 1..5 rating.
type MarkAttendanceRequest struct {
	Attended *bool   `json:"attended" validate:"required"`
	Feedback *string `json:"feedback,omitempty"`
	Rating   *int    `json:"rating,omitempty"`
}

// BookingService enforces the booking rules: authorization, capacity,
// duplicates and the cancel-before-attendance window.
type BookingService struct {
	bookings  bookingRepository
	lessons   lessonReader
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs BookingService.
func NewBookingService(bookings bookingRepository, lessons lessonReader, students studentReader, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{bookings: bookings, lessons: lessons, students: students, validator: validate, logger: logger}
}

// BookLesson books one slot on a lesson for an authorized student. When an
// idempotency key is supplied and was already used, the original booking is
// returned instead of creating a second one.
func (s *BookingService) BookLesson(ctx context.Context, req BookLessonRequest) (*models.LessonBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	if req.IdempotencyKey != "" {
		existing, err := s.bookings.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check idempotency key")
		}
		if existing != nil {
			return existing, nil
		}
	}

	lesson, err := s.lessons.FindByID(ctx, req.LessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Authorized {
		return nil, appErrors.Clone(appErrors.ErrNotAuthorized, "student is not authorized to book lessons")
	}

	duplicate, err := s.bookings.FindByLessonAndStudent(ctx, req.LessonID, req.StudentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing booking")
	}
	if duplicate != nil {
		return nil, appErrors.ErrDuplicateBooking
	}

	if lesson.Status != models.LessonStatusScheduled {
		return nil, appErrors.ErrLessonNotAvailable
	}
	if lesson.CurrentBookings >= lesson.Capacity {
		return nil, appErrors.ErrLessonFull
	}

	booking := &models.LessonBooking{
		LessonID:  req.LessonID,
		StudentID: req.StudentID,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		booking.IdempotencyKey = &key
	}

	// The repository re-checks status and capacity under a row lock, so the
	// pre-checks above only shape error messages, not correctness.
	if err := s.bookings.CreateWithCapacity(ctx, booking); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		case errors.Is(err, repository.ErrLessonNotBookable):
			return nil, appErrors.ErrLessonNotAvailable
		case errors.Is(err, repository.ErrLessonFull):
			return nil, appErrors.ErrLessonFull
		case errors.Is(err, repository.ErrDuplicateBooking):
			return nil, appErrors.ErrDuplicateBooking
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.logger.Info("lesson booked",
		zap.String("booking_id", booking.ID),
		zap.String("lesson_id", req.LessonID),
		zap.String("student_id", req.StudentID),
	)
	return booking, nil
}

// CancelBooking removes a booking and releases its slot. Bookings with a
// recorded attendance outcome can no longer be cancelled.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) error {
	if err := s.bookings.DeleteWithRelease(ctx, bookingID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		case errors.Is(err, repository.ErrAttendanceMarked):
			return appErrors.ErrAttendanceAlreadyMarked
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}

	s.logger.Info("booking cancelled", zap.String("booking_id", bookingID))
	return nil
}

// MarkAttendance records the attendance outcome on a booking. Repeated calls
// overwrite the previous outcome; lesson counters are only touched by the
// completion pipeline, never from here.
func (s *BookingService) MarkAttendance(ctx context.Context, bookingID string, req MarkAttendanceRequest) (*models.LessonBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "attendance outcome is required")
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, appErrors.ErrInvalidRating
	}

	if _, err := s.bookings.FindByID(ctx, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if err := s.bookings.UpdateAttendance(ctx, bookingID, *req.Attended, req.Feedback, req.Rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}

	updated, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload booking")
	}

	s.logger.Info("attendance marked",
		zap.String("booking_id", bookingID),
		zap.Bool("attended", *req.Attended),
	)
	return updated, nil
}

// GetBooking returns a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*models.LessonBooking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}
