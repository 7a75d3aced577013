package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/internal/repository"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
)

type studentRecordRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdateNotes(ctx context.Context, id string, notes *string) error
}

type bookingDetailReader interface {
	FindByID(ctx context.Context, id string) (*models.LessonBooking, error)
	ListDetailsByStudent(ctx context.Context, studentID, schoolID string) ([]models.BookingDetail, error)
	SummarizePayments(ctx context.Context, studentID, schoolID string) (*repository.LessonPaymentTotals, error)
	UpdatePayment(ctx context.Context, id string, amount float64, method string, paidAt time.Time) error
}

type examRegistrationRepository interface {
	FindByID(ctx context.Context, id string) (*models.ExamRegistration, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ExamRegistration, error)
	SummarizePayments(ctx context.Context, studentID string) (*repository.ExamPaymentTotals, error)
	UpdatePayment(ctx context.Context, id string, amount float64, method string, paidAt time.Time) error
}

type profileCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// RecordPaymentRequest records a payment against a booking or an exam
// registration.
type RecordPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
}

// UpdateNotesRequest replaces the staff notes on a student record.
type UpdateNotesRequest struct {
	Notes *string `json:"notes"`
}

// ProfileService aggregates a student's record, counters, lesson history,
// exam history and financial summary into one read model, with an optional
// Redis cache in front of the heavy reads.
type ProfileService struct {
	students  studentRecordRepository
	stats     statsReader
	bookings  bookingDetailReader
	exams     examRegistrationRepository
	cache     profileCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs ProfileService. A nil cache disables caching.
func NewProfileService(
	students studentRecordRepository,
	stats statsReader,
	bookings bookingDetailReader,
	exams examRegistrationRepository,
	cache profileCache,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ProfileService{
		students:  students,
		stats:     stats,
		bookings:  bookings,
		exams:     exams,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

func profileCacheKey(studentID string) string {
	return fmt.Sprintf("profile:%s", studentID)
}

// GetCompleteProfile assembles the full student read model.
func (s *ProfileService) GetCompleteProfile(ctx context.Context, studentID string) (*models.CompleteProfile, error) {
	if s.cache != nil {
		var cached models.CompleteProfile
		if err := s.cache.Get(ctx, profileCacheKey(studentID), &cached); err == nil {
			return &cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("profile cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	profile := &models.CompleteProfile{Student: *student}

	stats, err := s.stats.FindByPair(ctx, studentID, student.SchoolID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson stats")
	}
	if stats != nil {
		profile.Stats = stats
	}

	lessons, err := s.bookings.ListDetailsByStudent(ctx, studentID, student.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson history")
	}
	profile.Lessons = lessons

	exams, err := s.exams.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam history")
	}
	profile.Exams = exams

	financial, err := s.buildFinancialSummary(ctx, studentID, student.SchoolID)
	if err != nil {
		return nil, err
	}
	profile.Financial = *financial

	if s.cache != nil {
		if err := s.cache.Set(ctx, profileCacheKey(studentID), profile, s.cacheTTL); err != nil {
			s.logger.Warn("profile cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return profile, nil
}

// GetStudentLessons returns the student's booking history with lesson context.
func (s *ProfileService) GetStudentLessons(ctx context.Context, studentID string) ([]models.BookingDetail, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.bookings.ListDetailsByStudent(ctx, studentID, student.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson history")
	}
	return lessons, nil
}

// GetStudentExams returns the student's exam registrations.
func (s *ProfileService) GetStudentExams(ctx context.Context, studentID string) ([]models.ExamRegistration, error) {
	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return nil, err
	}
	exams, err := s.exams.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam history")
	}
	return exams, nil
}

// GetFinancialSummary computes paid and outstanding totals across lessons and
// exams for a student.
func (s *ProfileService) GetFinancialSummary(ctx context.Context, studentID string) (*models.FinancialSummary, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.buildFinancialSummary(ctx, studentID, student.SchoolID)
}

// UpdateNotes replaces staff notes on the student record.
func (s *ProfileService) UpdateNotes(ctx context.Context, studentID string, req UpdateNotesRequest) error {
	if err := s.students.UpdateNotes(ctx, studentID, req.Notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notes")
	}
	s.invalidate(ctx, studentID)
	return nil
}

// MarkLessonPaid records a payment against a booking.
func (s *ProfileService) MarkLessonPaid(ctx context.Context, bookingID string, req RecordPaymentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if err := s.bookings.UpdatePayment(ctx, bookingID, req.Amount, req.Method, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.invalidate(ctx, booking.StudentID)
	s.logger.Info("lesson payment recorded",
		zap.String("booking_id", bookingID),
		zap.Float64("amount", req.Amount),
	)
	return nil
}

// MarkExamPaid records a payment against an exam registration.
func (s *ProfileService) MarkExamPaid(ctx context.Context, registrationID string, req RecordPaymentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	registration, err := s.exams.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam registration")
	}

	if err := s.exams.UpdatePayment(ctx, registrationID, req.Amount, req.Method, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.invalidate(ctx, registration.StudentID)
	s.logger.Info("exam payment recorded",
		zap.String("registration_id", registrationID),
		zap.Float64("amount", req.Amount),
	)
	return nil
}

func (s *ProfileService) loadStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *ProfileService) buildFinancialSummary(ctx context.Context, studentID, schoolID string) (*models.FinancialSummary, error) {
	lessonTotals, err := s.bookings.SummarizePayments(ctx, studentID, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize lesson payments")
	}
	examTotals, err := s.exams.SummarizePayments(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize exam payments")
	}

	summary := &models.FinancialSummary{
		StudentID:     studentID,
		SchoolID:      schoolID,
		LessonRevenue: lessonTotals.PaidTotal,
		ExamRevenue:   examTotals.PaidTotal,
		TotalRevenue:  lessonTotals.PaidTotal + examTotals.PaidTotal,
		LessonPending: lessonTotals.PendingTotal,
		ExamPending:   examTotals.PendingTotal,
		TotalPending:  lessonTotals.PendingTotal + examTotals.PendingTotal,
	}
	summary.TotalDue = summary.TotalPending

	switch {
	case lessonTotals.LastPaymentDate == nil:
		summary.LastPaymentDate = examTotals.LastPaymentDate
	case examTotals.LastPaymentDate == nil:
		summary.LastPaymentDate = lessonTotals.LastPaymentDate
	case examTotals.LastPaymentDate.After(*lessonTotals.LastPaymentDate):
		summary.LastPaymentDate = examTotals.LastPaymentDate
	default:
		summary.LastPaymentDate = lessonTotals.LastPaymentDate
	}
	return summary, nil
}

func (s *ProfileService) invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, profileCacheKey(studentID)); err != nil {
		s.logger.Warn("profile cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}
