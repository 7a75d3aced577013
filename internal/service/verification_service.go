package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/drivehub/dsm-api/internal/models"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
)

// Lesson counts required before a student may register for an exam.
const (
	TheoryExamLessonThreshold    = 20
	PracticalExamLessonThreshold = 30
)

type statsReader interface {
	FindByPair(ctx context.Context, studentID, schoolID string) (*models.StudentLessonStats, error)
}

// VerificationService answers the two gate questions other subsystems ask:
// is this user enrolled, and has this student done enough lessons for an exam.
type VerificationService struct {
	students authorizationReader
	stats    statsReader
	logger   *zap.Logger
}

// NewVerificationService constructs VerificationService.
func NewVerificationService(students authorizationReader, stats statsReader, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{students: students, stats: stats, logger: logger}
}

// VerifyEnrollment reports whether a user holds an active authorization at a
// school. The answer is derived purely from the student record.
func (s *VerificationService) VerifyEnrollment(ctx context.Context, userID, schoolID string) (*models.EnrollmentStatus, error) {
	status := &models.EnrollmentStatus{}

	student, err := s.students.FindByUserAndSchool(ctx, userID, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}

	status.IsEnrolled = true
	status.CanBook = student.Authorized
	enrolledAt := student.EnrollmentDate
	status.EnrollmentDate = &enrolledAt
	return status, nil
}

// CheckExamEligibility compares the student's completed lesson count against
// the threshold for the requested exam type. A student with no stats row is
// treated as having zero completed lessons.
func (s *VerificationService) CheckExamEligibility(ctx context.Context, studentID, schoolID string, examType models.ExamType) (*models.EligibilityResult, error) {
	var required int
	switch examType {
	case models.ExamTypeTheory:
		required = TheoryExamLessonThreshold
	case models.ExamTypePractical:
		required = PracticalExamLessonThreshold
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown exam type")
	}

	completed := 0
	stats, err := s.stats.FindByPair(ctx, studentID, schoolID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson stats")
	}
	if stats != nil {
		completed = stats.CompletedLessons
	}

	result := &models.EligibilityResult{
		ExamType:         examType,
		RequiredLessons:  required,
		CompletedLessons: completed,
		Eligible:         completed >= required,
	}
	if !result.Eligible {
		result.Reason = fmt.Sprintf("%d more completed lesson(s) required before the %s exam", required-completed, examType)
	}
	return result, nil
}
