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

type enrollmentRequestRepository interface {
	FindByID(ctx context.Context, id string) (*models.EnrollmentRequest, error)
	FindLatestByPair(ctx context.Context, studentID, schoolID string) (*models.EnrollmentRequest, error)
	ExistsPending(ctx context.Context, studentID, schoolID string) (bool, error)
	Create(ctx context.Context, request *models.EnrollmentRequest) error
	Approve(ctx context.Context, requestID, processedBy string, student *models.Student) error
	Reject(ctx context.Context, requestID, processedBy, reason string) error
}

type authorizationReader interface {
	FindByUserAndSchool(ctx context.Context, userID, schoolID string) (*models.Student, error)
	ExistsAuthorized(ctx context.Context, userID, schoolID string) (bool, error)
}

// RequestEnrollmentRequest describes an enrollment application payload.
type RequestEnrollmentRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	SchoolID  string  `json:"school_id" validate:"required"`
	Message   *string `json:"message,omitempty"`
}

// RejectRequestRequest carries the mandatory rejection reason.
type RejectRequestRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// ApprovalResult bundles the processed request with the authorization record
// it produced.
type ApprovalResult struct {
	Request *models.EnrollmentRequest `json:"request"`
	Student *models.Student           `json:"student"`
}

// EnrollmentService orchestrates the enrollment request state machine.
type EnrollmentService struct {
	requests  enrollmentRequestRepository
	students  authorizationReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(requests enrollmentRequestRepository, students authorizationReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{requests: requests, students: students, validator: validate, logger: logger}
}

// RequestEnrollment creates a pending enrollment request for a student/school
// pair. A rejected request may be resubmitted; a pending or approved one may not.
func (s *EnrollmentService) RequestEnrollment(ctx context.Context, req RequestEnrollmentRequest) (*models.EnrollmentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment request payload")
	}

	enrolled, err := s.students.ExistsAuthorized(ctx, req.StudentID, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if enrolled {
		return nil, appErrors.ErrAlreadyEnrolled
	}

	pending, err := s.requests.ExistsPending(ctx, req.StudentID, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	if pending {
		return nil, appErrors.ErrRequestAlreadyPending
	}

	latest, err := s.requests.FindLatestByPair(ctx, req.StudentID, req.SchoolID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest request")
	}
	if latest != nil && latest.Status == models.RequestStatusApproved {
		return nil, appErrors.ErrAlreadyApproved
	}

	request := &models.EnrollmentRequest{
		StudentID: req.StudentID,
		SchoolID:  req.SchoolID,
		Status:    models.RequestStatusPending,
		Message:   req.Message,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrPendingRequestExists) {
			return nil, appErrors.ErrRequestAlreadyPending
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment request")
	}

	s.logger.Info("enrollment requested",
		zap.String("request_id", request.ID),
		zap.String("student_id", req.StudentID),
		zap.String("school_id", req.SchoolID),
	)
	return request, nil
}

// ApproveRequest transitions a pending request to approved and creates the
// authorization record as one logical unit.
func (s *EnrollmentService) ApproveRequest(ctx context.Context, requestID, processedBy string) (*ApprovalResult, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment request")
	}
	if request.Status != models.RequestStatusPending {
		return nil, appErrors.ErrAlreadyProcessed
	}

	student := &models.Student{
		UserID:     request.StudentID,
		SchoolID:   request.SchoolID,
		Authorized: true,
		RequestID:  &request.ID,
	}
	if err := s.requests.Approve(ctx, requestID, processedBy, student); err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotPending):
			return nil, appErrors.ErrAlreadyProcessed
		case errors.Is(err, repository.ErrStudentExists):
			return nil, appErrors.ErrAlreadyEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve enrollment request")
	}

	updated, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload enrollment request")
	}

	s.logger.Info("enrollment approved",
		zap.String("request_id", requestID),
		zap.String("student_record_id", student.ID),
		zap.String("processed_by", processedBy),
	)
	return &ApprovalResult{Request: updated, Student: student}, nil
}

// RejectRequest transitions a pending request to rejected with a reason.
func (s *EnrollmentService) RejectRequest(ctx context.Context, requestID, processedBy string, req RejectRequestRequest) (*models.EnrollmentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason is required")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment request")
	}
	if request.Status != models.RequestStatusPending {
		return nil, appErrors.ErrAlreadyProcessed
	}

	if err := s.requests.Reject(ctx, requestID, processedBy, req.Reason); err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject enrollment request")
	}

	updated, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload enrollment request")
	}

	s.logger.Info("enrollment rejected",
		zap.String("request_id", requestID),
		zap.String("processed_by", processedBy),
	)
	return updated, nil
}

// GetEnrollmentStatus derives where a student stands with a school. CanBook is
// the single predicate the booking engine consults.
func (s *EnrollmentService) GetEnrollmentStatus(ctx context.Context, studentID, schoolID string) (*models.EnrollmentStatus, error) {
	status := &models.EnrollmentStatus{}

	student, err := s.students.FindByUserAndSchool(ctx, studentID, schoolID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}
	if student != nil {
		status.IsEnrolled = true
		status.CanBook = student.Authorized
		enrolledAt := student.EnrollmentDate
		status.EnrollmentDate = &enrolledAt
	}

	latest, err := s.requests.FindLatestByPair(ctx, studentID, schoolID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest request")
	}
	if latest != nil {
		requestStatus := latest.Status
		status.RequestStatus = &requestStatus
	}

	return status, nil
}
