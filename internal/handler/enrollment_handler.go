package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/internal/service"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
	"github.com/drivehub/dsm-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment request workflow.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Request godoc
// @Summary Request enrollment at a school
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.RequestEnrollmentRequest true "Enrollment request payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments/requests [post]
func (h *EnrollmentHandler) Request(c *gin.Context) {
	var req service.RequestEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		if req.StudentID == "" {
			req.StudentID = claims.UserID
		}
		if claims.Role == models.RoleStudent && req.StudentID != claims.UserID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students can only request enrollment for themselves"))
			return
		}
	}

	request, err := h.enrollments.RequestEnrollment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Approve godoc
// @Summary Approve an enrollment request
// @Tags Enrollments
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/requests/{id}/approve [post]
func (h *EnrollmentHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.enrollments.ApproveRequest(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject an enrollment request
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.RejectRequestRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/requests/{id}/reject [post]
func (h *EnrollmentHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	request, err := h.enrollments.RejectRequest(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Status godoc
// @Summary Get enrollment status for a student/school pair
// @Tags Enrollments
// @Produce json
// @Param studentId query string true "Student user ID"
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/status [get]
func (h *EnrollmentHandler) Status(c *gin.Context) {
	studentID := c.Query("studentId")
	schoolID := c.Query("schoolId")
	if claims := claimsFromContext(c); claims != nil && studentID == "" {
		studentID = claims.UserID
	}
	if studentID == "" || schoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId and schoolId are required"))
		return
	}

	status, err := h.enrollments.GetEnrollmentStatus(c.Request.Context(), studentID, schoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
