package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/internal/service"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
	"github.com/drivehub/dsm-api/pkg/response"
)

// VerificationHandler answers enrollment and exam-eligibility checks for
// other subsystems.
type VerificationHandler struct {
	verification *service.VerificationService
}

// NewVerificationHandler constructs VerificationHandler.
func NewVerificationHandler(verification *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// Enrollment godoc
// @Summary Verify a user's enrollment at a school
// @Tags Verification
// @Produce json
// @Param userId query string true "User ID"
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /verification/enrollment [get]
func (h *VerificationHandler) Enrollment(c *gin.Context) {
	userID := c.Query("userId")
	schoolID := c.Query("schoolId")
	if userID == "" || schoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "userId and schoolId are required"))
		return
	}

	status, err := h.verification.VerifyEnrollment(c.Request.Context(), userID, schoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// ExamEligibility godoc
// @Summary Check whether a student may register for an exam
// @Tags Verification
// @Produce json
// @Param studentId query string true "Student ID"
// @Param schoolId query string true "School ID"
// @Param examType query string true "Exam type (theory or practical)"
// @Success 200 {object} response.Envelope
// @Router /verification/exam-eligibility [get]
func (h *VerificationHandler) ExamEligibility(c *gin.Context) {
	studentID := c.Query("studentId")
	schoolID := c.Query("schoolId")
	examType := models.ExamType(strings.ToLower(c.Query("examType")))
	if studentID == "" || schoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId and schoolId are required"))
		return
	}

	result, err := h.verification.CheckExamEligibility(c.Request.Context(), studentID, schoolID, examType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
