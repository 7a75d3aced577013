package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/dsm-api/internal/service"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
	"github.com/drivehub/dsm-api/pkg/response"
)

// ProgressHandler exposes lesson completion accounting.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler constructs ProgressHandler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// RecordCompletion godoc
// @Summary Record a lesson completion event
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.RecordCompletionRequest true "Completion event"
// @Success 200 {object} response.Envelope
// @Router /progress/completions [post]
func (h *ProgressHandler) RecordCompletion(c *gin.Context) {
	var req service.RecordCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	stats, err := h.progress.RecordLessonCompletion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Stats godoc
// @Summary Get lesson counters for a student/school pair
// @Tags Progress
// @Produce json
// @Param studentId query string true "Student ID"
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /progress/stats [get]
func (h *ProgressHandler) Stats(c *gin.Context) {
	studentID := c.Query("studentId")
	schoolID := c.Query("schoolId")
	if studentID == "" || schoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId and schoolId are required"))
		return
	}

	stats, err := h.progress.GetStats(c.Request.Context(), studentID, schoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
