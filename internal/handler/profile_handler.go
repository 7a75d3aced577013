package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/dsm-api/internal/service"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
	"github.com/drivehub/dsm-api/pkg/response"
)

// ProfileHandler exposes the aggregated student read model, payments and
// downloadable exports.
type ProfileHandler struct {
	profiles       *service.ProfileService
	exports        *service.ExportService
	exportsEnabled bool
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, exports *service.ExportService, exportsEnabled bool) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, exports: exports, exportsEnabled: exportsEnabled}
}

// Profile godoc
// @Summary Get a student's complete profile
// @Tags Profiles
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/profile [get]
func (h *ProfileHandler) Profile(c *gin.Context) {
	profile, err := h.profiles.GetCompleteProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Lessons godoc
// @Summary Get a student's lesson history
// @Tags Profiles
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/lessons [get]
func (h *ProfileHandler) Lessons(c *gin.Context) {
	lessons, err := h.profiles.GetStudentLessons(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Exams godoc
// @Summary Get a student's exam registrations
// @Tags Profiles
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/exams [get]
func (h *ProfileHandler) Exams(c *gin.Context) {
	exams, err := h.profiles.GetStudentExams(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// FinancialSummary godoc
// @Summary Get a student's financial summary
// @Tags Profiles
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/financial-summary [get]
func (h *ProfileHandler) FinancialSummary(c *gin.Context) {
	summary, err := h.profiles.GetFinancialSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ExportFinancialSummary godoc
// @Summary Download a student's financial summary as CSV or PDF
// @Tags Profiles
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "Export format (csv or pdf), defaults to csv"
// @Success 200 {file} file
// @Router /students/{id}/financial-summary/export [get]
func (h *ProfileHandler) ExportFinancialSummary(c *gin.Context) {
	if !h.exportsEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.ExportFinancialSummary(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// ExportLessons godoc
// @Summary Download a student's lesson history as CSV or PDF
// @Tags Profiles
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "Export format (csv or pdf), defaults to csv"
// @Success 200 {file} file
// @Router /students/{id}/lessons/export [get]
func (h *ProfileHandler) ExportLessons(c *gin.Context) {
	if !h.exportsEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.ExportLessonHistory(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// UpdateNotes godoc
// @Summary Update staff notes on a student record
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateNotesRequest true "Notes payload"
// @Success 204 "No Content"
// @Router /students/{id}/notes [put]
func (h *ProfileHandler) UpdateNotes(c *gin.Context) {
	var req service.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.profiles.UpdateNotes(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkLessonPaid godoc
// @Summary Record a payment against a booking
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 204 "No Content"
// @Router /bookings/{id}/payment [put]
func (h *ProfileHandler) MarkLessonPaid(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.profiles.MarkLessonPaid(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkExamPaid godoc
// @Summary Record a payment against an exam registration
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Exam registration ID"
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 204 "No Content"
// @Router /exam-registrations/{id}/payment [put]
func (h *ProfileHandler) MarkExamPaid(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.profiles.MarkExamPaid(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
