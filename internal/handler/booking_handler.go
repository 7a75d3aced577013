package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/internal/service"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
	"github.com/drivehub/dsm-api/pkg/response"
)

// BookingHandler exposes the booking engine.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// bookLessonBody carries the booking target. Students may omit student_id;
// it defaults to their own ID.
type bookLessonBody struct {
	StudentID string `json:"student_id"`
}

// Book godoc
// @Summary Book a slot on a lesson
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param Idempotency-Key header string false "Idempotency key for safe retries"
// @Param payload body bookLessonBody true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /lessons/{id}/bookings [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var body bookLessonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		if body.StudentID == "" {
			body.StudentID = claims.UserID
		} else if body.StudentID != claims.UserID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students can only book lessons for themselves"))
			return
		}
	}

	booking, err := h.bookings.BookLesson(c.Request.Context(), service.BookLessonRequest{
		LessonID:       c.Param("id"),
		StudentID:      body.StudentID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// Get godoc
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.bookings.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Cancel godoc
// @Summary Cancel a booking and release its slot
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 204 "No Content"
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c *gin.Context) {
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		booking, err := h.bookings.GetBooking(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		if booking.StudentID != claims.UserID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students can only cancel their own bookings"))
			return
		}
	}

	if err := h.bookings.CancelBooking(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAttendance godoc
// @Summary Record the attendance outcome on a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/attendance [put]
func (h *BookingHandler) MarkAttendance(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	booking, err := h.bookings.MarkAttendance(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}
