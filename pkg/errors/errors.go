package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors. Business-rule violations map to one of these stable codes
// so API clients can render precise messages instead of generic failures.
var (
	ErrNotFound      = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized  = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden     = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotAuthorized = New("NOT_AUTHORIZED", http.StatusForbidden, "student is not authorized to book lessons")
	ErrValidation    = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal      = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss     = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrAlreadyEnrolled         = New("ALREADY_ENROLLED", http.StatusConflict, "student is already enrolled at this school")
	ErrRequestAlreadyPending   = New("REQUEST_ALREADY_PENDING", http.StatusConflict, "an enrollment request is already pending")
	ErrAlreadyApproved         = New("ALREADY_APPROVED", http.StatusConflict, "enrollment request was already approved")
	ErrAlreadyProcessed        = New("ALREADY_PROCESSED", http.StatusConflict, "enrollment request was already processed")
	ErrDuplicateBooking        = New("DUPLICATE_BOOKING", http.StatusConflict, "student already holds a booking for this lesson")
	ErrLessonFull              = New("LESSON_FULL", http.StatusConflict, "lesson has reached its capacity")
	ErrLessonNotAvailable      = New("LESSON_NOT_AVAILABLE", http.StatusConflict, "lesson is not open for booking")
	ErrAttendanceAlreadyMarked = New("ATTENDANCE_ALREADY_MARKED", http.StatusConflict, "attendance was already recorded for this booking")
	ErrInvalidRating           = New("INVALID_RATING", http.StatusBadRequest, "rating must be between 1 and 5")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same stable code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
