package repository

import "errors"

// Sentinel errors surfaced by transactional guards. Services translate these
// into the typed API errors; they exist so races caught inside a transaction
// fail the same way the pre-checks do.
var (
	ErrPendingRequestExists = errors.New("pending enrollment request already exists")
	ErrRequestNotPending    = errors.New("enrollment request is not pending")
	ErrStudentExists        = errors.New("student record already exists")
	ErrLessonNotBookable    = errors.New("lesson is not open for booking")
	ErrLessonFull           = errors.New("lesson capacity reached")
	ErrDuplicateBooking     = errors.New("booking already exists for lesson and student")
	ErrAttendanceMarked     = errors.New("attendance already recorded")
	ErrDuplicateCompletion  = errors.New("completion event already processed")
)
