package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/internal/repository"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
)

// mockBookingRepo serializes CreateWithCapacity with a mutex the way the real
// repository serializes it with a row lock.
type mockBookingRepo struct {
	mu       sync.Mutex
	lessons  map[string]*models.Lesson
	bookings map[string]models.LessonBooking
	nextID   int
}

func newMockBookingRepo(lessons ...*models.Lesson) *mockBookingRepo {
	m := &mockBookingRepo{lessons: make(map[string]*models.Lesson), bookings: make(map[string]models.LessonBooking)}
	for _, l := range lessons {
		m.lessons[l.ID] = l
	}
	return m
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.LessonBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) FindByLessonAndStudent(ctx context.Context, lessonID, studentID string) (*models.LessonBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.LessonID == lessonID && b.StudentID == studentID {
			return &b, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.LessonBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			return &b, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) CreateWithCapacity(ctx context.Context, booking *models.LessonBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lesson, ok := m.lessons[booking.LessonID]
	if !ok {
		return sql.ErrNoRows
	}
	if lesson.Status != models.LessonStatusScheduled {
		return repository.ErrLessonNotBookable
	}
	if lesson.CurrentBookings >= lesson.Capacity {
		return repository.ErrLessonFull
	}
	for _, b := range m.bookings {
		if b.LessonID == booking.LessonID && b.StudentID == booking.StudentID {
			return repository.ErrDuplicateBooking
		}
	}

	m.nextID++
	booking.ID = string(rune('a' + m.nextID))
	m.bookings[booking.ID] = *booking
	lesson.CurrentBookings++
	return nil
}

func (m *mockBookingRepo) DeleteWithRelease(ctx context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[bookingID]
	if !ok {
		return sql.ErrNoRows
	}
	if b.Attended != nil {
		return repository.ErrAttendanceMarked
	}
	delete(m.bookings, bookingID)
	if lesson, ok := m.lessons[b.LessonID]; ok && lesson.CurrentBookings > 0 {
		lesson.CurrentBookings--
	}
	return nil
}

func (m *mockBookingRepo) UpdateAttendance(ctx context.Context, id string, attended bool, feedback *string, rating *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Attended = &attended
	b.Feedback = feedback
	b.Rating = rating
	m.bookings[id] = b
	return nil
}

type mockLessonReader struct {
	repo *mockBookingRepo
}

func (m *mockLessonReader) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	m.repo.mu.Lock()
	defer m.repo.mu.Unlock()
	if l, ok := m.repo.lessons[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentByIDReader struct {
	students map[string]models.Student
}

func (m *mockStudentByIDReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func scheduledLesson(id string, capacity int) *models.Lesson {
	return &models.Lesson{ID: id, SchoolID: "sch1", Capacity: capacity, Status: models.LessonStatusScheduled}
}

func authorizedStudents(ids ...string) *mockStudentByIDReader {
	students := make(map[string]models.Student, len(ids))
	for _, id := range ids {
		students[id] = models.Student{ID: id, SchoolID: "sch1", Authorized: true}
	}
	return &mockStudentByIDReader{students: students}
}

func newBookingService(repo *mockBookingRepo, students *mockStudentByIDReader) *BookingService {
	return NewBookingService(repo, &mockLessonReader{repo: repo}, students, validator.New(), zap.NewNop())
}

func TestBookingServiceBookLesson(t *testing.T) {
	repo := newMockBookingRepo(scheduledLesson("l1", 2))
	svc := newBookingService(repo, authorizedStudents("s1"))

	booking, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, 1, repo.lessons["l1"].CurrentBookings)
}

func TestBookingServiceLessonNotFound(t *testing.T) {
	svc := newBookingService(newMockBookingRepo(), authorizedStudents("s1"))

	_, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "missing", StudentID: "s1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBookingServiceUnauthorizedStudent(t *testing.T) {
	repo := newMockBookingRepo(scheduledLesson("l1", 2))
	students := &mockStudentByIDReader{students: map[string]models.Student{
		"s1": {ID: "s1", SchoolID: "sch1", Authorized: false},
	}}
	svc := newBookingService(repo, students)

	_, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotAuthorized))
	assert.Equal(t, 0, repo.lessons["l1"].CurrentBookings)
}

func TestBookingServiceLessonNotScheduled(t *testing.T) {
	lesson := scheduledLesson("l1", 2)
	lesson.Status = models.LessonStatusCancelled
	svc := newBookingService(newMockBookingRepo(lesson), authorizedStudents("s1"))

	_, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrLessonNotAvailable))
}

func TestBookingServiceDuplicateBooking(t *testing.T) {
	repo := newMockBookingRepo(scheduledLesson("l1", 5))
	svc := newBookingService(repo, authorizedStudents("s1"))

	_, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.NoError(t, err)

	_, err = svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateBooking))
	assert.Equal(t, 1, repo.lessons["l1"].CurrentBookings)
}

func TestBookingServiceIdempotentReplay(t *testing.T) {
	repo := newMockBookingRepo(scheduledLesson("l1", 5))
	svc := newBookingService(repo, authorizedStudents("s1"))

	first, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1", IdempotencyKey: "key-1"})
	require.NoError(t, err)

	second, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1", IdempotencyKey: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.lessons["l1"].CurrentBookings)
}

func TestBookingServiceConcurrentBookingsRespectCapacity(t *testing.T) {
	const attempts = 20
	repo := newMockBookingRepo(scheduledLesson("l1", 1))

	studentIDs := make([]string, attempts)
	for i := range studentIDs {
		studentIDs[i] = string(rune('A' + i))
	}
	svc := newBookingService(repo, authorizedStudents(studentIDs...))

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for _, studentID := range studentIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: id})
			results <- err
		}(studentID)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, appErrors.Is(err, appErrors.ErrLessonFull))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, repo.lessons["l1"].CurrentBookings)
}

func TestBookingServiceCancelReleasesSlot(t *testing.T) {
	repo := newMockBookingRepo(scheduledLesson("l1", 1))
	svc := newBookingService(repo, authorizedStudents("s1", "s2"))

	booking, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.NoError(t, err)

	_, err = svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s2"})
	require.Error(t, err)

	require.NoError(t, svc.CancelBooking(context.Background(), booking.ID))
	assert.Equal(t, 0, repo.lessons["l1"].CurrentBookings)

	_, err = svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s2"})
	require.NoError(t, err)
}

func TestBookingServiceCancelAfterAttendanceRefused(t *testing.T) {
	repo := newMockBookingRepo(scheduledLesson("l1", 2))
	svc := newBookingService(repo, authorizedStudents("s1"))

	booking, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.NoError(t, err)

	attended := true
	_, err = svc.MarkAttendance(context.Background(), booking.ID, MarkAttendanceRequest{Attended: &attended})
	require.NoError(t, err)

	err = svc.CancelBooking(context.Background(), booking.ID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAttendanceAlreadyMarked))
	assert.Equal(t, 1, repo.lessons["l1"].CurrentBookings)
}

func TestBookingServiceMarkAttendanceValidatesRating(t *testing.T) {
	repo := newMockBookingRepo(scheduledLesson("l1", 2))
	svc := newBookingService(repo, authorizedStudents("s1"))

	booking, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.NoError(t, err)

	attended := true
	bad := 6
	_, err = svc.MarkAttendance(context.Background(), booking.ID, MarkAttendanceRequest{Attended: &attended, Rating: &bad})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidRating))

	good := 5
	feedback := "smooth parallel parking"
	updated, err := svc.MarkAttendance(context.Background(), booking.ID, MarkAttendanceRequest{Attended: &attended, Rating: &good, Feedback: &feedback})
	require.NoError(t, err)
	require.NotNil(t, updated.Attended)
	assert.True(t, *updated.Attended)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)
}

func TestBookingServiceMarkAttendanceOverwrites(t *testing.T) {
	repo := newMockBookingRepo(scheduledLesson("l1", 2))
	svc := newBookingService(repo, authorizedStudents("s1"))

	booking, err := svc.BookLesson(context.Background(), BookLessonRequest{LessonID: "l1", StudentID: "s1"})
	require.NoError(t, err)

	attended := false
	_, err = svc.MarkAttendance(context.Background(), booking.ID, MarkAttendanceRequest{Attended: &attended})
	require.NoError(t, err)

	attended = true
	updated, err := svc.MarkAttendance(context.Background(), booking.ID, MarkAttendanceRequest{Attended: &attended})
	require.NoError(t, err)
	require.NotNil(t, updated.Attended)
	assert.True(t, *updated.Attended)
}
