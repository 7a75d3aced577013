package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivehub/dsm-api/internal/middleware"
	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/internal/service"
)

type stubBookingStore struct {
	lessons  map[string]*models.Lesson
	bookings map[string]models.LessonBooking
	nextID   int
}

func newStubBookingStore(lessons ...*models.Lesson) *stubBookingStore {
	s := &stubBookingStore{lessons: make(map[string]*models.Lesson), bookings: make(map[string]models.LessonBooking)}
	for _, l := range lessons {
		s.lessons[l.ID] = l
	}
	return s
}

func (s *stubBookingStore) FindByID(ctx context.Context, id string) (*models.LessonBooking, error) {
	if b, ok := s.bookings[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubBookingStore) FindByLessonAndStudent(ctx context.Context, lessonID, studentID string) (*models.LessonBooking, error) {
	for _, b := range s.bookings {
		if b.LessonID == lessonID && b.StudentID == studentID {
			return &b, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubBookingStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.LessonBooking, error) {
	for _, b := range s.bookings {
		if b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			return &b, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubBookingStore) CreateWithCapacity(ctx context.Context, booking *models.LessonBooking) error {
	lesson, ok := s.lessons[booking.LessonID]
	if !ok {
		return sql.ErrNoRows
	}
	s.nextID++
	booking.ID = fmt.Sprintf("b%d", s.nextID)
	s.bookings[booking.ID] = *booking
	lesson.CurrentBookings++
	return nil
}

func (s *stubBookingStore) DeleteWithRelease(ctx context.Context, bookingID string) error {
	b, ok := s.bookings[bookingID]
	if !ok {
		return sql.ErrNoRows
	}
	delete(s.bookings, bookingID)
	if lesson, ok := s.lessons[b.LessonID]; ok && lesson.CurrentBookings > 0 {
		lesson.CurrentBookings--
	}
	return nil
}

func (s *stubBookingStore) UpdateAttendance(ctx context.Context, id string, attended bool, feedback *string, rating *int) error {
	b, ok := s.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Attended = &attended
	b.Feedback = feedback
	b.Rating = rating
	s.bookings[id] = b
	return nil
}

type stubLessonReader struct{ store *stubBookingStore }

func (s *stubLessonReader) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if l, ok := s.store.lessons[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type stubStudentReader struct{ students map[string]models.Student }

func (s *stubStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s.students[id]; ok {
		return &st, nil
	}
	return nil, sql.ErrNoRows
}

func authorizedStudentReader(ids ...string) *stubStudentReader {
	students := make(map[string]models.Student, len(ids))
	for _, id := range ids {
		students[id] = models.Student{ID: id, SchoolID: "sch1", Authorized: true}
	}
	return &stubStudentReader{students: students}
}

func newBookingRouter(store *stubBookingStore, students *stubStudentReader, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewBookingService(store, &stubLessonReader{store: store}, students, nil, nil)
	h := NewBookingHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		c.Next()
	})
	guard := middleware.RequireRoles(models.RoleStudent, models.RoleAdmin, models.RoleStaff)
	router.POST("/lessons/:id/bookings", guard, h.Book)
	router.DELETE("/bookings/:id", guard, h.Cancel)
	return router
}

func performRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestBookingHandlerStudentBooksSelf(t *testing.T) {
	store := newStubBookingStore(&models.Lesson{ID: "l1", SchoolID: "sch1", Capacity: 2, Status: models.LessonStatusScheduled})
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	router := newBookingRouter(store, authorizedStudentReader("u1"), claims)

	w := performRequest(router, http.MethodPost, "/lessons/l1/bookings", `{}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, store.bookings, 1)
	for _, b := range store.bookings {
		assert.Equal(t, "u1", b.StudentID)
	}
}

func TestBookingHandlerStudentCannotBookForAnother(t *testing.T) {
	store := newStubBookingStore(&models.Lesson{ID: "l1", SchoolID: "sch1", Capacity: 2, Status: models.LessonStatusScheduled})
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	router := newBookingRouter(store, authorizedStudentReader("u1", "u2"), claims)

	w := performRequest(router, http.MethodPost, "/lessons/l1/bookings", `{"student_id":"u2"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, store.bookings)
}

func TestBookingHandlerInstructorCannotBook(t *testing.T) {
	store := newStubBookingStore(&models.Lesson{ID: "l1", SchoolID: "sch1", Capacity: 2, Status: models.LessonStatusScheduled})
	claims := &models.JWTClaims{UserID: "i1", Role: models.RoleInstructor}
	router := newBookingRouter(store, authorizedStudentReader("u1"), claims)

	w := performRequest(router, http.MethodPost, "/lessons/l1/bookings", `{"student_id":"u1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, store.bookings)
}

func TestBookingHandlerStudentCancelsOwnBooking(t *testing.T) {
	store := newStubBookingStore(&models.Lesson{ID: "l1", SchoolID: "sch1", Capacity: 2, Status: models.LessonStatusScheduled, CurrentBookings: 1})
	store.bookings["b1"] = models.LessonBooking{ID: "b1", LessonID: "l1", StudentID: "u1"}
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	router := newBookingRouter(store, authorizedStudentReader("u1"), claims)

	w := performRequest(router, http.MethodDelete, "/bookings/b1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.bookings)
}

func TestBookingHandlerStudentCannotCancelOthersBooking(t *testing.T) {
	store := newStubBookingStore(&models.Lesson{ID: "l1", SchoolID: "sch1", Capacity: 2, Status: models.LessonStatusScheduled, CurrentBookings: 1})
	store.bookings["b1"] = models.LessonBooking{ID: "b1", LessonID: "l1", StudentID: "u2"}
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	router := newBookingRouter(store, authorizedStudentReader("u1", "u2"), claims)

	w := performRequest(router, http.MethodDelete, "/bookings/b1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Len(t, store.bookings, 1)
}

func TestBookingHandlerStaffCancelsAnyBooking(t *testing.T) {
	store := newStubBookingStore(&models.Lesson{ID: "l1", SchoolID: "sch1", Capacity: 2, Status: models.LessonStatusScheduled, CurrentBookings: 1})
	store.bookings["b1"] = models.LessonBooking{ID: "b1", LessonID: "l1", StudentID: "u2"}
	claims := &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff}
	router := newBookingRouter(store, authorizedStudentReader("u2"), claims)

	w := performRequest(router, http.MethodDelete, "/bookings/b1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.bookings)
}
