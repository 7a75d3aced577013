package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drivehub/dsm-api/internal/models"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
)

type mockLessonRepo struct {
	lessons map[string]models.Lesson
}

func (m *mockLessonRepo) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if l, ok := m.lessons[id]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLessonRepo) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	var list []models.Lesson
	for _, l := range m.lessons {
		if filter.SchoolID != "" && l.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		list = append(list, l)
	}
	return list, len(list), nil
}

func (m *mockLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	if m.lessons == nil {
		m.lessons = make(map[string]models.Lesson)
	}
	if lesson.ID == "" {
		lesson.ID = "new-lesson"
	}
	m.lessons[lesson.ID] = *lesson
	return nil
}

func (m *mockLessonRepo) UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error {
	l, ok := m.lessons[id]
	if !ok {
		return sql.ErrNoRows
	}
	l.Status = status
	m.lessons[id] = l
	return nil
}

func newLessonService(repo *mockLessonRepo) *LessonService {
	return NewLessonService(repo, validator.New(), zap.NewNop())
}

func validLessonRequest() CreateLessonRequest {
	return CreateLessonRequest{
		SchoolID:        "sch1",
		InstructorID:    "i1",
		Type:            models.LessonTypeDriving,
		DateTime:        time.Now().Add(48 * time.Hour),
		DurationMinutes: 90,
		Capacity:        1,
		Price:           45,
	}
}

func TestLessonServiceCreate(t *testing.T) {
	repo := &mockLessonRepo{}
	svc := newLessonService(repo)

	lesson, err := svc.CreateLesson(context.Background(), validLessonRequest())
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusScheduled, lesson.Status)
	assert.Equal(t, 0, lesson.CurrentBookings)
	assert.Len(t, repo.lessons, 1)
}

func TestLessonServiceCreateRequiresCapacity(t *testing.T) {
	svc := newLessonService(&mockLessonRepo{})

	req := validLessonRequest()
	req.Capacity = 0
	_, err := svc.CreateLesson(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLessonServiceCreateRejectsUnknownType(t *testing.T) {
	svc := newLessonService(&mockLessonRepo{})

	req := validLessonRequest()
	req.Type = "SIMULATOR"
	_, err := svc.CreateLesson(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLessonServiceStatusTransition(t *testing.T) {
	repo := &mockLessonRepo{lessons: map[string]models.Lesson{
		"l1": {ID: "l1", SchoolID: "sch1", Status: models.LessonStatusScheduled},
	}}
	svc := newLessonService(repo)

	lesson, err := svc.UpdateLessonStatus(context.Background(), "l1", UpdateLessonStatusRequest{Status: models.LessonStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusCompleted, lesson.Status)

	_, err = svc.UpdateLessonStatus(context.Background(), "l1", UpdateLessonStatusRequest{Status: models.LessonStatusCancelled})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrLessonNotAvailable))
}

func TestLessonServiceGetNotFound(t *testing.T) {
	svc := newLessonService(&mockLessonRepo{})

	_, err := svc.GetLesson(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
