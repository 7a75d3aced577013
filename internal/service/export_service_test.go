package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drivehub/dsm-api/internal/models"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
)

type staticProfileAggregator struct {
	summary models.FinancialSummary
	lessons []models.BookingDetail
}

func (s *staticProfileAggregator) GetFinancialSummary(ctx context.Context, studentID string) (*models.FinancialSummary, error) {
	summary := s.summary
	return &summary, nil
}

func (s *staticProfileAggregator) GetStudentLessons(ctx context.Context, studentID string) ([]models.BookingDetail, error) {
	return s.lessons, nil
}

func TestExportServiceFinancialSummaryCSV(t *testing.T) {
	profiles := &staticProfileAggregator{summary: models.FinancialSummary{
		LessonRevenue: 300, ExamRevenue: 50, TotalRevenue: 350,
		LessonPending: 100, ExamPending: 25, TotalPending: 125,
	}}
	svc := NewExportService(profiles, nil, nil, zap.NewNop())

	result, err := svc.ExportFinancialSummary(context.Background(), "s1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "Item,Paid,Pending")
	assert.Contains(t, body, "Total,350.00,125.00")
}

func TestExportServiceLessonHistoryPDF(t *testing.T) {
	attended := true
	profiles := &staticProfileAggregator{lessons: []models.BookingDetail{{
		LessonBooking:   models.LessonBooking{ID: "b1", StudentID: "s1", Attended: &attended, Paid: true},
		LessonType:      models.LessonTypeDriving,
		LessonDateTime:  time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 90,
		InstructorID:    "i1",
		Price:           45,
	}}}
	svc := NewExportService(profiles, nil, nil, zap.NewNop())

	result, err := svc.ExportLessonHistory(context.Background(), "s1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.NotEmpty(t, result.Payload)
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := NewExportService(&staticProfileAggregator{}, nil, nil, zap.NewNop())

	_, err := svc.ExportFinancialSummary(context.Background(), "s1", "xlsx")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
