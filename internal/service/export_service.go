package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/pkg/export"
	appErrors "github.com/drivehub/dsm-api/pkg/errors"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type profileAggregator interface {
	GetFinancialSummary(ctx context.Context, studentID string) (*models.FinancialSummary, error)
	GetStudentLessons(ctx context.Context, studentID string) ([]models.BookingDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered export ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders student financial summaries and lesson histories as
// downloadable CSV or PDF files.
type ExportService struct {
	profiles profileAggregator
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(profiles profileAggregator, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{profiles: profiles, csv: csv, pdf: pdf, logger: logger}
}

// ExportFinancialSummary renders the student's financial summary.
func (s *ExportService) ExportFinancialSummary(ctx context.Context, studentID string, format ExportFormat) (*ExportResult, error) {
	summary, err := s.profiles.GetFinancialSummary(ctx, studentID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Item", "Paid", "Pending"},
		Rows: []map[string]string{
			{"Item": "Lessons", "Paid": formatAmount(summary.LessonRevenue), "Pending": formatAmount(summary.LessonPending)},
			{"Item": "Exams", "Paid": formatAmount(summary.ExamRevenue), "Pending": formatAmount(summary.ExamPending)},
			{"Item": "Total", "Paid": formatAmount(summary.TotalRevenue), "Pending": formatAmount(summary.TotalPending)},
		},
	}
	title := fmt.Sprintf("Financial Summary %s", studentID)
	return s.render(dataset, title, fmt.Sprintf("financial_summary_%s", studentID), format)
}

// ExportLessonHistory renders the student's booking history.
func (s *ExportService) ExportLessonHistory(ctx context.Context, studentID string, format ExportFormat) (*ExportResult, error) {
	lessons, err := s.profiles.GetStudentLessons(ctx, studentID)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(lessons))
	for _, lesson := range lessons {
		rows = append(rows, map[string]string{
			"Date":       lesson.LessonDateTime.UTC().Format(time.RFC3339),
			"Type":       string(lesson.LessonType),
			"Duration":   fmt.Sprintf("%d min", lesson.DurationMinutes),
			"Instructor": lesson.InstructorID,
			"Attended":   formatAttendance(lesson.Attended),
			"Price":      formatAmount(lesson.Price),
			"Paid":       fmt.Sprintf("%t", lesson.Paid),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Date", "Type", "Duration", "Instructor", "Attended", "Price", "Paid"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Lesson History %s", studentID)
	return s.render(dataset, title, fmt.Sprintf("lesson_history_%s", studentID), format)
}

func (s *ExportService) render(dataset export.Dataset, title, baseName string, format ExportFormat) (*ExportResult, error) {
	timestamp := time.Now().UTC().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s", sanitizeFilename(baseName), timestamp)

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Filename: name + ".csv", ContentType: "text/csv", Payload: payload}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Filename: name + ".pdf", ContentType: "application/pdf", Payload: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatAttendance(attended *bool) string {
	if attended == nil {
		return "pending"
	}
	if *attended {
		return "yes"
	}
	return "no"
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "export"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
