package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
	"github.com/noah-isme/tutorconnect-api/pkg/export"
)

type bookingLister interface {
	ListForActor(ctx context.Context, actor models.Actor, statuses []models.BookingStatus) ([]models.BookingDetail, error)
}

// ExportResult is a rendered file ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

var bookingExportHeaders = []string{"Date", "Day", "Start", "End", "Subject", "Student", "Student Email", "Status", "Meeting Link"}

// ExportService renders a teacher's bookings as a downloadable file.
type ExportService struct {
	bookings bookingLister
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(bookings bookingLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{bookings: bookings, logger: logger, now: time.Now}
}

// TeacherBookings exports every booking of the teacher in the requested format.
func (s *ExportService) TeacherBookings(ctx context.Context, teacherID, rawFormat string) (*ExportResult, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}

	details, err := s.bookings.ListForActor(ctx, models.Actor{ID: teacherID, Kind: models.KindTeacher}, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	dataset := export.Dataset{
		Title:   "Bookings",
		Headers: bookingExportHeaders,
		Rows:    make([]map[string]string, 0, len(details)),
	}
	for _, d := range details {
		link := ""
		if d.MeetingLink != nil {
			link = *d.MeetingLink
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":          d.Date,
			"Day":           d.DayOfWeek,
			"Start":         d.StartTime,
			"End":           d.EndTime,
			"Subject":       d.Subject,
			"Student":       d.StudentName,
			"Student Email": d.StudentEmail,
			"Status":        strings.ToUpper(string(d.Status)),
			"Meeting Link":  link,
		})
	}

	data, err := export.Render(format, dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("bookings exported", zap.String("teacher_id", teacherID), zap.String("format", string(format)), zap.Int("rows", len(details)))
	return &ExportResult{
		Filename:    fmt.Sprintf("bookings-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}
