package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type stubBookingLister struct {
	items []models.BookingDetail
	err   error
	actor models.Actor
}

func (s *stubBookingLister) ListForActor(ctx context.Context, actor models.Actor, statuses []models.BookingStatus) ([]models.BookingDetail, error) {
	s.actor = actor
	return s.items, s.err
}

func TestExportServiceCSV(t *testing.T) {
	lister := &stubBookingLister{items: []models.BookingDetail{sampleDetail()}}
	svc := NewExportService(lister, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	res, err := svc.TeacherBookings(context.Background(), "t1", "")
	require.NoError(t, err)
	assert.Equal(t, "bookings-20240601.csv", res.Filename)
	assert.Equal(t, "text/csv", res.ContentType)
	assert.Equal(t, models.Actor{ID: "t1", Kind: models.KindTeacher}, lister.actor)

	lines := strings.Split(strings.TrimSpace(string(res.Data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Date,Day,Start,End"))
	assert.Contains(t, lines[1], "Sam")
	assert.Contains(t, lines[1], "CONFIRMED")
}

func TestExportServiceXLSXAndPDF(t *testing.T) {
	svc := NewExportService(&stubBookingLister{items: []models.BookingDetail{sampleDetail()}}, nil)

	xlsx, err := svc.TeacherBookings(context.Background(), "t1", "xlsx")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(xlsx.Data), "PK"))

	pdf, err := svc.TeacherBookings(context.Background(), "t1", "pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf.Data), "%PDF"))
}

func TestExportServiceErrors(t *testing.T) {
	svc := NewExportService(&stubBookingLister{}, nil)
	_, err := svc.TeacherBookings(context.Background(), "t1", "docx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	svc = NewExportService(&stubBookingLister{err: errors.New("db down")}, nil)
	_, err = svc.TeacherBookings(context.Background(), "t1", "csv")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
