package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorconnect-api/internal/middleware"
	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/internal/service"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type bookingServiceMock struct {
	createReq    models.CreateBookingRequest
	createdBy    string
	cancelActor  models.Actor
	listStatuses []models.BookingStatus
	slotsDate    string
	err          error
}

func (m *bookingServiceMock) Create(ctx context.Context, studentID string, req models.CreateBookingRequest) (*models.BookingView, error) {
	m.createdBy, m.createReq = studentID, req
	if m.err != nil {
		return nil, m.err
	}
	return &models.BookingView{ID: "b1", Status: models.BookingPending}, nil
}

func (m *bookingServiceMock) Confirm(ctx context.Context, teacherID, bookingID string) (*models.BookingView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.BookingView{ID: bookingID, Status: models.BookingConfirmed}, nil
}

func (m *bookingServiceMock) Decline(ctx context.Context, teacherID, bookingID string) (*models.BookingView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.BookingView{ID: bookingID, Status: models.BookingDeclined}, nil
}

func (m *bookingServiceMock) Cancel(ctx context.Context, actor models.Actor, bookingID string) (*models.BookingView, error) {
	m.cancelActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &models.BookingView{ID: bookingID, Status: models.BookingCancelled}, nil
}

func (m *bookingServiceMock) Complete(ctx context.Context, actor models.Actor, bookingID string) (*models.BookingView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.BookingView{ID: bookingID, Status: models.BookingCompleted}, nil
}

func (m *bookingServiceMock) ListForTeacher(ctx context.Context, teacherID string, statuses ...models.BookingStatus) ([]models.BookingView, error) {
	m.listStatuses = statuses
	return []models.BookingView{{ID: "b1"}}, m.err
}

func (m *bookingServiceMock) ListForStudent(ctx context.Context, studentID string) ([]models.BookingView, error) {
	return []models.BookingView{}, m.err
}

func (m *bookingServiceMock) AvailableSlots(ctx context.Context, teacherID, date string) (*models.AvailableSlots, error) {
	m.slotsDate = date
	if m.err != nil {
		return nil, m.err
	}
	return &models.AvailableSlots{TeacherID: teacherID, Availability: []models.OpenWindow{}, Subjects: []string{"Math"}}, nil
}

type exporterMock struct{ format string }

func (m *exporterMock) TeacherBookings(ctx context.Context, teacherID, rawFormat string) (*service.ExportResult, error) {
	m.format = rawFormat
	return &service.ExportResult{Filename: "bookings-20240601.csv", ContentType: "text/csv", Data: []byte("Date\n")}, nil
}

func newBookingContext(method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

var (
	studentClaims = &models.JWTClaims{UserID: "s1", Kind: models.KindStudent}
	teacherClaims = &models.JWTClaims{UserID: "t1", Kind: models.KindTeacher}
	adminClaims   = &models.JWTClaims{UserID: "a1", Kind: models.KindAdmin}
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestBookingHandlerCreate(t *testing.T) {
	mockSvc := &bookingServiceMock{}
	h := NewBookingHandler(mockSvc, &exporterMock{})

	body, _ := json.Marshal(models.CreateBookingRequest{TeacherID: "t1", Subject: "Math", Date: "2024-06-03", StartTime: "10:00", EndTime: "11:00"})
	c, w := newBookingContext(http.MethodPost, "/student/bookings", body, studentClaims)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s1", mockSvc.createdBy)
	assert.Equal(t, "10:00", mockSvc.createReq.StartTime)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	h := NewBookingHandler(&bookingServiceMock{err: appErrors.ErrBookingConflict}, &exporterMock{})

	body, _ := json.Marshal(models.CreateBookingRequest{TeacherID: "t1"})
	c, w := newBookingContext(http.MethodPost, "/student/bookings", body, studentClaims)
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BOOKING_CONFLICT", decodeError(t, w))
}

func TestBookingHandlerCreateMalformedBody(t *testing.T) {
	h := NewBookingHandler(&bookingServiceMock{}, &exporterMock{})
	c, w := newBookingContext(http.MethodPost, "/student/bookings", []byte(`{"teacher_id":`), studentClaims)
	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeError(t, w))
}

func TestBookingHandlerRequiresClaims(t *testing.T) {
	h := NewBookingHandler(&bookingServiceMock{}, &exporterMock{})
	c, w := newBookingContext(http.MethodPatch, "/teacher/bookings/b1/confirm", nil, nil)
	h.Confirm(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandlerTransitionNotFound(t *testing.T) {
	h := NewBookingHandler(&bookingServiceMock{err: appErrors.ErrBookingNotFound}, &exporterMock{})
	c, w := newBookingContext(http.MethodPatch, "/teacher/bookings/b1/confirm", nil, teacherClaims)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	h.Confirm(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BOOKING_NOT_FOUND", decodeError(t, w))
}

func TestBookingHandlerCancelPassesActor(t *testing.T) {
	mockSvc := &bookingServiceMock{}
	h := NewBookingHandler(mockSvc, &exporterMock{})
	c, w := newBookingContext(http.MethodPatch, "/admin/bookings/b1/cancel", nil, adminClaims)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	h.Cancel(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Actor{ID: "a1", Kind: models.KindAdmin}, mockSvc.cancelActor)
}

func TestBookingHandlerDeclineReportsDeclined(t *testing.T) {
	h := NewBookingHandler(&bookingServiceMock{}, &exporterMock{})
	c, w := newBookingContext(http.MethodDelete, "/teacher/bookings/b1/decline", nil, teacherClaims)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	h.Decline(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"declined"`)
}

func TestBookingHandlerTeacherLists(t *testing.T) {
	mockSvc := &bookingServiceMock{}
	h := NewBookingHandler(mockSvc, &exporterMock{})

	c, w := newBookingContext(http.MethodGet, "/teacher/bookings/pending", nil, teacherClaims)
	h.PendingBookings(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.BookingStatus{models.BookingPending}, mockSvc.listStatuses)

	c, w = newBookingContext(http.MethodGet, "/teacher/bookings", nil, teacherClaims)
	h.TeacherBookings(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.BookingStatus{models.BookingConfirmed}, mockSvc.listStatuses)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestBookingHandlerAvailableSlots(t *testing.T) {
	mockSvc := &bookingServiceMock{}
	h := NewBookingHandler(mockSvc, &exporterMock{})
	c, w := newBookingContext(http.MethodGet, "/teachers/t1/slots?date=2024-06-03", nil, studentClaims)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	h.AvailableSlots(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06-03", mockSvc.slotsDate)
	assert.Contains(t, w.Body.String(), `"subjects":["Math"]`)
}

func TestBookingHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	h := NewBookingHandler(&bookingServiceMock{}, exporter)
	c, w := newBookingContext(http.MethodGet, "/teacher/bookings/export", nil, teacherClaims)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bookings-20240601.csv")
}
