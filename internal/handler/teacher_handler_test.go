package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type teacherServiceMock struct {
	removeErr error
}

func (m *teacherServiceMock) Profile(ctx context.Context, id string) (*models.TeacherProfile, error) {
	return &models.TeacherProfile{ID: id, Subjects: []string{"Math"}}, nil
}

func (m *teacherServiceMock) UpdateProfile(ctx context.Context, id string, req models.UpdateTeacherProfileRequest) (*models.Teacher, error) {
	return &models.Teacher{ID: id}, nil
}

func (m *teacherServiceMock) AddSubjects(ctx context.Context, id string, req models.AddSubjectsRequest) ([]string, error) {
	return append([]string{"Math"}, req.Subjects...), nil
}

func (m *teacherServiceMock) RemoveSubject(ctx context.Context, id string, req models.RemoveSubjectRequest) ([]string, error) {
	if m.removeErr != nil {
		return nil, m.removeErr
	}
	return []string{}, nil
}

type availabilityServiceMock struct {
	added   models.AvailabilityRequest
	addErr  error
	removed bool
}

func (m *availabilityServiceMock) List(ctx context.Context, teacherID string) ([]models.Availability, error) {
	return []models.Availability{}, nil
}

func (m *availabilityServiceMock) Add(ctx context.Context, teacherID string, req models.AvailabilityRequest) (*models.Availability, error) {
	m.added = req
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &models.Availability{ID: "av1", Date: req.Date, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (m *availabilityServiceMock) Remove(ctx context.Context, teacherID string, req models.AvailabilityRequest) error {
	m.removed = true
	return nil
}

func TestTeacherHandlerAddSubjects(t *testing.T) {
	h := NewTeacherHandler(&teacherServiceMock{}, &availabilityServiceMock{})
	c, w := newBookingContext(http.MethodPost, "/teacher/subjects", []byte(`{"subjects":["Physics"]}`), teacherClaims)
	h.AddSubjects(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"subjects":["Math","Physics"]}}`, w.Body.String())
}

func TestTeacherHandlerRemoveSubjectNotTaught(t *testing.T) {
	h := NewTeacherHandler(&teacherServiceMock{removeErr: appErrors.Clone(appErrors.ErrValidation, "subject not taught")}, &availabilityServiceMock{})
	c, w := newBookingContext(http.MethodDelete, "/teacher/subjects", []byte(`{"subject":"Art"}`), teacherClaims)
	h.RemoveSubject(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTeacherHandlerAvailabilityLifecycle(t *testing.T) {
	avail := &availabilityServiceMock{}
	h := NewTeacherHandler(&teacherServiceMock{}, avail)
	payload := []byte(`{"date":"2024-06-03","start_time":"09:00","end_time":"12:00"}`)

	c, w := newBookingContext(http.MethodPost, "/teacher/availability", payload, teacherClaims)
	h.AddAvailability(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "09:00", avail.added.StartTime)

	c, w = newBookingContext(http.MethodDelete, "/teacher/availability", payload, teacherClaims)
	h.RemoveAvailability(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, avail.removed)
}

func TestTeacherHandlerAvailabilityOverlap(t *testing.T) {
	h := NewTeacherHandler(&teacherServiceMock{}, &availabilityServiceMock{addErr: appErrors.Clone(appErrors.ErrBookingConflict, "availability overlaps an existing slot")})
	c, w := newBookingContext(http.MethodPost, "/teacher/availability", []byte(`{"date":"2024-06-03","start_time":"09:00","end_time":"12:00"}`), teacherClaims)
	h.AddAvailability(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
