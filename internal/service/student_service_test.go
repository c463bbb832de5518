package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type mockStudentRepo struct {
	items map[string]*models.Student
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.items[student.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

type stubTeacherSearcher struct {
	result []models.Teacher
	err    error
	filter models.TeacherFilter
}

func (s *stubTeacherSearcher) Search(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error) {
	s.filter = filter
	return s.result, s.err
}

func TestStudentServiceUpdateProfile(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{"s1": {ID: "s1", Name: "Sam", PasswordHash: "old"}}}
	svc := NewStudentService(repo, &stubBookingLister{}, &stubTeacherSearcher{}, nil, nil)

	name, password := "Samuel", "new-password"
	student, err := svc.UpdateProfile(context.Background(), "s1", models.UpdateStudentProfileRequest{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Samuel", student.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.items["s1"].PasswordHash), []byte(password)))

	short := "123"
	_, err = svc.UpdateProfile(context.Background(), "s1", models.UpdateStudentProfileRequest{Password: &short})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateProfile(context.Background(), "ghost", models.UpdateStudentProfileRequest{Name: &name})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentServiceDashboard(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{"s1": {ID: "s1", Name: "Sam"}}}
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var details []models.BookingDetail
	for i := 0; i < 7; i++ {
		d := sampleDetail()
		d.ID = string(rune('a' + i))
		d.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		details = append(details, d)
	}
	searcher := &stubTeacherSearcher{err: errors.New("db down")}
	svc := NewStudentService(repo, &stubBookingLister{items: details}, searcher, nil, nil)

	dash, err := svc.Dashboard(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, dash.RecentBookings, 5)
	assert.Equal(t, "g", dash.RecentBookings[0].ID)
	assert.NotNil(t, dash.SuggestedTutors)
	require.NotNil(t, searcher.filter.Verified)
	assert.True(t, *searcher.filter.Verified)
}
