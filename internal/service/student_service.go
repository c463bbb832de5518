package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

const dashboardItems = 5

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

type teacherSearcher interface {
	Search(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error)
}

// StudentService handles student self-service operations.
type StudentService struct {
	repo      studentRepository
	bookings  bookingLister
	teachers  teacherSearcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, bookings bookingLister, teachers teacherSearcher, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = models.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, bookings: bookings, teachers: teachers, validator: validate, logger: logger}
}

// Profile returns the student's account.
func (s *StudentService) Profile(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// UpdateProfile changes the student's name or password.
func (s *StudentService) UpdateProfile(ctx context.Context, id string, req models.UpdateStudentProfileRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	student, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		student.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return student, nil
}

// Dashboard returns the student's most recently created bookings and a few
// verified teachers.
func (s *StudentService) Dashboard(ctx context.Context, id string) (*models.StudentDashboard, error) {
	student, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := s.bookings.ListForActor(ctx, models.Actor{ID: id, Kind: models.KindStudent}, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}
	sort.SliceStable(details, func(i, j int) bool { return details[i].CreatedAt.After(details[j].CreatedAt) })
	if len(details) > dashboardItems {
		details = details[:dashboardItems]
	}
	recent := make([]models.BookingView, 0, len(details))
	for _, d := range details {
		recent = append(recent, d.View())
	}

	verified := true
	teachers, err := s.teachers.Search(ctx, models.TeacherFilter{Verified: &verified, Limit: dashboardItems})
	if err != nil {
		s.logger.Warn("dashboard teacher suggestions unavailable", zap.Error(err))
		teachers = nil
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}

	return &models.StudentDashboard{Student: *student, RecentBookings: recent, SuggestedTutors: teachers}, nil
}
