package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/internal/repository"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type teacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Search(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error)
	UpdateProfile(ctx context.Context, teacher *models.Teacher) error
	AddSubjects(ctx context.Context, id string, subjects []string) ([]string, error)
	RemoveSubject(ctx context.Context, id, subject string) ([]string, error)
}

type availabilityLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Availability, error)
}

// TeacherService orchestrates teacher profile operations.
type TeacherService struct {
	repo         teacherRepository
	availability availabilityLister
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, availability availabilityLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = models.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, availability: availability, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// Search lists teachers visible to students.
func (s *TeacherService) Search(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error) {
	filter.Subject = strings.TrimSpace(filter.Subject)
	filter.Name = strings.TrimSpace(filter.Name)
	teachers, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, nil
}

// Profile returns the teacher's own profile including availability and
// verification status.
func (s *TeacherService) Profile(ctx context.Context, id string) (*models.TeacherProfile, error) {
	teacher, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	slots, err := s.availability.ListByTeacher(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	if slots == nil {
		slots = []models.Availability{}
	}
	return &models.TeacherProfile{
		ID:           teacher.ID,
		Name:         teacher.Name,
		Email:        teacher.Email,
		Bio:          teacher.Bio,
		Subjects:     nonNilStrings(teacher.Subjects),
		HourlyRate:   teacher.HourlyRate,
		Availability: slots,
		Verified:     teacher.Verified,
		Verification: teacher.Verification(s.now()),
	}, nil
}

// UpdateProfile edits name, bio and hourly rate.
func (s *TeacherService) UpdateProfile(ctx context.Context, id string, req models.UpdateTeacherProfileRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	teacher, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		teacher.Name = strings.TrimSpace(*req.Name)
	}
	if req.Bio != nil {
		teacher.Bio = *req.Bio
	}
	if req.HourlyRate != nil {
		teacher.HourlyRate = *req.HourlyRate
	}
	if err := s.repo.UpdateProfile(ctx, teacher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return teacher, nil
}

// AddSubjects adds subjects to the teacher's list, ignoring ones already taught.
func (s *TeacherService) AddSubjects(ctx context.Context, id string, req models.AddSubjectsRequest) ([]string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subjects payload")
	}
	cleaned := make([]string, 0, len(req.Subjects))
	for _, subject := range req.Subjects {
		if trimmed := strings.TrimSpace(subject); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	subjects, err := s.repo.AddSubjects(ctx, id, cleaned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add subjects")
	}
	s.cache.Invalidate(ctx, repository.SlotsPattern(id))
	return nonNilStrings(subjects), nil
}

// RemoveSubject removes one subject. Removing a subject the teacher does not
// teach is a validation error.
func (s *TeacherService) RemoveSubject(ctx context.Context, id string, req models.RemoveSubjectRequest) ([]string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subjects, err := s.repo.RemoveSubject(ctx, id, strings.TrimSpace(req.Subject))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject not found in teacher's list")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove subject")
	}
	s.cache.Invalidate(ctx, repository.SlotsPattern(id))
	return nonNilStrings(subjects), nil
}

func (s *TeacherService) find(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
