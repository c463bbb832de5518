package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/internal/repository"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type availabilityRepository interface {
	Create(ctx context.Context, slot *models.Availability) error
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Availability, error)
	ListByTeacherDate(ctx context.Context, teacherID, date string) ([]models.Availability, error)
	DeleteExact(ctx context.Context, teacherID, date, start, end string) (int64, error)
}

// AvailabilityService manages a teacher's open windows.
type AvailabilityService struct {
	repo      availabilityRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *AvailabilityService {
	if validate == nil {
		validate = models.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{repo: repo, cache: cache, validator: validate, logger: logger, loc: loc, now: time.Now}
}

// List returns every window of the teacher.
func (s *AvailabilityService) List(ctx context.Context, teacherID string) ([]models.Availability, error) {
	slots, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	if slots == nil {
		slots = []models.Availability{}
	}
	return slots, nil
}

// Add stores a window after rejecting overlaps with the teacher's windows on
// the same date.
func (s *AvailabilityService) Add(ctx context.Context, teacherID string, req models.AvailabilityRequest) (*models.Availability, error) {
	slot, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	if req.Date < s.now().In(s.loc).Format(models.DateLayout) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot add availability for past dates")
	}

	existing, err := s.repo.ListByTeacherDate(ctx, teacherID, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	for _, w := range existing {
		if slot.Overlaps(w.Slot()) {
			return nil, appErrors.Clone(appErrors.ErrBookingConflict, "availability overlaps an existing slot")
		}
	}

	day, err := models.DayOfWeek(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	window := &models.Availability{
		TeacherID: teacherID,
		Date:      req.Date,
		DayOfWeek: day,
		StartTime: slot.Start,
		EndTime:   slot.End,
	}
	if err := s.repo.Create(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add availability")
	}

	s.cache.Invalidate(ctx, repository.SlotsPattern(teacherID))
	s.logger.Info("availability added", zap.String("teacher_id", teacherID), zap.String("date", req.Date))
	return window, nil
}

// Remove deletes the window exactly matching the request.
func (s *AvailabilityService) Remove(ctx context.Context, teacherID string, req models.AvailabilityRequest) error {
	if _, err := s.validate(req); err != nil {
		return err
	}
	removed, err := s.repo.DeleteExact(ctx, teacherID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove availability")
	}
	if removed == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "availability slot not found")
	}
	s.cache.Invalidate(ctx, repository.SlotsPattern(teacherID))
	return nil
}

func (s *AvailabilityService) validate(req models.AvailabilityRequest) (models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.TimeSlot{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	slot := models.TimeSlot{Start: req.StartTime, End: req.EndTime}
	if !slot.Valid() {
		return models.TimeSlot{}, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	return slot, nil
}
