package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	"github.com/noah-isme/tutorconnect-api/internal/repository"
	"github.com/noah-isme/tutorconnect-api/pkg/calendar"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
	"github.com/noah-isme/tutorconnect-api/pkg/observability"
)

type bookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	ListActiveByTeacherDate(ctx context.Context, teacherID, date string) ([]models.Booking, error)
	ListActiveByTeacherSince(ctx context.Context, teacherID, fromDate string) ([]models.Booking, error)
	FindForActor(ctx context.Context, id string, actor models.Actor, statuses []models.BookingStatus) (*models.BookingDetail, error)
	Transition(ctx context.Context, params repository.BookingTransitionParams) (*models.BookingDetail, error)
	DeletePending(ctx context.Context, id, teacherID string) (*models.Booking, error)
	ListForActor(ctx context.Context, actor models.Actor, statuses []models.BookingStatus) ([]models.BookingDetail, error)
}

type teacherDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type availabilityReader interface {
	ListByTeacherDate(ctx context.Context, teacherID, date string) ([]models.Availability, error)
	ListByTeacherSince(ctx context.Context, teacherID, fromDate string) ([]models.Availability, error)
}

type meetingProvisioner interface {
	Provision(ctx context.Context, req MeetingRequest) (*calendar.Event, error)
	Teardown(ctx context.Context, eventID string) error
}

type bookingNotifier interface {
	NotifyBookingConfirmed(detail models.BookingDetail)
	NotifyBookingCancelled(detail models.BookingDetail, by models.UserKind)
}

// BookingCollaborators are the side-effect dependencies of BookingService.
type BookingCollaborators struct {
	Meetings meetingProvisioner
	Notifier bookingNotifier
	Cache    *CacheService
	Metrics  *MetricsService
	Location *time.Location
}

// BookingService orchestrates the booking lifecycle.
type BookingService struct {
	repo         bookingRepository
	teachers     teacherDirectory
	availability availabilityReader
	conflicts    *ConflictChecker
	meetings     meetingProvisioner
	notifier     bookingNotifier
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	loc          *time.Location
	now          func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(repo bookingRepository, teachers teacherDirectory, availability availabilityReader, deps BookingCollaborators, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = models.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Meetings == nil {
		deps.Meetings = NewMeetingService(nil, MeetingConfig{}, deps.Metrics, logger)
	}
	if deps.Notifier == nil {
		deps.Notifier = NewNotificationService(nil, deps.Metrics, logger)
	}
	return &BookingService{
		repo:         repo,
		teachers:     teachers,
		availability: availability,
		conflicts:    NewConflictChecker(repo),
		meetings:     deps.Meetings,
		notifier:     deps.Notifier,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		validator:    validate,
		logger:       logger,
		loc:          deps.Location,
		now:          time.Now,
	}
}

func (s *BookingService) today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

// Create books a pending session for the student.
func (s *BookingService) Create(ctx context.Context, studentID string, req models.CreateBookingRequest) (*models.BookingView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	slot := models.TimeSlot{Start: req.StartTime, End: req.EndTime}
	if !slot.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	if req.Date < s.today() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot book for past dates")
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Banned {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	if !teacher.Teaches(req.Subject) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher does not teach this subject")
	}

	conflict, err := s.conflicts.HasConflict(ctx, teacher.ID, req.Date, slot, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check booking conflicts")
	}
	if conflict {
		s.metrics.RecordBookingTransition("create", "conflict")
		return nil, appErrors.ErrBookingConflict
	}

	day, err := models.DayOfWeek(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking date")
	}

	booking := &models.Booking{
		StudentID: studentID,
		TeacherID: teacher.ID,
		Subject:   req.Subject,
		Date:      req.Date,
		DayOfWeek: day,
		StartTime: slot.Start,
		EndTime:   slot.End,
		Status:    models.BookingPending,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.RecordBookingTransition("create", "conflict")
			return nil, appErrors.ErrBookingConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.cache.Invalidate(ctx, repository.SlotsPattern(teacher.ID))
	s.metrics.RecordBookingTransition("create", "ok")
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("student_id", studentID),
		zap.String("teacher_id", teacher.ID),
		zap.String("date", booking.Date),
	)

	view := models.BookingDetail{Booking: *booking, TeacherName: teacher.Name, TeacherEmail: teacher.Email}.View()
	return &view, nil
}

// Confirm moves a pending booking to confirmed. A meeting is provisioned first;
// failing to provision leaves the booking confirmed without a link.
func (s *BookingService) Confirm(ctx context.Context, teacherID, bookingID string) (*models.BookingView, error) {
	actor := models.Actor{ID: teacherID, Kind: models.KindTeacher}
	current, err := s.load(ctx, bookingID, actor, models.ActionConfirm)
	if err != nil {
		return nil, err
	}
	to, ok := models.NextStatus(current.Status, models.ActionConfirm)
	if !ok {
		return nil, s.notFound(models.ActionConfirm)
	}

	// provisioning retries outlive a client disconnect
	workCtx := context.WithoutCancel(ctx)

	var link, eventID *string
	if event := s.provision(workCtx, current); event != nil {
		link, eventID = &event.MeetingLink, &event.ID
	}

	updated, err := s.repo.Transition(workCtx, repository.BookingTransitionParams{
		ID:          bookingID,
		Actor:       actor,
		From:        current.Status,
		To:          to,
		MeetingLink: link,
		EventID:     eventID,
	})
	if err != nil {
		if eventID != nil {
			// the booking moved underneath us; drop the meeting we just created
			if terr := s.meetings.Teardown(workCtx, *eventID); terr != nil {
				s.logger.Warn("failed to remove meeting after lost confirm", zap.String("booking_id", bookingID), zap.Error(terr))
			}
		}
		return nil, s.transitionErr(models.ActionConfirm, err)
	}

	s.metrics.RecordBookingTransition(models.ActionConfirm, "ok")
	s.logger.Info("booking confirmed", zap.String("booking_id", bookingID), zap.Bool("meeting", link != nil))
	s.notifier.NotifyBookingConfirmed(*updated)

	view := updated.View()
	return &view, nil
}

func (s *BookingService) provision(ctx context.Context, detail *models.BookingDetail) *calendar.Event {
	start, err := detail.StartsAt(s.loc)
	if err != nil {
		s.logger.Warn("cannot schedule meeting", zap.String("booking_id", detail.ID), zap.Error(err))
		return nil
	}
	end, err := detail.EndsAt(s.loc)
	if err != nil {
		s.logger.Warn("cannot schedule meeting", zap.String("booking_id", detail.ID), zap.Error(err))
		return nil
	}

	event, err := s.meetings.Provision(ctx, MeetingRequest{
		BookingID:   detail.ID,
		Summary:     fmt.Sprintf("%s session: %s with %s", detail.Subject, detail.StudentName, detail.TeacherName),
		Description: fmt.Sprintf("Tutoring session booked on TutorConnect for %s.", detail.Subject),
		Start:       start,
		End:         end,
		Attendees:   []string{detail.StudentEmail, detail.TeacherEmail},
	})
	if err != nil {
		s.logger.Warn("confirming booking without meeting link", zap.String("booking_id", detail.ID), zap.Error(err))
		observability.CaptureWithTags(err, map[string]string{"booking_id": detail.ID, "operation": "provision"})
		return nil
	}
	return event
}

// Decline deletes a pending booking owned by the teacher.
func (s *BookingService) Decline(ctx context.Context, teacherID, bookingID string) (*models.BookingView, error) {
	deleted, err := s.repo.DeletePending(ctx, bookingID, teacherID)
	if err != nil {
		return nil, s.transitionErr(models.ActionDecline, err)
	}

	s.cache.Invalidate(ctx, repository.SlotsPattern(deleted.TeacherID))
	s.metrics.RecordBookingTransition(models.ActionDecline, "ok")
	s.logger.Info("booking declined", zap.String("booking_id", bookingID), zap.String("teacher_id", teacherID))

	to, _ := models.NextStatus(deleted.Status, models.ActionDecline)
	deleted.Status = to
	view := models.BookingDetail{Booking: *deleted}.View()
	return &view, nil
}

// Cancel cancels a pending or confirmed booking on behalf of actor. Students and
// teachers must be party to the booking; admins may cancel any booking.
func (s *BookingService) Cancel(ctx context.Context, actor models.Actor, bookingID string) (*models.BookingView, error) {
	current, err := s.load(ctx, bookingID, actor, models.ActionCancel)
	if err != nil {
		return nil, err
	}
	to, ok := models.NextStatus(current.Status, models.ActionCancel)
	if !ok {
		return nil, s.notFound(models.ActionCancel)
	}

	if current.Status == models.BookingConfirmed && current.EventID != nil {
		if err := s.meetings.Teardown(ctx, *current.EventID); err != nil {
			switch actor.Kind {
			case models.KindStudent:
				observability.CaptureWithTags(err, map[string]string{"booking_id": bookingID, "operation": "teardown"})
				s.metrics.RecordBookingTransition(models.ActionCancel, "error")
				return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to delete meeting")
			case models.KindTeacher, models.KindAdmin:
				s.logger.Warn("meeting teardown failed, cancelling anyway", zap.String("booking_id", bookingID), zap.Error(err))
			}
		}
	}

	updated, err := s.repo.Transition(ctx, repository.BookingTransitionParams{
		ID:    bookingID,
		Actor: actor,
		From:  current.Status,
		To:    to,
	})
	if err != nil {
		return nil, s.transitionErr(models.ActionCancel, err)
	}

	s.cache.Invalidate(ctx, repository.SlotsPattern(updated.TeacherID))
	s.metrics.RecordBookingTransition(models.ActionCancel, "ok")
	s.logger.Info("booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("by", string(actor.Kind)),
		zap.String("prior_status", string(current.Status)),
	)
	if current.Status == models.BookingConfirmed {
		s.notifier.NotifyBookingCancelled(*updated, actor.Kind)
	}

	view := updated.View()
	return &view, nil
}

// Complete marks a confirmed booking completed on behalf of the student or teacher.
func (s *BookingService) Complete(ctx context.Context, actor models.Actor, bookingID string) (*models.BookingView, error) {
	switch actor.Kind {
	case models.KindStudent, models.KindTeacher:
	case models.KindAdmin:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the student or teacher can complete a booking")
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}

	current, err := s.load(ctx, bookingID, actor, models.ActionComplete)
	if err != nil {
		return nil, err
	}
	to, ok := models.NextStatus(current.Status, models.ActionComplete)
	if !ok {
		return nil, s.notFound(models.ActionComplete)
	}

	if current.EventID != nil {
		if err := s.meetings.Teardown(ctx, *current.EventID); err != nil {
			s.logger.Warn("meeting teardown failed, completing anyway", zap.String("booking_id", bookingID), zap.Error(err))
		}
	}

	updated, err := s.repo.Transition(ctx, repository.BookingTransitionParams{
		ID:    bookingID,
		Actor: actor,
		From:  current.Status,
		To:    to,
	})
	if err != nil {
		return nil, s.transitionErr(models.ActionComplete, err)
	}

	s.cache.Invalidate(ctx, repository.SlotsPattern(updated.TeacherID))
	s.metrics.RecordBookingTransition(models.ActionComplete, "ok")
	s.logger.Info("booking completed", zap.String("booking_id", bookingID), zap.String("by", string(actor.Kind)))

	view := updated.View()
	return &view, nil
}

func (s *BookingService) load(ctx context.Context, bookingID string, actor models.Actor, action models.BookingAction) (*models.BookingDetail, error) {
	detail, err := s.repo.FindForActor(ctx, bookingID, actor, models.SourceStatuses(action))
	if err != nil {
		return nil, s.transitionErr(action, err)
	}
	return detail, nil
}

func (s *BookingService) transitionErr(action models.BookingAction, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return s.notFound(action)
	}
	s.metrics.RecordBookingTransition(action, "error")
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s booking", action))
}

func (s *BookingService) notFound(action models.BookingAction) error {
	s.metrics.RecordBookingTransition(action, "not_found")
	return appErrors.ErrBookingNotFound
}

// ListForTeacher returns the teacher's bookings in the given statuses.
func (s *BookingService) ListForTeacher(ctx context.Context, teacherID string, statuses ...models.BookingStatus) ([]models.BookingView, error) {
	return s.list(ctx, models.Actor{ID: teacherID, Kind: models.KindTeacher}, statuses)
}

// ListForStudent returns every booking of the student.
func (s *BookingService) ListForStudent(ctx context.Context, studentID string) ([]models.BookingView, error) {
	return s.list(ctx, models.Actor{ID: studentID, Kind: models.KindStudent}, nil)
}

func (s *BookingService) list(ctx context.Context, actor models.Actor, statuses []models.BookingStatus) ([]models.BookingView, error) {
	details, err := s.repo.ListForActor(ctx, actor, statuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	views := make([]models.BookingView, 0, len(details))
	for _, d := range details {
		v := d.View()
		// the caller already knows their own identity
		switch actor.Kind {
		case models.KindStudent:
			v.StudentName, v.StudentEmail = "", ""
		case models.KindTeacher:
			v.TeacherName, v.TeacherEmail = "", ""
		case models.KindAdmin:
		}
		views = append(views, v)
	}
	return views, nil
}

// AvailableSlots returns the teacher's open windows, optionally for one date.
func (s *BookingService) AvailableSlots(ctx context.Context, teacherID, date string) (*models.AvailableSlots, error) {
	if date != "" {
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
		}
	}

	key := repository.SlotsKey(teacherID, date)
	var cached models.AvailableSlots
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	today := s.today()
	var (
		windows  []models.Availability
		bookings []models.Booking
	)
	switch {
	case date == "":
		windows, err = s.availability.ListByTeacherSince(ctx, teacherID, today)
		if err == nil {
			bookings, err = s.repo.ListActiveByTeacherSince(ctx, teacherID, today)
		}
	case date >= today:
		windows, err = s.availability.ListByTeacherDate(ctx, teacherID, date)
		if err == nil {
			bookings, err = s.repo.ListActiveByTeacherDate(ctx, teacherID, date)
		}
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	subjects := []string(teacher.Subjects)
	if subjects == nil {
		subjects = []string{}
	}
	result := &models.AvailableSlots{
		TeacherID:    teacher.ID,
		Availability: OpenWindows(windows, bookings, today),
		Subjects:     subjects,
	}
	s.cache.Set(ctx, key, result)
	return result, nil
}
