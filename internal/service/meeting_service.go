package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutorconnect-api/pkg/calendar"
)

// MeetingProvider creates and deletes hosted video meetings.
type MeetingProvider interface {
	CreateMeeting(ctx context.Context, req calendar.EventRequest) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// ErrMeetingUnavailable is returned by Provision when every attempt failed or no
// provider is configured.
var ErrMeetingUnavailable = errors.New("meeting could not be provisioned")

// MeetingConfig tunes the provisioning retry loop.
type MeetingConfig struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
}

// MeetingRequest describes the session a meeting is provisioned for.
type MeetingRequest struct {
	BookingID   string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// MeetingService wraps a MeetingProvider with a bounded, fixed-delay retry policy.
type MeetingService struct {
	provider MeetingProvider
	config   MeetingConfig
	metrics  *MetricsService
	logger   *zap.Logger
	sleep    func(context.Context, time.Duration) error
}

// NewMeetingService constructs a MeetingService. A nil provider disables
// provisioning; Provision then always reports ErrMeetingUnavailable.
func NewMeetingService(provider MeetingProvider, cfg MeetingConfig, metrics *MetricsService, logger *zap.Logger) *MeetingService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{provider: provider, config: cfg, metrics: metrics, logger: logger, sleep: sleepContext}
}

// Enabled reports whether a provider is configured.
func (s *MeetingService) Enabled() bool {
	return s != nil && s.provider != nil
}

// Provision creates a meeting, retrying failed attempts after a fixed delay. At
// most one attempt succeeds; exhausting the attempts returns an error wrapping
// ErrMeetingUnavailable and the last provider error.
func (s *MeetingService) Provision(ctx context.Context, req MeetingRequest) (*calendar.Event, error) {
	if !s.Enabled() {
		return nil, ErrMeetingUnavailable
	}

	started := time.Now()
	var lastErr error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.config.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}

		event, err := s.attempt(ctx, req, attempt)
		s.metrics.RecordMeetingAttempt("create", err)
		if err == nil {
			s.metrics.ObserveMeetingProvision(time.Since(started), true)
			s.logger.Info("meeting provisioned",
				zap.String("booking_id", req.BookingID),
				zap.String("event_id", event.ID),
				zap.Int("attempt", attempt),
			)
			return event, nil
		}

		lastErr = err
		s.logger.Warn("meeting provisioning attempt failed",
			zap.String("booking_id", req.BookingID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.config.MaxAttempts),
			zap.Error(err),
		)
	}

	s.metrics.ObserveMeetingProvision(time.Since(started), false)
	return nil, fmt.Errorf("%w: %v", ErrMeetingUnavailable, lastErr)
}

func (s *MeetingService) attempt(ctx context.Context, req MeetingRequest, attempt int) (*calendar.Event, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.config.AttemptTimeout)
	defer cancel()

	return s.provider.CreateMeeting(attemptCtx, calendar.EventRequest{
		RequestID:   fmt.Sprintf("%s-%d", req.BookingID, attempt),
		Summary:     req.Summary,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
		Attendees:   req.Attendees,
	})
}

// Teardown deletes the meeting identified by eventID once. An empty id or a
// missing provider is a no-op.
func (s *MeetingService) Teardown(ctx context.Context, eventID string) error {
	if eventID == "" || !s.Enabled() {
		return nil
	}
	attemptCtx, cancel := context.WithTimeout(ctx, s.config.AttemptTimeout)
	defer cancel()

	err := s.provider.DeleteEvent(attemptCtx, eventID)
	s.metrics.RecordMeetingAttempt("delete", err)
	if err != nil {
		return fmt.Errorf("teardown meeting %s: %w", eventID, err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
