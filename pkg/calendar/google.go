package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/noah-isme/tutorconnect-api/pkg/config"
)

// ErrNoMeetingLink is returned when the provider accepted the event but did not
// attach a conference link. Callers treat it like any other failed attempt.
var ErrNoMeetingLink = errors.New("calendar event created without meeting link")

var scopes = []string{gcal.CalendarScope, gcal.CalendarEventsScope}

// EventRequest describes a meeting to create.
type EventRequest struct {
	RequestID   string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// Event is the provider's view of a created meeting.
type Event struct {
	ID          string
	MeetingLink string
}

// GoogleClient creates and deletes Google Calendar events with Meet
// conferencing using one delegated credential.
type GoogleClient struct {
	events     *gcal.EventsService
	calendarID string
}

// OAuthConfig builds the OAuth2 client configuration for the calendar scopes.
func OAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

// ConsentURL returns the offline consent URL used once to obtain a refresh token.
func ConsentURL(cfg config.GoogleConfig, state string) string {
	return OAuthConfig(cfg).AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades an authorization code for a token carrying the refresh token.
func ExchangeCode(ctx context.Context, cfg config.GoogleConfig, code string) (*oauth2.Token, error) {
	tok, err := OAuthConfig(cfg).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return nil, errors.New("no refresh token returned; revoke prior consent and retry")
	}
	return tok, nil
}

// NewGoogleClient constructs a client from the refresh token configured out of
// band. Access tokens are refreshed on demand by the token source.
func NewGoogleClient(ctx context.Context, cfg config.GoogleConfig) (*GoogleClient, error) {
	if !cfg.Enabled() {
		return nil, errors.New("google calendar credentials not configured")
	}

	ts := OAuthConfig(cfg).TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return newGoogleClient(ctx, cfg.CalendarID, option.WithTokenSource(oauth2.ReuseTokenSource(nil, ts)))
}

func newGoogleClient(ctx context.Context, calendarID string, opts ...option.ClientOption) (*GoogleClient, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleClient{events: svc.Events, calendarID: calendarID}, nil
}

// CreateMeeting inserts an event with a Meet conference and returns its link.
func (g *GoogleClient) CreateMeeting(ctx context.Context, req EventRequest) (*Event, error) {
	attendees := make([]*gcal.EventAttendee, 0, len(req.Attendees))
	for _, email := range req.Attendees {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}

	ev := &gcal.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       &gcal.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: req.Start.Location().String()},
		End:         &gcal.EventDateTime{DateTime: req.End.Format(time.RFC3339), TimeZone: req.End.Location().String()},
		Attendees:   attendees,
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             req.RequestID,
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	created, err := g.events.Insert(g.calendarID, ev).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}
	if created.HangoutLink == "" {
		// the event is useless without a link; drop it so a retry starts clean
		if derr := g.DeleteEvent(ctx, created.Id); derr != nil {
			return nil, fmt.Errorf("%w (cleanup: %v)", ErrNoMeetingLink, derr)
		}
		return nil, ErrNoMeetingLink
	}
	return &Event{ID: created.Id, MeetingLink: created.HangoutLink}, nil
}

// DeleteEvent removes an event. An event that is already gone counts as deleted.
func (g *GoogleClient) DeleteEvent(ctx context.Context, eventID string) error {
	err := g.events.Delete(g.calendarID, eventID).SendUpdates("all").Context(ctx).Do()
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusGone || apiErr.Code == http.StatusNotFound) {
		return nil
	}
	return fmt.Errorf("delete calendar event: %w", err)
}
