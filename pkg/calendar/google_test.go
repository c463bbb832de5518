package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/noah-isme/tutorconnect-api/pkg/config"
)

type fakeCalendarAPI struct {
	mu          sync.Mutex
	hangoutLink string
	deleteCode  int
	inserted    []map[string]interface{}
	deleted     []string
	queries     []string
}

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/calendars/team/events"):
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.inserted = append(f.inserted, body)
		f.queries = append(f.queries, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "evt-1", "hangoutLink": f.hangoutLink})
	case r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "/calendars/team/events/"):
		f.deleted = append(f.deleted, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		code := f.deleteCode
		if code == 0 {
			code = http.StatusNoContent
		}
		w.WriteHeader(code)
		if code >= 400 {
			fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, http.StatusText(code))
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, api *fakeCalendarAPI) *GoogleClient {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	client, err := newGoogleClient(context.Background(), "team",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client
}

func sampleEvent() EventRequest {
	start := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	return EventRequest{
		RequestID: "b1-1",
		Summary:   "Math session",
		Start:     start,
		End:       start.Add(time.Hour),
		Attendees: []string{"sam@example.com", "tina@example.com"},
	}
}

func TestCreateMeetingReturnsLink(t *testing.T) {
	api := &fakeCalendarAPI{hangoutLink: "https://meet.google.com/abc-defg-hij"}
	client := newTestClient(t, api)

	event, err := client.CreateMeeting(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", event.MeetingLink)

	require.Len(t, api.inserted, 1)
	assert.Contains(t, api.queries[0], "conferenceDataVersion=1")
	conference := api.inserted[0]["conferenceData"].(map[string]interface{})
	create := conference["createRequest"].(map[string]interface{})
	assert.Equal(t, "b1-1", create["requestId"])
	assert.Len(t, api.inserted[0]["attendees"], 2)
}

func TestCreateMeetingWithoutLinkRemovesEvent(t *testing.T) {
	api := &fakeCalendarAPI{}
	client := newTestClient(t, api)

	_, err := client.CreateMeeting(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, ErrNoMeetingLink)
	assert.Equal(t, []string{"evt-1"}, api.deleted)
}

func TestDeleteEventTreatsGoneAsDeleted(t *testing.T) {
	api := &fakeCalendarAPI{deleteCode: http.StatusGone}
	client := newTestClient(t, api)
	require.NoError(t, client.DeleteEvent(context.Background(), "evt-9"))

	api.deleteCode = http.StatusInternalServerError
	assert.Error(t, client.DeleteEvent(context.Background(), "evt-9"))
}

func TestConsentURLRequestsOfflineAccess(t *testing.T) {
	cfg := config.GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"}
	url := ConsentURL(cfg, "state-1")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "state=state-1")
	assert.Contains(t, url, "client_id=id")
}
