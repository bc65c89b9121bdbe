package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbb-digital/portal/pkg/logger"
	"github.com/tbb-digital/portal/pkg/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(logger.New(), Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     server.URL + "/token",
		APIBase:      server.URL,
	})
}

func TestRefreshAccessToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "refresh-me", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fresh-token",
			"expires_in":   3600,
		})
	})

	token, expiresIn, err := client.RefreshAccessToken(context.Background(), "refresh-me")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, time.Hour, expiresIn)
}

func TestRefreshAccessToken_NonOKIsReauth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})

	_, _, err := client.RefreshAccessToken(context.Background(), "stale")
	require.ErrorIs(t, err, models.ErrReauthRequired)
}

func TestFreeBusy(t *testing.T) {
	timeMin := time.Date(2024, time.January, 8, 8, 0, 0, 0, time.UTC)
	timeMax := timeMin.AddDate(0, 0, 7)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/freeBusy", r.URL.Path)
		assert.Equal(t, "Bearer the-token", r.Header.Get("Authorization"))
		var body struct {
			TimeMin string              `json:"timeMin"`
			TimeMax string              `json:"timeMax"`
			Items   []map[string]string `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, timeMin.Format(time.RFC3339), body.TimeMin)
		assert.Equal(t, timeMax.Format(time.RFC3339), body.TimeMax)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "work@group.calendar.google.com", body.Items[0]["id"])
		_, _ = w.Write([]byte(`{
			"calendars": {
				"work@group.calendar.google.com": {
					"busy": [{"start": "2024-01-08T10:00:00Z", "end": "2024-01-08T10:30:00Z"}]
				}
			}
		}`))
	})

	busy, err := client.FreeBusy(context.Background(), "the-token", "work@group.calendar.google.com", timeMin, timeMax)
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC), busy[0].Start)
	assert.Equal(t, time.Date(2024, time.January, 8, 10, 30, 0, 0, time.UTC), busy[0].End)
}

func TestFreeBusy_DefaultsToPrimary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Items []map[string]string `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "primary", body.Items[0]["id"])
		_, _ = w.Write([]byte(`{"calendars": {"primary": {"busy": []}}}`))
	})

	busy, err := client.FreeBusy(context.Background(), "the-token", "", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, busy)
}

func TestFreeBusy_UnauthorizedIsTerminal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	})

	_, err := client.FreeBusy(context.Background(), "bad", "primary", time.Now(), time.Now().Add(time.Hour))
	require.ErrorIs(t, err, models.ErrReauthRequired)
}

func TestFreeBusy_ServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.FreeBusy(context.Background(), "ok", "primary", time.Now(), time.Now().Add(time.Hour))
	require.ErrorIs(t, err, models.ErrProviderUnavailable)
}

func TestInsertEvent(t *testing.T) {
	start := time.Date(2024, time.January, 8, 10, 30, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("conferenceDataVersion"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Kickoff", body["summary"])
		startBlock := body["start"].(map[string]interface{})
		assert.Equal(t, "2024-01-08T10:30:00Z", startBlock["dateTime"])
		assert.Equal(t, "UTC", startBlock["timeZone"])
		attendees := body["attendees"].([]interface{})
		require.Len(t, attendees, 2)
		conference := body["conferenceData"].(map[string]interface{})
		createReq := conference["createRequest"].(map[string]interface{})
		assert.Equal(t, "meeting-1704708000000", createReq["requestId"])

		_, _ = w.Write([]byte(`{
			"id": "evt-123",
			"conferenceData": {
				"entryPoints": [
					{"entryPointType": "phone", "uri": "tel:+1-555-0100"},
					{"entryPointType": "video", "uri": "https://meet.google.com/abc-defg-hij"}
				]
			}
		}`))
	})

	event, err := client.InsertEvent(context.Background(), "the-token", "", EventRequest{
		Summary:     "Kickoff",
		Description: "Project kickoff",
		Start:       start,
		End:         start.Add(30 * time.Minute),
		Attendees: []Attendee{
			{Email: "client@example.com", DisplayName: "Client"},
			{Email: "admin@tbb.digital", DisplayName: "Admin"},
		},
		RequestID: "meeting-1704708000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-123", event.ID)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", event.MeetLink)
}

func TestInsertEvent_MissingVideoEntryPointTolerated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "evt-456", "conferenceData": {"entryPoints": []}}`))
	})

	event, err := client.InsertEvent(context.Background(), "tok", "primary", EventRequest{RequestID: "meeting-1"})
	require.NoError(t, err)
	assert.Equal(t, "evt-456", event.ID)
	assert.Empty(t, event.MeetLink)
}

func TestInsertEvent_ProviderFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusForbidden)
	})

	_, err := client.InsertEvent(context.Background(), "tok", "primary", EventRequest{RequestID: "meeting-2"})
	require.ErrorIs(t, err, models.ErrProviderUnavailable)
}
