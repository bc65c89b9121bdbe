// Package google speaks the three Calendar API wire formats the portal needs:
// OAuth token refresh, freeBusy queries and event insertion with a Meet link.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tbb-digital/portal/pkg/metrics"
	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/schedule"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultAPIBase  = "https://www.googleapis.com/calendar/v3"

	// DefaultCalendarID is used when the admin never picked a calendar.
	DefaultCalendarID = "primary"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// TokenURL and APIBase exist so tests can point the client at a fake.
	TokenURL string
	APIBase  string
}

type Client struct {
	log    *logrus.Entry
	http   *http.Client
	config Config
}

func New(log *logrus.Logger, config Config) *Client {
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	if config.APIBase == "" {
		config.APIBase = defaultAPIBase
	}
	return &Client{
		log:    log.WithField("component", "google"),
		http:   &http.Client{Timeout: 30 * time.Second},
		config: config,
	}
}

// RefreshAccessToken exchanges the long-lived refresh token for a fresh access
// token. Any non-2xx response means the stored credential is no longer usable
// and the admin must reconnect; the caller must not mutate the stored token in
// that case.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, time.Duration, error) {
	form := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("err building refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req, "refresh_token")
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	defer c.closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		c.log.Warnf("token refresh failed: %s", readError(resp))
		return "", 0, models.ErrReauthRequired
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("err decoding refresh response: %w", err)
	}
	return body.AccessToken, time.Duration(body.ExpiresIn) * time.Second, nil
}

// FreeBusy fetches the busy intervals for one calendar over [timeMin, timeMax).
// A 401 is terminal (reconnect required); other upstream failures are transient
// and safe for the caller to retry by resubmitting.
func (c *Client) FreeBusy(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]schedule.BusyInterval, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	payload := map[string]interface{}{
		"timeMin": timeMin.UTC().Format(time.RFC3339),
		"timeMax": timeMax.UTC().Format(time.RFC3339),
		"items":   []map[string]string{{"id": calendarID}},
	}
	resp, err := c.postJSON(ctx, accessToken, c.config.APIBase+"/freeBusy", payload, "freebusy")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	defer c.closeBody(resp)
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Warnf("freebusy unauthorized: %s", readError(resp))
		return nil, models.ErrReauthRequired
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: freebusy returned %d", models.ErrProviderUnavailable, resp.StatusCode)
	}
	var body struct {
		Calendars map[string]struct {
			Busy []struct {
				Start time.Time `json:"start"`
				End   time.Time `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("err decoding freebusy response: %w", err)
	}
	busy := make([]schedule.BusyInterval, 0)
	for _, b := range body.Calendars[calendarID].Busy {
		busy = append(busy, schedule.BusyInterval{Start: b.Start, End: b.End})
	}
	return busy, nil
}

type Attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// EventRequest is the payload for event insertion. RequestID keys the Meet
// conference creation so a resubmitted insert is idempotent at the provider.
type EventRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []Attendee
	RequestID   string
}

// Event is the subset of the created event the portal cares about.
type Event struct {
	ID       string
	MeetLink string
}

// InsertEvent creates the calendar event with a Meet conference attached.
// The returned MeetLink may be empty: a missing video entry point is tolerated,
// the meeting still exists.
func (c *Client) InsertEvent(ctx context.Context, accessToken, calendarID string, event EventRequest) (Event, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	payload := map[string]interface{}{
		"summary":     event.Summary,
		"description": event.Description,
		"start": map[string]string{
			"dateTime": event.Start.UTC().Format(time.RFC3339),
			"timeZone": "UTC",
		},
		"end": map[string]string{
			"dateTime": event.End.UTC().Format(time.RFC3339),
			"timeZone": "UTC",
		},
		"attendees": event.Attendees,
		"conferenceData": map[string]interface{}{
			"createRequest": map[string]interface{}{
				"requestId":            event.RequestID,
				"conferenceSolutionKey": map[string]string{"type": "hangoutsMeet"},
			},
		},
	}
	endpoint := fmt.Sprintf("%s/calendars/%s/events?conferenceDataVersion=1", c.config.APIBase, url.PathEscape(calendarID))
	resp, err := c.postJSON(ctx, accessToken, endpoint, payload, "insert_event")
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	defer c.closeBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warnf("event insert failed (%d): %s", resp.StatusCode, readError(resp))
		return Event{}, fmt.Errorf("%w: event insert returned %d", models.ErrProviderUnavailable, resp.StatusCode)
	}
	var body struct {
		ID             string `json:"id"`
		ConferenceData struct {
			EntryPoints []struct {
				EntryPointType string `json:"entryPointType"`
				URI            string `json:"uri"`
			} `json:"entryPoints"`
		} `json:"conferenceData"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Event{}, fmt.Errorf("err decoding event response: %w", err)
	}
	created := Event{ID: body.ID}
	for _, entry := range body.ConferenceData.EntryPoints {
		if entry.EntryPointType == "video" {
			created.MeetLink = entry.URI
			break
		}
	}
	return created, nil
}

// PrimaryCalendarID resolves the connected account's primary calendar id,
// falling back to "primary" when the lookup fails.
func (c *Client) PrimaryCalendarID(ctx context.Context, accessToken string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIBase+"/calendars/primary", nil)
	if err != nil {
		return DefaultCalendarID
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := c.do(req, "get_calendar")
	if err != nil {
		return DefaultCalendarID
	}
	defer c.closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return DefaultCalendarID
	}
	var body struct {
		ID string `json:"id"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil || body.ID == "" {
		return DefaultCalendarID
	}
	return body.ID
}

func (c *Client) postJSON(ctx context.Context, accessToken, endpoint string, payload interface{}, method string) (*http.Response, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("err encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, buf)
	if err != nil {
		return nil, fmt.Errorf("err building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GoogleDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GoogleErrCount.WithLabelValues(method).Inc()
		return nil, err
	}
	if resp.StatusCode >= 500 {
		metrics.GoogleErrCount.WithLabelValues(method).Inc()
	}
	return resp, nil
}

func (c *Client) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.log.Warnf("err closing response body: %v", err)
	}
}

func readError(resp *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err != nil {
		return ""
	}
	return string(b)
}
