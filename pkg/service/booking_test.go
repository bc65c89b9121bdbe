package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tbb-digital/portal/internal/google"
	"github.com/tbb-digital/portal/pkg/logger"
	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/pgstore"
	"github.com/tbb-digital/portal/pkg/schedule"
)

var testNow = time.Date(2024, time.January, 8, 8, 0, 0, 0, time.UTC)

type fakeStore struct {
	Store

	users        map[int]models.User
	admin        models.User
	adminErr     error
	meetings     []models.Meeting
	meetingErr   error
	tokenWrites  int
	savedToken   string
	savedExpiry  time.Time
	getUserCalls int
}

func (f *fakeStore) GetUser(_ context.Context, id int) (models.User, error) {
	f.getUserCalls++
	user, ok := f.users[id]
	if !ok {
		return models.User{}, errors.New("user not found")
	}
	return user, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, pgstore.ErrUserNotFound
}

func (f *fakeStore) GetCalendarOwner(context.Context) (models.User, error) {
	return f.admin, f.adminErr
}

func (f *fakeStore) UpdateCalendarToken(_ context.Context, _ int, accessToken string, expiry time.Time) error {
	f.tokenWrites++
	f.savedToken = accessToken
	f.savedExpiry = expiry
	return nil
}

func (f *fakeStore) CreateMeeting(_ context.Context, meeting models.Meeting) (models.Meeting, error) {
	if f.meetingErr != nil {
		return models.Meeting{}, f.meetingErr
	}
	meeting.ID = len(f.meetings) + 1
	meeting.CreatedAt = testNow
	meeting.UpdatedAt = testNow
	f.meetings = append(f.meetings, meeting)
	return meeting, nil
}

func (f *fakeStore) GetMeeting(_ context.Context, id int) (models.Meeting, error) {
	for _, m := range f.meetings {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Meeting{}, pgstore.ErrMeetingNotFound
}

type fakeCalendar struct {
	refreshCalls  int
	refreshToken  string
	refreshErr    error
	busy          []schedule.BusyInterval
	busyErr       error
	insertCalls   int
	lastEvent     google.EventRequest
	insertErr     error
	insertedEvent google.Event
}

func (f *fakeCalendar) RefreshAccessToken(_ context.Context, _ string) (string, time.Duration, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", 0, f.refreshErr
	}
	return f.refreshToken, time.Hour, nil
}

func (f *fakeCalendar) FreeBusy(_ context.Context, _, _ string, _, _ time.Time) ([]schedule.BusyInterval, error) {
	return f.busy, f.busyErr
}

func (f *fakeCalendar) InsertEvent(_ context.Context, _, _ string, event google.EventRequest) (google.Event, error) {
	f.insertCalls++
	f.lastEvent = event
	if f.insertErr != nil {
		return google.Event{}, f.insertErr
	}
	return f.insertedEvent, nil
}

func (f *fakeCalendar) PrimaryCalendarID(context.Context, string) string { return "primary" }
func (f *fakeCalendar) AuthCodeURL(string) string                        { return "https://example.com/consent" }
func (f *fakeCalendar) Exchange(context.Context, string) (*oauth2.Token, error) {
	return nil, errors.New("not implemented")
}

type fakeNotifier struct {
	invitations int
	err         error
}

func (f *fakeNotifier) MeetingInvitation(context.Context, string, string, models.Meeting) error {
	f.invitations++
	return f.err
}

func (f *fakeNotifier) PortalInvitation(context.Context, string, string, string) error {
	return f.err
}

func connectedAdmin(expiry time.Time) models.User {
	return models.User{
		ID:    1,
		Name:  "Admin",
		Email: "admin@tbb.digital",
		Role:  models.RoleAdmin,
		CalendarCredential: models.CalendarCredential{
			AccessToken:  "stored-token",
			RefreshToken: "stored-refresh",
			TokenExpiry:  &expiry,
			CalendarID:   "primary",
		},
	}
}

func newTestService(store *fakeStore, calendar *fakeCalendar, notify *fakeNotifier) *PortalService {
	s := New(logger.New(), store, calendar, notify, "test-secret")
	s.now = func() time.Time { return testNow }
	return s
}

func TestEnsureAccessToken_FreshTokenMakesNoCalls(t *testing.T) {
	store := &fakeStore{admin: connectedAdmin(testNow.Add(time.Hour))}
	calendar := &fakeCalendar{}
	s := newTestService(store, calendar, &fakeNotifier{})

	token, err := s.ensureAccessToken(context.Background(), store.admin)
	require.NoError(t, err)
	assert.Equal(t, "stored-token", token)
	assert.Zero(t, calendar.refreshCalls)
	assert.Zero(t, store.tokenWrites)
}

func TestEnsureAccessToken_RefreshPersistsNewToken(t *testing.T) {
	expired := connectedAdmin(testNow.Add(-time.Minute))
	store := &fakeStore{admin: expired}
	calendar := &fakeCalendar{refreshToken: "renewed-token"}
	s := newTestService(store, calendar, &fakeNotifier{})

	token, err := s.ensureAccessToken(context.Background(), expired)
	require.NoError(t, err)
	assert.Equal(t, "renewed-token", token)
	assert.Equal(t, 1, calendar.refreshCalls)
	assert.Equal(t, 1, store.tokenWrites)
	assert.Equal(t, "renewed-token", store.savedToken)
	assert.True(t, store.savedExpiry.After(*expired.TokenExpiry))
	assert.Equal(t, testNow.Add(time.Hour), store.savedExpiry)
}

func TestEnsureAccessToken_MissingRefreshTokenIsTerminal(t *testing.T) {
	admin := connectedAdmin(testNow.Add(-time.Minute))
	admin.RefreshToken = ""
	store := &fakeStore{admin: admin}
	calendar := &fakeCalendar{}
	s := newTestService(store, calendar, &fakeNotifier{})

	_, err := s.ensureAccessToken(context.Background(), admin)
	require.ErrorIs(t, err, models.ErrReauthRequired)
	assert.Zero(t, calendar.refreshCalls)
	assert.Zero(t, store.tokenWrites)
}

func TestEnsureAccessToken_RefreshFailureDoesNotPersist(t *testing.T) {
	admin := connectedAdmin(testNow.Add(-time.Minute))
	store := &fakeStore{admin: admin}
	calendar := &fakeCalendar{refreshErr: models.ErrReauthRequired}
	s := newTestService(store, calendar, &fakeNotifier{})

	_, err := s.ensureAccessToken(context.Background(), admin)
	require.ErrorIs(t, err, models.ErrReauthRequired)
	assert.Zero(t, store.tokenWrites)
}

func validBooking() models.MeetingRequest {
	return models.MeetingRequest{
		Title:     "Kickoff",
		StartTime: testNow.Add(2 * time.Hour),
		EndTime:   testNow.Add(2*time.Hour + 30*time.Minute),
	}
}

func TestBookMeeting_RejectsBadInputBeforeAnyCall(t *testing.T) {
	store := &fakeStore{admin: connectedAdmin(testNow.Add(time.Hour))}
	calendar := &fakeCalendar{}
	s := newTestService(store, calendar, &fakeNotifier{})

	req := validBooking()
	req.EndTime = req.StartTime
	_, err := s.BookMeeting(context.Background(), 2, req)
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, store.getUserCalls)
	assert.Zero(t, calendar.insertCalls)

	req = validBooking()
	req.Title = ""
	_, err = s.BookMeeting(context.Background(), 2, req)
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, calendar.insertCalls)
}

func TestBookMeeting_ProviderFailureLeavesNoLocalRecord(t *testing.T) {
	store := &fakeStore{
		admin: connectedAdmin(testNow.Add(time.Hour)),
		users: map[int]models.User{2: {ID: 2, Name: "Client", Email: "client@example.com", Role: models.RoleClient}},
	}
	calendar := &fakeCalendar{insertErr: models.ErrProviderUnavailable}
	s := newTestService(store, calendar, &fakeNotifier{})

	_, err := s.BookMeeting(context.Background(), 2, validBooking())
	require.ErrorIs(t, err, models.ErrProviderUnavailable)
	assert.Empty(t, store.meetings)
}

func TestBookMeeting_PersistFailureIsPersistenceError(t *testing.T) {
	store := &fakeStore{
		admin:      connectedAdmin(testNow.Add(time.Hour)),
		users:      map[int]models.User{2: {ID: 2, Name: "Client", Email: "client@example.com", Role: models.RoleClient}},
		meetingErr: errors.New("connection refused"),
	}
	calendar := &fakeCalendar{insertedEvent: google.Event{ID: "evt-1"}}
	s := newTestService(store, calendar, &fakeNotifier{})

	_, err := s.BookMeeting(context.Background(), 2, validBooking())
	require.ErrorIs(t, err, models.ErrPersistence)
	assert.Equal(t, 1, calendar.insertCalls)
}

func TestBookMeeting_Success(t *testing.T) {
	store := &fakeStore{
		admin: connectedAdmin(testNow.Add(time.Hour)),
		users: map[int]models.User{2: {ID: 2, Name: "Client", Email: "client@example.com", Role: models.RoleClient}},
	}
	calendar := &fakeCalendar{insertedEvent: google.Event{
		ID:       "evt-1",
		MeetLink: "https://meet.google.com/abc-defg-hij",
	}}
	notify := &fakeNotifier{}
	s := newTestService(store, calendar, notify)

	meeting, err := s.BookMeeting(context.Background(), 2, validBooking())
	require.NoError(t, err)
	assert.Equal(t, models.MeetingConfirmed, meeting.Status)
	assert.Equal(t, "evt-1", meeting.GoogleEventID)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", meeting.GoogleMeetLink)
	assert.Equal(t, models.MeetingVirtual, meeting.MeetingType)
	assert.Equal(t, 2, meeting.Client)
	assert.Equal(t, 1, meeting.TBBStaff)
	assert.Equal(t, 1, notify.invitations)

	// Conference request id is derived from booking time.
	assert.Equal(t, "meeting-1704700800000", calendar.lastEvent.RequestID)
	require.Len(t, calendar.lastEvent.Attendees, 2)
	assert.Equal(t, "client@example.com", calendar.lastEvent.Attendees[0].Email)
	assert.Equal(t, "admin@tbb.digital", calendar.lastEvent.Attendees[1].Email)
}

func TestBookMeeting_NotifierFailureDoesNotFailBooking(t *testing.T) {
	store := &fakeStore{
		admin: connectedAdmin(testNow.Add(time.Hour)),
		users: map[int]models.User{2: {ID: 2, Email: "client@example.com", Role: models.RoleClient}},
	}
	calendar := &fakeCalendar{insertedEvent: google.Event{ID: "evt-1"}}
	notify := &fakeNotifier{err: errors.New("smtp down")}
	s := newTestService(store, calendar, notify)

	meeting, err := s.BookMeeting(context.Background(), 2, validBooking())
	require.NoError(t, err)
	assert.Equal(t, models.MeetingConfirmed, meeting.Status)
}

func TestBookMeeting_CredentialInvalidIsNotRetried(t *testing.T) {
	admin := connectedAdmin(testNow.Add(-time.Minute))
	admin.RefreshToken = ""
	store := &fakeStore{
		admin: admin,
		users: map[int]models.User{2: {ID: 2, Email: "client@example.com", Role: models.RoleClient}},
	}
	calendar := &fakeCalendar{}
	s := newTestService(store, calendar, &fakeNotifier{})

	_, err := s.BookMeeting(context.Background(), 2, validBooking())
	require.ErrorIs(t, err, models.ErrReauthRequired)
	assert.Zero(t, calendar.insertCalls)
	assert.Empty(t, store.meetings)
}

func TestGetMeeting_ClientCannotReadOthersMeeting(t *testing.T) {
	store := &fakeStore{
		admin: connectedAdmin(testNow.Add(time.Hour)),
		users: map[int]models.User{
			1: connectedAdmin(testNow.Add(time.Hour)),
			2: {ID: 2, Email: "client@example.com", Role: models.RoleClient},
			3: {ID: 3, Email: "other@example.com", Role: models.RoleClient},
		},
	}
	calendar := &fakeCalendar{insertedEvent: google.Event{ID: "evt-1"}}
	s := newTestService(store, calendar, &fakeNotifier{})

	booked, err := s.BookMeeting(context.Background(), 2, validBooking())
	require.NoError(t, err)

	got, err := s.GetMeeting(context.Background(), 2, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, booked.ID, got.ID)

	_, err = s.GetMeeting(context.Background(), 3, booked.ID)
	require.ErrorIs(t, err, pgstore.ErrMeetingNotFound)

	_, err = s.GetMeeting(context.Background(), 1, booked.ID)
	require.NoError(t, err)
}

func TestAvailability(t *testing.T) {
	busyStart := time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{admin: connectedAdmin(testNow.Add(time.Hour))}
	calendar := &fakeCalendar{busy: []schedule.BusyInterval{{Start: busyStart, End: busyStart.Add(30 * time.Minute)}}}
	s := newTestService(store, calendar, &fakeNotifier{})

	availability, err := s.Availability(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, availability.AvailableSlots)
	assert.Equal(t, len(availability.AvailableSlots), availability.TotalSlots)
	assert.Equal(t, testNow, availability.DateRange.Start)
	assert.Equal(t, testNow.AddDate(0, 0, 7), availability.DateRange.End)
	for _, slot := range availability.AvailableSlots {
		assert.False(t, slot.Start.Equal(busyStart), "busy slot leaked into availability")
	}
}

func TestAvailability_NotConnected(t *testing.T) {
	store := &fakeStore{admin: models.User{ID: 1, Role: models.RoleAdmin}}
	s := newTestService(store, &fakeCalendar{}, &fakeNotifier{})

	_, err := s.Availability(context.Background())
	require.ErrorIs(t, err, models.ErrCalendarNotConnected)
}

func TestAvailability_ProviderFailurePropagates(t *testing.T) {
	store := &fakeStore{admin: connectedAdmin(testNow.Add(time.Hour))}
	calendar := &fakeCalendar{busyErr: models.ErrProviderUnavailable}
	s := newTestService(store, calendar, &fakeNotifier{})

	_, err := s.Availability(context.Background())
	require.ErrorIs(t, err, models.ErrProviderUnavailable)
}
