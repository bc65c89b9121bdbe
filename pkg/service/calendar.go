package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/schedule"
)

// Availability is the schedule picker payload: every open slot over the next
// seven days plus the window it was computed for.
type Availability struct {
	AvailableSlots []schedule.Slot `json:"availableSlots"`
	TotalSlots     int             `json:"totalSlots"`
	DateRange      DateRange       `json:"dateRange"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Availability computes bookable slots from the admin calendar's busy state.
// The free/busy snapshot is taken once per call; a slot can still be lost to a
// concurrent booking between this snapshot and the booking write.
func (s *PortalService) Availability(ctx context.Context) (Availability, error) {
	admin, err := s.store.GetCalendarOwner(ctx)
	if err != nil {
		return Availability{}, fmt.Errorf("err resolving calendar owner: %w", err)
	}
	if !admin.Connected() {
		return Availability{}, models.ErrCalendarNotConnected
	}
	accessToken, err := s.ensureAccessToken(ctx, admin)
	if err != nil {
		return Availability{}, err
	}

	now := s.now().UTC()
	rangeEnd := now.AddDate(0, 0, schedule.WindowDays)
	busy, err := s.calendar.FreeBusy(ctx, accessToken, admin.CalendarID, now, rangeEnd)
	if err != nil {
		return Availability{}, fmt.Errorf("err fetching free/busy: %w", err)
	}
	slots := schedule.Available(busy, now)
	return Availability{
		AvailableSlots: slots,
		TotalSlots:     len(slots),
		DateRange:      DateRange{Start: now, End: rangeEnd},
	}, nil
}

// ensureAccessToken returns a usable access token for the admin credential,
// refreshing and persisting it first when expired. A credential that cannot be
// refreshed is terminal: the admin must reconnect, nothing is retried and the
// stored last-known-good token is left untouched.
func (s *PortalService) ensureAccessToken(ctx context.Context, admin models.User) (string, error) {
	cred := admin.CalendarCredential
	if !cred.Expired(s.now()) {
		return cred.AccessToken, nil
	}
	if cred.RefreshToken == "" {
		return "", models.ErrReauthRequired
	}
	accessToken, expiresIn, err := s.calendar.RefreshAccessToken(ctx, cred.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("err refreshing access token: %w", err)
	}
	expiry := s.now().Add(expiresIn)
	if err = s.store.UpdateCalendarToken(ctx, admin.ID, accessToken, expiry); err != nil {
		return "", fmt.Errorf("err persisting refreshed token: %w", err)
	}
	s.log.Info("calendar access token refreshed")
	return accessToken, nil
}

// GoogleAuthURL starts the consent flow; the user id rides along as state so
// the callback knows whose credential to attach.
func (s *PortalService) GoogleAuthURL(userID int) string {
	return s.calendar.AuthCodeURL(strconv.Itoa(userID))
}

// ConnectCalendar finishes the consent flow: exchanges the code, discovers the
// primary calendar id and stores the full credential on the user record.
func (s *PortalService) ConnectCalendar(ctx context.Context, userID int, code string) error {
	token, err := s.calendar.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrReauthRequired, err)
	}
	if token.RefreshToken == "" {
		// Without a refresh token the credential dies with the first expiry.
		return models.ErrReauthRequired
	}
	calendarID := s.calendar.PrimaryCalendarID(ctx, token.AccessToken)
	expiry := token.Expiry
	cred := models.CalendarCredential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  &expiry,
		CalendarID:   calendarID,
	}
	if err = s.store.SaveCalendarCredential(ctx, userID, cred); err != nil {
		return fmt.Errorf("err saving calendar credential: %w", err)
	}
	s.log.Infof("calendar connected for user %d (calendar %s)", userID, calendarID)
	return nil
}
