package service

import (
	"context"
	"fmt"

	"github.com/tbb-digital/portal/internal/google"
	"github.com/tbb-digital/portal/pkg/metrics"
	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/pgstore"
)

// BookMeeting runs the whole booking transaction:
//
//	validate -> resolve identities -> ensure token -> create remote event ->
//	persist meeting -> best-effort notify
//
// Nothing is retried internally; a transient provider failure is surfaced so
// the client can resubmit. There is no lock between the availability snapshot
// and the event creation, so two concurrent bookers can still take the same
// slot; that race is accepted here.
func (s *PortalService) BookMeeting(ctx context.Context, requesterID int, req models.MeetingRequest) (models.Meeting, error) {
	// Cheap rejection first, before any network round trip.
	if err := s.validate.Struct(req); err != nil {
		return models.Meeting{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if !req.EndTime.After(req.StartTime) {
		return models.Meeting{}, fmt.Errorf("%w: end time must be after start time", models.ErrValidation)
	}

	requester, err := s.store.GetUser(ctx, requesterID)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err resolving requester: %w", err)
	}
	admin, err := s.store.GetCalendarOwner(ctx)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err resolving calendar owner: %w", err)
	}
	if !admin.Connected() {
		return models.Meeting{}, models.ErrCalendarNotConnected
	}

	accessToken, err := s.ensureAccessToken(ctx, admin)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("credential_invalid").Inc()
		return models.Meeting{}, err
	}

	event, err := s.calendar.InsertEvent(ctx, accessToken, admin.CalendarID, google.EventRequest{
		Summary:     req.Title,
		Description: req.Description,
		Start:       req.StartTime,
		End:         req.EndTime,
		Attendees: []google.Attendee{
			{Email: requester.Email, DisplayName: requester.Name},
			{Email: admin.Email, DisplayName: admin.Name},
		},
		RequestID: fmt.Sprintf("meeting-%d", s.now().UnixMilli()),
	})
	if err != nil {
		// No remote event means no local record either; the booking simply
		// failed and can be resubmitted.
		metrics.BookingsTotal.WithLabelValues("provider_failed").Inc()
		return models.Meeting{}, fmt.Errorf("err creating calendar event: %w", err)
	}

	meetingType := req.MeetingType
	if meetingType == "" {
		meetingType = models.MeetingVirtual
	}
	meeting := models.Meeting{
		Title:          req.Title,
		Description:    req.Description,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Client:         requester.ID,
		TBBStaff:       admin.ID,
		Project:        req.ProjectID,
		Status:         models.MeetingConfirmed,
		MeetingType:    meetingType,
		GoogleMeetLink: event.MeetLink,
		GoogleEventID:  event.ID,
	}
	created, err := s.store.CreateMeeting(ctx, meeting)
	if err != nil {
		// The remote event already exists; log its id so the dangling entry
		// can be reconciled by hand.
		s.log.Errorf("meeting persist failed after event %s was created: %v", event.ID, err)
		metrics.BookingsTotal.WithLabelValues("persist_failed").Inc()
		return models.Meeting{}, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	if err = s.notifier.MeetingInvitation(ctx, requester.Email, requester.Name, created); err != nil {
		s.log.Warnf("err sending meeting invitation: %v", err)
	}
	metrics.BookingsTotal.WithLabelValues("confirmed").Inc()
	return created, nil
}

// GetMeeting returns one meeting. Clients and staff may only read meetings
// they are a party to; admins see everything.
func (s *PortalService) GetMeeting(ctx context.Context, userID, meetingID int) (models.Meeting, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err resolving user: %w", err)
	}
	meeting, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return models.Meeting{}, err
	}
	switch user.Role {
	case models.RoleClient:
		if meeting.Client != user.ID {
			return models.Meeting{}, pgstore.ErrMeetingNotFound
		}
	case models.RoleStaff:
		if meeting.TBBStaff != user.ID {
			return models.Meeting{}, pgstore.ErrMeetingNotFound
		}
	case models.RoleAdmin:
	}
	return meeting, nil
}

func (s *PortalService) MeetingsForUser(ctx context.Context, userID int) ([]models.Meeting, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("err resolving user: %w", err)
	}
	meetings, err := s.store.MeetingsForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("err getting meetings: %w", err)
	}
	return meetings, nil
}
