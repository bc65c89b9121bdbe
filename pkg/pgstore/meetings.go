package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbb-digital/portal/pkg/models"
)

const meetingColumns = `id, title, description, start_at, end_at, client_id, staff_id, project_id,
status, meeting_type, google_meet_link, google_event_id, reminder_sent, created_at, updated_at`

func (s *Store) CreateMeeting(ctx context.Context, meeting models.Meeting) (models.Meeting, error) {
	var created models.Meeting
	query := `
INSERT INTO meetings (title, description, start_at, end_at, client_id, staff_id, project_id,
                      status, meeting_type, google_meet_link, google_event_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + meetingColumns + `;`
	var err error
	done := s.observe("create_meeting")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.GetContext(ctx, &created, query,
			meeting.Title, meeting.Description, meeting.StartTime, meeting.EndTime,
			meeting.Client, meeting.TBBStaff, meeting.Project,
			meeting.Status, meeting.MeetingType, meeting.GoogleMeetLink, meeting.GoogleEventID); err != nil {
			continue
		}
		return created, nil
	}
	return models.Meeting{}, fmt.Errorf("err creating meeting: %w", err)
}

func (s *Store) GetMeeting(ctx context.Context, id int) (models.Meeting, error) {
	var meeting models.Meeting
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1;`
	var err error
	done := s.observe("get_meeting")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &meeting, query, id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Meeting{}, ErrMeetingNotFound
		case err != nil:
			continue
		}
		return meeting, nil
	}
	return models.Meeting{}, fmt.Errorf("err getting meeting %d: %w", id, err)
}

// MeetingsForUser filters by role: clients see their own meetings, staff see
// meetings assigned to them, admins see everything.
func (s *Store) MeetingsForUser(ctx context.Context, user models.User) ([]models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings`
	args := make([]interface{}, 0, 1)
	switch user.Role {
	case models.RoleClient:
		query += ` WHERE client_id = $1`
		args = append(args, user.ID)
	case models.RoleStaff:
		query += ` WHERE staff_id = $1`
		args = append(args, user.ID)
	case models.RoleAdmin:
	}
	query += ` ORDER BY start_at DESC;`
	var meetings []models.Meeting
	var err error
	done := s.observe("meetings_for_user")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.SelectContext(ctx, &meetings, query, args...); err != nil {
			continue
		}
		return meetings, nil
	}
	return nil, fmt.Errorf("err getting meetings for user %d: %w", user.ID, err)
}

// DueReminders returns upcoming unreminded meetings starting within the window.
func (s *Store) DueReminders(ctx context.Context, window string) ([]models.MeetingReminder, error) {
	query := `
SELECT m.id AS meeting_id, m.title, m.start_at, m.google_meet_link,
       u.id AS client_id, u.name AS client_name, u.email AS client_email
FROM meetings m
JOIN users u ON u.id = m.client_id
WHERE m.reminder_sent = FALSE
  AND m.status IN ('SCHEDULED', 'CONFIRMED')
  AND m.start_at > now()
  AND m.start_at <= now() + $1::interval;`
	var due []models.MeetingReminder
	var err error
	done := s.observe("due_reminders")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.SelectContext(ctx, &due, query, window); err != nil {
			continue
		}
		return due, nil
	}
	return nil, fmt.Errorf("err getting due reminders: %w", err)
}

func (s *Store) MarkReminderSent(ctx context.Context, meetingID int) error {
	query := `UPDATE meetings SET reminder_sent = TRUE, updated_at = now() WHERE id = $1;`
	var err error
	done := s.observe("mark_reminder_sent")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if _, err = s.db.ExecContext(ctx, query, meetingID); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("err marking reminder for meeting %d: %w", meetingID, err)
}
