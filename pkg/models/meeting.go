package models

import "time"

type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "SCHEDULED"
	MeetingConfirmed MeetingStatus = "CONFIRMED"
	MeetingCancelled MeetingStatus = "CANCELLED"
	MeetingCompleted MeetingStatus = "COMPLETED"
	MeetingNoShow    MeetingStatus = "NO_SHOW"
)

type MeetingType string

const (
	MeetingVirtual  MeetingType = "VIRTUAL"
	MeetingInPerson MeetingType = "IN_PERSON"
	MeetingPhone    MeetingType = "PHONE"
)

type MeetingRequest struct {
	Title       string      `json:"title" validate:"required,max=255"`
	Description string      `json:"description" validate:"max=1000"`
	StartTime   time.Time   `json:"startTime" validate:"required"`
	EndTime     time.Time   `json:"endTime" validate:"required"`
	MeetingType MeetingType `json:"meetingType" validate:"omitempty,oneof=VIRTUAL IN_PERSON PHONE"`
	ProjectID   *int        `json:"projectId"`
}

type Meeting struct {
	ID             int           `json:"id" db:"id"`
	Title          string        `json:"title" db:"title"`
	Description    string        `json:"description" db:"description"`
	StartTime      time.Time     `json:"startTime" db:"start_at"`
	EndTime        time.Time     `json:"endTime" db:"end_at"`
	Client         int           `json:"client" db:"client_id"`
	TBBStaff       int           `json:"tbbStaff" db:"staff_id"`
	Project        *int          `json:"project,omitempty" db:"project_id"`
	Status         MeetingStatus `json:"status" db:"status"`
	MeetingType    MeetingType   `json:"meetingType" db:"meeting_type"`
	GoogleMeetLink string        `json:"googleMeetLink,omitempty" db:"google_meet_link"`
	GoogleEventID  string        `json:"googleEventId,omitempty" db:"google_event_id"`
	ReminderSent   bool          `json:"reminderSent" db:"reminder_sent"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at"`
}

// MeetingReminder is a join row used by the reminder worker.
type MeetingReminder struct {
	MeetingID   int       `db:"meeting_id"`
	Title       string    `db:"title"`
	StartTime   time.Time `db:"start_at"`
	ClientID    int       `db:"client_id"`
	ClientName  string    `db:"client_name"`
	ClientEmail string    `db:"client_email"`
	MeetLink    string    `db:"google_meet_link"`
}
