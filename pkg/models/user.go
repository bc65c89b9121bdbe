package models

import (
	"time"
)

// CalendarCredential is the OAuth state for the admin's Google Calendar,
// embedded on the user record. Tokens never leave the server.
// Invariant: when AccessToken is set, RefreshToken must be set too, otherwise
// the credential cannot be renewed without user interaction.
type CalendarCredential struct {
	AccessToken  string     `json:"-" db:"google_access_token"`
	RefreshToken string     `json:"-" db:"google_refresh_token"`
	TokenExpiry  *time.Time `json:"-" db:"google_token_expiry"`
	CalendarID   string     `json:"-" db:"google_calendar_id"`
}

// Connected reports whether the calendar consent flow has completed at least once.
func (c CalendarCredential) Connected() bool {
	return c.AccessToken != ""
}

// Expired reports whether the access token needs a refresh before use.
func (c CalendarCredential) Expired(now time.Time) bool {
	return c.TokenExpiry == nil || !c.TokenExpiry.After(now)
}

type User struct {
	ID                  int       `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Email               string    `json:"email" db:"email"`
	PasswordHash        string    `json:"-" db:"password_hash"`
	Role                Role      `json:"role" db:"role"`
	NeedsPasswordChange bool      `json:"needsPasswordChange" db:"needs_password_change"`
	InvitedBy           *int      `json:"invitedBy,omitempty" db:"invited_by"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`

	CalendarCredential
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
