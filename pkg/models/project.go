package models

import "time"

type ProjectRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

type Project struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedBy   int       `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Invitation lets an admin onboard a client by email. The token is a uuid
// mailed to the client, the temp password is hashed before it hits the store.
type Invitation struct {
	ID         int        `json:"id" db:"id"`
	Token      string     `json:"-" db:"token"`
	Email      string     `json:"email" db:"email"`
	ProjectID  int        `json:"projectId" db:"project_id"`
	InvitedBy  int        `json:"invitedBy" db:"invited_by"`
	Accepted   bool       `json:"accepted" db:"accepted"`
	ExpiresAt  time.Time  `json:"expiresAt" db:"expires_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
}

type InviteClientRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}
