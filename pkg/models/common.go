package models

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Booking failure taxonomy shared across layers. The REST layer maps these to
// status codes, the service layer wraps them with context.
var (
	ErrValidation           = errors.New("validation failed")
	ErrCalendarNotConnected = errors.New("admin calendar not connected")
	ErrReauthRequired       = errors.New("calendar authorization expired, reconnect required")
	ErrProviderUnavailable  = errors.New("calendar provider unavailable")
	ErrPersistence          = errors.New("persistence failed")
)

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleStaff  Role = "TBB_STAFF"
	RoleAdmin  Role = "ADMIN"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID int  `json:"userID"`
	Role   Role `json:"role"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
