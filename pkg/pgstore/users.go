package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tbb-digital/portal/pkg/models"
)

const userColumns = `id, name, email, password_hash, role, needs_password_change, invited_by,
google_access_token, google_refresh_token, google_token_expiry, google_calendar_id,
created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	var created models.User
	query := `
INSERT INTO users (name, email, password_hash, role, needs_password_change, invited_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns + `;`
	var err error
	done := s.observe("create_user")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.GetContext(ctx, &created, query,
			user.Name, user.Email, user.PasswordHash, user.Role, user.NeedsPasswordChange, user.InvitedBy); err != nil {
			continue
		}
		return created, nil
	}
	return models.User{}, fmt.Errorf("err creating user: %w", err)
}

func (s *Store) GetUser(ctx context.Context, id int) (models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	var err error
	done := s.observe("get_user")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &user, query, id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.User{}, ErrUserNotFound
		case err != nil:
			continue
		}
		return user, nil
	}
	return models.User{}, fmt.Errorf("err getting user %d: %w", id, err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1);`
	var err error
	done := s.observe("get_user_by_email")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &user, query, email)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.User{}, ErrUserNotFound
		case err != nil:
			continue
		}
		return user, nil
	}
	return models.User{}, fmt.Errorf("err getting user by email: %w", err)
}

// GetCalendarOwner loads the single admin identity all bookings are scheduled
// against, credential included.
func (s *Store) GetCalendarOwner(ctx context.Context) (models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'ADMIN' ORDER BY id LIMIT 1;`
	var err error
	done := s.observe("get_calendar_owner")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &user, query)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.User{}, ErrUserNotFound
		case err != nil:
			continue
		}
		return user, nil
	}
	return models.User{}, fmt.Errorf("err getting calendar owner: %w", err)
}

// UpdateCalendarToken replaces only the access token and its expiry after a
// successful refresh. The refresh token is deliberately untouched.
func (s *Store) UpdateCalendarToken(ctx context.Context, userID int, accessToken string, expiry time.Time) error {
	query := `
UPDATE users
SET google_access_token = $2,
    google_token_expiry = $3,
    updated_at = now()
WHERE id = $1;`
	var err error
	done := s.observe("update_calendar_token")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if _, err = s.db.ExecContext(ctx, query, userID, accessToken, expiry); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("err updating calendar token for user %d: %w", userID, err)
}

// SaveCalendarCredential stores the full credential after the consent flow.
func (s *Store) SaveCalendarCredential(ctx context.Context, userID int, cred models.CalendarCredential) error {
	query := `
UPDATE users
SET google_access_token = $2,
    google_refresh_token = $3,
    google_token_expiry = $4,
    google_calendar_id = $5,
    updated_at = now()
WHERE id = $1;`
	var err error
	done := s.observe("save_calendar_credential")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if _, err = s.db.ExecContext(ctx, query, userID,
			cred.AccessToken, cred.RefreshToken, cred.TokenExpiry, cred.CalendarID); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("err saving calendar credential for user %d: %w", userID, err)
}

func (s *Store) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	query := `
UPDATE users
SET password_hash = $2,
    needs_password_change = FALSE,
    updated_at = now()
WHERE id = $1;`
	var err error
	done := s.observe("update_password")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if _, err = s.db.ExecContext(ctx, query, userID, passwordHash); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("err updating password for user %d: %w", userID, err)
}
