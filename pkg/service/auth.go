package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/pgstore"
)

const sessionTTL = 24 * time.Hour

// Login checks the password and issues a signed session token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *PortalService) Login(ctx context.Context, req models.LoginRequest) (models.TokenResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.TokenResponse{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, pgstore.ErrUserNotFound):
		return models.TokenResponse{}, models.ErrInvalidCredentials
	case err != nil:
		return models.TokenResponse{}, fmt.Errorf("err getting user: %w", err)
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return models.TokenResponse{}, models.ErrInvalidCredentials
	}

	now := s.now()
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
		UserID: user.ID,
		Role:   user.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return models.TokenResponse{}, fmt.Errorf("err signing token: %w", err)
	}
	return models.TokenResponse{Token: token}, nil
}

// ParseToken verifies a session token and returns its claims; used by the
// REST middleware to supply the requester identity.
func (s *PortalService) ParseToken(accessToken string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("err parsing token: %w", err)
	}
	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

func (s *PortalService) Profile(ctx context.Context, userID int) (models.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *PortalService) ChangePassword(ctx context.Context, userID int, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", models.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("err hashing password: %w", err)
	}
	if err = s.store.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("err updating password: %w", err)
	}
	return nil
}
