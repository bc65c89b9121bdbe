package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/pgstore"
)

const invitationTTL = 7 * 24 * time.Hour

func (s *PortalService) CreateProject(ctx context.Context, creatorID int, req models.ProjectRequest) (models.Project, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.Project{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	project, err := s.store.CreateProject(ctx, models.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
	})
	if err != nil {
		return models.Project{}, fmt.Errorf("err creating project: %w", err)
	}
	return project, nil
}

func (s *PortalService) Projects(ctx context.Context) ([]models.Project, error) {
	projects, err := s.store.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("err getting projects: %w", err)
	}
	return projects, nil
}

func (s *PortalService) AddStaffToProject(ctx context.Context, projectID, staffID int) error {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return err
	}
	user, err := s.store.GetUser(ctx, staffID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleStaff && user.Role != models.RoleAdmin {
		return fmt.Errorf("%w: user %d is not staff", models.ErrValidation, staffID)
	}
	return s.store.AddProjectMember(ctx, projectID, staffID, models.RoleStaff)
}

// InviteClient onboards a client onto a project: an existing user is just
// added as a member, a new one is created with a temp password and gets an
// invitation email. The email is best-effort, the membership write is not.
func (s *PortalService) InviteClient(ctx context.Context, projectID, inviterID int, req models.InviteClientRequest) (models.Invitation, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.Invitation{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return models.Invitation{}, err
	}

	tempPassword := ""
	client, err := s.store.GetUserByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, pgstore.ErrUserNotFound):
		tempPassword = uuid.New().String()
		hash, herr := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
		if herr != nil {
			return models.Invitation{}, fmt.Errorf("err hashing temp password: %w", herr)
		}
		client, err = s.store.CreateUser(ctx, models.User{
			Name:                req.Name,
			Email:               req.Email,
			PasswordHash:        string(hash),
			Role:                models.RoleClient,
			NeedsPasswordChange: true,
			InvitedBy:           &inviterID,
		})
		if err != nil {
			return models.Invitation{}, fmt.Errorf("err creating invited client: %w", err)
		}
	case err != nil:
		return models.Invitation{}, fmt.Errorf("err looking up client: %w", err)
	}

	if err = s.store.AddProjectMember(ctx, projectID, client.ID, models.RoleClient); err != nil {
		return models.Invitation{}, fmt.Errorf("err adding client to project: %w", err)
	}
	invitation, err := s.store.CreateInvitation(ctx, models.Invitation{
		Token:     uuid.New().String(),
		Email:     client.Email,
		ProjectID: projectID,
		InvitedBy: inviterID,
		ExpiresAt: s.now().Add(invitationTTL),
	})
	if err != nil {
		return models.Invitation{}, fmt.Errorf("err creating invitation: %w", err)
	}

	if err = s.notifier.PortalInvitation(ctx, client.Email, client.Name, tempPassword); err != nil {
		s.log.Warnf("err sending portal invitation to %s: %v", client.Email, err)
	}
	return invitation, nil
}
