package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbb-digital/portal/pkg/models"
)

func (s *Store) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	var created models.Project
	query := `
INSERT INTO projects (name, description, created_by)
VALUES ($1, $2, $3)
RETURNING id, name, description, is_active, created_by, created_at, updated_at;`
	var err error
	done := s.observe("create_project")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.GetContext(ctx, &created, query, project.Name, project.Description, project.CreatedBy); err != nil {
			continue
		}
		return created, nil
	}
	return models.Project{}, fmt.Errorf("err creating project: %w", err)
}

func (s *Store) GetProject(ctx context.Context, id int) (models.Project, error) {
	var project models.Project
	query := `SELECT id, name, description, is_active, created_by, created_at, updated_at FROM projects WHERE id = $1;`
	var err error
	done := s.observe("get_project")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &project, query, id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Project{}, ErrProjectNotFound
		case err != nil:
			continue
		}
		return project, nil
	}
	return models.Project{}, fmt.Errorf("err getting project %d: %w", id, err)
}

func (s *Store) GetProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	query := `SELECT id, name, description, is_active, created_by, created_at, updated_at FROM projects ORDER BY created_at DESC;`
	var err error
	done := s.observe("get_projects")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.SelectContext(ctx, &projects, query); err != nil {
			continue
		}
		return projects, nil
	}
	return nil, fmt.Errorf("err getting projects: %w", err)
}

// ProjectForClient finds the active project a client belongs to; questions are
// filed against it.
func (s *Store) ProjectForClient(ctx context.Context, clientID int) (models.Project, error) {
	var project models.Project
	query := `
SELECT p.id, p.name, p.description, p.is_active, p.created_by, p.created_at, p.updated_at
FROM projects p
JOIN project_members pm ON pm.project_id = p.id
WHERE pm.user_id = $1 AND p.is_active
ORDER BY p.created_at DESC
LIMIT 1;`
	var err error
	done := s.observe("project_for_client")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &project, query, clientID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Project{}, ErrProjectNotFound
		case err != nil:
			continue
		}
		return project, nil
	}
	return models.Project{}, fmt.Errorf("err getting project for client %d: %w", clientID, err)
}

func (s *Store) AddProjectMember(ctx context.Context, projectID, userID int, role models.Role) error {
	query := `
INSERT INTO project_members (project_id, user_id, member_role)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING;`
	var err error
	done := s.observe("add_project_member")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if _, err = s.db.ExecContext(ctx, query, projectID, userID, role); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("err adding member %d to project %d: %w", userID, projectID, err)
}

func (s *Store) CreateInvitation(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	var created models.Invitation
	query := `
INSERT INTO invitations (token, email, project_id, invited_by, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, token, email, project_id, invited_by, accepted, expires_at, accepted_at, created_at;`
	var err error
	done := s.observe("create_invitation")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.GetContext(ctx, &created, query,
			inv.Token, inv.Email, inv.ProjectID, inv.InvitedBy, inv.ExpiresAt); err != nil {
			continue
		}
		return created, nil
	}
	return models.Invitation{}, fmt.Errorf("err creating invitation: %w", err)
}
