package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/pgstore"
)

// AskQuestion files a new support question for the requester, attached to
// their active project when they have one, and records the opening message.
func (s *PortalService) AskQuestion(ctx context.Context, requesterID int, req models.QuestionRequest) (models.Question, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.Question{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	requester, err := s.store.GetUser(ctx, requesterID)
	if err != nil {
		return models.Question{}, fmt.Errorf("err resolving requester: %w", err)
	}

	category := req.Category
	if category == "" {
		category = "general"
	}
	question := models.Question{
		Title:    req.Title,
		Category: category,
		Client:   requester.ID,
	}
	project, err := s.store.ProjectForClient(ctx, requester.ID)
	switch {
	case errors.Is(err, pgstore.ErrProjectNotFound):
		// Questions without a project are allowed.
	case err != nil:
		return models.Question{}, fmt.Errorf("err resolving project: %w", err)
	default:
		question.Project = &project.ID
	}

	created, err := s.store.CreateQuestion(ctx, question)
	if err != nil {
		return models.Question{}, fmt.Errorf("err creating question: %w", err)
	}
	message, err := s.store.AddMessage(ctx, models.Message{
		QuestionID: created.ID,
		Content:    req.Message,
		Sender:     requester.ID,
		SenderRole: requester.Role,
	})
	if err != nil {
		return models.Question{}, fmt.Errorf("err adding opening message: %w", err)
	}
	created.Messages = []models.Message{message}
	return created, nil
}

func (s *PortalService) QuestionsForUser(ctx context.Context, userID int) ([]models.Question, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("err resolving user: %w", err)
	}
	questions, err := s.store.QuestionsForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("err getting questions: %w", err)
	}
	return questions, nil
}

// GetQuestion returns a question with its message thread. Clients may only
// read their own questions.
func (s *PortalService) GetQuestion(ctx context.Context, userID, questionID int) (models.Question, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Question{}, fmt.Errorf("err resolving user: %w", err)
	}
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return models.Question{}, err
	}
	if user.Role == models.RoleClient && question.Client != user.ID {
		return models.Question{}, pgstore.ErrQuestionNotFound
	}
	question.Messages, err = s.store.GetMessages(ctx, questionID)
	if err != nil {
		return models.Question{}, fmt.Errorf("err getting messages: %w", err)
	}
	return question, nil
}

// ReplyToQuestion appends a message. A staff reply moves an OPEN question to
// IN_PROGRESS; further status transitions go through UpdateQuestionStatus.
func (s *PortalService) ReplyToQuestion(ctx context.Context, userID, questionID int, req models.MessageRequest) (models.Message, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Message{}, fmt.Errorf("err resolving user: %w", err)
	}
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return models.Message{}, err
	}
	if user.Role == models.RoleClient && question.Client != user.ID {
		return models.Message{}, pgstore.ErrQuestionNotFound
	}

	message, err := s.store.AddMessage(ctx, models.Message{
		QuestionID: questionID,
		Content:    req.Content,
		Sender:     user.ID,
		SenderRole: user.Role,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("err adding message: %w", err)
	}
	if user.Role != models.RoleClient && question.Status == models.QuestionOpen {
		if err = s.store.UpdateQuestionStatus(ctx, questionID, models.QuestionInProgress); err != nil {
			s.log.Warnf("err advancing question %d status: %v", questionID, err)
		}
	}
	return message, nil
}

func (s *PortalService) UpdateQuestionStatus(ctx context.Context, questionID int, status models.QuestionStatus) error {
	switch status {
	case models.QuestionOpen, models.QuestionInProgress, models.QuestionResolved, models.QuestionClosed:
	default:
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	return s.store.UpdateQuestionStatus(ctx, questionID, status)
}
