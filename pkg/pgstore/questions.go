package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbb-digital/portal/pkg/models"
)

const questionColumns = `id, title, category, status, client_id, project_id, created_at, updated_at`

func (s *Store) CreateQuestion(ctx context.Context, question models.Question) (models.Question, error) {
	var created models.Question
	query := `
INSERT INTO questions (title, category, client_id, project_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + questionColumns + `;`
	var err error
	done := s.observe("create_question")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.GetContext(ctx, &created, query,
			question.Title, question.Category, question.Client, question.Project); err != nil {
			continue
		}
		return created, nil
	}
	return models.Question{}, fmt.Errorf("err creating question: %w", err)
}

func (s *Store) GetQuestion(ctx context.Context, id int) (models.Question, error) {
	var question models.Question
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1;`
	var err error
	done := s.observe("get_question")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		err = s.db.GetContext(ctx, &question, query, id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return models.Question{}, ErrQuestionNotFound
		case err != nil:
			continue
		}
		return question, nil
	}
	return models.Question{}, fmt.Errorf("err getting question %d: %w", id, err)
}

// QuestionsForUser filters like meetings: clients see their own, staff and
// admin see everything.
func (s *Store) QuestionsForUser(ctx context.Context, user models.User) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions`
	args := make([]interface{}, 0, 1)
	if user.Role == models.RoleClient {
		query += ` WHERE client_id = $1`
		args = append(args, user.ID)
	}
	query += ` ORDER BY updated_at DESC;`
	var questions []models.Question
	var err error
	done := s.observe("questions_for_user")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.SelectContext(ctx, &questions, query, args...); err != nil {
			continue
		}
		return questions, nil
	}
	return nil, fmt.Errorf("err getting questions for user %d: %w", user.ID, err)
}

func (s *Store) GetMessages(ctx context.Context, questionID int) ([]models.Message, error) {
	var messages []models.Message
	query := `
SELECT id, question_id, content, sender_id, sender_role, created_at
FROM question_messages
WHERE question_id = $1
ORDER BY created_at;`
	var err error
	done := s.observe("get_messages")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.SelectContext(ctx, &messages, query, questionID); err != nil {
			continue
		}
		return messages, nil
	}
	return nil, fmt.Errorf("err getting messages for question %d: %w", questionID, err)
}

func (s *Store) AddMessage(ctx context.Context, message models.Message) (models.Message, error) {
	var created models.Message
	query := `
INSERT INTO question_messages (question_id, content, sender_id, sender_role)
VALUES ($1, $2, $3, $4)
RETURNING id, question_id, content, sender_id, sender_role, created_at;`
	var err error
	done := s.observe("add_message")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		if err = s.db.GetContext(ctx, &created, query,
			message.QuestionID, message.Content, message.Sender, message.SenderRole); err != nil {
			continue
		}
		return created, nil
	}
	return models.Message{}, fmt.Errorf("err adding message to question %d: %w", message.QuestionID, err)
}

func (s *Store) UpdateQuestionStatus(ctx context.Context, id int, status models.QuestionStatus) error {
	query := `UPDATE questions SET status = $2, updated_at = now() WHERE id = $1;`
	var err error
	done := s.observe("update_question_status")
	defer func() { done(err) }()
	for i := 0; i < retries; i++ {
		var res sql.Result
		if res, err = s.db.ExecContext(ctx, query, id, status); err != nil {
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrQuestionNotFound
		}
		return nil
	}
	return fmt.Errorf("err updating question %d status: %w", id, err)
}
