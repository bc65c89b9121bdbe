package models

import "time"

type QuestionStatus string

const (
	QuestionOpen       QuestionStatus = "OPEN"
	QuestionInProgress QuestionStatus = "IN_PROGRESS"
	QuestionResolved   QuestionStatus = "RESOLVED"
	QuestionClosed     QuestionStatus = "CLOSED"
)

type QuestionRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Message  string `json:"message" validate:"required"`
	Category string `json:"category" validate:"omitempty,max=64"`
}

type Question struct {
	ID        int            `json:"id" db:"id"`
	Title     string         `json:"title" db:"title"`
	Category  string         `json:"category" db:"category"`
	Status    QuestionStatus `json:"status" db:"status"`
	Client    int            `json:"client" db:"client_id"`
	Project   *int           `json:"project,omitempty" db:"project_id"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at"`

	Messages []Message `json:"messages,omitempty" db:"-"`
}

type MessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type Message struct {
	ID         int       `json:"id" db:"id"`
	QuestionID int       `json:"questionId" db:"question_id"`
	Content    string    `json:"content" db:"content"`
	Sender     int       `json:"sender" db:"sender_id"`
	SenderRole Role      `json:"senderRole" db:"sender_role"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
