package domain

import (
	"context"
	"time"
)

// DefaultSessionTitle is the placeholder title given to new sessions
const DefaultSessionTitle = "新对话"

// MaxTitleLength is the rune length of an auto-generated session title
const MaxTitleLength = 30

// Session represents a conversation thread with the pocket assistant
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// LatestCard returns the card payload of the most recent report card message
func (s *Session) LatestCard() *Card {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Type == MessageTypeReportCard && s.Messages[i].CardData != nil {
			return s.Messages[i].CardData
		}
	}
	return nil
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, title string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, bool, error)
	List(ctx context.Context) ([]Session, error)
	AddMessage(ctx context.Context, sessionID string, msg Message) (*Message, error)
	Delete(ctx context.Context, id string) (bool, error)
}
