package jsonfile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	col *Collection[domain.Session]
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{
		col: NewCollection(db.Path(SessionsFile), func(s *domain.Session) string { return s.ID }),
	}
}

func (r *SessionRepository) Create(ctx context.Context, title string) (*domain.Session, error) {
	if title == "" {
		title = domain.DefaultSessionTitle
	}
	now := time.Now()
	s := domain.Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []domain.Message{},
	}
	if err := r.col.Prepend(s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, bool, error) {
	s, ok := r.col.Find(id)
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (r *SessionRepository) List(ctx context.Context) ([]domain.Session, error) {
	return r.col.All(), nil
}

// AddMessage appends msg to the session. The first user message of a session
// still carrying the default title becomes its title.
func (r *SessionRepository) AddMessage(ctx context.Context, sessionID string, msg domain.Message) (*domain.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Type == "" {
		msg.Type = domain.MessageTypeText
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	_, found, err := r.col.Update(sessionID, func(s *domain.Session) error {
		s.Messages = append(s.Messages, msg)
		s.UpdatedAt = msg.Timestamp

		if msg.Role == domain.RoleUser && len(s.Messages) <= 2 && s.Title == domain.DefaultSessionTitle {
			if title := truncateRunes(strings.TrimSpace(msg.Content), domain.MaxTitleLength); title != "" {
				s.Title = title
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add message: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return &msg, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.col.Delete(id)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return deleted, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
