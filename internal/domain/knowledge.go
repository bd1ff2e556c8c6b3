package domain

import (
	"context"
	"time"
)

// KnowledgeStatus is the moderation state of a knowledge entry
type KnowledgeStatus string

const (
	StatusPending  KnowledgeStatus = "pending"
	StatusApproved KnowledgeStatus = "approved"
	StatusRejected KnowledgeStatus = "rejected"
)

// Valid reports whether s is a known status
func (s KnowledgeStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Knowledge entry sources
const (
	SourceChat        = "AI_CHAT"
	SourceAutoExtract = "AI_AUTO_EXTRACT"
	SourceMigration   = "MIGRATION_FROM_DOCS"
	SourceUser        = "USER"
)

// KnowledgeEntry is a moderated tip used for retrieval-augmented prompting
type KnowledgeEntry struct {
	ID         string          `json:"id"`
	Content    string          `json:"content"`
	Tags       []string        `json:"tags"`
	Status     KnowledgeStatus `json:"status"`
	Source     string          `json:"source"`
	CreatedAt  time.Time       `json:"created_at"`
	Embedding  []float64       `json:"embedding"`
	ReviewedBy string          `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time      `json:"reviewed_at,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// Retrievable reports whether the entry may be returned by similarity search
func (e *KnowledgeEntry) Retrievable() bool {
	return e.Status == StatusApproved && len(e.Embedding) > 0
}

// SearchHit is a ranked knowledge retrieval result
type SearchHit struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Score   float64  `json:"score"`
	Tags    []string `json:"tags"`
}

// KnowledgeRepository defines the interface for knowledge base storage
type KnowledgeRepository interface {
	Add(ctx context.Context, entry KnowledgeEntry) (*KnowledgeEntry, error)
	Get(ctx context.Context, id string) (*KnowledgeEntry, bool, error)
	List(ctx context.Context, status KnowledgeStatus) ([]KnowledgeEntry, error)
	// Update applies fn to the entry with the given id and persists the result
	Update(ctx context.Context, id string, fn func(*KnowledgeEntry) error) (*KnowledgeEntry, error)
	Delete(ctx context.Context, id string) (bool, error)
}
