package jsonfile

import (
	"context"
	"fmt"
	"time"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

// KnowledgeRepository implements domain.KnowledgeRepository
type KnowledgeRepository struct {
	col *Collection[domain.KnowledgeEntry]
}

// NewKnowledgeRepository creates a new knowledge base repository
func NewKnowledgeRepository(db *DB) *KnowledgeRepository {
	return &KnowledgeRepository{
		col: NewCollection(db.Path(KnowledgeFile), knowledgeID),
	}
}

func knowledgeID(e *domain.KnowledgeEntry) string { return e.ID }

func formatKnowledgeID(n int) string { return fmt.Sprintf("KB_%04d", n) }

// Add inserts entry at the front. An empty id is assigned as KB_NNNN from
// the collection size; missing status, source and timestamps are defaulted.
func (r *KnowledgeRepository) Add(ctx context.Context, entry domain.KnowledgeEntry) (*domain.KnowledgeEntry, error) {
	if entry.Status == "" {
		entry.Status = domain.StatusPending
	}
	if entry.Source == "" {
		entry.Source = domain.SourceChat
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Tags == nil {
		entry.Tags = []string{}
	}

	err := r.col.Mutate(func(items []domain.KnowledgeEntry) ([]domain.KnowledgeEntry, error) {
		if entry.ID == "" {
			entry.ID = uniqueID(items, len(items)+1, formatKnowledgeID, knowledgeID)
		} else {
			for i := range items {
				if items[i].ID == entry.ID {
					return nil, fmt.Errorf("knowledge entry %s already exists", entry.ID)
				}
			}
		}
		return append([]domain.KnowledgeEntry{entry}, items...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add knowledge entry: %w", err)
	}
	return &entry, nil
}

func (r *KnowledgeRepository) Get(ctx context.Context, id string) (*domain.KnowledgeEntry, bool, error) {
	e, ok := r.col.Find(id)
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

// List returns entries with the given status, or all entries for ""
func (r *KnowledgeRepository) List(ctx context.Context, status domain.KnowledgeStatus) ([]domain.KnowledgeEntry, error) {
	items := r.col.All()
	if status == "" {
		return items, nil
	}

	filtered := make([]domain.KnowledgeEntry, 0, len(items))
	for _, e := range items {
		if e.Status == status {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func (r *KnowledgeRepository) Update(ctx context.Context, id string, fn func(*domain.KnowledgeEntry) error) (*domain.KnowledgeEntry, error) {
	e, found, err := r.col.Update(id, fn)
	if err != nil {
		return nil, fmt.Errorf("failed to update knowledge entry: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("knowledge entry %s: %w", id, domain.ErrNotFound)
	}
	return &e, nil
}

func (r *KnowledgeRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.col.Delete(id)
	if err != nil {
		return false, fmt.Errorf("failed to delete knowledge entry: %w", err)
	}
	return deleted, nil
}
