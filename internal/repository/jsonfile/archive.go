package jsonfile

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

// ArchiveRepository implements domain.ArchiveRepository
type ArchiveRepository struct {
	col *Collection[domain.Archive]
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(db *DB) *ArchiveRepository {
	return &ArchiveRepository{
		col: NewCollection(db.Path(ArchivesFile), func(a *domain.Archive) string { return a.ID }),
	}
}

func (r *ArchiveRepository) Save(ctx context.Context, typ domain.AnalysisType, result string, data map[string]any) (*domain.Archive, error) {
	a := domain.Archive{
		ID:        uuid.NewString(),
		Type:      typ,
		CreatedAt: time.Now(),
		Result:    result,
		Data:      data,
	}
	if err := r.col.Prepend(a); err != nil {
		return nil, fmt.Errorf("failed to save archive: %w", err)
	}
	return &a, nil
}

func (r *ArchiveRepository) Get(ctx context.Context, id string) (*domain.Archive, bool, error) {
	a, ok := r.col.Find(id)
	if !ok {
		return nil, false, nil
	}
	return &a, true, nil
}

func (r *ArchiveRepository) List(ctx context.Context) ([]domain.Archive, error) {
	return r.col.All(), nil
}

func (r *ArchiveRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.col.Delete(id)
	if err != nil {
		return false, fmt.Errorf("failed to delete archive: %w", err)
	}
	return deleted, nil
}

// HistoryRepository implements domain.HistoryRepository over history.json
type HistoryRepository struct {
	col *Collection[domain.HistoryRecord]
}

// NewHistoryRepository creates a new legacy history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{
		col: NewCollection(db.Path(HistoryFile), func(h *domain.HistoryRecord) string { return h.ID }),
	}
}

// Append records an analysis; ids are the collection length plus one
func (r *HistoryRepository) Append(ctx context.Context, typ domain.AnalysisType, data map[string]any) (*domain.HistoryRecord, error) {
	var rec domain.HistoryRecord
	err := r.col.Mutate(func(items []domain.HistoryRecord) ([]domain.HistoryRecord, error) {
		rec = domain.HistoryRecord{
			ID:        uniqueID(items, len(items)+1, strconv.Itoa, func(h *domain.HistoryRecord) string { return h.ID }),
			CreatedAt: time.Now(),
			Type:      typ,
			Data:      data,
		}
		return append([]domain.HistoryRecord{rec}, items...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}
	return &rec, nil
}

func (r *HistoryRepository) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	return r.col.All(), nil
}

// uniqueID formats n and bumps it until no item carries the id
func uniqueID[T any](items []T, n int, format func(int) string, idOf func(*T) string) string {
	taken := make(map[string]bool, len(items))
	for i := range items {
		taken[idOf(&items[i])] = true
	}
	id := format(n)
	for taken[id] {
		n++
		id = format(n)
	}
	return id
}
