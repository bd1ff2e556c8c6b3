package service

import (
	"context"
	"fmt"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

// ArchiveService exposes the permanent analysis archive
type ArchiveService struct {
	archives domain.ArchiveRepository
}

// NewArchiveService creates a new archive service
func NewArchiveService(archives domain.ArchiveRepository) *ArchiveService {
	return &ArchiveService{archives: archives}
}

// List returns all archives, newest first
func (s *ArchiveService) List(ctx context.Context) ([]domain.Archive, error) {
	return s.archives.List(ctx)
}

// Get returns one archive
func (s *ArchiveService) Get(ctx context.Context, id string) (*domain.Archive, error) {
	a, ok, err := s.archives.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("archive %s: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

// Delete removes one archive
func (s *ArchiveService) Delete(ctx context.Context, id string) error {
	deleted, err := s.archives.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("archive %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
