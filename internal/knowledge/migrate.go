package knowledge

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

const migrationReviewer = "SYSTEM"

// MigrateDocs turns each documentation entry into an approved knowledge
// entry with the same id. Ids already present are skipped. Entries are
// embedded when an embedder is available.
func (s *Service) MigrateDocs(ctx context.Context, docs []domain.DocumentationEntry) (int, error) {
	count := 0
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		_, exists, err := s.repo.Get(ctx, d.ID)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}

		content := docContent(d)
		now := time.Now()
		entry := domain.KnowledgeEntry{
			ID:         d.ID,
			Content:    content,
			Tags:       d.Tags,
			Status:     domain.StatusApproved,
			Source:     domain.SourceMigration,
			CreatedAt:  now,
			ReviewedBy: migrationReviewer,
			ReviewedAt: &now,
			Embedding:  s.embed(ctx, content),
		}
		if _, err := s.repo.Add(ctx, entry); err != nil {
			return count, err
		}
		count++
	}

	log.Info().Int("added", count).Int("docs", len(docs)).Msg("Documentation migrated to knowledge base")
	return count, nil
}

// docContent renders a doc as "title: section contents"
func docContent(d domain.DocumentationEntry) string {
	parts := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		if c := strings.TrimSpace(s.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return d.Title + ": " + strings.Join(parts, "\n")
}
