// Package knowledge moderates the tip knowledge base and ranks approved
// entries against a query by cosine similarity.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
)

const defaultTopK = 3

// Service is the knowledge base use-case layer
type Service struct {
	repo            domain.KnowledgeRepository
	embedder        llm.Embedder
	defaultReviewer string
	embedTimeout    time.Duration
}

// Options configures a Service
type Options struct {
	DefaultReviewer string
	EmbedTimeout    time.Duration
}

// NewService creates a knowledge service. embedder may be nil, in which case
// entries are never embedded and search returns nothing.
func NewService(repo domain.KnowledgeRepository, embedder llm.Embedder, opts Options) *Service {
	if opts.DefaultReviewer == "" {
		opts.DefaultReviewer = "Admin"
	}
	return &Service{
		repo:            repo,
		embedder:        embedder,
		defaultReviewer: opts.DefaultReviewer,
		embedTimeout:    opts.EmbedTimeout,
	}
}

// UpdateInput carries the optional fields of an edit; nil leaves a field as is
type UpdateInput struct {
	Content *string
	Tags    []string
	Status  *domain.KnowledgeStatus
}

// Add stores a pending candidate
func (s *Service) Add(ctx context.Context, content string, tags []string, source string) (*domain.KnowledgeEntry, error) {
	entry, err := s.repo.Add(ctx, domain.KnowledgeEntry{
		Content: content,
		Tags:    tags,
		Status:  domain.StatusPending,
		Source:  source,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("id", entry.ID).Str("source", entry.Source).Msg("Knowledge candidate added")
	return entry, nil
}

// List returns entries filtered by status ("" for all)
func (s *Service) List(ctx context.Context, status domain.KnowledgeStatus) ([]domain.KnowledgeEntry, error) {
	return s.repo.List(ctx, status)
}

// Get returns one entry
func (s *Service) Get(ctx context.Context, id string) (*domain.KnowledgeEntry, error) {
	e, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("knowledge entry %s: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

// Approve marks the entry approved and embeds it when it has no vector yet.
// A failed embedding still approves; the entry stays unretrievable until
// re-embedded.
func (s *Service) Approve(ctx context.Context, id, reviewer string) (*domain.KnowledgeEntry, error) {
	if reviewer == "" {
		reviewer = s.defaultReviewer
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var vec []float64
	if len(current.Embedding) == 0 {
		vec = s.embed(ctx, current.Content)
	}

	now := time.Now()
	return s.repo.Update(ctx, id, func(e *domain.KnowledgeEntry) error {
		e.Status = domain.StatusApproved
		e.ReviewedBy = reviewer
		e.ReviewedAt = &now
		if len(e.Embedding) == 0 && e.Content == current.Content {
			e.Embedding = vec
		}
		return nil
	})
}

// Reject marks the entry rejected; it is kept for history
func (s *Service) Reject(ctx context.Context, id string) (*domain.KnowledgeEntry, error) {
	return s.repo.Update(ctx, id, func(e *domain.KnowledgeEntry) error {
		e.Status = domain.StatusRejected
		return nil
	})
}

// Update edits an entry. New content on an approved entry is re-embedded,
// and moving to approved embeds an entry that has no vector.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.KnowledgeEntry, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", *in.Status, domain.ErrInvalidInput)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	content := current.Content
	if in.Content != nil {
		content = *in.Content
	}
	status := current.Status
	if in.Status != nil {
		status = *in.Status
	}

	var vec []float64
	reembed := in.Content != nil && current.Status == domain.StatusApproved
	needsEmbedding := reembed || (status == domain.StatusApproved && len(current.Embedding) == 0)
	if needsEmbedding {
		vec = s.embed(ctx, content)
	}

	now := time.Now()
	return s.repo.Update(ctx, id, func(e *domain.KnowledgeEntry) error {
		if in.Content != nil {
			e.Content = *in.Content
			if reembed {
				e.Embedding = vec
			}
		}
		if in.Tags != nil {
			e.Tags = in.Tags
		}
		if in.Status != nil {
			e.Status = *in.Status
			if e.Status == domain.StatusApproved && len(e.Embedding) == 0 {
				e.Embedding = vec
			}
		}
		e.UpdatedAt = &now
		return nil
	})
}

// Delete removes an entry; a missing id is ErrNotFound
func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("knowledge entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Search ranks approved, embedded entries by cosine similarity to query.
// An unavailable embedder yields no hits rather than an error.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]domain.SearchHit, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	entries, err := s.repo.List(ctx, domain.StatusApproved)
	if err != nil {
		return nil, err
	}

	candidates := entries[:0]
	for _, e := range entries {
		if e.Retrievable() {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return []domain.SearchHit{}, nil
	}

	qvec := s.embed(ctx, query)
	if len(qvec) == 0 {
		return []domain.SearchHit{}, nil
	}

	hits := Rank(qvec, candidates)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Reembed embeds every approved entry lacking a vector and returns how many
// were updated
func (s *Service) Reembed(ctx context.Context) (int, error) {
	entries, err := s.repo.List(ctx, domain.StatusApproved)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if len(e.Embedding) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}

		vec := s.embed(ctx, e.Content)
		if len(vec) == 0 {
			continue
		}
		content := e.Content
		_, err := s.repo.Update(ctx, e.ID, func(cur *domain.KnowledgeEntry) error {
			if len(cur.Embedding) == 0 && cur.Content == content {
				cur.Embedding = vec
			}
			return nil
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// embed returns nil when no embedder is wired or the call fails
func (s *Service) embed(ctx context.Context, text string) []float64 {
	if s.embedder == nil {
		return nil
	}
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("Error getting embedding")
		return nil
	}
	return vec
}

// Rank scores entries against qvec and sorts them by descending similarity
func Rank(qvec []float64, entries []domain.KnowledgeEntry) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(entries))
	for _, e := range entries {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		hits = append(hits, domain.SearchHit{
			ID:      e.ID,
			Content: e.Content,
			Score:   Cosine(qvec, e.Embedding),
			Tags:    tags,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths and
// zero vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
