package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"golang.org/x/sync/singleflight"
)

// EmbeddingCache stores vectors by namespace and text
type EmbeddingCache interface {
	Get(ctx context.Context, namespace, text string) ([]float64, bool, error)
	Set(ctx context.Context, namespace, text string, vec []float64) error
}

const defaultSharedEmbedTimeout = 30 * time.Second

// CachedEmbedder collapses concurrent identical requests and consults an
// optional cache before calling the wrapped embedder
type CachedEmbedder struct {
	next      llm.Embedder
	cache     EmbeddingCache
	namespace string
	timeout   time.Duration
	group     singleflight.Group
}

// NewCachedEmbedder wraps next. cache may be nil. timeout bounds the shared
// upstream call, which outlives any single caller.
func NewCachedEmbedder(next llm.Embedder, cache EmbeddingCache, namespace string, timeout time.Duration) *CachedEmbedder {
	if timeout <= 0 {
		timeout = defaultSharedEmbedTimeout
	}
	return &CachedEmbedder{next: next, cache: cache, namespace: namespace, timeout: timeout}
}

// Embed implements llm.Embedder
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.cache != nil {
		vec, ok, err := e.cache.Get(ctx, e.namespace, text)
		if err != nil {
			log.Warn().Err(err).Msg("Embedding cache read failed")
		} else if ok {
			return vec, nil
		}
	}

	ch := e.group.DoChan(text, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		vec, err := e.next.Embed(callCtx, text)
		if err != nil {
			return nil, err
		}
		if e.cache != nil && len(vec) > 0 {
			if err := e.cache.Set(callCtx, e.namespace, text, vec); err != nil {
				log.Warn().Err(err).Msg("Embedding cache write failed")
			}
		}
		return vec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		vec, ok := res.Val.([]float64)
		if !ok {
			return nil, fmt.Errorf("knowledge: unexpected singleflight result type %T", res.Val)
		}
		return vec, nil
	}
}
