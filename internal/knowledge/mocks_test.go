package knowledge

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockEmbedder is a mock implementation of llm.Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

// memoryCache is an in-process EmbeddingCache
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]float64
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]float64)}
}

func (c *memoryCache) Get(ctx context.Context, namespace, text string) ([]float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[namespace+"|"+text]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, namespace, text string, vec []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[namespace+"|"+text] = vec
	c.sets++
	return nil
}
