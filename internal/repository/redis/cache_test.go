package redis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingKey(t *testing.T) {
	k1 := embeddingKey("qwen", "反手过渡")
	k2 := embeddingKey("qwen", "反手过渡")
	k3 := embeddingKey("gemini", "反手过渡")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.True(t, strings.HasPrefix(k1, "embedding:qwen:"))
	assert.Len(t, strings.TrimPrefix(k1, "embedding:qwen:"), 64)
}

func TestNewEmbeddingCache_DefaultTTL(t *testing.T) {
	c := NewEmbeddingCache(nil, 0)
	assert.Equal(t, defaultEmbeddingTTL, c.ttl)
}
