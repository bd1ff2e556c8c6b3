package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	embeddingCachePrefix = "embedding:"
	defaultEmbeddingTTL  = 24 * time.Hour
)

// EmbeddingCache caches query embeddings in Redis keyed by model and text
type EmbeddingCache struct {
	client *Client
	ttl    time.Duration
}

// NewEmbeddingCache creates a new embedding cache
func NewEmbeddingCache(client *Client, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = defaultEmbeddingTTL
	}
	return &EmbeddingCache{client: client, ttl: ttl}
}

func embeddingKey(namespace, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%s:%s", embeddingCachePrefix, namespace, hex.EncodeToString(sum[:]))
}

// Get returns the cached vector. A miss is (nil, false, nil).
func (c *EmbeddingCache) Get(ctx context.Context, namespace, text string) ([]float64, bool, error) {
	data, err := c.client.rdb.Get(ctx, embeddingKey(namespace, text)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}
	return vec, true, nil
}

// Set caches a vector
func (c *EmbeddingCache) Set(ctx context.Context, namespace, text string, vec []float64) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	return c.client.rdb.Set(ctx, embeddingKey(namespace, text), data, c.ttl).Err()
}

// FlushAll removes all cached embeddings
func (c *EmbeddingCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := embeddingCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
