package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "ratelimit:"
)

// RateLimiter is a fixed-window counter shared by every server instance
// pointing at the same Redis
type RateLimiter struct {
	client            *Client
	requestsPerMinute int
	burst             int
	window            time.Duration
}

// NewRateLimiter creates a new rate limiter with a one minute window
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client:            client,
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		window:            time.Minute,
	}
}

func (r *RateLimiter) limit() int64 {
	return int64(r.requestsPerMinute + r.burst)
}

func (r *RateLimiter) key(key string, windowStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, windowStart.Unix())
}

// Allow counts one request for key in the current window.
// Returns (allowed, remaining, resetTime, error)
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := time.Now().Truncate(r.window)
	windowEnd := windowStart.Add(r.window)
	fullKey := r.key(key, windowStart)

	pipe := r.client.rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, r.window)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count := incrCmd.Val()
	remaining := int(r.limit() - count)
	if remaining < 0 {
		remaining = 0
	}

	return count <= r.limit(), remaining, windowEnd, nil
}
