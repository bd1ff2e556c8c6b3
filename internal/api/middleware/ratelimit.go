package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/metrics"
	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed.
// *redis.RateLimiter and *LocalLimiter implement it.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error)
}

const (
	localSweepInterval = time.Minute
	localMinIdle       = 10 * time.Minute
)

// LocalLimiter is an in-process token bucket per key, used when Redis is
// not configured. Buckets idle long enough to have refilled are dropped.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*localBucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
}

type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLocalLimiter allows requestsPerMinute with the given burst per key
func NewLocalLimiter(requestsPerMinute, burst int) *LocalLimiter {
	if burst <= 0 {
		burst = 1
	}
	l := &LocalLimiter{
		buckets: make(map[string]*localBucket),
		limit:   rate.Limit(float64(requestsPerMinute) / 60),
		burst:   burst,
	}
	if l.limit > 0 {
		refill := time.Duration(float64(burst) / float64(l.limit) * float64(time.Second))
		l.idleTTL = max(localMinIdle, refill)
	}
	return l
}

func (l *LocalLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= localSweepInterval {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// sweep drops idle buckets; mu must be held. A zero idleTTL keeps every
// bucket since an exhausted one would never refill.
func (l *LocalLimiter) sweep(now time.Time) {
	l.lastSweep = now
	if l.idleTTL <= 0 {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.seen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}

// Allow implements Limiter
func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	now := time.Now()
	lim := l.get(key, now)
	allowed := lim.AllowN(now, 1)

	remaining := int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	reset := now
	if l.limit > 0 && remaining < l.burst {
		missing := float64(l.burst) - lim.TokensAt(now)
		reset = now.Add(time.Duration(missing / float64(l.limit) * float64(time.Second)))
	}
	return allowed, remaining, reset, nil
}

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	rateLimiter Limiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(rateLimiter Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter}
}

// Limit applies rate limiting per client IP
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetTime, err := m.rateLimiter.Allow(r.Context(), clientIP(r))
		if err != nil {
			// fail open
			log.Warn().Err(err).Msg("Rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", resetTime.UTC().Format(time.RFC3339))

		if !allowed {
			metrics.RateLimited.Inc()
			response.TooManyRequests(w, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// rewritten when a proxy header is present
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
