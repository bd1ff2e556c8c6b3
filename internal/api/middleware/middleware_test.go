package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shuoxuer/shuoxuer-website/internal/api/middleware"
	"github.com/shuoxuer/shuoxuer-website/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewerEcho(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := middleware.GetReviewer(r.Context())
	if !ok {
		reviewer = "-"
	}
	w.Write([]byte(reviewer))
}

func TestAuthenticate(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", time.Hour)
	token, err := manager.Issue("coach-an", 0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		required bool
		header   string
		status   int
		body     string
	}{
		{"optional without token", false, "", http.StatusOK, "-"},
		{"required without token", true, "", http.StatusUnauthorized, ""},
		{"valid token", true, "Bearer " + token, http.StatusOK, "coach-an"},
		{"lowercase scheme", false, "bearer " + token, http.StatusOK, "coach-an"},
		{"bad scheme", false, "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", false, "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.NewAuthMiddleware(manager, tt.required).Authenticate(http.HandlerFunc(reviewerEcho))

			req := httptest.NewRequest(http.MethodPut, "/knowledge/KB_0001/approve", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRateLimit_Local(t *testing.T) {
	limiter := middleware.NewLocalLimiter(1, 2)
	h := middleware.NewRateLimitMiddleware(limiter).Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:1000").Code)
	second := do("10.0.0.1:1001")
	assert.Equal(t, http.StatusNoContent, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := do("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)

	// separate bucket per client
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2:1000").Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	return false, 0, time.Time{}, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	h := middleware.NewRateLimitMiddleware(failingLimiter{}).Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoggerAndMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
