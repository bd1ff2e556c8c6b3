package handler

import (
	"context"
	"net/http"

	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status of the data dir and, when given, Redis
func ReadyCheck(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, p := range deps {
			if err := p.Ping(r.Context()); err != nil {
				response.ServiceUnavailable(w, name+" not ready: "+err.Error())
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}

// ListLLMProviders returns the registered LLM providers
func ListLLMProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        router.GetProvidersInfo(),
			"default_provider": router.DefaultProvider(),
		})
	}
}

// CacheFlusher drops cached embeddings
type CacheFlusher interface {
	FlushAll(ctx context.Context) (int64, error)
}

// FlushCache clears the query embedding cache
func FlushCache(cache CacheFlusher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := cache.FlushAll(r.Context())
		if err != nil {
			response.InternalError(w, "failed to flush cache: "+err.Error())
			return
		}

		response.OK(w, map[string]any{
			"message":      "cache flushed successfully",
			"keys_deleted": deleted,
		})
	}
}
