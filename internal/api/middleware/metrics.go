package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shuoxuer/shuoxuer-website/internal/metrics"
)

// Metrics records HTTP request duration and count
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		// label by route pattern, not raw path
		path := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}

		code := strconv.Itoa(status)
		metrics.RequestDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, path, code).Inc()
	})
}
