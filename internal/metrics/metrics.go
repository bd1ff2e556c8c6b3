// Package metrics defines Prometheus metrics for the coach backend.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coach_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMCalls counts model calls by outcome: ok, degraded or error
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_llm_calls_total",
			Help: "Total upstream model calls",
		},
		[]string{"provider", "kind", "outcome"},
	)

	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coach_llm_latency_seconds",
			Help:    "Upstream model call latency in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"provider", "kind"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_analyses_total",
			Help: "Total analyses by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	KnowledgeExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_knowledge_extracted_total",
			Help: "Knowledge candidates extracted from chat replies",
		},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coach_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		LLMCalls, LLMLatency,
		AnalysesTotal, KnowledgeExtracted, RateLimited,
	)
}
