package service

import (
	"context"
	"errors"
	"time"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"github.com/shuoxuer/shuoxuer-website/internal/metrics"
)

// ProviderSource resolves a provider by name; "" selects the default.
// *llm.Router implements it.
type ProviderSource interface {
	GetProvider(name string) (llm.Provider, error)
}

// MediaStore keeps an uploaded file and returns its public URL
type MediaStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Upload is a file received from a client
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// generate issues one model call and records its outcome
func generate(ctx context.Context, p llm.Provider, req llm.Request) (*llm.Response, error) {
	start := time.Now()
	resp, err := p.Generate(ctx, req, "")
	metrics.LLMLatency.WithLabelValues(p.Name(), string(req.Kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCalls.WithLabelValues(p.Name(), string(req.Kind), "error").Inc()
		return nil, err
	}
	metrics.LLMCalls.WithLabelValues(p.Name(), string(req.Kind), "ok").Inc()
	return resp, nil
}

// complete is generate followed by JSON normalization
func complete(ctx context.Context, p llm.Provider, req llm.Request) (*llm.Normalized, *llm.Response, error) {
	start := time.Now()
	n, resp, err := llm.Complete(ctx, p, req, "")
	metrics.LLMLatency.WithLabelValues(p.Name(), string(req.Kind)).Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case !n.OK():
		outcome = "degraded"
	}
	metrics.LLMCalls.WithLabelValues(p.Name(), string(req.Kind), outcome).Inc()
	return n, resp, err
}

// outcomeLabel classifies an analysis error for metrics
func outcomeLabel(err error) string {
	var upstream *domain.UpstreamError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.Is(err, domain.ErrNoFrames), errors.Is(err, domain.ErrMediaDecode):
		return "media_error"
	default:
		return "error"
	}
}

// unwrapAnalysis returns the analysis object of a stored record. Older
// records nest it under "analysis".
func unwrapAnalysis(data map[string]any) map[string]any {
	if inner, ok := data["analysis"].(map[string]any); ok {
		return inner
	}
	return data
}

// Summarize returns the short result line stored with an archive
func Summarize(typ domain.AnalysisType, analysis map[string]any) string {
	analysis = unwrapAnalysis(analysis)
	switch typ {
	case domain.AnalysisVideo:
		if report, ok := analysis["analysis_report"].(map[string]any); ok {
			if info, ok := report["video_info"].(string); ok && info != "" {
				return info
			}
		}
		return "羽毛球视频分析"
	default:
		if s, ok := analysis["one_line_summary"].(string); ok && s != "" {
			return s
		}
		return "穿搭分析"
	}
}

func truncateRunes(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}
