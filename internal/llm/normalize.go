package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

var errNotObject = errors.New("output is not a JSON object")

// Normalized is the tagged outcome of parsing model output: either Data is
// set, or Failure carries the raw text.
type Normalized struct {
	Data    map[string]any
	Failure *domain.ParseFailure
}

// OK reports whether the output parsed to a JSON object
func (n *Normalized) OK() bool {
	return n.Failure == nil
}

// Complete issues exactly one request and normalizes the reply.
// Errors are configuration or upstream failures; a parse failure is
// reported through Normalized.
func Complete(ctx context.Context, p Provider, req Request, model string) (*Normalized, *Response, error) {
	resp, err := p.Generate(ctx, req, model)
	if err != nil {
		return nil, nil, err
	}

	n := Normalize(resp.Content)
	if !n.OK() {
		log.Error().
			Str("provider", p.Name()).
			Str("model", resp.Model).
			Str("raw", n.Failure.Raw).
			Msg("model returned non-JSON output")
	}
	return n, resp, nil
}

// Normalize strips a surrounding code fence and decodes a JSON object
func Normalize(text string) *Normalized {
	cleaned := StripFence(text)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return &Normalized{Failure: &domain.ParseFailure{Raw: cleaned, Cause: err}}
	}
	if data == nil {
		// literal null
		return &Normalized{Failure: &domain.ParseFailure{Raw: cleaned, Cause: errNotObject}}
	}
	return &Normalized{Data: data}
}

// StripFence removes a markdown code fence wrapping the whole text.
// A language tag after the opening marker is allowed.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		inner := strings.TrimPrefix(text, "```")
		inner = strings.TrimSuffix(inner, "```")
		inner = strings.TrimPrefix(inner, "json")
		return strings.TrimSpace(inner)
	}

	lines = lines[1:]
	if last := strings.TrimSpace(lines[len(lines)-1]); strings.HasPrefix(last, "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
