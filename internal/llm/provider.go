package llm

import (
	"context"
	"encoding/base64"
)

// Kind selects the task a request is made for. Providers map it to a model.
type Kind string

const (
	KindChat  Kind = "chat"
	KindVideo Kind = "video"
	KindPhoto Kind = "photo"
)

// Media is an image attached to a request
type Media struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the data
func (m Media) Base64() string {
	return base64.StdEncoding.EncodeToString(m.Data)
}

// DataURL returns the media as a data: URL
func (m Media) DataURL() string {
	return "data:" + m.MIMEType + ";base64," + m.Base64()
}

// Turn is a prior message of a conversation
type Turn struct {
	Role    string
	Content string
}

// Request contains generation parameters
type Request struct {
	Kind Kind
	// System is sent as a system message when set
	System string
	// Prompt is the final user message; Media is attached to it
	Prompt  string
	History []Turn
	Media   []Media
}

// Response contains LLM generation result
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Generate sends one request. An empty model selects the provider's
	// model for req.Kind.
	Generate(ctx context.Context, req Request, model string) (*Response, error)
}

// Embedder computes text embeddings
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
