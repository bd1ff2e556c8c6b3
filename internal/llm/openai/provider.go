package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
)

// Provider implements llm.Provider for any backend speaking the OpenAI
// chat completions API (DashScope compatible mode, OpenAI, DeepSeek)
type Provider struct {
	name           string
	apiKey         string
	baseURL        string
	model          string
	videoModel     string
	visionModel    string
	embeddingModel string
	client         *http.Client
}

// NewProvider creates a new OpenAI compatible provider registered under name
func NewProvider(name string, cfg config.OpenAICompatConfig, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Provider{
		name:           name,
		apiKey:         cfg.APIKey,
		baseURL:        baseURL,
		model:          cfg.Model,
		videoModel:     cfg.VideoModel,
		visionModel:    cfg.VisionModel,
		embeddingModel: cfg.EmbeddingModel,
		client:         &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return p.name
}

// AvailableModels returns the configured models without duplicates
func (p *Provider) AvailableModels() []string {
	var models []string
	seen := make(map[string]bool)
	for _, m := range []string{p.model, p.videoModel, p.visionModel} {
		if m != "" && !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}
	return models
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.model
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// modelFor picks the model for a request kind, falling back to the chat model
func (p *Provider) modelFor(kind llm.Kind) string {
	switch kind {
	case llm.KindVideo:
		if p.videoModel != "" {
			return p.videoModel
		}
	case llm.KindPhoto:
		if p.visionModel != "" {
			return p.visionModel
		}
	}
	return p.model
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatMessage content is either a string or a list of contentParts
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// buildMessages lays out the request as system, history, then the user turn.
// Images precede the text part of the user turn.
func buildMessages(req llm.Request) []chatMessage {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, turn := range req.History {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}

	if len(req.Media) == 0 {
		return append(messages, chatMessage{Role: "user", Content: req.Prompt})
	}

	parts := make([]contentPart, 0, len(req.Media)+1)
	for _, m := range req.Media {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: m.DataURL()}})
	}
	parts = append(parts, contentPart{Type: "text", Text: req.Prompt})
	return append(messages, chatMessage{Role: "user", Content: parts})
}

// Generate sends a single non-streaming chat completion
func (p *Provider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%s: %w", p.name, domain.ErrNotConfigured)
	}
	if model == "" {
		model = p.modelFor(req.Kind)
	}

	chatReq := chatRequest{
		Model:    model,
		Messages: buildMessages(req),
	}

	start := time.Now()

	var chatResp chatResponse
	if err := p.post(ctx, "/chat/completions", chatReq, &chatResp); err != nil {
		return nil, &domain.UpstreamError{Provider: p.name, Model: model, Err: err}
	}

	if len(chatResp.Choices) == 0 {
		return nil, &domain.UpstreamError{Provider: p.name, Model: model, Err: fmt.Errorf("no choices in response")}
	}

	return &llm.Response{
		Content:    strings.TrimSpace(chatResp.Choices[0].Message.Content),
		Model:      model,
		TokensUsed: chatResp.Usage.TotalTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Embed returns the embedding of text using the configured embedding model
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	if !p.IsConfigured() || p.embeddingModel == "" {
		return nil, fmt.Errorf("%s embeddings: %w", p.name, domain.ErrNotConfigured)
	}

	var embResp embeddingResponse
	err := p.post(ctx, "/embeddings", embeddingRequest{
		Model:          p.embeddingModel,
		Input:          text,
		EncodingFormat: "float",
	}, &embResp)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: p.name, Model: p.embeddingModel, Err: err}
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, &domain.UpstreamError{Provider: p.name, Model: p.embeddingModel, Err: fmt.Errorf("empty embedding")}
	}
	return embResp.Data[0].Embedding, nil
}

func (p *Provider) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", p.name, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
