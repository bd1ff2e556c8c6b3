package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
)

// Provider implements llm.Provider for Ollama
type Provider struct {
	host           string
	defaultModel   string
	visionModel    string
	embeddingModel string
	client         *http.Client
}

// NewProvider creates a new Ollama provider
func NewProvider(cfg config.OllamaConfig, timeout time.Duration) *Provider {
	defaultModel := cfg.DefaultModel
	if defaultModel == "" {
		defaultModel = "qwen2.5:7b"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Provider{
		host:           strings.TrimRight(cfg.Host, "/"),
		defaultModel:   defaultModel,
		visionModel:    cfg.VisionModel,
		embeddingModel: cfg.EmbeddingModel,
		client:         &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "ollama"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	models := []string{p.defaultModel}
	if p.visionModel != "" && p.visionModel != p.defaultModel {
		models = append(models, p.visionModel)
	}
	return models
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.host != ""
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Generate sends one /api/chat request. Images ride on the final user message.
func (p *Provider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("ollama: %w", domain.ErrNotConfigured)
	}
	if model == "" {
		model = p.defaultModel
		if len(req.Media) > 0 && p.visionModel != "" {
			model = p.visionModel
		}
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, turn := range req.History {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	user := chatMessage{Role: "user", Content: req.Prompt}
	for _, m := range req.Media {
		user.Images = append(user.Images, m.Base64())
	}
	messages = append(messages, user)

	ollamaReq := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"num_predict": 4096,
		},
	}

	start := time.Now()

	var ollamaResp chatResponse
	if err := p.post(ctx, "/api/chat", ollamaReq, &ollamaResp); err != nil {
		return nil, &domain.UpstreamError{Provider: "ollama", Model: model, Err: err}
	}

	return &llm.Response{
		Content:    strings.TrimSpace(ollamaResp.Message.Content),
		Model:      model,
		TokensUsed: ollamaResp.PromptEvalCount + ollamaResp.EvalCount,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Embed computes an embedding with /api/embeddings
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	if !p.IsConfigured() || p.embeddingModel == "" {
		return nil, fmt.Errorf("ollama embeddings: %w", domain.ErrNotConfigured)
	}

	var embResp embeddingResponse
	if err := p.post(ctx, "/api/embeddings", embeddingRequest{Model: p.embeddingModel, Prompt: text}, &embResp); err != nil {
		return nil, &domain.UpstreamError{Provider: "ollama", Model: p.embeddingModel, Err: err}
	}
	if len(embResp.Embedding) == 0 {
		return nil, &domain.UpstreamError{Provider: "ollama", Model: p.embeddingModel, Err: fmt.Errorf("empty embedding")}
	}
	return embResp.Embedding, nil
}

func (p *Provider) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
