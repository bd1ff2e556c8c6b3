package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
)

// Provider implements llm.Provider for Anthropic
type Provider struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int64
}

// NewProvider creates a new Anthropic provider
func NewProvider(cfg config.AnthropicConfig, opts ...option.RequestOption) *Provider {
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &Provider{
		client:    anthropic.NewClient(opts...),
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{p.model}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.model
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func convertMessages(req llm.Request) []anthropic.MessageParam {
	var result []anthropic.MessageParam
	for _, turn := range req.History {
		if turn.Role == "assistant" {
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		} else {
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Media)+1)
	for _, m := range req.Media {
		blocks = append(blocks, anthropic.NewImageBlockBase64(m.MIMEType, m.Base64()))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))
	return append(result, anthropic.NewUserMessage(blocks...))
}

// Generate sends one Messages API request
func (p *Provider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("anthropic: %w", domain.ErrNotConfigured)
	}
	if model == "" {
		model = p.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: p.maxTokens,
		Messages:  convertMessages(req),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	start := time.Now()
	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: "anthropic", Model: model, Err: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, &domain.UpstreamError{Provider: "anthropic", Model: model, Err: fmt.Errorf("no text in response")}
	}

	return &llm.Response{
		Content:    strings.TrimSpace(sb.String()),
		Model:      model,
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
