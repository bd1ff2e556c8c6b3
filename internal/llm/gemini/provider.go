package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"google.golang.org/api/option"
)

type Provider struct {
	apiKey         string
	model          string
	embeddingModel string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) AvailableModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// imagePart converts an attachment to an inline blob; genai wants the
// subtype only ("jpeg", "png").
func imagePart(m llm.Media) genai.Part {
	format := strings.TrimPrefix(m.MIMEType, "image/")
	if format == "" || format == m.MIMEType {
		format = "jpeg"
	}
	return genai.ImageData(format, m.Data)
}

func historyContent(turns []llm.Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return history
}

func (p *Provider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini: %w", domain.ErrNotConfigured)
	}

	if model == "" {
		model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, &domain.UpstreamError{Provider: "gemini", Model: model, Err: fmt.Errorf("failed to create gemini client: %w", err)}
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	if req.System != "" {
		generativeModel.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	parts := make([]genai.Part, 0, len(req.Media)+1)
	for _, m := range req.Media {
		parts = append(parts, imagePart(m))
	}
	parts = append(parts, genai.Text(req.Prompt))

	cs := generativeModel.StartChat()
	cs.History = historyContent(req.History)

	start := time.Now()
	resp, err := cs.SendMessage(ctx, parts...)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return nil, &domain.UpstreamError{Provider: "gemini", Model: model, Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &domain.UpstreamError{Provider: "gemini", Model: model, Err: fmt.Errorf("empty response from gemini")}
	}

	var output string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Content:    strings.TrimSpace(output),
		Model:      model,
		TokensUsed: tokensUsed,
		LatencyMs:  latency,
	}, nil
}

// Embed computes a text embedding with the configured embedding model
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	if !p.IsConfigured() || p.embeddingModel == "" {
		return nil, fmt.Errorf("gemini embeddings: %w", domain.ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, &domain.UpstreamError{Provider: "gemini", Model: p.embeddingModel, Err: err}
	}
	defer client.Close()

	res, err := client.EmbeddingModel(p.embeddingModel).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &domain.UpstreamError{Provider: "gemini", Model: p.embeddingModel, Err: err}
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, &domain.UpstreamError{Provider: "gemini", Model: p.embeddingModel, Err: fmt.Errorf("empty embedding")}
	}

	vec := make([]float64, len(res.Embedding.Values))
	for i, v := range res.Embedding.Values {
		vec[i] = float64(v)
	}
	return vec, nil
}
