package registry_test

import (
	"testing"
	"time"

	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/llm/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cfg := config.LLMConfig{
		DefaultProvider:   "qwen",
		EmbeddingProvider: "qwen",
		Qwen:              config.OpenAICompatConfig{APIKey: "k", BaseURL: "http://localhost", Model: "m", EmbeddingModel: "e"},
		Ollama:            config.OllamaConfig{Host: "http://localhost:11434"},
	}

	router := registry.New(cfg)
	assert.Equal(t, []string{"ollama", "qwen"}, router.ListProviders())
	assert.Len(t, router.GetProvidersInfo(), 6)

	p, err := router.GetProvider("")
	require.NoError(t, err)
	assert.Equal(t, "qwen", p.Name())

	assert.NotNil(t, registry.Embedder(router, cfg, nil, time.Second))
}

func TestEmbedder_Unavailable(t *testing.T) {
	cfg := config.LLMConfig{DefaultProvider: "qwen", EmbeddingProvider: "anthropic"}
	router := registry.New(cfg)
	assert.Nil(t, registry.Embedder(router, cfg, nil, time.Second))
}
