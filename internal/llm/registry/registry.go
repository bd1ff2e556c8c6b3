// Package registry wires the configured model providers into an llm.Router.
package registry

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/knowledge"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"github.com/shuoxuer/shuoxuer-website/internal/llm/anthropic"
	"github.com/shuoxuer/shuoxuer-website/internal/llm/gemini"
	"github.com/shuoxuer/shuoxuer-website/internal/llm/ollama"
	"github.com/shuoxuer/shuoxuer-website/internal/llm/openai"
)

// New registers every known provider. Providers without credentials stay
// registered but are reported as not configured.
func New(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.DefaultProvider)

	router.RegisterProvider(openai.NewProvider("qwen", cfg.Qwen, cfg.Timeout))
	router.RegisterProvider(openai.NewProvider("openai", cfg.OpenAI, cfg.Timeout))
	router.RegisterProvider(openai.NewProvider("deepseek", cfg.DeepSeek, cfg.Timeout))
	router.RegisterProvider(anthropic.NewProvider(cfg.Anthropic))
	router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	router.RegisterProvider(ollama.NewProvider(cfg.Ollama, cfg.Timeout))

	configured := router.ListProviders()
	if len(configured) == 0 {
		log.Warn().Msg("No LLM provider is configured; analysis and chat will fail")
	} else {
		log.Info().Strs("providers", configured).Msg("LLM providers ready")
	}
	return router
}

// Embedder returns the configured embedding provider wrapped with the
// query cache, or nil when none is available
func Embedder(router *llm.Router, cfg config.LLMConfig, cache knowledge.EmbeddingCache, timeout time.Duration) llm.Embedder {
	e, err := router.GetEmbedder(cfg.EmbeddingProvider)
	if err != nil {
		log.Warn().Err(err).Msg("Embeddings disabled; knowledge search will return nothing")
		return nil
	}
	return knowledge.NewCachedEmbedder(e, cache, cfg.EmbeddingProvider, timeout)
}
