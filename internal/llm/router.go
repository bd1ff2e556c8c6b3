package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

// Router manages LLM providers and routing
type Router struct {
	providers       map[string]Provider
	defaultProvider string
	mu              sync.RWMutex
}

// NewRouter creates a new LLM router
func NewRouter(defaultProvider string) *Router {
	return &Router{
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
	}
}

// RegisterProvider registers an LLM provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// ListProviders returns list of configured provider names
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []string
	for name, p := range r.providers {
		if p.IsConfigured() {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)
	return providers
}

// GetProvider returns a provider by name. An empty name selects the default.
func (r *Router) GetProvider(name string) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", name, domain.ErrNotConfigured)
	}

	if !p.IsConfigured() {
		return nil, fmt.Errorf("provider %s: %w", name, domain.ErrNotConfigured)
	}

	return p, nil
}

// GetEmbedder returns the named provider if it can compute embeddings
func (r *Router) GetEmbedder(name string) (Embedder, error) {
	p, err := r.GetProvider(name)
	if err != nil {
		return nil, err
	}
	e, ok := p.(Embedder)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support embeddings: %w", p.Name(), domain.ErrNotConfigured)
	}
	return e, nil
}

// DefaultProvider returns the default provider name
func (r *Router) DefaultProvider() string {
	return r.defaultProvider
}

// ProviderInfo contains information about an LLM provider
type ProviderInfo struct {
	Name       string   `json:"name"`
	Models     []string `json:"models"`
	Default    bool     `json:"default"`
	Configured bool     `json:"configured"`
	Embeddings bool     `json:"embeddings"`
}

// GetProvidersInfo returns information about all providers
func (r *Router) GetProvidersInfo() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for name, p := range r.providers {
		_, embeds := p.(Embedder)
		infos = append(infos, ProviderInfo{
			Name:       name,
			Models:     p.AvailableModels(),
			Default:    name == r.defaultProvider,
			Configured: p.IsConfigured(),
			Embeddings: embeds,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
