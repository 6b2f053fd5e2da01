package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Provider names accepted in configuration and per-request overrides.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ErrOverloaded indicates the upstream model is temporarily unavailable
// (e.g. Gemini 503 UNAVAILABLE). Callers should surface a retry-later
// response instead of a generic failure.
var ErrOverloaded = errors.New("model temporarily overloaded, retry later")

// Client is a minimal text-generation interface to allow pluggable providers.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// ModelInfo describes one installed or configured model.
type ModelInfo struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// Registry holds the configured providers and the default choice.
type Registry struct {
	clients     map[string]Client
	defaultName string
}

// NewRegistry builds a registry; defaultName must be one of the registered
// providers.
func NewRegistry(defaultName string, clients map[string]Client) (*Registry, error) {
	if _, ok := clients[defaultName]; !ok {
		return nil, fmt.Errorf("default provider %q is not configured", defaultName)
	}
	return &Registry{clients: clients, defaultName: defaultName}, nil
}

// Get returns the named provider, or the default when name is empty.
func (r *Registry) Get(name string) (Client, error) {
	if name == "" {
		name = r.defaultName
	}
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return c, nil
}

// DefaultName returns the configured default provider name.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// ProviderName resolves the effective provider name for a request.
func (r *Registry) ProviderName(name string) string {
	if name == "" {
		return r.defaultName
	}
	return name
}

// Models aggregates model listings across providers. Providers that cannot
// enumerate report their single configured model.
func (r *Registry) Models(ctx context.Context) []ModelInfo {
	var out []ModelInfo
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := r.clients[name]
		if lister, ok := c.(ModelLister); ok {
			if models, err := lister.ListModels(ctx); err == nil {
				out = append(out, models...)
				continue
			}
			// Listing failed (backend down); fall back to the configured model.
		}
		out = append(out, ModelInfo{Name: c.Model(), Provider: name})
	}
	return out
}
