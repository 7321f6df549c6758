// Package registry maps provider identifiers to adapter factories.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inducomp/aipk/internal/config"
	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/observability"
	"github.com/inducomp/aipk/internal/provider/anthropic"
	"github.com/inducomp/aipk/internal/provider/gemini"
	"github.com/inducomp/aipk/internal/provider/openaicompat"
)

// Factory builds an adapter for one resolved provider configuration.
type Factory func(cfg domain.ProviderConfig) (domain.Adapter, error)

// Registry implements domain.AdapterRegistry over a factory table.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Options carries transport settings shared by all factories.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
}

// Default creates a registry with all supported providers registered.
func Default(opts Options) *Registry {
	r := New()

	r.Register(config.ProviderGemini, func(cfg domain.ProviderConfig) (domain.Adapter, error) {
		return gemini.New(cfg, gemini.Options{Timeout: opts.Timeout})
	})

	r.Register(config.ProviderClaude, func(cfg domain.ProviderConfig) (domain.Adapter, error) {
		return anthropic.New(cfg, anthropic.Options{
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
		})
	})

	compat := func(cfg domain.ProviderConfig) (domain.Adapter, error) {
		return openaicompat.New(cfg, openaicompat.Options{
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
		})
	}
	for _, name := range []string{
		config.ProviderChatGPT,
		config.ProviderDeepSeek,
		config.ProviderQwen,
		config.ProviderDoubao,
	} {
		r.Register(name, compat)
	}

	return r
}

// Register adds or replaces the factory for a provider identifier.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
}

// Resolve builds an adapter for the given configuration.
func (r *Registry) Resolve(ctx context.Context, cfg domain.ProviderConfig) (domain.Adapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedProvider, cfg.Provider)
	}

	adapter, err := factory(cfg)
	if err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Debug("resolved provider adapter",
		observability.String("provider", cfg.Provider),
		observability.String("model", cfg.Model),
	)

	return adapter, nil
}

// Names returns the registered provider identifiers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
