package config

import (
	"github.com/inducomp/aipk/internal/domain"
)

// Provider identifiers.
const (
	ProviderGemini   = "gemini"
	ProviderChatGPT  = "chatgpt"
	ProviderDeepSeek = "deepseek"
	ProviderQwen     = "qwen"
	ProviderDoubao   = "doubao"
	ProviderClaude   = "claude"
)

// providerDefault holds the built-in endpoint and model for one provider.
type providerDefault struct {
	BaseURL string
	Model   string
}

// defaults is the static per-provider fallback table. The gemini SDK needs no
// base URL; the OpenAI-compatible family differs only in base URL and model.
var defaults = map[string]providerDefault{
	ProviderGemini:   {BaseURL: "", Model: "gemini-2.0-flash-exp"},
	ProviderChatGPT:  {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o"},
	ProviderDeepSeek: {BaseURL: "https://api.deepseek.com", Model: "deepseek-chat"},
	ProviderQwen:     {BaseURL: "https://dashscope-intl.aliyuncs.com/compatible-mode/v1", Model: "qwen-plus"},
	ProviderDoubao:   {BaseURL: "https://ark.cn-beijing.volces.com/api/v3", Model: "doubao-pro-4k"},
	ProviderClaude:   {BaseURL: "https://api.anthropic.com/v1/messages", Model: "claude-3-5-sonnet-20240620"},
}

// Resolver determines the active provider and its credentials from the
// layered store. It is a pure read, never fails, and is consulted fresh on
// every call: an absent key is an empty string checked by the engine before
// dispatch.
type Resolver struct {
	store         Store
	envDefaultKey string
}

// NewResolver creates a resolver over the given store. envDefaultKey applies
// only to the gemini provider when no stored key exists.
func NewResolver(store Store, envDefaultKey string) *Resolver {
	return &Resolver{
		store:         store,
		envDefaultKey: envDefaultKey,
	}
}

// NewResolverFromEnv wires the resolver against the environment-backed store
// (DI constructor).
func NewResolverFromEnv(cfg *ProvidersConfig) *Resolver {
	return NewResolver(NewEnvStore(cfg), cfg.GeminiKey)
}

// Resolve implements domain.ConfigResolver. Resolution order: the current
// per-provider record, else the legacy flat key, else empty; then still-empty
// baseURL/model are filled from the built-in defaults table, and the
// environment default key is applied for gemini last.
func (r *Resolver) Resolve() domain.ProviderConfig {
	active := r.store.ActiveProvider()
	if active == "" {
		active = ProviderGemini
	}

	cfg := domain.ProviderConfig{Provider: active}

	if current, ok := r.store.Settings(active); ok {
		cfg.APIKey = current.APIKey
		cfg.BaseURL = current.BaseURL
		cfg.Model = current.Model
	} else if key, ok := r.store.LegacyKey(active); ok {
		cfg.APIKey = key
	}

	if def, ok := defaults[active]; ok {
		if cfg.BaseURL == "" {
			cfg.BaseURL = def.BaseURL
		}
		if cfg.Model == "" {
			cfg.Model = def.Model
		}
	}

	if cfg.APIKey == "" && active == ProviderGemini {
		cfg.APIKey = r.envDefaultKey
	}

	return cfg
}
