package domain

import "context"

// ProviderConfig is the resolved configuration for one outbound call. APIKey
// is a secret and must never be logged.
type ProviderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// PromptRequest is a provider-agnostic generation request produced by the
// prompt builders. Builders are pure; adapters only transport.
type PromptRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider for machine-parseable output where supported.
	JSONMode bool
	// WebSearch enables the search-grounding tool on providers that offer one.
	WebSearch bool
}

// Adapter issues the network call for one wire protocol family and returns
// the raw completion text. Extraction and repair happen in the engine.
type Adapter interface {
	// Generate sends one request and returns the raw model text.
	Generate(ctx context.Context, req *PromptRequest) (string, error)

	// Name returns the adapter identifier.
	Name() string
}

// AdapterRegistry maps a resolved provider configuration to an adapter.
type AdapterRegistry interface {
	// Resolve returns an adapter for the given configuration, or
	// ErrUnsupportedProvider.
	Resolve(ctx context.Context, cfg ProviderConfig) (Adapter, error)
}

// ConfigResolver reads the layered provider configuration. It is consulted at
// the start of every call so configuration changes take effect without
// synchronization.
type ConfigResolver interface {
	Resolve() ProviderConfig
}

// ResultValidator checks decoded provider output against the expected result
// schemas before it is trusted as a domain object.
type ResultValidator interface {
	ValidateComparison(data []byte) error
	ValidateSimulation(data []byte) error
	ValidateDatabase(data []byte) error
}

// HistoryStore persists a bounded log of live results, newest first.
type HistoryStore interface {
	Append(ctx context.Context, item HistoryItem) error
	List(ctx context.Context) ([]HistoryItem, error)
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
