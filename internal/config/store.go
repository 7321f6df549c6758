package config

import (
	"encoding/json"
	"sync"
)

// ProviderSettings is one stored per-provider configuration record.
type ProviderSettings struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseURL"`
	Model   string `json:"model"`
}

// Store is the layered provider configuration source the resolver reads.
// Writing it is a UI/settings concern; the engine only reads.
type Store interface {
	// ActiveProvider returns the currently selected provider identifier.
	ActiveProvider() string

	// Settings returns the current per-provider record, if present.
	Settings(provider string) (ProviderSettings, bool)

	// LegacyKey returns the flat legacy key for a provider, if present.
	LegacyKey(provider string) (string, bool)
}

// EnvStore reads the store from the parsed environment configuration. Invalid
// JSON in either layer is treated as absent rather than fatal; the resolver
// never fails.
type EnvStore struct {
	active     string
	settings   map[string]ProviderSettings
	legacyKeys map[string]string
}

// NewEnvStore parses the provider configuration layers out of cfg.
func NewEnvStore(cfg *ProvidersConfig) *EnvStore {
	s := &EnvStore{
		active:     cfg.Active,
		settings:   map[string]ProviderSettings{},
		legacyKeys: map[string]string{},
	}

	if cfg.Configs != "" {
		_ = json.Unmarshal([]byte(cfg.Configs), &s.settings)
	}
	if cfg.LegacyKeys != "" {
		_ = json.Unmarshal([]byte(cfg.LegacyKeys), &s.legacyKeys)
	}

	return s
}

// ActiveProvider implements Store.
func (s *EnvStore) ActiveProvider() string {
	return s.active
}

// Settings implements Store.
func (s *EnvStore) Settings(provider string) (ProviderSettings, bool) {
	cfg, ok := s.settings[provider]
	return cfg, ok
}

// LegacyKey implements Store.
func (s *EnvStore) LegacyKey(provider string) (string, bool) {
	key, ok := s.legacyKeys[provider]
	return key, ok
}

// MemoryStore is a mutable in-memory Store used by the settings surface and
// in tests. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	active     string
	settings   map[string]ProviderSettings
	legacyKeys map[string]string
}

// NewMemoryStore creates an empty store with the given active provider.
func NewMemoryStore(active string) *MemoryStore {
	return &MemoryStore{
		active:     active,
		settings:   map[string]ProviderSettings{},
		legacyKeys: map[string]string{},
	}
}

// ActiveProvider implements Store.
func (s *MemoryStore) ActiveProvider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Settings implements Store.
func (s *MemoryStore) Settings(provider string) (ProviderSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.settings[provider]
	return cfg, ok
}

// LegacyKey implements Store.
func (s *MemoryStore) LegacyKey(provider string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.legacyKeys[provider]
	return key, ok
}

// SetActive switches the active provider.
func (s *MemoryStore) SetActive(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = provider
}

// SetSettings stores a per-provider record.
func (s *MemoryStore) SetSettings(provider string, cfg ProviderSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[provider] = cfg
}

// SetLegacyKey stores a flat legacy key.
func (s *MemoryStore) SetLegacyKey(provider, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacyKeys[provider] = key
}
