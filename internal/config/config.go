package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
)

// Config represents the engine configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Providers ProvidersConfig
	History   HistoryConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"120"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// ProvidersConfig contains the layered provider configuration store plus
// call-level transport settings.
//
// Configs and LegacyKeys mirror the two persisted shapes the settings UI
// writes: a per-provider record map and the older flat key-by-provider map.
// The per-provider record wins when both are present.
type ProvidersConfig struct {
	Active string `env:"ACTIVE_PROVIDER" envDefault:"gemini"`

	// Configs is a JSON map: provider id -> {"apiKey","baseURL","model"}.
	Configs string `env:"PROVIDER_CONFIGS"`

	// LegacyKeys is a JSON map: provider id -> api key.
	LegacyKeys string `env:"LEGACY_API_KEYS"`

	// GeminiKey is the build-time/environment default key, applied only when
	// the active provider is gemini and no stored key exists.
	GeminiKey string `env:"GEMINI_API_KEY"`

	Timeout    int `env:"PROVIDER_TIMEOUT"     envDefault:"60"`
	MaxRetries int `env:"PROVIDER_MAX_RETRIES" envDefault:"1"`
}

// HistoryConfig contains the bounded history log settings. An empty RedisAddr
// selects the in-memory store.
type HistoryConfig struct {
	RedisAddr     string `env:"HISTORY_REDIS_ADDR"`
	RedisPassword string `env:"HISTORY_REDIS_PASSWORD"`
	RedisDB       int    `env:"HISTORY_REDIS_DB" envDefault:"0"`
	Limit         int    `env:"HISTORY_LIMIT"    envDefault:"10"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*ProvidersConfig
	*HistoryConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Providers,
		&cfg.History,
	}
}
