package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/dig"

	"github.com/inducomp/aipk/internal/config"
	"github.com/inducomp/aipk/internal/domain"
	"github.com/inducomp/aipk/internal/engine"
	"github.com/inducomp/aipk/internal/history"
	"github.com/inducomp/aipk/internal/http"
	"github.com/inducomp/aipk/internal/http/middleware"
	"github.com/inducomp/aipk/internal/observability"
	"github.com/inducomp/aipk/internal/provider/registry"
	"github.com/inducomp/aipk/internal/schema"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(func() domain.EventPublisher {
		return observability.NewEventBus()
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Provider configuration resolver
	if err := container.Provide(func(cfg *config.ProvidersConfig) domain.ConfigResolver {
		return config.NewResolverFromEnv(cfg)
	}); err != nil {
		log.Fatalf("Failed to provide config resolver: %v", err)
	}

	// Adapter registry
	if err := container.Provide(func(cfg *config.ProvidersConfig) domain.AdapterRegistry {
		return registry.Default(registry.Options{
			Timeout:    time.Duration(cfg.Timeout) * time.Second,
			MaxRetries: cfg.MaxRetries,
		})
	}); err != nil {
		log.Fatalf("Failed to provide adapter registry: %v", err)
	}

	// Result validation
	if err := container.Provide(func() (domain.ResultValidator, error) {
		return schema.NewValidator()
	}); err != nil {
		log.Fatalf("Failed to provide validator: %v", err)
	}

	// History store: Redis when configured, in-memory otherwise
	if err := container.Provide(func(cfg *config.HistoryConfig) (domain.HistoryStore, error) {
		if cfg.RedisAddr == "" {
			return history.NewMemoryStore(cfg.Limit), nil
		}
		return history.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Limit)
	}); err != nil {
		log.Fatalf("Failed to provide history store: %v", err)
	}

	// Engine
	if err := container.Provide(engine.New); err != nil {
		log.Fatalf("Failed to provide engine: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(cfg *config.CORSConfig) middleware.Middleware {
		return middleware.BuildMiddlewareChain(cfg)
	}); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
