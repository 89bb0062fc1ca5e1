package main

import (
	"context"
	"fmt"

	"go.uber.org/dig"

	"github.com/davidbz/promptician/internal/config"
	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/http"
	"github.com/davidbz/promptician/internal/http/middleware"
	"github.com/davidbz/promptician/internal/observability"
	"github.com/davidbz/promptician/internal/provider/echo"
	"github.com/davidbz/promptician/internal/provider/openai"
	"github.com/davidbz/promptician/internal/provider/registry"
	"github.com/davidbz/promptician/internal/routing"
	"github.com/davidbz/promptician/internal/store/yamlfile"
)

func buildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name        string
		constructor interface{}
	}{
		// Configuration
		{"config", config.Load},
		{"config dependencies", config.ParseDependenciesConfig},

		// Observability
		{"logger", observability.InitLogger},
		{"event bus", func(cfg *config.ServerConfig) *observability.EventBus {
			return observability.NewEventBus(cfg.EventBuffer)
		}},
		{"event publisher", func(bus *observability.EventBus) domain.EventPublisher {
			return bus
		}},

		// Storage
		{"record store", func(cfg *yamlfile.Config) (domain.RecordStore, error) {
			return yamlfile.NewStore(cfg)
		}},

		// Providers
		{"OpenAI provider", func(cfg *openai.Config) *openai.Provider {
			return openai.NewProvider(*cfg)
		}},
		{"echo provider", echo.NewProvider},
		{"provider registry", newProviderRegistry},
		{"completion client", func(reg domain.ProviderRegistry) domain.CompletionClient {
			return routing.NewRouter(reg)
		}},

		// Domain Services
		{"session service", domain.NewSessionService},
		{"history service", domain.NewHistoryService},

		// HTTP Layer
		{"middleware chain", middleware.BuildMiddlewareChain},
		{"HTTP handler", http.NewHandler},
		{"HTTP server", http.NewServer},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	return container, nil
}

// newProviderRegistry registers every provider. The OpenAI provider is always
// registered; without a key its requests fail with a credential error.
func newProviderRegistry(openaiProvider *openai.Provider, echoProvider *echo.Provider) (domain.ProviderRegistry, error) {
	ctx := context.Background()
	reg := registry.NewRegistry()

	if err := reg.Register(ctx, openaiProvider); err != nil {
		return nil, fmt.Errorf("failed to register OpenAI provider: %w", err)
	}
	if err := reg.Register(ctx, echoProvider); err != nil {
		return nil, fmt.Errorf("failed to register echo provider: %w", err)
	}

	return reg, nil
}
