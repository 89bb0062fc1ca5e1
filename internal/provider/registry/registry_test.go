package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/provider/registry"
)

// mockProvider is a mock implementation of domain.Provider for testing.
type mockProvider struct {
	name string
}

func (m *mockProvider) Complete(_ context.Context, _ *domain.CompletionRequest) (*domain.CompletionResult, error) {
	return &domain.CompletionResult{}, nil
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) IsModelSupported(_ context.Context, model string) bool {
	if m.name == "openai" && (model == "gpt-3.5-turbo-instruct" || model == "davinci-002") {
		return true
	}
	if m.name == "echo" && model == "echo" {
		return true
	}
	return false
}

func (m *mockProvider) SupportedModels(_ context.Context) []string {
	if m.name == "openai" {
		return []string{"gpt-3.5-turbo-instruct"}
	}
	if m.name == "echo" {
		return []string{"echo"}
	}
	return []string{}
}

func TestRegistry_Register(t *testing.T) {
	t.Run("should register provider successfully", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		provider := &mockProvider{name: "test-provider"}

		err := reg.Register(ctx, provider)
		require.NoError(t, err)

		// Verify provider was registered
		registered, err := reg.Get(ctx, "test-provider")
		require.NoError(t, err)
		require.NotNil(t, registered)
		require.Equal(t, "test-provider", registered.Name())
	})

	t.Run("should return error when provider is nil", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		err := reg.Register(ctx, nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider cannot be nil")
	})

	t.Run("should return error when provider name is empty", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		provider := &mockProvider{name: ""}

		err := reg.Register(ctx, provider)
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider name cannot be empty")
	})

	t.Run("should return error when provider already registered", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		provider1 := &mockProvider{name: "test-provider"}
		provider2 := &mockProvider{name: "test-provider"}

		err := reg.Register(ctx, provider1)
		require.NoError(t, err)

		err = reg.Register(ctx, provider2)
		require.Error(t, err)
		require.Contains(t, err.Error(), "already registered")
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("should get registered provider", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		provider := &mockProvider{name: "test-provider"}
		err := reg.Register(ctx, provider)
		require.NoError(t, err)

		retrieved, err := reg.Get(ctx, "test-provider")
		require.NoError(t, err)
		require.NotNil(t, retrieved)
		require.Equal(t, "test-provider", retrieved.Name())
	})

	t.Run("should return error when provider name is empty", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		_, err := reg.Get(ctx, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "provider name cannot be empty")
	})

	t.Run("should return error when provider not found", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		_, err := reg.Get(ctx, "nonexistent")
		require.Error(t, err)
		require.Contains(t, err.Error(), "not found")
	})
}

func TestRegistry_List(t *testing.T) {
	t.Run("should return empty list when no providers registered", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		providers, err := reg.List(ctx)
		require.NoError(t, err)
		require.NotNil(t, providers)
		require.Empty(t, providers)
	})

	t.Run("should return all registered providers", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		provider1 := &mockProvider{name: "provider1"}
		provider2 := &mockProvider{name: "provider2"}
		provider3 := &mockProvider{name: "provider3"}

		err := reg.Register(ctx, provider1)
		require.NoError(t, err)

		err = reg.Register(ctx, provider2)
		require.NoError(t, err)

		err = reg.Register(ctx, provider3)
		require.NoError(t, err)

		providers, err := reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, providers, 3)
		require.Contains(t, providers, "provider1")
		require.Contains(t, providers, "provider2")
		require.Contains(t, providers, "provider3")
	})
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Run("should handle concurrent registrations safely", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		done := make(chan bool)

		// Register providers concurrently
		for i := range 10 {
			go func(idx int) {
				provider := &mockProvider{name: string(rune('a' + idx))}
				reg.Register(ctx, provider)
				done <- true
			}(i)
		}

		// Wait for all goroutines
		for range 10 {
			<-done
		}

		providers, err := reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, providers, 10)
	})
}

func TestRegistry_GetByModel(t *testing.T) {
	t.Run("should return provider that supports the model", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		openaiProvider := &mockProvider{name: "openai"}
		echoProvider := &mockProvider{name: "echo"}

		err := reg.Register(ctx, openaiProvider)
		require.NoError(t, err)

		err = reg.Register(ctx, echoProvider)
		require.NoError(t, err)

		// Test OpenAI model
		provider, err := reg.GetByModel(ctx, "gpt-3.5-turbo-instruct")
		require.NoError(t, err)
		require.NotNil(t, provider)
		require.Equal(t, "openai", provider.Name())

		// Test echo model
		provider, err = reg.GetByModel(ctx, "echo")
		require.NoError(t, err)
		require.NotNil(t, provider)
		require.Equal(t, "echo", provider.Name())
	})

	t.Run("should return error when model is empty", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		_, err := reg.GetByModel(ctx, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "model cannot be empty")
	})

	t.Run("should return error when no provider supports the model", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		openaiProvider := &mockProvider{name: "openai"}
		err := reg.Register(ctx, openaiProvider)
		require.NoError(t, err)

		_, err = reg.GetByModel(ctx, "unsupported-model")
		require.ErrorIs(t, err, domain.ErrModelNotSupported)
		require.Contains(t, err.Error(), "no provider found for model")
	})

	t.Run("should return error when registry is empty", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		_, err := reg.GetByModel(ctx, "gpt-3.5-turbo-instruct")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no provider found for model")
	})

	t.Run("should use O(1) lookup with reverse index", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		// Register multiple providers with different models
		for i := range 10 {
			provider := &mockProvider{name: "provider-" + string(rune('a'+i))}
			err := reg.Register(ctx, provider)
			require.NoError(t, err)
		}

		// Register the target provider
		targetProvider := &mockProvider{name: "openai"}
		err := reg.Register(ctx, targetProvider)
		require.NoError(t, err)

		// Perform many lookups - should be fast with O(1) reverse index
		lookups := 1000
		for range lookups {
			provider, lookupErr := reg.GetByModel(ctx, "gpt-3.5-turbo-instruct")
			require.NoError(t, lookupErr)
			require.Equal(t, "openai", provider.Name())
		}
	})

	t.Run("should fall back to asking providers for unlisted models", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		err := reg.Register(ctx, &mockProvider{name: "openai"})
		require.NoError(t, err)

		provider, err := reg.GetByModel(ctx, "davinci-002")
		require.NoError(t, err)
		require.Equal(t, "openai", provider.Name())
	})
}

// catchAllProvider accepts every model but lists none.
type catchAllProvider struct {
	name string
}

func (c *catchAllProvider) Complete(_ context.Context, _ *domain.CompletionRequest) (*domain.CompletionResult, error) {
	return &domain.CompletionResult{}, nil
}

func (c *catchAllProvider) Name() string { return c.name }

func (c *catchAllProvider) IsModelSupported(_ context.Context, model string) bool { return model != "" }

func (c *catchAllProvider) SupportedModels(_ context.Context) []string { return nil }

func TestRegistry_RegistrationOrder(t *testing.T) {
	t.Run("should list providers in registration order", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		for _, name := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, reg.Register(ctx, &mockProvider{name: name}))
		}

		names, err := reg.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"zeta", "alpha", "mid"}, names)
	})

	t.Run("should offer unlisted models to the first registered provider", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		require.NoError(t, reg.Register(ctx, &catchAllProvider{name: "first"}))
		require.NoError(t, reg.Register(ctx, &catchAllProvider{name: "second"}))

		for range 20 {
			provider, err := reg.GetByModel(ctx, "ft:davinci-002:acme")
			require.NoError(t, err)
			require.Equal(t, "first", provider.Name())
		}
	})

	t.Run("should prefer the index over a catch-all provider", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		require.NoError(t, reg.Register(ctx, &catchAllProvider{name: "catch-all"}))
		require.NoError(t, reg.Register(ctx, &mockProvider{name: "echo"}))

		provider, err := reg.GetByModel(ctx, "echo")
		require.NoError(t, err)
		require.Equal(t, "echo", provider.Name())
	})

	t.Run("should keep the first claim on a model", func(t *testing.T) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		require.NoError(t, reg.Register(ctx, &mockProvider{name: "openai"}))
		require.NoError(t, reg.Register(ctx, &namedModelsProvider{name: "proxy", models: []string{"gpt-3.5-turbo-instruct", "proxy-model"}}))

		provider, err := reg.GetByModel(ctx, "gpt-3.5-turbo-instruct")
		require.NoError(t, err)
		require.Equal(t, "openai", provider.Name())

		require.Equal(t, map[string][]string{
			"openai": {"gpt-3.5-turbo-instruct"},
			"proxy":  {"proxy-model"},
		}, reg.Models(ctx))
	})
}

func TestRegistry_Models(t *testing.T) {
	reg := registry.NewRegistry()
	ctx := context.Background()

	require.Empty(t, reg.Models(ctx))

	require.NoError(t, reg.Register(ctx, &namedModelsProvider{name: "multi", models: []string{"b", "a", "c"}}))
	require.NoError(t, reg.Register(ctx, &catchAllProvider{name: "open"}))

	require.Equal(t, map[string][]string{
		"multi": {"a", "b", "c"},
		"open":  {},
	}, reg.Models(ctx))
}

// namedModelsProvider serves exactly the listed models.
type namedModelsProvider struct {
	name   string
	models []string
}

func (n *namedModelsProvider) Complete(_ context.Context, _ *domain.CompletionRequest) (*domain.CompletionResult, error) {
	return &domain.CompletionResult{}, nil
}

func (n *namedModelsProvider) Name() string { return n.name }

func (n *namedModelsProvider) IsModelSupported(_ context.Context, model string) bool {
	for _, m := range n.models {
		if m == model {
			return true
		}
	}
	return false
}

func (n *namedModelsProvider) SupportedModels(_ context.Context) []string { return n.models }
