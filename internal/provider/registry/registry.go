package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/observability"
)

// Registry implements the ProviderRegistry interface.
//
// Models a provider lists in SupportedModels resolve through an index; the
// first provider to claim a model keeps it. Any other model is offered to the
// providers in registration order, so a catch-all provider registered first
// wins over later ones.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	byName  map[string]domain.Provider
	byModel map[string]string
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]domain.Provider),
		byModel: make(map[string]string),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(ctx context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.byName[name] = provider
	r.order = append(r.order, name)

	logger := observability.FromContext(observability.WithProvider(ctx, name))
	models := provider.SupportedModels(ctx)
	for _, model := range models {
		if owner, claimed := r.byModel[model]; claimed {
			logger.Warn("model already served by another provider",
				observability.String("model", model),
				observability.String("owner", owner))
			continue
		}
		r.byModel[model] = name
	}

	logger.Info("provider registered", observability.Int("models", len(models)))
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(_ context.Context, providerName string) (domain.Provider, error) {
	if providerName == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.byName[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", providerName)
	}

	return provider, nil
}

// List returns the provider names in registration order.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names, nil
}

// Models returns the indexed models of every provider, sorted per provider.
func (r *Registry) Models(_ context.Context) map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make(map[string][]string, len(r.byName))
	for _, name := range r.order {
		models[name] = []string{}
	}
	for model, name := range r.byModel {
		models[name] = append(models[name], model)
	}
	for _, list := range models {
		sort.Strings(list)
	}
	return models
}

// GetByModel retrieves the provider serving the given model.
func (r *Registry) GetByModel(ctx context.Context, model string) (domain.Provider, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, indexed := r.byModel[model]; indexed {
		return r.byName[name], nil
	}

	for _, name := range r.order {
		if provider := r.byName[name]; provider.IsModelSupported(ctx, model) {
			return provider, nil
		}
	}

	return nil, fmt.Errorf("no provider found for model %s: %w", model, domain.ErrModelNotSupported)
}
