package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/observability"
)

// ModelRouter implements domain.CompletionClient by dispatching each request
// to the registered provider serving its model.
type ModelRouter struct {
	registry domain.ProviderRegistry
}

// NewRouter creates a new router.
func NewRouter(registry domain.ProviderRegistry) *ModelRouter {
	return &ModelRouter{
		registry: registry,
	}
}

// Route selects the provider name for a model.
func (r *ModelRouter) Route(ctx context.Context, model string) (string, error) {
	if model == "" {
		return "", errors.New("model name is required")
	}

	providers, err := r.registry.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list providers: %w", err)
	}

	if len(providers) == 0 {
		return "", errors.New("no providers available")
	}

	provider, err := r.registry.GetByModel(ctx, model)
	if err != nil {
		return "", err
	}

	return provider.Name(), nil
}

// Complete forwards the request to the provider chosen by Route.
func (r *ModelRouter) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	name, err := r.Route(ctx, req.Model)
	if err != nil {
		return nil, fmt.Errorf("provider routing failed: %w", err)
	}

	provider, err := r.registry.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("provider not found: %w", err)
	}

	ctx = observability.WithProvider(ctx, name)
	observability.FromContext(ctx).Debug("routing completion request")

	return provider.Complete(ctx, req)
}
