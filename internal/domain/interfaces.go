package domain

import "context"

// CompletionClient produces text completions from a remote or local service.
type CompletionClient interface {
	// Complete sends a completion request and returns a result with a freshly minted id.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)
}

// Provider is a named CompletionClient that knows which models it serves.
type Provider interface {
	CompletionClient

	// Name returns the provider identifier.
	Name() string

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool

	// SupportedModels returns the models known to the provider up front.
	SupportedModels(ctx context.Context) []string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// GetByModel retrieves the provider serving the given model.
	GetByModel(ctx context.Context, model string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)

	// Models returns the models each provider serves directly, keyed by provider name.
	Models(ctx context.Context) map[string][]string
}

// RecordStore is the ordered, identity-keyed collection of Records.
type RecordStore interface {
	// Items returns a snapshot of all records, most recently inserted first.
	Items() []Record

	// Upsert replaces the record with the same id in place, or inserts it at
	// the front, then persists the whole collection.
	Upsert(ctx context.Context, record Record) error
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
