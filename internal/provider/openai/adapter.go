// Package openai provides a completion client for the OpenAI text completions
// API using the official SDK. It implements the domain.Provider interface and
// records the exact request parameters and raw response of every call.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/observability"
)

const providerName = "openai"

// Provider implements the domain.Provider interface for OpenAI.
type Provider struct {
	client   openai.Client
	name     string
	hasKey   bool
	knownSet map[string]bool
}

// NewProvider creates a new OpenAI provider. A missing API key is not an
// error here so the application can start without one.
func NewProvider(config Config) *Provider {
	opts := []option.RequestOption{}

	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}

	if config.Organization != "" {
		opts = append(opts, option.WithOrganization(config.Organization))
	}

	if config.Project != "" {
		opts = append(opts, option.WithProject(config.Project))
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	if config.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	known := make(map[string]bool)
	for _, model := range SupportedModels() {
		known[model] = true
	}

	return &Provider{
		client:   openai.NewClient(opts...),
		name:     providerName,
		hasKey:   config.APIKey != "",
		knownSet: known,
	}
}

// Complete sends a completion request and returns the result under a new id.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if !p.hasKey {
		return nil, fmt.Errorf("OPENAI_API_KEY: %w", domain.ErrMissingCredential)
	}

	logger := observability.FromContext(observability.WithProvider(ctx, p.name))
	logger.Debug("calling OpenAI API")

	raw := req.ToRawRequest()

	resp, err := p.client.Completions.New(ctx, toSDKParams(raw))
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("OpenAI returned no choices")
	}

	rawResponse, err := toRawResponse(resp)
	if err != nil {
		return nil, err
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return &domain.CompletionResult{
		ID:          domain.NewResultID(),
		Completion:  resp.Choices[0].Text,
		RawRequest:  raw,
		RawResponse: rawResponse,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported accepts any model name; the service itself rejects unknown models.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return model != ""
}

// SupportedModels returns the models registered for direct lookup.
func (p *Provider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(p.knownSet))
	for model := range p.knownSet {
		models = append(models, model)
	}
	return models
}

// toSDKParams converts the raw request into SDK parameters, including the
// fixed sampling parameters.
func toSDKParams(raw domain.RawRequest) openai.CompletionNewParams {
	params := openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(raw.Model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(raw.Prompt),
		},
		Temperature:      openai.Float(raw.Temperature),
		MaxTokens:        openai.Int(int64(raw.MaxTokens)),
		TopP:             openai.Float(raw.TopP),
		FrequencyPenalty: openai.Float(raw.FrequencyPenalty),
		PresencePenalty:  openai.Float(raw.PresencePenalty),
	}

	if len(raw.Stop) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{
			OfStringArray: []string(raw.Stop),
		}
	}

	return params
}

// toRawResponse converts the SDK response into plain maps and slices so it can
// be persisted without references to SDK objects.
func toRawResponse(resp *openai.Completion) (map[string]any, error) {
	data := []byte(resp.RawJSON())
	if len(data) == 0 {
		var err error
		data, err = json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode raw response: %w", err)
	}
	return normalizeNumbers(raw).(map[string]any), nil
}

// normalizeNumbers turns integral JSON numbers into ints so the value reads
// back from YAML with the same types.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int(t)
		}
		return t
	default:
		return v
	}
}
