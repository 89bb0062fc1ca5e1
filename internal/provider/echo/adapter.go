// Package echo provides a testing provider that echoes back the prompt.
// It implements the domain.Provider interface without making external API calls,
// providing deterministic responses for testing and development purposes.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/observability"
)

const (
	providerName = "echo"
	modelName    = "echo"
)

// Provider implements the domain.Provider interface for echo testing.
type Provider struct {
	name            string
	supportedModels map[string]bool
	now             func() time.Time
}

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider() *Provider {
	return &Provider{
		name: providerName,
		supportedModels: map[string]bool{
			modelName: true,
		},
		now: time.Now,
	}
}

// Complete echoes the prompt back, cut at the first stop word and limited to
// MaxTokens words.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if !p.supportedModels[req.Model] {
		return nil, fmt.Errorf("model %s: %w", req.Model, domain.ErrModelNotSupported)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	text, finishReason := buildEchoContent(req.Prompt, req.Stop, req.MaxTokens)

	promptTokens := countTokens(req.Prompt)
	completionTokens := countTokens(text)

	logger.Debug("echo completed",
		observability.Int("prompt_tokens", promptTokens),
		observability.Int("completion_tokens", completionTokens),
	)

	id := domain.NewResultID()

	return &domain.CompletionResult{
		ID:         id,
		Completion: text,
		RawRequest: req.ToRawRequest(),
		RawResponse: map[string]any{
			"id":      "echo-" + id,
			"object":  "text_completion",
			"created": int(p.now().Unix()),
			"model":   req.Model,
			"choices": []any{
				map[string]any{
					"text":          text,
					"index":         0,
					"finish_reason": finishReason,
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     promptTokens,
				"completion_tokens": completionTokens,
				"total_tokens":      promptTokens + completionTokens,
			},
		},
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.supportedModels[model]
}

// SupportedModels returns a list of all models this provider supports.
func (p *Provider) SupportedModels(_ context.Context) []string {
	models := make([]string, 0, len(p.supportedModels))
	for model := range p.supportedModels {
		models = append(models, model)
	}
	return models
}

// buildEchoContent cuts the prompt at the earliest stop word and keeps at most
// maxTokens words.
func buildEchoContent(prompt string, stop []string, maxTokens int) (string, string) {
	text := prompt
	cut := len(text)
	for _, word := range stop {
		if i := strings.Index(text, word); i >= 0 && i < cut {
			cut = i
		}
	}
	text = text[:cut]

	words := strings.Fields(text)
	if maxTokens > 0 && len(words) > maxTokens {
		return strings.Join(words[:maxTokens], " "), "length"
	}
	return text, "stop"
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
