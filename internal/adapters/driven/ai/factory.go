// Package ai builds the configured embedding and LLM adapters and checks
// that they answer before the rest of the application relies on them.
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	ollamaembed "github.com/custodia-labs/playbookbot/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/playbookbot/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/playbookbot/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/playbookbot/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/playbookbot/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/logger"
	"github.com/custodia-labs/playbookbot/internal/ratelimit"
)

// pingTimeout bounds each provider check, retries included.
const pingTimeout = 5 * time.Second

// InitResult holds the providers that passed their check. A nil service
// means the feature is unavailable; Warnings says why.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string
}

// Close releases both services.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds and checks both providers concurrently. Failures never abort
// startup: they are logged and returned as warnings, embedding first. When
// limiter is non-nil, LLM calls are throttled under the llm-api key.
func Init(ctx context.Context, settings domain.AppSettings, limiter *ratelimit.Limiter) *InitResult {
	var (
		result             InitResult
		embedWarn, llmWarn string
		wg                 sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		svc, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
		switch {
		case err != nil:
			embedWarn = err.Error()
		case svc == nil:
			embedWarn = "embedding provider not configured: playbooks will not be searchable"
		default:
			result.EmbeddingService = svc
		}
	}()
	go func() {
		defer wg.Done()
		svc, err := CreateAndValidateLLMService(ctx, &settings.LLM)
		switch {
		case err != nil:
			llmWarn = err.Error()
		case svc == nil:
			llmWarn = "LLM provider not configured: explanations and categories are disabled"
		default:
			if limiter != nil {
				svc = NewRateLimitedLLM(svc, limiter)
			}
			result.LLMService = svc
		}
	}()
	wg.Wait()

	for _, w := range []string{embedWarn, llmWarn} {
		if w != "" {
			result.Warnings = append(result.Warnings, w)
			logger.Warn("%s", w)
		}
	}
	return &result
}

// pinger is what both provider kinds share for validation.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// validate pings svc and closes it when the check fails. unavailable is
// the sentinel the error wraps.
func validate[S pinger](ctx context.Context, svc S, unavailable error) (S, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		var zero S
		return zero, fmt.Errorf("%w: service unreachable (%w)", unavailable, err)
	}
	return svc, nil
}

// CreateAndValidateEmbeddingService builds the embedding provider and
// pings it. It returns nil, nil when none is configured.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check [embedding] in config.toml", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}
	return validate(ctx, svc, domain.ErrEmbeddingUnavailable)
}

// CreateAndValidateLLMService builds the LLM provider and pings it. It
// returns nil, nil when none is configured.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check [llm] in config.toml", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}
	return validate(ctx, svc, domain.ErrLLMUnavailable)
}

// CreateEmbeddingService builds the embedding adapter for settings without
// contacting it. It returns nil, nil when no provider is configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	dims := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dims,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dims,
		})
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
	}
	return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
}

// CreateLLMService builds the LLM adapter for settings without contacting
// it. It returns nil, nil when no provider is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: settings.BaseURL, Model: settings.Model}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	}
	return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
}
