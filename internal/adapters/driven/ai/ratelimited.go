package ai

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/ratelimit"
)

// Ensure RateLimitedLLM implements the interface.
var _ driven.LLMService = (*RateLimitedLLM)(nil)

// llmCaller identifies the whole process; the provider quota is shared.
const llmCaller = "provider"

// RateLimitedLLM throttles completions under the llm-api rate-limit key.
// A rejected call fails with a *domain.RateLimitError, which the reasoner
// surfaces as a degraded enrichment.
type RateLimitedLLM struct {
	inner   driven.LLMService
	limiter *ratelimit.Limiter
}

// NewRateLimitedLLM wraps inner with the limiter.
func NewRateLimitedLLM(inner driven.LLMService, limiter *ratelimit.Limiter) *RateLimitedLLM {
	return &RateLimitedLLM{inner: inner, limiter: limiter}
}

// Generate produces text completion from a prompt.
func (l *RateLimitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := l.limiter.Do(ctx, domain.RateLimitLLMAPI, llmCaller, func(ctx context.Context) error {
		var err error
		out, err = l.inner.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}

// Chat conducts a multi-turn conversation.
func (l *RateLimitedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out string
	err := l.limiter.Do(ctx, domain.RateLimitLLMAPI, llmCaller, func(ctx context.Context) error {
		var err error
		out, err = l.inner.Chat(ctx, messages, opts)
		return err
	})
	return out, err
}

// ModelName returns the wrapped model name.
func (l *RateLimitedLLM) ModelName() string {
	return l.inner.ModelName()
}

// Ping is not rate limited.
func (l *RateLimitedLLM) Ping(ctx context.Context) error {
	return l.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (l *RateLimitedLLM) Close() error {
	return l.inner.Close()
}
