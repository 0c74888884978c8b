package driven

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// ProviderProbe checks that an AI provider configuration can be reached
// before it is relied on. An unconfigured provider probes as nil.
type ProviderProbe interface {
	ProbeEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) error
	ProbeLLM(ctx context.Context, cfg *domain.LLMSettings) error
}
