package ai

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
)

var _ driven.ProviderProbe = Probe{}

// Probe creates a provider from settings, pings it and closes it again.
type Probe struct{}

// ProbeEmbedding reports why the embedding provider cannot be used.
func (Probe) ProbeEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, cfg)
	if svc != nil {
		svc.Close()
	}
	return err
}

// ProbeLLM reports why the LLM provider cannot be used.
func (Probe) ProbeLLM(ctx context.Context, cfg *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(ctx, cfg)
	if svc != nil {
		svc.Close()
	}
	return err
}
