package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

func TestProbe_UnconfiguredIsNil(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, Probe{}.ProbeEmbedding(ctx, nil))
	assert.NoError(t, Probe{}.ProbeEmbedding(ctx, &domain.EmbeddingSettings{Model: "m"}))
	assert.NoError(t, Probe{}.ProbeLLM(ctx, nil))
	assert.NoError(t, Probe{}.ProbeLLM(ctx, &domain.LLMSettings{Model: "m"}))
}

func TestProbe_ReachableOllama(t *testing.T) {
	server := newOllamaServer(t)
	ctx := context.Background()

	assert.NoError(t, Probe{}.ProbeEmbedding(ctx, &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "nomic-embed-text",
		BaseURL:  server.URL,
	}))
	assert.NoError(t, Probe{}.ProbeLLM(ctx, &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
		BaseURL:  server.URL,
	}))
}

func TestProbe_UnsupportedProvider(t *testing.T) {
	err := Probe{}.ProbeEmbedding(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "k",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
}
