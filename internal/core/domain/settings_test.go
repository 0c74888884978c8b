package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.True(t, AIProviderAnthropic.IsValid())
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama, Model: "nomic-embed-text"}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestStoreDriver_IsValid(t *testing.T) {
	assert.True(t, StoreDriverMemory.IsValid())
	assert.True(t, StoreDriverSQLite.IsValid())
	assert.True(t, StoreDriverPostgres.IsValid())
	assert.False(t, StoreDriver("mysql").IsValid())
}

func TestSourceSettings_IsConfigured(t *testing.T) {
	assert.False(t, SourceSettings{}.IsConfigured())
	assert.True(t, SourceSettings{APIToken: "pk_1"}.IsConfigured())
	assert.True(t, SourceSettings{AccessToken: "oauth"}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, StoreDriverSQLite, s.Store.Driver)
	assert.Equal(t, DefaultSearchLimit, s.Search.Limit)
	assert.InDelta(t, DefaultSimilarityThreshold, s.Search.Threshold, 1e-9)
	assert.Equal(t, time.Hour, s.Cache.EmbeddingTTL)
	assert.Equal(t, 5*time.Minute, s.Cache.SearchTTL)
	assert.Equal(t, 1, s.Sync.Workers)
	assert.False(t, s.Embedding.IsConfigured())

	require.Contains(t, s.RateLimits, RateLimitSync)
	assert.Equal(t, RateLimitRule{Window: 5 * time.Minute, MaxRequests: 2}, s.RateLimits[RateLimitSync])
	assert.Equal(t, 10, s.RateLimits[RateLimitSearch].MaxRequests)
}

func TestDefaultRateLimits_FreshMap(t *testing.T) {
	a := DefaultRateLimits()
	a[RateLimitSearch] = RateLimitRule{}

	b := DefaultRateLimits()
	assert.Equal(t, 10, b[RateLimitSearch].MaxRequests)
}

func TestDefaultModels(t *testing.T) {
	emb := DefaultEmbeddingModels()
	assert.Equal(t, "text-embedding-3-small", emb[AIProviderOpenAI])
	assert.Equal(t, 1536, EmbeddingDimensions()[emb[AIProviderOpenAI]])
	assert.Equal(t, 768, EmbeddingDimensions()[emb[AIProviderOllama]])

	llm := DefaultLLMModels()
	assert.NotEmpty(t, llm[AIProviderAnthropic])
}

func TestProviderLists_HaveDefaultModels(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, DefaultEmbeddingModels()[p], p)
	}
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
	assert.NotContains(t, AllEmbeddingProviders(), AIProviderAnthropic)
}
