package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StoreDriver selects the playbook store implementation.
type StoreDriver string

// Available store drivers.
const (
	// StoreDriverMemory keeps playbooks in process memory.
	StoreDriverMemory StoreDriver = "memory"

	// StoreDriverSQLite stores playbooks in a local SQLite file.
	StoreDriverSQLite StoreDriver = "sqlite"

	// StoreDriverPostgres stores playbooks in Postgres with pgvector.
	StoreDriverPostgres StoreDriver = "postgres"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverMemory, StoreDriverSQLite, StoreDriverPostgres:
		return true
	default:
		return false
	}
}

// StoreSettings holds playbook store configuration.
type StoreSettings struct {
	// Driver is the store implementation.
	Driver StoreDriver

	// DataDir is the SQLite data directory.
	DataDir string

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	// Dimensions is the embedding size used for the pgvector column.
	Dimensions int
}

// SourceSettings holds the ClickUp connector configuration.
type SourceSettings struct {
	// APIToken is a personal API token.
	APIToken string

	// AccessToken is an OAuth access token. Takes precedence over APIToken.
	AccessToken string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Scope is the default sync scope.
	Scope Scope

	// Limit is the default item limit per sync.
	Limit int

	// DiscoveryKeywords filters auto-discovered items. Nil uses the defaults.
	DiscoveryKeywords []string
}

// IsConfigured returns true if the connector has credentials.
func (s SourceSettings) IsConfigured() bool {
	return s.APIToken != "" || s.AccessToken != ""
}

// CacheSettings holds the time-to-live configuration of the caches.
type CacheSettings struct {
	// EmbeddingTTL is how long query/text embeddings are kept.
	EmbeddingTTL time.Duration

	// SearchTTL is how long search and recommendation results are kept.
	SearchTTL time.Duration

	// SweepInterval is how often expired entries are reclaimed.
	SweepInterval time.Duration

	// MaxEntries bounds each cache.
	MaxEntries int
}

// RateLimitRule is the fixed-window quota of one rate-limit key.
type RateLimitRule struct {
	// Window is the window length.
	Window time.Duration

	// MaxRequests is the number of requests allowed per window.
	MaxRequests int
}

// SearchSettings holds the default search behaviour.
type SearchSettings struct {
	// Limit is the default result count.
	Limit int

	// Threshold is the default similarity threshold.
	Threshold float64

	// Explain enables relevance explanations by default.
	Explain bool
}

// SyncSettings holds synchroniser behaviour.
type SyncSettings struct {
	// Workers is the number of items processed concurrently (default 1).
	Workers int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// LogLevel is the logger threshold (debug, info, warn, error).
	LogLevel string

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Store holds playbook store settings.
	Store StoreSettings

	// Source holds the connector settings.
	Source SourceSettings

	// Cache holds cache TTLs.
	Cache CacheSettings

	// RateLimits maps rate-limit keys to their rules.
	RateLimits map[string]RateLimitRule

	// Search holds search defaults.
	Search SearchSettings

	// Sync holds synchroniser settings.
	Sync SyncSettings
}

// Well-known rate-limit keys.
const (
	RateLimitSearch    = "search"
	RateLimitRecommend = "recommend"
	RateLimitSync      = "sync"
	RateLimitSourceAPI = "clickup-api"
	RateLimitLLMAPI    = "llm-api"
)

// DefaultRateLimits returns the default quota per rate-limit key.
func DefaultRateLimits() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		RateLimitSearch:    {Window: time.Minute, MaxRequests: 10},
		RateLimitRecommend: {Window: time.Minute, MaxRequests: 10},
		RateLimitSync:      {Window: 5 * time.Minute, MaxRequests: 2},
		RateLimitSourceAPI: {Window: time.Minute, MaxRequests: 100},
		RateLimitLLMAPI:    {Window: time.Minute, MaxRequests: 60},
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers and the source connector are left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LogLevel: "info",
		Store: StoreSettings{
			Driver:     StoreDriverSQLite,
			Dimensions: 1536,
		},
		Source: SourceSettings{
			Limit: 100,
		},
		Cache: CacheSettings{
			EmbeddingTTL:  time.Hour,
			SearchTTL:     5 * time.Minute,
			SweepInterval: time.Minute,
			MaxEntries:    10000,
		},
		RateLimits: DefaultRateLimits(),
		Search: SearchSettings{
			Limit:     DefaultSearchLimit,
			Threshold: DefaultSimilarityThreshold,
			Explain:   true,
		},
		Sync: SyncSettings{
			Workers: 1,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
