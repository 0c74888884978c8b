package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLogLevel = "log_level"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyStoreDriver      = "store.driver"
	keyStoreDataDir     = "store.data_dir"
	keyStoreDatabaseURL = "store.database_url"
	keyStoreDimensions  = "store.dimensions"

	keyClickUpAPIToken    = "clickup.api_token"
	keyClickUpAccessToken = "clickup.access_token"
	keyClickUpBaseURL     = "clickup.base_url"
	keyClickUpWorkspace   = "clickup.workspace_id"
	keyClickUpSpace       = "clickup.space_id"
	keyClickUpFolder      = "clickup.folder_id"
	keyClickUpList        = "clickup.list_id"
	keyClickUpLimit       = "clickup.limit"
	keyClickUpKeywords    = "clickup.keywords"

	keyCacheEmbeddingTTL = "cache.embedding_ttl"
	keyCacheSearchTTL    = "cache.search_ttl"
	keyCacheSweep        = "cache.sweep_interval"
	keyCacheMaxEntries   = "cache.max_entries"

	keySearchLimit     = "search.limit"
	keySearchThreshold = "search.threshold"
	keySearchExplain   = "search.explain"

	keySyncWorkers = "sync.workers"

	rateLimitPrefix = "rate_limits."
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvClickUpToken  = "CLICKUP_API_TOKEN"
	EnvDatabaseURL   = "PLAYBOOKBOT_DATABASE_URL"
	defaultOllamaURL = "http://localhost:11434"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	probe       driven.ProviderProbe
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// Environment overrides are read from the process environment.
func NewSettingsService(configStore driven.ConfigStore, probe driven.ProviderProbe) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		probe:       probe,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LogLevel: s.getString(keyLogLevel, defaults.LogLevel),
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.configStore.GetString(keyEmbedModel),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Store: domain.StoreSettings{
			Driver:      s.getStoreDriver(defaults.Store.Driver),
			DataDir:     s.configStore.GetString(keyStoreDataDir),
			DatabaseURL: s.configStore.GetString(keyStoreDatabaseURL),
			Dimensions:  s.configStore.GetInt(keyStoreDimensions),
		},
		Source: domain.SourceSettings{
			APIToken:    s.configStore.GetString(keyClickUpAPIToken),
			AccessToken: s.configStore.GetString(keyClickUpAccessToken),
			BaseURL:     s.configStore.GetString(keyClickUpBaseURL),
			Scope: domain.Scope{
				WorkspaceID: s.configStore.GetString(keyClickUpWorkspace),
				SpaceID:     s.configStore.GetString(keyClickUpSpace),
				FolderID:    s.configStore.GetString(keyClickUpFolder),
				ListID:      s.configStore.GetString(keyClickUpList),
			},
			Limit:             s.getInt(keyClickUpLimit, defaults.Source.Limit),
			DiscoveryKeywords: s.configStore.GetStringSlice(keyClickUpKeywords),
		},
		Cache: domain.CacheSettings{
			EmbeddingTTL:  s.getDuration(keyCacheEmbeddingTTL, defaults.Cache.EmbeddingTTL),
			SearchTTL:     s.getDuration(keyCacheSearchTTL, defaults.Cache.SearchTTL),
			SweepInterval: s.getDuration(keyCacheSweep, defaults.Cache.SweepInterval),
			MaxEntries:    s.getInt(keyCacheMaxEntries, defaults.Cache.MaxEntries),
		},
		RateLimits: s.getRateLimits(defaults.RateLimits),
		Search: domain.SearchSettings{
			Limit:     s.getInt(keySearchLimit, defaults.Search.Limit),
			Threshold: s.getFloat(keySearchThreshold, defaults.Search.Threshold),
			Explain:   s.getBool(keySearchExplain, defaults.Search.Explain),
		},
		Sync: domain.SyncSettings{
			Workers: s.getInt(keySyncWorkers, defaults.Sync.Workers),
		},
	}

	s.fillModelDefaults(settings)
	s.applyEnv(settings)

	if settings.Store.Dimensions == 0 {
		settings.Store.Dimensions = defaults.Store.Dimensions
		if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
			settings.Store.Dimensions = d
		}
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLogLevel, settings.LogLevel},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyStoreDriver, string(settings.Store.Driver)},
		{keyStoreDataDir, settings.Store.DataDir},
		{keyStoreDimensions, settings.Store.Dimensions},
		{keySearchLimit, settings.Search.Limit},
		{keySearchThreshold, settings.Search.Threshold},
		{keySearchExplain, settings.Search.Explain},
		{keySyncWorkers, settings.Sync.Workers},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set so an environment override is never persisted as empty.
	secrets := []struct {
		key   string
		value string
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyStoreDatabaseURL, settings.Store.DatabaseURL},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if _, ok := domain.DefaultEmbeddingModels()[provider]; !ok {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Store.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider == domain.AIProviderOllama {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetSourceToken stores a ClickUp credential.
func (s *SettingsService) SetSourceToken(token string, oauth bool) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: ClickUp token is empty", domain.ErrInvalidInput)
	}

	if oauth {
		if err := s.configStore.Set(keyClickUpAccessToken, token); err != nil {
			return fmt.Errorf("save %s: %w", keyClickUpAccessToken, err)
		}
		return nil
	}

	if err := s.configStore.Set(keyClickUpAPIToken, token); err != nil {
		return fmt.Errorf("save %s: %w", keyClickUpAPIToken, err)
	}
	if _, ok := s.configStore.Get(keyClickUpAccessToken); ok {
		if err := s.configStore.Unset(keyClickUpAccessToken); err != nil {
			return fmt.Errorf("clear %s: %w", keyClickUpAccessToken, err)
		}
	}
	return nil
}

// SetSourceScope stores the default sync scope. The most specific level wins.
func (s *SettingsService) SetSourceScope(scope domain.Scope) error {
	values := []struct {
		key   string
		value string
	}{
		{keyClickUpWorkspace, scope.WorkspaceID},
		{keyClickUpSpace, scope.SpaceID},
		{keyClickUpFolder, scope.FolderID},
		{keyClickUpList, scope.ListID},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Validate checks that the current settings can be used.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Store.Driver == domain.StoreDriverPostgres && settings.Store.DatabaseURL == "" {
		return fmt.Errorf("%w: store driver postgres requires %s or store.database_url",
			domain.ErrInvalidInput, EnvDatabaseURL)
	}
	if settings.Search.Threshold < 0 || settings.Search.Threshold > 1 {
		return fmt.Errorf("%w: search.threshold must be between 0 and 1, got %g",
			domain.ErrInvalidInput, settings.Search.Threshold)
	}
	if settings.Search.Limit <= 0 {
		return fmt.Errorf("%w: search.limit must be positive", domain.ErrInvalidInput)
	}
	for key, rule := range settings.RateLimits {
		if rule.Window <= 0 || rule.MaxRequests <= 0 {
			return fmt.Errorf("%w: rate limit %q needs a positive window and max_requests",
				domain.ErrInvalidInput, key)
		}
	}
	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s needs an API key",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s needs an API key",
			domain.ErrInvalidInput, settings.LLM.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ProbeEmbedding checks that the configured embedding provider answers.
func (s *SettingsService) ProbeEmbedding(ctx context.Context) error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeEmbedding(ctx, &settings.Embedding)
}

// ProbeLLM checks that the configured LLM provider answers.
func (s *SettingsService) ProbeLLM(ctx context.Context) error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.ProbeLLM(ctx, &settings.LLM)
}

// fillModelDefaults picks the default model of a configured provider.
func (s *SettingsService) fillModelDefaults(settings *domain.AppSettings) {
	if settings.Embedding.Provider != "" && settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Provider != "" && settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
}

// applyEnv lets environment variables override file settings.
// Provider keys only apply to the provider that uses them.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if key := s.getenv(EnvOpenAIKey); key != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI {
			settings.LLM.APIKey = key
		}
	}
	if key := s.getenv(EnvAnthropicKey); key != "" && settings.LLM.Provider == domain.AIProviderAnthropic {
		settings.LLM.APIKey = key
	}
	if token := s.getenv(EnvClickUpToken); token != "" {
		settings.Source.APIToken = token
	}
	if url := s.getenv(EnvDatabaseURL); url != "" {
		settings.Store.DatabaseURL = url
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getFloat keeps an explicit zero, which is a valid threshold.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStoreDriver(defaultVal domain.StoreDriver) domain.StoreDriver {
	driver := domain.StoreDriver(s.configStore.GetString(keyStoreDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}

// getRateLimits overlays configured rules onto the defaults.
// Each rule is read from rate_limits.<key>.window and rate_limits.<key>.max_requests.
func (s *SettingsService) getRateLimits(defaults map[string]domain.RateLimitRule) map[string]domain.RateLimitRule {
	rules := make(map[string]domain.RateLimitRule, len(defaults))
	for key, rule := range defaults {
		prefix := rateLimitPrefix + key + "."
		rule.Window = s.getDuration(prefix+"window", rule.Window)
		rule.MaxRequests = s.getInt(prefix+"max_requests", rule.MaxRequests)
		rules[key] = rule
	}
	return rules
}
