package driving

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get assembles the current settings from the config store,
	// environment overrides and defaults.
	Get() (*domain.AppSettings, error)

	// Save persists application settings. Empty secrets are not written.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetSourceToken stores a ClickUp credential. An OAuth token takes
	// precedence over a personal API token; storing an API token clears it.
	SetSourceToken(token string, oauth bool) error

	// SetSourceScope stores the default sync scope.
	SetSourceScope(scope domain.Scope) error

	// Validate checks that the current settings can be used.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ProbeEmbedding checks that the configured embedding provider answers.
	ProbeEmbedding(ctx context.Context) error

	// ProbeLLM checks that the configured LLM provider answers.
	ProbeLLM(ctx context.Context) error
}
