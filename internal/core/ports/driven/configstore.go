package driven

import "time"

// ConfigStore is the persisted key/value configuration. Keys use dot
// notation ("clickup.api_token"). Typed getters return the zero value when
// a key is missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat widens integers.
	GetFloat(key string) float64
	// GetDuration accepts a Go duration string ("5m") or whole seconds.
	GetDuration(key string) time.Duration
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Unset removes a key and persists the change.
	Unset(key string) error

	// Save persists the current configuration to storage.
	Save() error

	// Load replaces the current configuration with what is in storage.
	Load() error

	// Path returns where the configuration lives.
	Path() string
}
