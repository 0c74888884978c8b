package memory

import (
	"github.com/custodia-labs/playbookbot/internal/adapters/driven/config"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a driven.ConfigStore that never touches disk.
type ConfigStore struct {
	*config.Values
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{Values: config.NewValues(nil)}
}

// Set stores a value.
func (s *ConfigStore) Set(key string, value any) error {
	s.Put(key, value)
	return nil
}

// Unset removes a key.
func (s *ConfigStore) Unset(key string) error {
	s.Delete(key)
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path returns ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
