// Package config holds the typed key/value map shared by the config store
// adapters. Keys use dot notation ("search.threshold").
package config

import (
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"
)

// Values is a concurrency-safe map of configuration values with lenient
// typed accessors. A value of the wrong type reads as the zero value.
type Values struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewValues creates a map seeded with a copy of initial.
func NewValues(initial map[string]any) *Values {
	v := &Values{m: make(map[string]any, len(initial))}
	maps.Copy(v.m, initial)
	return v
}

// Get retrieves a raw value.
func (v *Values) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.m[key]
	return val, ok
}

// Put stores a value.
func (v *Values) Put(key string, value any) {
	v.mu.Lock()
	v.m[key] = value
	v.mu.Unlock()
}

// Delete removes a key.
func (v *Values) Delete(key string) {
	v.mu.Lock()
	delete(v.m, key)
	v.mu.Unlock()
}

// Replace swaps the whole map.
func (v *Values) Replace(m map[string]any) {
	if m == nil {
		m = make(map[string]any)
	}
	v.mu.Lock()
	v.m = m
	v.mu.Unlock()
}

// Snapshot returns a copy of the map.
func (v *Values) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return maps.Clone(v.m)
}

// Keys returns the stored keys in sorted order.
func (v *Values) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Sorted(maps.Keys(v.m))
}

// GetString reads a string.
func (v *Values) GetString(key string) string {
	s, _ := v.value(key).(string)
	return s
}

// GetBool reads a boolean.
func (v *Values) GetBool(key string) bool {
	b, _ := v.value(key).(bool)
	return b
}

// GetInt reads an integer. TOML integers decode as int64; floats truncate.
func (v *Values) GetInt(key string) int {
	switch n := v.value(key).(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// GetFloat reads a number, widening integers.
func (v *Values) GetFloat(key string) float64 {
	switch n := v.value(key).(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// GetDuration reads a Go duration string ("5m") or whole seconds, given
// either as a number or a numeric string.
func (v *Values) GetDuration(key string) time.Duration {
	switch d := v.value(key).(type) {
	case time.Duration:
		return d
	case int:
		return time.Duration(d) * time.Second
	case int64:
		return time.Duration(d) * time.Second
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(d); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// GetStringSlice reads a list of strings. Non-string elements of a decoded
// TOML array are skipped.
func (v *Values) GetStringSlice(key string) []string {
	switch list := v.value(key).(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (v *Values) value(key string) any {
	val, _ := v.Get(key)
	return val
}
