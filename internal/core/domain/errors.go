package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding provider returned no usable vector.
	// Search aborts; sync continues without an embedding for the affected item.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrValidationFailed indicates a candidate playbook is missing required
	// fields or carries a malformed URL.
	ErrValidationFailed = errors.New("validation failed")

	// ErrSourceUnavailable indicates the source connector cannot be reached at all.
	// A sync run aborts when this happens.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrStore indicates a persistence failure in the playbook store.
	ErrStore = errors.New("store error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Enrichment (classification, explanations, suggestions) falls back to defaults.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRateLimited indicates the caller exceeded their window quota.
	ErrRateLimited = errors.New("rate limited")
)

// RateLimitError carries the retry-after information for a rejected request.
// It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	// Key is the rate-limit configuration key (e.g. "search").
	Key string

	// RetryAfter is how long the caller should wait before retrying.
	RetryAfter time.Duration

	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: retry after %s", e.Key, e.RetryAfter.Round(time.Second))
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
