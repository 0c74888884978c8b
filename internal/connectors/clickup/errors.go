package clickup

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// Common ClickUp API errors.
var (
	// ErrUnauthorized indicates an invalid or expired token.
	ErrUnauthorized = errors.New("clickup: unauthorised (invalid token)")

	// ErrForbidden indicates the token cannot see the resource.
	ErrForbidden = errors.New("clickup: forbidden (insufficient permissions)")

	// ErrRateLimited indicates ClickUp rejected the request with 429.
	ErrRateLimited = errors.New("clickup: rate limit exceeded")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("clickup: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("clickup: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status to a sentinel. A missing resource matches
// domain.ErrNotFound; anything else means the source is unusable.
func (e *APIError) Unwrap() []error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return []error{domain.ErrNotFound}
	case http.StatusUnauthorized:
		return []error{ErrUnauthorized, domain.ErrSourceUnavailable}
	case http.StatusForbidden:
		return []error{ErrForbidden, domain.ErrSourceUnavailable}
	case http.StatusTooManyRequests:
		return []error{ErrRateLimited, domain.ErrSourceUnavailable}
	default:
		return []error{domain.ErrSourceUnavailable}
	}
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
