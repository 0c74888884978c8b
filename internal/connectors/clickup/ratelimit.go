package clickup

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/logger"
	"github.com/custodia-labs/playbookbot/internal/ratelimit"
)

const (
	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"

	// defaultBackoff applies to a 429 without usable headers.
	defaultBackoff = 60 * time.Second
)

// ThrottleConfig holds the token bucket configuration.
type ThrottleConfig struct {
	// RequestsPerSecond is the sustained rate.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultThrottle stays below ClickUp's 100 requests per minute per token.
var DefaultThrottle = ThrottleConfig{RequestsPerSecond: 1.5, BurstSize: 5}

// RateLimiter paces requests to the ClickUp API.
// It combines a token bucket, the shared fixed-window quota and a
// backoff set from 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	quota   *ratelimit.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a rate limiter. quota may be nil.
func NewRateLimiter(cfg ThrottleConfig, quota *ratelimit.Limiter) *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		quota:  quota,
	}
}

// Wait blocks until a request can be made.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if err := sleepUntil(ctx, retryAt); err != nil {
		return err
	}

	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	if r.quota == nil {
		return nil
	}
	for {
		d := r.quota.Check(domain.RateLimitSourceAPI, quotaIdentifier)
		if d.Allowed {
			return nil
		}
		logger.Debug("ClickUp quota exhausted, waiting until %s", d.ResetAt.Format(time.RFC3339))
		if err := sleepUntil(ctx, d.ResetAt); err != nil {
			return err
		}
	}
}

// RecordRateLimited sets the backoff after a 429 response.
func (r *RateLimiter) RecordRateLimited(resp *http.Response) {
	until := time.Now().Add(defaultBackoff)
	if secs, err := strconv.Atoi(resp.Header.Get(HeaderRetryAfter)); err == nil && secs > 0 {
		until = time.Now().Add(time.Duration(secs) * time.Second)
	} else if reset, ok := parseReset(resp.Header.Get(HeaderRateReset)); ok {
		until = reset
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if until.After(r.retryAt) {
		r.retryAt = until
	}
}

// UpdateFromResponse backs off until the reset time when the response
// reports an exhausted quota.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	remaining, err := strconv.Atoi(resp.Header.Get(HeaderRateRemaining))
	if err != nil || remaining > 0 {
		return
	}
	reset, ok := parseReset(resp.Header.Get(HeaderRateReset))
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if reset.After(r.retryAt) {
		r.retryAt = reset
	}
}

// RetryAt returns the end of the current backoff, if any.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}

func parseReset(v string) (time.Time, bool) {
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
