// Package ratelimit implements fixed-window request quotas keyed by
// (config key, caller identifier).
//
// The first request of a window sets the count to one and the reset time to
// now + window. Requests are rejected once the count reaches the maximum;
// rejected requests do not count. The first request at or after the reset
// time opens a fresh window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// DefaultRule applies to config keys without an explicit rule.
var DefaultRule = domain.RateLimitRule{Window: time.Minute, MaxRequests: 60}

// Decision is the outcome of a Check.
type Decision struct {
	// Allowed is true when the request fits in the current window.
	Allowed bool

	// Remaining is the number of requests left in the window.
	Remaining int

	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// RetryAfter returns how long a rejected caller should wait, relative to now.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed || !d.ResetAt.After(now) {
		return 0
	}
	return d.ResetAt.Sub(now)
}

type windowKey struct {
	configKey  string
	identifier string
}

type window struct {
	count   int
	resetAt time.Time
}

// Config configures a Limiter.
type Config struct {
	// Rules maps config keys to their quota.
	Rules map[string]domain.RateLimitRule

	// Default applies to keys absent from Rules. Zero uses DefaultRule.
	Default domain.RateLimitRule

	// SweepInterval is how often expired windows are dropped.
	// Zero uses one minute; negative disables the janitor.
	SweepInterval time.Duration

	// Now overrides the clock. Used in tests.
	Now func() time.Time
}

// Limiter enforces fixed-window quotas. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	rules   map[string]domain.RateLimitRule
	def     domain.RateLimitRule
	windows map[windowKey]*window
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Limiter and starts its janitor. Call Close to stop it.
func New(cfg Config) *Limiter {
	if cfg.Default.MaxRequests <= 0 || cfg.Default.Window <= 0 {
		cfg.Default = DefaultRule
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rules := make(map[string]domain.RateLimitRule, len(cfg.Rules))
	for k, r := range cfg.Rules {
		rules[k] = r
	}

	l := &Limiter{
		rules:   rules,
		def:     cfg.Default,
		windows: make(map[windowKey]*window),
		now:     cfg.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go l.janitor(cfg.SweepInterval)
	} else {
		close(l.done)
	}
	return l
}

// Rule returns the rule applied to configKey.
func (l *Limiter) Rule(configKey string) domain.RateLimitRule {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ruleLocked(configKey)
}

func (l *Limiter) ruleLocked(configKey string) domain.RateLimitRule {
	if r, ok := l.rules[configKey]; ok && r.MaxRequests > 0 && r.Window > 0 {
		return r
	}
	return l.def
}

// Check records a request for (configKey, identifier) and reports whether it is allowed.
func (l *Limiter) Check(configKey, identifier string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	rule := l.ruleLocked(configKey)
	now := l.now()
	key := windowKey{configKey: configKey, identifier: identifier}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(rule.Window)}
		l.windows[key] = w
		return Decision{Allowed: true, Remaining: rule.MaxRequests - 1, ResetAt: w.resetAt}
	}

	if w.count >= rule.MaxRequests {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Decision{Allowed: true, Remaining: rule.MaxRequests - w.count, ResetAt: w.resetAt}
}

// Count returns the number of requests counted in the current window.
func (l *Limiter) Count(configKey, identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[windowKey{configKey: configKey, identifier: identifier}]
	if !ok || !l.now().Before(w.resetAt) {
		return 0
	}
	return w.count
}

// Do runs fn when the request is allowed. Otherwise it returns a
// *domain.RateLimitError without calling fn.
func (l *Limiter) Do(ctx context.Context, configKey, identifier string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d := l.Check(configKey, identifier)
	if !d.Allowed {
		return &domain.RateLimitError{
			Key:        configKey,
			RetryAfter: d.RetryAfter(l.now()),
			ResetAt:    d.ResetAt,
		}
	}
	return fn(ctx)
}

// Sweep drops windows that have ended and returns how many were dropped.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}

// Close stops the janitor.
func (l *Limiter) Close() error {
	l.closeOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
	return nil
}

func (l *Limiter) janitor(interval time.Duration) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}
