package clickup

import (
	"time"

	"github.com/custodia-labs/playbookbot/internal/ratelimit"
)

const (
	// DefaultBaseURL is the ClickUp v2 API endpoint.
	DefaultBaseURL = "https://api.clickup.com/api/v2"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries after a 429 response.
	MaxRetries = 3

	// maxPages bounds pagination of a single list.
	maxPages = 100

	// quotaIdentifier is the caller identifier used with the shared limiter.
	quotaIdentifier = "clickup"
)

// DefaultDiscoveryKeywords mark a task as playbook material during discovery.
var DefaultDiscoveryKeywords = []string{
	"playbook", "sop", "process", "procedure", "guide",
	"how to", "how-to", "runbook", "checklist", "template", "workflow",
}

// Config configures the connector.
type Config struct {
	// APIToken is a personal API token (pk_...).
	APIToken string

	// AccessToken is an OAuth access token. Takes precedence over APIToken.
	AccessToken string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// DiscoveryKeywords filters auto-discovered tasks. Nil uses DefaultDiscoveryKeywords.
	DiscoveryKeywords []string

	// Throttle configures the proactive token bucket. Zero uses DefaultThrottle.
	Throttle ThrottleConfig

	// Quota is the shared fixed-window limiter. Optional.
	Quota *ratelimit.Limiter
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DiscoveryKeywords == nil {
		c.DiscoveryKeywords = DefaultDiscoveryKeywords
	}
	if c.Throttle.RequestsPerSecond <= 0 || c.Throttle.BurstSize <= 0 {
		c.Throttle = DefaultThrottle
	}
}
