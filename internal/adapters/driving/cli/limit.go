package cli

import (
	"context"
	"os"
	"os/user"
)

// withLimit runs fn under the quota of configKey for the local user.
func withLimit(ctx context.Context, configKey string, fn func(context.Context) error) error {
	if limiter == nil {
		return fn(ctx)
	}
	return limiter.Do(ctx, configKey, callerID(), fn)
}

// callerID identifies the local user for rate limiting.
func callerID() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return "cli:" + u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return "cli:" + name
	}
	return "cli"
}
