package mcp

import (
	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driving"
	"github.com/custodia-labs/playbookbot/internal/ratelimit"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search capabilities.
	Search driving.SearchService

	// Recommend ranks playbooks for a need. Optional.
	Recommend driving.RecommendationService

	// Sync reconciles the store with ClickUp. Optional.
	Sync driving.Synchronizer

	// Limiter applies per-session quotas to tool calls. Optional.
	Limiter *ratelimit.Limiter

	// Defaults fill tool arguments the caller leaves out.
	Defaults domain.SearchSettings
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
