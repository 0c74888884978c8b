package driven

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// SourceConnector fetches indexable items from the external source of truth.
// Errors that mean the source cannot be reached at all wrap
// domain.ErrSourceUnavailable; a single malformed item is skipped by the
// connector rather than failing the whole listing.
type SourceConnector interface {
	// ListItems returns up to limit items in the scope.
	// An empty scope triggers keyword-based auto-discovery across the workspace.
	ListItems(ctx context.Context, scope domain.Scope, includeCompleted bool, limit int) ([]domain.SourceItem, error)

	// GetItem fetches a single item. Returns domain.ErrNotFound when absent.
	GetItem(ctx context.Context, id string) (*domain.SourceItem, error)

	// Search returns items whose name matches the query.
	Search(ctx context.Context, query string, scope domain.Scope, limit int) ([]domain.SourceItem, error)
}
