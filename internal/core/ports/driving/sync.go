package driving

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// Synchronizer reconciles the source of truth with the playbook store.
type Synchronizer interface {
	// Sync runs one synchronisation pass and returns its finalised record.
	// When the source is unreachable the failed run is returned together
	// with an error wrapping domain.ErrSourceUnavailable.
	Sync(ctx context.Context, req domain.SyncRequest) (*domain.SyncRun, error)

	// SyncItem re-indexes a single source item.
	SyncItem(ctx context.Context, sourceID string) (domain.ItemOutcome, error)

	// RecentRuns lists recent sync runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
