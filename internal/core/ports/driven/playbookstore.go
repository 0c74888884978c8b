package driven

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// PlaybookStore persists playbooks together with their embeddings and
// records sync-run history.
type PlaybookStore interface {
	// Upsert inserts or updates a playbook keyed by SourceID.
	// The ID and CreatedAt of an existing row are preserved; UpdatedAt advances.
	// Returns the stored ID and whether a new row was created.
	Upsert(ctx context.Context, playbook *domain.Playbook) (id string, created bool, err error)

	// GetBySourceID retrieves a playbook by its source identifier.
	// Returns domain.ErrNotFound when absent.
	GetBySourceID(ctx context.Context, sourceID string) (*domain.Playbook, error)

	// GetByID retrieves a playbook by its local identifier.
	// Returns domain.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*domain.Playbook, error)

	// SearchBySimilarity returns playbooks whose cosine similarity to the
	// vector is strictly greater than the query threshold, highest first.
	// Playbooks without an embedding are never returned.
	SearchBySimilarity(ctx context.Context, vector []float32, query domain.SimilarityQuery) ([]domain.ScoredPlaybook, error)

	// List returns playbooks ordered by title.
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Playbook, error)

	// ListCategories returns the categories in use with their playbook counts.
	ListCategories(ctx context.Context) (map[domain.Category]int, error)

	// Delete removes a playbook by source identifier.
	Delete(ctx context.Context, sourceID string) error

	// RecordSyncRun persists a finalised sync run.
	RecordSyncRun(ctx context.Context, run *domain.SyncRun) error

	// ListRecentSyncRuns returns the most recent runs, newest first.
	ListRecentSyncRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)

	// Close releases resources.
	Close() error
}
