package driving

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// SearchService provides semantic playbook search to external actors.
type SearchService interface {
	// Search returns at most opts.Limit playbooks with similarity strictly
	// above opts.Threshold, highest similarity first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Get returns a playbook by its local identifier.
	Get(ctx context.Context, id string) (*domain.Playbook, error)

	// List returns playbooks ordered by title.
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Playbook, error)

	// Categories returns the categories in use with their playbook counts.
	Categories(ctx context.Context) (map[domain.Category]int, error)
}

// RecommendationService ranks playbooks for a free-form need and
// annotates the result with suggestions and an intent reading.
type RecommendationService interface {
	// Recommend returns ranked, explained playbooks for the query.
	Recommend(ctx context.Context, query string, opts domain.RecommendOptions) (*domain.Recommendation, error)
}
