package driven

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// Reasoner answers the narrow questions the search and sync pipelines ask of an LLM.
// Every method is best-effort: callers treat an error as "use the fallback".
type Reasoner interface {
	// ExplainRelevance returns a short explanation of why the playbook answers the query.
	ExplainRelevance(ctx context.Context, query string, playbook domain.PlaybookSummary) (string, error)

	// Classify assigns one of the enumerated categories. Unknown labels map to General.
	Classify(ctx context.Context, title, description, content string) (domain.Category, error)

	// SuggestAlternateQueries returns alternative phrasings of the query.
	SuggestAlternateQueries(ctx context.Context, query string) ([]string, error)

	// InterpretIntent returns a one or two sentence reading of what the user wants.
	InterpretIntent(ctx context.Context, query string) (string, error)
}
