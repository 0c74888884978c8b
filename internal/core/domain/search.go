package domain

// Search defaults.
const (
	// DefaultSearchLimit is the number of results returned when none is requested.
	DefaultSearchLimit = 5

	// DefaultSimilarityThreshold is the minimum similarity (exclusive).
	DefaultSimilarityThreshold = 0.7

	// MaxCandidateLimit caps the candidate fan-out of a recommendation.
	MaxCandidateLimit = 20

	// RecommendThresholdSlack lowers the candidate acceptance bar of a recommendation.
	RecommendThresholdSlack = 0.1
)

// SearchOptions configures a semantic search.
type SearchOptions struct {
	// Category restricts results to one category. Empty means all.
	Category Category

	// Limit is the maximum number of results.
	Limit int

	// Threshold is the exclusive minimum similarity, normally in [0,1].
	Threshold float64

	// Explain requests an LLM relevance explanation per result.
	Explain bool
}

// WithDefaults fills zero values with the search defaults.
func (o SearchOptions) WithDefaults() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	o.Threshold = ClampThreshold(o.Threshold)
	return o
}

// SimilarityQuery is handed to the playbook store.
type SimilarityQuery struct {
	// Category restricts candidates. Empty means all.
	Category Category

	// Limit is the maximum number of hits.
	Limit int

	// Threshold is the exclusive minimum similarity.
	Threshold float64
}

// ScoredPlaybook is a store hit before it becomes a SearchResult.
type ScoredPlaybook struct {
	Playbook   Playbook
	Similarity float64
}

// SearchResult pairs a playbook with its similarity and an optional explanation.
// It is built fresh per query and never persisted.
type SearchResult struct {
	// Playbook is the matched entity.
	Playbook Playbook

	// Similarity is 1 - cosine distance, in [0,1].
	Similarity float64

	// Explanation is the LLM relevance note. Empty Value when not requested.
	Explanation Enrichment[string]
}

// RecommendOptions configures a recommendation.
type RecommendOptions struct {
	// Category restricts results to one category. Empty means all.
	Category Category

	// Limit is the number of recommendations returned.
	Limit int

	// Threshold is the final acceptance bar. Candidates are gathered slightly below it.
	Threshold float64
}

// Recommendation is the output of the recommendation engine.
type Recommendation struct {
	// Query is the original query.
	Query string

	// Results are the ranked, explained playbooks.
	Results []SearchResult

	// Suggestions are alternative phrasings of the query.
	Suggestions Enrichment[[]string]

	// Intent is a one or two sentence interpretation of what the user wants.
	Intent Enrichment[string]
}

// ListOptions configures playbook listing.
type ListOptions struct {
	// Category restricts the listing. Empty means all.
	Category Category

	// Limit is the page size (default 20).
	Limit int

	// Offset skips that many playbooks.
	Offset int
}
