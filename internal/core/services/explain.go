package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/logger"
)

// DefaultExplainWorkers bounds concurrent explanation requests.
const DefaultExplainWorkers = 4

// explainAll attaches a relevance explanation to every result in place.
// A failed explanation leaves its result with a degraded empty value.
func explainAll(ctx context.Context, reasoner driven.Reasoner, query string, results []domain.SearchResult, workers int) {
	if len(results) == 0 {
		return
	}
	if reasoner == nil {
		for i := range results {
			results[i].Explanation = domain.Degrade("", domain.ErrLLMUnavailable)
		}
		return
	}
	if workers <= 0 {
		workers = DefaultExplainWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range results {
		g.Go(func() error {
			text, err := reasoner.ExplainRelevance(ctx, query, results[i].Playbook.Summary())
			if err != nil {
				logger.Debug("Explanation for %s degraded: %v", results[i].Playbook.SourceID, err)
				results[i].Explanation = domain.Degrade("", err)
				return nil
			}
			results[i].Explanation = domain.Enriched(text)
			return nil
		})
	}
	_ = g.Wait()
}

// toResults converts ranked store hits into search results.
func toResults(hits []domain.ScoredPlaybook) []domain.SearchResult {
	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{Playbook: h.Playbook, Similarity: h.Similarity}
	}
	return results
}

// candidateLimit is the number of store hits requested for limit results.
func candidateLimit(limit int) int {
	return min(limit*2, max(limit, domain.MaxCandidateLimit))
}
