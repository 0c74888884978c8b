package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/playbookbot/internal/cache"
	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driving"
	"github.com/custodia-labs/playbookbot/internal/logger"
)

// Ensure RecommendationService implements the interface.
var _ driving.RecommendationService = (*RecommendationService)(nil)

type recommendKey struct {
	query     string
	category  domain.Category
	limit     int
	threshold float64
}

// RecommendationService ranks playbooks for a free-form need, gathering
// candidates slightly below the requested bar, and annotates the result
// with alternative phrasings and an intent reading.
type RecommendationService struct {
	store    driven.PlaybookStore
	embedder driven.EmbeddingService
	reasoner driven.Reasoner
	results  *cache.TTLCache[recommendKey, *domain.Recommendation]
	cfg      SearchConfig
}

// NewRecommendationService creates a recommendation service.
// The reasoner is optional (can be nil).
func NewRecommendationService(
	store driven.PlaybookStore,
	embedder driven.EmbeddingService,
	reasoner driven.Reasoner,
	cfg SearchConfig,
) *RecommendationService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultResultCacheTTL
	}
	return &RecommendationService{
		store:    store,
		embedder: embedder,
		reasoner: reasoner,
		results:  cache.NewTTLCache[recommendKey, *domain.Recommendation](cfg.cacheOptions()),
		cfg:      cfg,
	}
}

// Recommend returns ranked, explained playbooks for the query.
func (s *RecommendationService) Recommend(
	ctx context.Context, query string, opts domain.RecommendOptions,
) (*domain.Recommendation, error) {
	logger.Section("Recommendation")
	logger.Debug("Query: %q", query)

	normalised := NormaliseQuery(query)
	if normalised == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	if opts.Limit <= 0 {
		opts.Limit = domain.DefaultSearchLimit
	}
	opts.Threshold = domain.ClampThreshold(opts.Threshold)

	key := recommendKey{query: normalised, category: opts.Category, limit: opts.Limit, threshold: opts.Threshold}
	rec, err := s.results.GetOrCompute(ctx, key, func(ctx context.Context) (*domain.Recommendation, error) {
		return s.execute(ctx, strings.TrimSpace(query), normalised, opts)
	}, s.cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	out := *rec
	out.Results = cloneResults(rec.Results)
	return &out, nil
}

func (s *RecommendationService) execute(
	ctx context.Context, query, normalised string, opts domain.RecommendOptions,
) (*domain.Recommendation, error) {
	vec, err := embedQuery(ctx, s.embedder, normalised)
	if err != nil {
		return nil, err
	}

	bar := max(opts.Threshold-domain.RecommendThresholdSlack, min(opts.Threshold, 0))
	hits, err := s.store.SearchBySimilarity(ctx, vec, domain.SimilarityQuery{
		Category:  opts.Category,
		Limit:     min(opts.Limit*2, domain.MaxCandidateLimit),
		Threshold: bar,
	})
	if err != nil {
		return nil, storeError("similarity search", err)
	}

	rec := &domain.Recommendation{
		Query:   query,
		Results: toResults(domain.RankScored(hits, bar, opts.Limit)),
	}
	logger.Debug("Recommending %d of %d candidates (bar %.2f)", len(rec.Results), len(hits), bar)

	var g errgroup.Group
	g.Go(func() error {
		explainAll(ctx, s.reasoner, query, rec.Results, s.cfg.ExplainWorkers)
		return nil
	})
	g.Go(func() error {
		rec.Suggestions = s.suggest(ctx, query)
		return nil
	})
	g.Go(func() error {
		rec.Intent = s.intent(ctx, query)
		return nil
	})
	_ = g.Wait()

	return rec, nil
}

func (s *RecommendationService) suggest(ctx context.Context, query string) domain.Enrichment[[]string] {
	if s.reasoner == nil {
		return domain.Degrade([]string{}, domain.ErrLLMUnavailable)
	}
	suggestions, err := s.reasoner.SuggestAlternateQueries(ctx, query)
	if err != nil {
		logger.Debug("Suggestions degraded: %v", err)
		return domain.Degrade([]string{}, err)
	}
	return domain.Enriched(DedupeSuggestions(query, suggestions, maxSuggestions))
}

func (s *RecommendationService) intent(ctx context.Context, query string) domain.Enrichment[string] {
	if s.reasoner == nil {
		return domain.Degrade("", domain.ErrLLMUnavailable)
	}
	intent, err := s.reasoner.InterpretIntent(ctx, query)
	if err != nil {
		logger.Debug("Intent degraded: %v", err)
		return domain.Degrade("", err)
	}
	return domain.Enriched(intent)
}

// Invalidate drops every cached recommendation.
func (s *RecommendationService) Invalidate() {
	s.results.Purge()
}

// Close stops the result cache janitor.
func (s *RecommendationService) Close() error {
	return s.results.Close()
}
