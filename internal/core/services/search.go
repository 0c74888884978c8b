package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/playbookbot/internal/cache"
	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driving"
	"github.com/custodia-labs/playbookbot/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Result cache defaults.
const (
	DefaultResultCacheTTL = 5 * time.Minute
	DefaultListLimit      = 20
)

// searchKey identifies a cached search.
type searchKey struct {
	query     string
	category  domain.Category
	limit     int
	threshold float64
	explain   bool
}

// SearchConfig tunes a SearchService.
type SearchConfig struct {
	// CacheTTL is how long results are cached. Default 5 minutes.
	CacheTTL time.Duration

	// ExplainWorkers bounds concurrent explanation requests. Default 4.
	ExplainWorkers int

	// CacheMaxEntries bounds the result cache.
	CacheMaxEntries int

	// SweepInterval is how often expired results are dropped.
	SweepInterval time.Duration
}

func (c SearchConfig) cacheOptions() cache.Options {
	return cache.Options{TTL: c.CacheTTL, MaxEntries: c.CacheMaxEntries, SweepInterval: c.SweepInterval}
}

// SearchService provides semantic playbook search.
type SearchService struct {
	store    driven.PlaybookStore
	embedder driven.EmbeddingService
	reasoner driven.Reasoner
	results  *cache.TTLCache[searchKey, []domain.SearchResult]
	cfg      SearchConfig
}

// NewSearchService creates a new search service.
// The reasoner is optional (can be nil); explanations are then degraded.
func NewSearchService(
	store driven.PlaybookStore,
	embedder driven.EmbeddingService,
	reasoner driven.Reasoner,
	cfg SearchConfig,
) *SearchService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultResultCacheTTL
	}
	return &SearchService{
		store:    store,
		embedder: embedder,
		reasoner: reasoner,
		results:  cache.NewTTLCache[searchKey, []domain.SearchResult](cfg.cacheOptions()),
		cfg:      cfg,
	}
}

// Search returns at most opts.Limit playbooks with similarity strictly above
// opts.Threshold, highest similarity first.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	normalised := NormaliseQuery(query)
	if normalised == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	opts = opts.WithDefaults()
	logger.Debug("Normalised: %q, limit %d, threshold %.2f, category %q, explain %t",
		normalised, opts.Limit, opts.Threshold, opts.Category, opts.Explain)

	key := searchKey{
		query:     normalised,
		category:  opts.Category,
		limit:     opts.Limit,
		threshold: opts.Threshold,
		explain:   opts.Explain,
	}
	results, err := s.results.GetOrCompute(ctx, key, func(ctx context.Context) ([]domain.SearchResult, error) {
		return s.execute(ctx, strings.TrimSpace(query), normalised, opts)
	}, s.cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	logger.Info("Search returned %d results", len(results))
	return cloneResults(results), nil
}

func (s *SearchService) execute(
	ctx context.Context, query, normalised string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	vec, err := embedQuery(ctx, s.embedder, normalised)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.SearchBySimilarity(ctx, vec, domain.SimilarityQuery{
		Category:  opts.Category,
		Limit:     candidateLimit(opts.Limit),
		Threshold: opts.Threshold,
	})
	if err != nil {
		return nil, storeError("similarity search", err)
	}
	logger.Debug("Store returned %d candidates", len(hits))

	results := toResults(domain.RankScored(hits, opts.Threshold, opts.Limit))
	if opts.Explain {
		explainAll(ctx, s.reasoner, query, results, s.cfg.ExplainWorkers)
	}
	return results, nil
}

// Get returns a playbook by its local identifier.
func (s *SearchService) Get(ctx context.Context, id string) (*domain.Playbook, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is empty", domain.ErrInvalidInput)
	}
	return s.store.GetByID(ctx, id)
}

// List returns playbooks ordered by title.
func (s *SearchService) List(ctx context.Context, opts domain.ListOptions) ([]domain.Playbook, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return s.store.List(ctx, opts)
}

// Categories returns the categories in use with their playbook counts.
func (s *SearchService) Categories(ctx context.Context) (map[domain.Category]int, error) {
	return s.store.ListCategories(ctx)
}

// Invalidate drops every cached result.
func (s *SearchService) Invalidate() {
	s.results.Purge()
}

// Close stops the result cache janitor.
func (s *SearchService) Close() error {
	return s.results.Close()
}

// embedQuery embeds a normalised query; failures and empty vectors
// match domain.ErrEmbeddingUnavailable.
func embedQuery(ctx context.Context, embedder driven.EmbeddingService, query string) ([]float32, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}
	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty vector", domain.ErrEmbeddingUnavailable)
	}
	return vec, nil
}

func cloneResults(in []domain.SearchResult) []domain.SearchResult {
	out := make([]domain.SearchResult, len(in))
	copy(out, in)
	return out
}
