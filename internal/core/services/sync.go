package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driving"
	"github.com/custodia-labs/playbookbot/internal/logger"
)

// Ensure Synchronizer implements the interface.
var _ driving.Synchronizer = (*Synchronizer)(nil)

// Sync defaults.
const (
	DefaultSyncLimit       = 100
	DefaultRecentRunsLimit = 10
)

// SyncConfig tunes the synchroniser.
type SyncConfig struct {
	// Workers is the number of items processed concurrently. Default 1.
	Workers int

	// DefaultLimit applies when a request has no limit. Default 100.
	DefaultLimit int
}

// Synchronizer pulls items from the source connector and upserts them as
// playbooks. Each item is processed independently: one bad item is recorded
// on the run and the rest continue.
type Synchronizer struct {
	connector driven.SourceConnector
	store     driven.PlaybookStore
	embedder  driven.EmbeddingService
	reasoner  driven.Reasoner
	cfg       SyncConfig

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	onSynced []func()
}

// NewSynchronizer creates a synchroniser.
// embedder and reasoner are optional: without an embedder playbooks are
// stored unsearchable, without a reasoner they are categorised General.
func NewSynchronizer(
	connector driven.SourceConnector,
	store driven.PlaybookStore,
	embedder driven.EmbeddingService,
	reasoner driven.Reasoner,
	cfg SyncConfig,
) *Synchronizer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultSyncLimit
	}
	return &Synchronizer{
		connector: connector,
		store:     store,
		embedder:  embedder,
		reasoner:  reasoner,
		cfg:       cfg,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// OnSynced registers fn to run after a pass that stored at least one
// playbook. Result caches use it to drop stale entries.
func (s *Synchronizer) OnSynced(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSynced = append(s.onSynced, fn)
}

// Sync runs one synchronisation pass. Passes are not exclusive: concurrent
// runs converge because the store upserts on source ID.
func (s *Synchronizer) Sync(ctx context.Context, req domain.SyncRequest) (*domain.SyncRun, error) {
	if req.Limit <= 0 {
		req.Limit = s.cfg.DefaultLimit
	}

	run := domain.NewSyncRun(s.newID(), req.Scope, s.now())
	logger.Section("Sync")
	logger.Info("Starting sync %s (scope %s, limit %d, force %t)", run.ID, run.Scope, req.Limit, req.Force)

	items, err := s.connector.ListItems(ctx, req.Scope, req.IncludeCompleted, req.Limit)
	if err != nil {
		err = sourceError("list items", err)
		logger.Error("Sync %s aborted: %v", run.ID, err)
		run.Fail(err, s.now())
		s.record(ctx, run)
		return run, err
	}
	if len(items) > req.Limit {
		items = items[:req.Limit]
	}
	logger.Debug("Fetched %d items", len(items))

	for _, outcome := range s.processAll(ctx, items, req.Force) {
		run.Apply(outcome)
	}

	if err := ctx.Err(); err != nil {
		run.Fail(err, s.now())
		s.record(ctx, run)
		return run, err
	}

	run.Complete(s.now())
	s.record(ctx, run)
	if run.SyncedCount+run.UpdatedCount > 0 {
		s.notifySynced()
	}

	logger.Info("Sync %s complete: %d new, %d updated, %d skipped, %d errors in %s",
		run.ID, run.SyncedCount, run.UpdatedCount, run.SkippedCount, run.ErrorCount, run.Duration())
	return run, nil
}

// SyncItem fetches one item and re-indexes it regardless of staleness.
func (s *Synchronizer) SyncItem(ctx context.Context, sourceID string) (domain.ItemOutcome, error) {
	item, err := s.connector.GetItem(ctx, sourceID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			err = sourceError("get item", err)
		}
		return domain.ItemOutcome{SourceID: sourceID, Status: domain.ItemFailed, Err: err}, err
	}

	outcome := s.processItem(ctx, *item, true)
	if outcome.Status == domain.ItemNew || outcome.Status == domain.ItemUpdated {
		s.notifySynced()
	}
	logger.Info("Synced item %s: %s", sourceID, outcome.Status)
	return outcome, outcome.Err
}

// RecentRuns lists recent sync runs, newest first.
func (s *Synchronizer) RecentRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = DefaultRecentRunsLimit
	}
	runs, err := s.store.ListRecentSyncRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}

// processAll processes items and returns their outcomes in source order.
func (s *Synchronizer) processAll(ctx context.Context, items []domain.SourceItem, force bool) []domain.ItemOutcome {
	outcomes := make([]domain.ItemOutcome, len(items))

	if s.cfg.Workers <= 1 {
		for i, item := range items {
			outcomes[i] = s.processItem(ctx, item, force)
		}
		return outcomes
	}

	// Per-item failures are outcomes, so the group never returns an error.
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = s.processItem(ctx, item, force)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// processItem reconciles a single source item with the store.
func (s *Synchronizer) processItem(ctx context.Context, item domain.SourceItem, force bool) domain.ItemOutcome {
	out := domain.ItemOutcome{SourceID: item.ID, Title: item.Name}
	fail := func(err error) domain.ItemOutcome {
		logger.Warn("Item %s failed: %v", item.ID, err)
		out.Status = domain.ItemFailed
		out.Err = err
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	existing, err := s.store.GetBySourceID(ctx, item.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fail(storeError("lookup", err))
	}
	if err != nil {
		existing = nil
	}

	// A playbook stored without an embedding is retried until it has one.
	if existing != nil && !force && existing.HasEmbedding() &&
		!item.LastModifiedAt.IsZero() && !item.LastModifiedAt.After(existing.UpdatedAt) {
		logger.Debug("Item %s unchanged since %s", item.ID, existing.UpdatedAt.Format(time.RFC3339))
		out.Status = domain.ItemSkipped
		return out
	}

	candidate := playbookFromItem(item)
	candidate.Category = domain.CategoryGeneral
	if err := candidate.Validate(); err != nil {
		return fail(err)
	}

	candidate.Category = s.classify(ctx, candidate, existing)

	vec, err := s.embed(ctx, candidate)
	if err != nil {
		logger.Warn("Storing %s without embedding: %v", item.ID, err)
		out.EmbeddingMissing = true
	}
	candidate.Embedding = vec

	_, created, err := s.store.Upsert(ctx, candidate)
	if err != nil {
		return fail(storeError("upsert", err))
	}

	if created {
		out.Status = domain.ItemNew
	} else {
		out.Status = domain.ItemUpdated
	}
	logger.Debug("Item %s %s (%s)", item.ID, out.Status, candidate.Category)
	return out
}

// classify asks the reasoner for a category. On failure an existing
// playbook keeps its category and a new one becomes General.
func (s *Synchronizer) classify(ctx context.Context, p *domain.Playbook, existing *domain.Playbook) domain.Category {
	fallback := domain.CategoryGeneral
	if existing != nil && existing.Category.IsValid() {
		fallback = existing.Category
	}
	if s.reasoner == nil {
		return fallback
	}

	cat, err := s.reasoner.Classify(ctx, p.Title, p.Description, p.Content)
	if err != nil {
		logger.Warn("Classification of %s failed, using %s: %v", p.SourceID, fallback, err)
		return fallback
	}
	if !cat.IsValid() {
		return domain.CategoryGeneral
	}
	return cat
}

func (s *Synchronizer) embed(ctx context.Context, p *domain.Playbook) ([]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	vec, err := s.embedder.Embed(ctx, SearchableText(p))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vec) == 0 {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return vec, nil
}

func (s *Synchronizer) record(ctx context.Context, run *domain.SyncRun) {
	if err := s.store.RecordSyncRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("Failed to record sync run %s: %v", run.ID, err)
	}
}

func (s *Synchronizer) notifySynced() {
	s.mu.Lock()
	hooks := append([]func(){}, s.onSynced...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// sourceError wraps a connector failure so it matches ErrSourceUnavailable.
// Context cancellation is passed through unchanged.
func sourceError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrSourceUnavailable, err)
}

func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStore) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}
