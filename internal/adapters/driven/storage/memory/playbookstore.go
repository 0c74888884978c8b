package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
)

// Ensure PlaybookStore implements the interface.
var _ driven.PlaybookStore = (*PlaybookStore)(nil)

// PlaybookStore is an in-memory implementation of driven.PlaybookStore.
// Similarity search is a linear cosine scan.
type PlaybookStore struct {
	mu        sync.RWMutex
	playbooks map[string]domain.Playbook // keyed by SourceID
	byID      map[string]string          // ID -> SourceID
	runs      []domain.SyncRun
	now       func() time.Time
}

// NewPlaybookStore creates a new in-memory playbook store.
func NewPlaybookStore() *PlaybookStore {
	return &PlaybookStore{
		playbooks: make(map[string]domain.Playbook),
		byID:      make(map[string]string),
		now:       time.Now,
	}
}

// Upsert inserts or updates a playbook keyed by SourceID.
func (s *PlaybookStore) Upsert(_ context.Context, p *domain.Playbook) (string, bool, error) {
	if p == nil || p.SourceID == "" {
		return "", false, fmt.Errorf("%w: source id is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := clonePlaybook(*p)
	if stored.Category == "" {
		stored.Category = domain.CategoryGeneral
	}

	existing, ok := s.playbooks[p.SourceID]
	if ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.playbooks[stored.SourceID] = stored
	s.byID[stored.ID] = stored.SourceID
	return stored.ID, !ok, nil
}

// GetBySourceID retrieves a playbook by its source identifier.
func (s *PlaybookStore) GetBySourceID(_ context.Context, sourceID string) (*domain.Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.playbooks[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := clonePlaybook(p)
	return &out, nil
}

// GetByID retrieves a playbook by its local identifier.
func (s *PlaybookStore) GetByID(ctx context.Context, id string) (*domain.Playbook, error) {
	s.mu.RLock()
	sourceID, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.GetBySourceID(ctx, sourceID)
}

// SearchBySimilarity scans every embedded playbook and ranks by cosine similarity.
func (s *PlaybookStore) SearchBySimilarity(
	_ context.Context, vector []float32, q domain.SimilarityQuery,
) ([]domain.ScoredPlaybook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]domain.ScoredPlaybook, 0)
	for _, p := range s.sortedLocked() {
		if !p.HasEmbedding() {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		hits = append(hits, domain.ScoredPlaybook{
			Playbook:   clonePlaybook(p),
			Similarity: domain.CosineSimilarity(vector, p.Embedding),
		})
	}

	return domain.RankScored(hits, q.Threshold, q.Limit), nil
}

// List returns playbooks ordered by title.
func (s *PlaybookStore) List(_ context.Context, opts domain.ListOptions) ([]domain.Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedLocked()
	out := make([]domain.Playbook, 0, len(all))
	for _, p := range all {
		if opts.Category != "" && p.Category != opts.Category {
			continue
		}
		out = append(out, clonePlaybook(p))
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []domain.Playbook{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// ListCategories returns the categories in use with their playbook counts.
func (s *PlaybookStore) ListCategories(_ context.Context) (map[domain.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Category]int)
	for _, p := range s.playbooks {
		counts[p.Category]++
	}
	return counts, nil
}

// Delete removes a playbook by source identifier.
func (s *PlaybookStore) Delete(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.playbooks[sourceID]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, p.ID)
	delete(s.playbooks, sourceID)
	return nil
}

// RecordSyncRun persists a finalised sync run.
func (s *PlaybookStore) RecordSyncRun(_ context.Context, run *domain.SyncRun) error {
	if run == nil {
		return fmt.Errorf("%w: nil sync run", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *run
	stored.Errors = append([]string(nil), run.Errors...)
	s.runs = append(s.runs, stored)
	return nil
}

// ListRecentSyncRuns returns the most recent runs, newest first.
func (s *PlaybookStore) ListRecentSyncRuns(_ context.Context, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SyncRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		out = append(out, s.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *PlaybookStore) Close() error {
	return nil
}

func (s *PlaybookStore) sortedLocked() []domain.Playbook {
	out := make([]domain.Playbook, 0, len(s.playbooks))
	for _, p := range s.playbooks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := strings.ToLower(out[i].Title), strings.ToLower(out[j].Title)
		if ti != tj {
			return ti < tj
		}
		return out[i].SourceID < out[j].SourceID
	})
	return out
}

func clonePlaybook(p domain.Playbook) domain.Playbook {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	if p.Embedding != nil {
		p.Embedding = append([]float32(nil), p.Embedding...)
	}
	return p
}
