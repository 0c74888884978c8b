package mcp

import (
	"context"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results    []domain.SearchResult
	playbooks  []domain.Playbook
	playbook   *domain.Playbook
	categories map[domain.Category]int
	err        error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Get(_ context.Context, _ string) (*domain.Playbook, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.playbook == nil {
		return nil, domain.ErrNotFound
	}
	return m.playbook, nil
}

func (m *mockSearchService) List(_ context.Context, _ domain.ListOptions) ([]domain.Playbook, error) {
	return m.playbooks, m.err
}

func (m *mockSearchService) Categories(_ context.Context) (map[domain.Category]int, error) {
	return m.categories, m.err
}

// mockRecommendationService is a mock implementation of driving.RecommendationService.
type mockRecommendationService struct {
	rec      *domain.Recommendation
	err      error
	lastOpts domain.RecommendOptions
}

func (m *mockRecommendationService) Recommend(_ context.Context, _ string, opts domain.RecommendOptions) (*domain.Recommendation, error) {
	m.lastOpts = opts
	return m.rec, m.err
}

// mockSynchronizer is a mock implementation of driving.Synchronizer.
type mockSynchronizer struct {
	run     *domain.SyncRun
	err     error
	lastReq domain.SyncRequest
}

func (m *mockSynchronizer) Sync(_ context.Context, req domain.SyncRequest) (*domain.SyncRun, error) {
	m.lastReq = req
	return m.run, m.err
}

func (m *mockSynchronizer) SyncItem(_ context.Context, sourceID string) (domain.ItemOutcome, error) {
	return domain.ItemOutcome{SourceID: sourceID, Status: domain.ItemUpdated}, m.err
}

func (m *mockSynchronizer) RecentRuns(_ context.Context, _ int) ([]domain.SyncRun, error) {
	if m.run == nil {
		return nil, m.err
	}
	return []domain.SyncRun{*m.run}, m.err
}

func testPlaybook() domain.Playbook {
	return domain.Playbook{
		ID:          "pb-1",
		SourceID:    "task-1",
		Title:       "Discovery Call Playbook",
		Description: "How to run a discovery call",
		Content:     "1. Research the account",
		Category:    domain.CategorySales,
		Tags:        []string{"sales", "calls"},
		URL:         "https://app.clickup.com/t/task-1",
	}
}
