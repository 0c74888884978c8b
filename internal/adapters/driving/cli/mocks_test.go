package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driving"
)

var (
	_ driving.SearchService         = (*mockSearchService)(nil)
	_ driving.RecommendationService = (*mockRecommendService)(nil)
	_ driving.Synchronizer          = (*mockSynchronizer)(nil)
	_ driving.SettingsService       = (*mockSettingsService)(nil)
)

// testMu serialises tests that drive the shared command tree.
var testMu sync.Mutex

func testPlaybook(id, title string, category domain.Category) domain.Playbook {
	return domain.Playbook{
		ID:          id,
		SourceID:    "task-" + id,
		Title:       title,
		Description: "How to " + strings.ToLower(title),
		Content:     "1. Do the thing\n2. Check the thing",
		Category:    category,
		Tags:        []string{"playbook"},
		URL:         "https://app.clickup.com/t/task-" + id,
		Embedding:   []float32{1, 0},
		UpdatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

type mockSearchService struct {
	results   []domain.SearchResult
	playbooks []domain.Playbook
	counts    map[domain.Category]int
	err       error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastList  domain.ListOptions
	calls     int
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.calls++
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Get(_ context.Context, id string) (*domain.Playbook, error) {
	for i := range m.playbooks {
		if m.playbooks[i].ID == id {
			p := m.playbooks[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSearchService) List(_ context.Context, opts domain.ListOptions) ([]domain.Playbook, error) {
	m.lastList = opts
	return m.playbooks, m.err
}

func (m *mockSearchService) Categories(_ context.Context) (map[domain.Category]int, error) {
	return m.counts, m.err
}

type mockRecommendService struct {
	rec      *domain.Recommendation
	err      error
	lastOpts domain.RecommendOptions
}

func (m *mockRecommendService) Recommend(_ context.Context, query string, opts domain.RecommendOptions) (*domain.Recommendation, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	rec := *m.rec
	rec.Query = query
	return &rec, nil
}

type mockSynchronizer struct {
	run     *domain.SyncRun
	err     error
	outcome domain.ItemOutcome
	runs    []domain.SyncRun

	lastReq  domain.SyncRequest
	lastItem string
}

func (m *mockSynchronizer) Sync(_ context.Context, req domain.SyncRequest) (*domain.SyncRun, error) {
	m.lastReq = req
	return m.run, m.err
}

func (m *mockSynchronizer) SyncItem(_ context.Context, sourceID string) (domain.ItemOutcome, error) {
	m.lastItem = sourceID
	return m.outcome, m.err
}

func (m *mockSynchronizer) RecentRuns(_ context.Context, _ int) ([]domain.SyncRun, error) {
	return m.runs, m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error

	embedding []string
	llm       []string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(p), model, apiKey}
	m.settings.Embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(p), model, apiKey}
	m.settings.LLM = domain.LLMSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetSourceToken(token string, oauth bool) error {
	if oauth {
		m.settings.Source.AccessToken = token
		return nil
	}
	m.settings.Source.APIToken = token
	m.settings.Source.AccessToken = ""
	return nil
}

func (m *mockSettingsService) SetSourceScope(scope domain.Scope) error {
	m.settings.Source.Scope = scope
	return nil
}

func (m *mockSettingsService) Validate() error                      { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings      { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ProbeEmbedding(context.Context) error { return m.pingErr }
func (m *mockSettingsService) ProbeLLM(context.Context) error       { return m.pingErr }

type testServices struct {
	search    *mockSearchService
	recommend *mockRecommendService
	sync      *mockSynchronizer
	settings  *mockSettingsService
}

// setupTestServices installs mocks and returns a cleanup that restores
// the previous services and resets every flag.
func setupTestServices() (*testServices, func()) {
	testMu.Lock()

	ts := &testServices{
		search: &mockSearchService{
			results: []domain.SearchResult{
				{Playbook: testPlaybook("p1", "Onboard a customer", domain.CategoryCustomerSuccess), Similarity: 0.91,
					Explanation: domain.Enriched("Covers the onboarding call.")},
				{Playbook: testPlaybook("p2", "Qualify a lead", domain.CategorySales), Similarity: 0.78},
			},
			playbooks: []domain.Playbook{
				testPlaybook("p1", "Onboard a customer", domain.CategoryCustomerSuccess),
				testPlaybook("p2", "Qualify a lead", domain.CategorySales),
			},
			counts: map[domain.Category]int{domain.CategorySales: 1, domain.CategoryCustomerSuccess: 1},
		},
		recommend: &mockRecommendService{
			rec: &domain.Recommendation{
				Results: []domain.SearchResult{
					{Playbook: testPlaybook("p2", "Qualify a lead", domain.CategorySales), Similarity: 0.82},
				},
				Suggestions: domain.Enriched([]string{"lead scoring", "discovery call"}),
				Intent:      domain.Enriched("You want to decide whether a lead is worth pursuing."),
			},
		},
		sync: &mockSynchronizer{
			run: &domain.SyncRun{
				ID: "run-1", Scope: "auto", SyncedCount: 3, UpdatedCount: 1, SkippedCount: 2,
				ErrorCount: 1, Errors: []string{"task-9 (Broken): validation failed"}, Success: true,
				StartedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				CompletedAt: time.Date(2026, 3, 1, 9, 0, 2, 0, time.UTC),
			},
			outcome: domain.ItemOutcome{SourceID: "task-1", Status: domain.ItemUpdated},
		},
		settings: &mockSettingsService{settings: domain.DefaultAppSettings()},
	}

	old := Services{
		Search:    searchService,
		Recommend: recommendService,
		Sync:      synchronizer,
		Settings:  settingsService,
		Limiter:   limiter,
		Defaults:  searchDefaults,
		Scope:     defaultScope,
	}
	oldBootstrap := bootstrap

	bootstrap = nil
	SetServices(&Services{
		Search:    ts.search,
		Recommend: ts.recommend,
		Sync:      ts.sync,
		Settings:  ts.settings,
		Defaults:  defaultSearchSettings(),
	})

	return ts, func() {
		SetServices(&old)
		bootstrap = oldBootstrap
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		testMu.Unlock()
	}
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
