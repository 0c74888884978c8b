package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// mockConnector implements driven.SourceConnector for testing.
type mockConnector struct {
	mu      sync.Mutex
	items   []domain.SourceItem
	listErr error
	block   chan struct{}
	calls   int
}

func (m *mockConnector) ListItems(ctx context.Context, _ domain.Scope, _ bool, limit int) ([]domain.SourceItem, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit > 0 && len(m.items) > limit {
		return m.items[:limit], nil
	}
	return m.items, nil
}

func (m *mockConnector) GetItem(_ context.Context, id string) (*domain.SourceItem, error) {
	for _, item := range m.items {
		if item.ID == id {
			it := item
			return &it, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockConnector) Search(_ context.Context, _ string, _ domain.Scope, _ int) ([]domain.SourceItem, error) {
	return m.items, nil
}

// mockEmbedder returns fixed vectors per text; unknown texts get fallback.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	failFor  map[string]bool
	calls    []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	if m.failFor[text] {
		return nil, errors.New("embedding provider error")
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 2 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockReasoner implements driven.Reasoner for testing. Safe for concurrent use.
type mockReasoner struct {
	mu          sync.Mutex
	category    domain.Category
	classifyErr error
	explainErr  map[string]error
	suggestions []string
	suggestErr  error
	intent      string
	intentErr   error
	explained   []string
}

func (m *mockReasoner) ExplainRelevance(_ context.Context, query string, p domain.PlaybookSummary) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.explained = append(m.explained, p.Title)
	if err := m.explainErr[p.Title]; err != nil {
		return "", err
	}
	return "relevant to " + query + ": " + p.Title, nil
}

func (m *mockReasoner) Classify(_ context.Context, _, _, _ string) (domain.Category, error) {
	if m.classifyErr != nil {
		return domain.CategoryGeneral, m.classifyErr
	}
	return m.category, nil
}

func (m *mockReasoner) SuggestAlternateQueries(_ context.Context, _ string) ([]string, error) {
	return m.suggestions, m.suggestErr
}

func (m *mockReasoner) InterpretIntent(_ context.Context, _ string) (string, error) {
	return m.intent, m.intentErr
}

func (m *mockReasoner) explainCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.explained)
}
