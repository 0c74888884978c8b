package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

func testPlaybook(sourceID, title string, emb []float32) *domain.Playbook {
	return &domain.Playbook{
		SourceID:  sourceID,
		Title:     title,
		Content:   "content of " + title,
		Category:  domain.CategorySales,
		Tags:      []string{"playbook", "sales"},
		URL:       "https://app.clickup.com/t/" + sourceID,
		Embedding: emb,
	}
}

func TestPlaybookStore_UpsertIdempotent(t *testing.T) {
	store := NewPlaybookStore()
	ctx := context.Background()

	clock := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	id1, created, err := store.Upsert(ctx, testPlaybook("task-1", "Discovery", nil))
	require.NoError(t, err)
	assert.True(t, created)

	clock = clock.Add(time.Hour)
	id2, created, err := store.Upsert(ctx, testPlaybook("task-1", "Discovery v2", nil))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	all, err := store.List(ctx, domain.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Discovery v2", all[0].Title)
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), all[0].CreatedAt)
	assert.Equal(t, clock, all[0].UpdatedAt)
}

func TestPlaybookStore_TagsAndCategoryRoundTrip(t *testing.T) {
	store := NewPlaybookStore()
	ctx := context.Background()

	p := testPlaybook("task-1", "Renewal", nil)
	p.Tags = []string{"renewal", "churn", "Q4"}
	p.Category = domain.CategoryCustomerSuccess
	_, _, err := store.Upsert(ctx, p)
	require.NoError(t, err)

	p.Tags[0] = "mutated"

	got, err := store.GetBySourceID(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"renewal", "churn", "Q4"}, got.Tags)
	assert.Equal(t, domain.CategoryCustomerSuccess, got.Category)

	byID, err := store.GetByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.SourceID, byID.SourceID)
}

func TestPlaybookStore_EmptyCategoryBecomesGeneral(t *testing.T) {
	store := NewPlaybookStore()
	p := testPlaybook("task-1", "x", nil)
	p.Category = ""

	_, _, err := store.Upsert(context.Background(), p)
	require.NoError(t, err)

	got, err := store.GetBySourceID(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryGeneral, got.Category)
}

func TestPlaybookStore_NotFound(t *testing.T) {
	store := NewPlaybookStore()

	_, err := store.GetBySourceID(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(store.Delete(context.Background(), "missing"), domain.ErrNotFound))
}

func TestPlaybookStore_SearchBySimilarity(t *testing.T) {
	store := NewPlaybookStore()
	ctx := context.Background()

	_, _, _ = store.Upsert(ctx, testPlaybook("a", "Exact", []float32{1, 0}))
	_, _, _ = store.Upsert(ctx, testPlaybook("b", "Close", []float32{0.9, 0.1}))
	_, _, _ = store.Upsert(ctx, testPlaybook("c", "Far", []float32{0, 1}))
	_, _, _ = store.Upsert(ctx, testPlaybook("d", "Unembedded", nil))
	eng := testPlaybook("e", "Engineering", []float32{1, 0})
	eng.Category = domain.CategoryEngineering
	_, _, _ = store.Upsert(ctx, eng)

	hits, err := store.SearchBySimilarity(ctx, []float32{1, 0}, domain.SimilarityQuery{Limit: 10, Threshold: 0.5})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "b", hits[2].Playbook.SourceID)
	for _, h := range hits {
		assert.NotEqual(t, "d", h.Playbook.SourceID)
		assert.Greater(t, h.Similarity, 0.5)
	}

	sales, err := store.SearchBySimilarity(ctx, []float32{1, 0}, domain.SimilarityQuery{
		Category: domain.CategorySales, Limit: 1, Threshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "a", sales[0].Playbook.SourceID)
}

func TestPlaybookStore_ListAndCategories(t *testing.T) {
	store := NewPlaybookStore()
	ctx := context.Background()

	_, _, _ = store.Upsert(ctx, testPlaybook("1", "Charlie", nil))
	_, _, _ = store.Upsert(ctx, testPlaybook("2", "alpha", nil))
	hr := testPlaybook("3", "Bravo", nil)
	hr.Category = domain.CategoryHR
	_, _, _ = store.Upsert(ctx, hr)

	all, err := store.List(ctx, domain.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Title)
	assert.Equal(t, "Charlie", all[2].Title)

	page, err := store.List(ctx, domain.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Bravo", page[0].Title)

	onlyHR, err := store.List(ctx, domain.ListOptions{Category: domain.CategoryHR})
	require.NoError(t, err)
	assert.Len(t, onlyHR, 1)

	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Category]int{domain.CategorySales: 2, domain.CategoryHR: 1}, cats)

	require.NoError(t, store.Delete(ctx, "1"))
	all, _ = store.List(ctx, domain.ListOptions{})
	assert.Len(t, all, 2)
}

func TestPlaybookStore_SyncRuns(t *testing.T) {
	store := NewPlaybookStore()
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		run := domain.NewSyncRun(id, domain.Scope{}, time.Now())
		run.Complete(time.Now())
		require.NoError(t, store.RecordSyncRun(ctx, run))
	}

	runs, err := store.ListRecentSyncRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)
}
