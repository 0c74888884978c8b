package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

func TestRecommendCmd_Output(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("recommend", "should", "I", "chase", "this", "lead")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSearchLimit, ts.recommend.lastOpts.Limit)
	assert.InDelta(t, domain.DefaultSimilarityThreshold, ts.recommend.lastOpts.Threshold, 1e-9)

	assert.Contains(t, out, "Looking for: You want to decide whether a lead is worth pursuing.")
	assert.Contains(t, out, "Recommended playbooks:")
	assert.Contains(t, out, "[1] Qualify a lead (82%)")
	assert.Contains(t, out, "Try also:")
	assert.Contains(t, out, "  - lead scoring")
}

func TestRecommendCmd_DegradedIntentHidden(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.recommend.rec.Intent = domain.Degrade("", errors.New("llm down"))
	ts.recommend.rec.Suggestions = domain.Degrade([]string(nil), errors.New("llm down"))

	out, err := execute("recommend", "leads")
	require.NoError(t, err)
	assert.NotContains(t, out, "Looking for:")
	assert.NotContains(t, out, "Try also:")
	assert.Contains(t, out, "Qualify a lead")
}

func TestRecommendCmd_Flags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("recommend", "-n", "2", "-t", "0.5", "-c", "Customer Success", "renewals")
	require.NoError(t, err)
	assert.Equal(t, 2, ts.recommend.lastOpts.Limit)
	assert.InDelta(t, 0.5, ts.recommend.lastOpts.Threshold, 1e-9)
	assert.Equal(t, domain.CategoryCustomerSuccess, ts.recommend.lastOpts.Category)
}

func TestRecommendCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("recommend", "--json", "leads")
	require.NoError(t, err)

	var rec recommendationJSON
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "leads", rec.Query)
	assert.Equal(t, []string{"lead scoring", "discovery call"}, rec.Suggestions)
	require.Len(t, rec.Results, 1)
	assert.Equal(t, "p2", rec.Results[0].ID)
}

func TestRecommendCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.recommend.err = domain.ErrInvalidInput

	_, err := execute("recommend", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRecommendCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	recommendService = nil

	_, err := execute("recommend", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recommendation service not configured")
}
