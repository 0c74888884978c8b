package clickup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

func TestTask_ToItem_RequiresOnlyID(t *testing.T) {
	_, err := task{Name: "n", URL: "https://x"}.toItem()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidationFailed))

	item, err := task{ID: "1", Name: "  "}.toItem()
	require.NoError(t, err, "incomplete tasks pass through for the synchroniser to count")
	assert.Equal(t, "1", item.ID)
	assert.Empty(t, item.Name)
	assert.Empty(t, item.URL)
}

func TestTask_Body_PrefersMarkdown(t *testing.T) {
	assert.Equal(t, "# md", task{MarkdownDescription: "# md", TextContent: "text", Description: "desc"}.body())
	assert.Equal(t, "text", task{MarkdownDescription: " ", TextContent: "text"}.body())
	assert.Equal(t, "desc", task{Description: "desc"}.body())
	assert.Equal(t, "", task{}.body())

	assert.Equal(t, domain.FormatMarkdown, task{MarkdownDescription: "# md", TextContent: "text"}.format())
	assert.Equal(t, domain.FormatText, task{MarkdownDescription: " ", TextContent: "text"}.format())
}

func TestParseMillis(t *testing.T) {
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), parseMillis("1735689600000"))
	assert.True(t, parseMillis("").IsZero())
	assert.True(t, parseMillis("yesterday").IsZero())
}

func TestMatchesKeywords(t *testing.T) {
	assert.True(t, matchesKeywords("Customer Onboarding PLAYBOOK", DefaultDiscoveryKeywords))
	assert.True(t, matchesKeywords("How to close a deal", DefaultDiscoveryKeywords))
	assert.False(t, matchesKeywords("Quarterly offsite", DefaultDiscoveryKeywords))
	assert.False(t, matchesKeywords("anything", []string{""}))
}
