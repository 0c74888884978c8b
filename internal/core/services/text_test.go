package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

func TestNormaliseQuery(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"How do I onboard a new hire?", "how do i onboard a new hire"},
		{"  Sales   PLAYBOOK!!! ", "sales playbook"},
		{"churn-risk: renewals", "churn risk renewals"},
		{"???", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormaliseQuery(tt.in))
		})
	}
}

func TestSearchableText(t *testing.T) {
	p := &domain.Playbook{
		Title:       "Onboarding",
		Description: "First week plan",
		Content:     "Day one: laptop setup.",
		Tags:        []string{"hr", "onboarding"},
	}

	assert.Equal(t, "Onboarding\nFirst week plan\nDay one: laptop setup.\nTags: hr, onboarding", SearchableText(p))
}

func TestPlaybookFromItem(t *testing.T) {
	item := domain.SourceItem{
		ID:             "abc",
		Name:           "  Discovery call  ",
		Content:        "<h1>Agenda</h1><p>Ask about budget.</p>",
		Tags:           []string{"sales", " ", "calls"},
		URL:            "https://app.clickup.com/t/abc",
		LastModifiedAt: time.Now(),
	}

	p := playbookFromItem(item)

	assert.Equal(t, "abc", p.SourceID)
	assert.Equal(t, "Discovery call", p.Title)
	assert.Equal(t, "Agenda Ask about budget.", p.Content)
	assert.Equal(t, "Agenda Ask about budget.", p.Description)
	assert.Equal(t, []string{"sales", "calls"}, p.Tags)
}

func TestPlaybookFromItem_DescriptionOnly(t *testing.T) {
	p := playbookFromItem(domain.SourceItem{ID: "x", Name: "n", Description: "Only a description"})

	assert.Equal(t, "Only a description", p.Content)
	assert.Equal(t, "Only a description", p.Description)
}

func TestPlaybookFromItem_Markdown(t *testing.T) {
	p := playbookFromItem(domain.SourceItem{
		ID:      "md",
		Name:    "Renewals",
		Content: "## Steps\n\n1. Review **usage**\n2. Book a [call](https://cal.example.com)",
		Format:  domain.FormatMarkdown,
	})

	assert.Equal(t, "Steps 1. Review usage 2. Book a call", p.Content)
}
