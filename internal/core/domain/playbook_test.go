package domain

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlaybook() *Playbook {
	return &Playbook{
		SourceID: "task-1",
		Title:    "Enterprise discovery call",
		Content:  "Ask about budget, authority, need and timeline.",
		Category: CategorySales,
		URL:      "https://app.clickup.com/t/task-1",
	}
}

func TestPlaybook_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Playbook)
		wantErr bool
	}{
		{"valid", func(p *Playbook) {}, false},
		{"missing source id", func(p *Playbook) { p.SourceID = "" }, true},
		{"blank title", func(p *Playbook) { p.Title = "   " }, true},
		{"missing content", func(p *Playbook) { p.Content = "" }, true},
		{"missing url", func(p *Playbook) { p.URL = "" }, true},
		{"relative url", func(p *Playbook) { p.URL = "/t/task-1" }, true},
		{"ftp url", func(p *Playbook) { p.URL = "ftp://example.com/x" }, true},
		{"malformed url", func(p *Playbook) { p.URL = "not a url" }, true},
		{"empty category", func(p *Playbook) { p.Category = "" }, true},
		{"http url", func(p *Playbook) { p.URL = "http://example.com/x" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlaybook()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidationFailed))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPlaybook_HasEmbedding(t *testing.T) {
	p := validPlaybook()
	assert.False(t, p.HasEmbedding())

	p.Embedding = []float32{0.1, 0.2}
	assert.True(t, p.HasEmbedding())
}

func TestSummarise(t *testing.T) {
	t.Run("short content collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "one two three", Summarise("one\n\n two\tthree "))
	})

	t.Run("long content is cut at a word boundary", func(t *testing.T) {
		long := strings.Repeat("playbook ", 200)
		got := Summarise(long)

		assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxDescriptionLength)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.True(t, strings.HasSuffix(strings.TrimSuffix(got, "..."), "playbook"))
	})

	t.Run("multibyte content is bounded in runes", func(t *testing.T) {
		long := strings.Repeat("ü", 1000)
		got := Summarise(long)
		assert.Equal(t, MaxDescriptionLength, utf8.RuneCountInString(got))
	})
}

func TestPlaybook_Summary(t *testing.T) {
	p := validPlaybook()
	p.Description = "Qualify the lead"

	s := p.Summary()
	assert.Equal(t, "Enterprise discovery call", s.Title)
	assert.Equal(t, "Qualify the lead", s.Description)
	assert.Equal(t, CategorySales, s.Category)
}
