package services

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/normalisers"
)

// NormaliseQuery lower-cases the query, replaces punctuation and symbols
// with spaces and collapses whitespace. Cache keys and embeddings use the
// normalised form so trivially different phrasings share work.
func NormaliseQuery(query string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, query)
	return strings.Join(strings.Fields(mapped), " ")
}

// SearchableText builds the text that is embedded for a playbook:
// title, description, body and tags.
func SearchableText(p *domain.Playbook) string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Description != "" && p.Description != p.Content {
		b.WriteString("\n")
		b.WriteString(p.Description)
	}
	if p.Content != "" {
		b.WriteString("\n")
		b.WriteString(p.Content)
	}
	if len(p.Tags) > 0 {
		b.WriteString("\nTags: ")
		b.WriteString(strings.Join(p.Tags, ", "))
	}
	return b.String()
}

// playbookFromItem maps a source item onto a candidate playbook.
// Category and embedding are filled in later by the synchroniser.
func playbookFromItem(item domain.SourceItem) *domain.Playbook {
	content := normalisers.PlainText(item.Content, item.Format)
	description := normalisers.StripHTML(item.Description)
	if content == "" {
		content = description
	}
	if description == "" {
		description = content
	}

	tags := make([]string, 0, len(item.Tags))
	for _, tag := range item.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return &domain.Playbook{
		SourceID:    item.ID,
		Title:       strings.TrimSpace(item.Name),
		Description: domain.Summarise(description),
		Content:     content,
		Tags:        tags,
		URL:         strings.TrimSpace(item.URL),
	}
}
