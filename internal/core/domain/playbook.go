package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength bounds the summary stored in Playbook.Description.
const MaxDescriptionLength = 500

// Playbook is the indexed unit: a task or document drawn from the source,
// enriched with a category and an optional embedding.
type Playbook struct {
	// ID is the locally generated identifier, assigned at first insert.
	ID string

	// SourceID is the identifier in the source connector.
	// It is unique across playbooks and is the upsert key.
	SourceID string

	// Title is the human-readable title.
	Title string

	// Description is a bounded-length summary of Content.
	Description string

	// Content is the full text body.
	Content string

	// Category is always one of the enumerated categories.
	Category Category

	// Tags are free-text labels. Order is preserved for display only.
	Tags []string

	// URL is the canonical external link.
	URL string

	// Embedding is nil when generation failed. Playbooks without an
	// embedding are never returned by similarity search.
	Embedding []float32

	// CreatedAt is set on first insert and never changes.
	CreatedAt time.Time

	// UpdatedAt advances on every upsert.
	UpdatedAt time.Time
}

// HasEmbedding reports whether the playbook is eligible for similarity search.
func (p *Playbook) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// Validate checks the fields required before a playbook may be stored.
// The returned error wraps ErrValidationFailed.
func (p *Playbook) Validate() error {
	if strings.TrimSpace(p.SourceID) == "" {
		return fmt.Errorf("%w: source id is required", ErrValidationFailed)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidationFailed)
	}
	if err := ValidateURL(p.URL); err != nil {
		return err
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidationFailed, p.Category)
	}
	return nil
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: url is required", ErrValidationFailed)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: malformed url %q: %v", ErrValidationFailed, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: malformed url %q: unsupported scheme", ErrValidationFailed, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: malformed url %q: missing host", ErrValidationFailed, raw)
	}
	return nil
}

// Summarise derives a description from content, cut at a word boundary
// and bounded by MaxDescriptionLength runes.
func Summarise(content string) string {
	text := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(text) <= MaxDescriptionLength {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:MaxDescriptionLength-3])
	if i := strings.LastIndex(cut, " "); i > MaxDescriptionLength/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

// PlaybookSummary is the subset of a playbook handed to the reasoner.
type PlaybookSummary struct {
	Title       string
	Description string
	Category    Category
}

// Summary returns the reasoner-facing summary of the playbook.
func (p *Playbook) Summary() PlaybookSummary {
	return PlaybookSummary{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
	}
}
