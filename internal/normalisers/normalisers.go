// Package normalisers turns source item bodies into plain text for
// storage and embedding.
package normalisers

import (
	"strings"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
)

// PlainText converts content in the given format to plain text with
// whitespace collapsed. Text and unknown formats may still carry HTML,
// so they go through StripHTML.
func PlainText(content string, format domain.ContentFormat) string {
	switch format {
	case domain.FormatMarkdown:
		return collapse(StripMarkdown(content))
	default:
		return StripHTML(content)
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
