package normalisers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockElements get a trailing space so adjacent blocks do not run together.
const blockElements = "p, div, li, br, tr, td, th, h1, h2, h3, h4, h5, h6, blockquote, pre"

// StripHTML returns the visible text of content with whitespace collapsed.
// Content without markup is only whitespace-collapsed.
func StripHTML(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return collapse(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return collapse(content)
	}

	doc.Find("script, style, noscript, head").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return collapse(doc.Text())
}
