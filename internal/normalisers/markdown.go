package normalisers

import (
	"regexp"
	"strings"
)

var (
	mdCodeFence  = regexp.MustCompile("(?s)```[^\\n]*\\n?(.*?)```")
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading    = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	mdBlockquote = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	mdRule       = regexp.MustCompile(`(?m)^[ \t]*[-*_]([ \t]*[-*_]){2,}[ \t]*$`)
	mdBullet     = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+(\[[ xX]\][ \t]+)?`)
	mdEmphasis   = regexp.MustCompile(`(\*\*|__|\*|~~)([^*~\n]+?)(\*\*|__|\*|~~)`)
	mdUnderscore = regexp.MustCompile(`(^|[\s(])_([^_\n]+)_([\s).,!?:;]|$)`)
	mdBlankLines = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes common markdown syntax and keeps the readable text.
// Numbered list markers are kept because step order matters in playbooks.
// Code blocks keep their contents without the fences.
func StripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	content = mdCodeFence.ReplaceAllString(content, "$1")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImage.ReplaceAllString(content, "$1")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdRule.ReplaceAllString(content, "")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdBullet.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdUnderscore.ReplaceAllString(content, "$1$2$3")
	content = mdBlankLines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
