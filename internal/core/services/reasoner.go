package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
)

// Ensure LLMReasoner implements the interface.
var _ driven.Reasoner = (*LLMReasoner)(nil)

// Generation limits per reasoning task.
const (
	classifyMaxTokens   = 10
	explainMaxTokens    = 150
	suggestMaxTokens    = 150
	intentMaxTokens     = 100
	maxClassifyChars    = 2000
	maxSuggestions      = 3
	reasonerTemperature = 0.3
)

// reasonerSystem frames every completion the reasoner asks for.
const reasonerSystem = "You help a team find internal playbooks stored in ClickUp. " +
	"Answer only with what is asked for, without preamble."

// listMarker matches bullets and "1." / "2)" numbering at the start of a line.
var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)

// LLMReasoner implements driven.Reasoner with prompt templates over an LLMService.
type LLMReasoner struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewLLMReasoner creates a reasoner. prompts is optional; built-in templates
// are used when it is nil.
func NewLLMReasoner(llm driven.LLMService, prompts driven.PromptStore) *LLMReasoner {
	return &LLMReasoner{llm: llm, prompts: prompts}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (r *LLMReasoner) SetPromptStore(store driven.PromptStore) {
	r.prompts = store
}

// ExplainRelevance returns a short explanation of why the playbook answers the query.
func (r *LLMReasoner) ExplainRelevance(ctx context.Context, query string, p domain.PlaybookSummary) (string, error) {
	prompt := fmt.Sprintf(r.template(driven.PromptExplain), query, p.Title, p.Category, p.Description)
	out, err := r.generate(ctx, prompt, explainMaxTokens)
	if err != nil {
		return "", fmt.Errorf("explain relevance: %w", err)
	}
	return out, nil
}

// Classify assigns one of the enumerated categories.
// A label the model invents maps to General.
func (r *LLMReasoner) Classify(ctx context.Context, title, description, content string) (domain.Category, error) {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, c.String())
	}

	prompt := fmt.Sprintf(r.template(driven.PromptClassify),
		strings.Join(names, ", "), title, description, truncateRunes(content, maxClassifyChars))
	out, err := r.generate(ctx, prompt, classifyMaxTokens)
	if err != nil {
		return domain.CategoryGeneral, fmt.Errorf("classify: %w", err)
	}
	return domain.ParseCategory(firstLine(out)), nil
}

// SuggestAlternateQueries returns up to three alternative phrasings,
// excluding the query itself and case-insensitive duplicates.
func (r *LLMReasoner) SuggestAlternateQueries(ctx context.Context, query string) ([]string, error) {
	prompt := fmt.Sprintf(r.template(driven.PromptSuggest), query)
	out, err := r.generate(ctx, prompt, suggestMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("suggest queries: %w", err)
	}
	return DedupeSuggestions(query, strings.Split(out, "\n"), maxSuggestions), nil
}

// InterpretIntent returns a one or two sentence reading of the query.
func (r *LLMReasoner) InterpretIntent(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(r.template(driven.PromptIntent), query)
	out, err := r.generate(ctx, prompt, intentMaxTokens)
	if err != nil {
		return "", fmt.Errorf("interpret intent: %w", err)
	}
	return out, nil
}

func (r *LLMReasoner) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if r.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	out, err := r.llm.Generate(ctx, prompt, driven.GenerateOptions{
		System:      reasonerSystem,
		MaxTokens:   maxTokens,
		Temperature: reasonerTemperature,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrLLMUnavailable)
	}
	return out, nil
}

func (r *LLMReasoner) template(name string) string {
	if r.prompts != nil {
		if t, err := r.prompts.Load(name); err == nil && t != "" {
			return t
		}
	}
	return driven.DefaultPrompt(name)
}

// DedupeSuggestions cleans model output into at most limit suggestions.
// List markers and quotes are stripped; blanks, the original query and
// case-insensitive repeats are dropped.
func DedupeSuggestions(query string, candidates []string, limit int) []string {
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(query)): true}
	out := make([]string, 0, limit)

	for _, c := range candidates {
		c = listMarker.ReplaceAllString(strings.TrimSpace(c), "")
		c = strings.Trim(c, "\"'` ")
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
