package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptClassify assigns a category to a playbook.
	// The template expects %s placeholders for categories, title, description and content.
	PromptClassify = "classify"

	// PromptExplain explains why a playbook matches a query.
	// The template expects %s placeholders for query, title, category and description.
	PromptExplain = "explain"

	// PromptSuggest proposes alternative phrasings of a query.
	// The template expects a %s placeholder for the query.
	PromptSuggest = "suggest"

	// PromptIntent interprets what the user is trying to achieve.
	// The template expects a %s placeholder for the query.
	PromptIntent = "intent"
)

// defaultPrompts are the built-in templates. Prompt stores seed user-editable
// files from them and consumers fall back to them when no store is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	PromptClassify: `Classify this playbook into exactly one of these categories: %s.
Respond with the category name only.

Title: %s
Description: %s
Content:
%s

Category:`,

	PromptExplain: `A team member asked: "%s"

In one or two sentences, explain why the following playbook is relevant to their request. Be specific and practical.

Title: %s
Category: %s
Summary: %s

Explanation:`,

	PromptSuggest: `Suggest up to three alternative ways to phrase this request for searching a library of team playbooks.
Return one suggestion per line with no numbering and no extra text.

Request: %s

Suggestions:`,

	PromptIntent: `In one or two sentences, describe what the person asking this wants to achieve.

Request: %s

Intent:`,
}

// DefaultPrompt returns the built-in template for name, or "" if none exists.
func DefaultPrompt(name string) string {
	return defaultPrompts[name]
}

// DefaultPromptNames returns the names of every built-in template.
func DefaultPromptNames() []string {
	return []string{PromptClassify, PromptExplain, PromptSuggest, PromptIntent}
}
