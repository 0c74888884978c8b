package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves prompt templates from <dir>/<name>.txt so teams can
// tune the LLM wording. The directory is seeded with the built-in templates
// on first use. A missing, blank or malformed file falls back to the
// built-in template.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a store rooted at dir, or ~/.playbookbot/prompts
// when dir is empty. Nothing is touched on disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".playbookbot", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the template for name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	fallback := driven.DefaultPrompt(name)
	if s.seedErr != nil {
		if fallback != "" {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.seedErr)
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt, err := s.read(name)
	switch {
	case err != nil && fallback == "":
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case err != nil:
		prompt = fallback
	case fallback != "" && placeholders(prompt) != placeholders(fallback):
		logger.Warn("Prompt %s.txt needs %d %%s placeholders, found %d; using the built-in template",
			name, placeholders(fallback), placeholders(prompt))
		prompt = fallback
	}

	s.mu.Lock()
	s.cache[name] = prompt
	s.mu.Unlock()
	return prompt, nil
}

// Reload drops cached templates so edited files are read again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) file(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.file(name))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("empty template")
	}
	return prompt, nil
}

// seed creates the directory and writes any built-in template or README
// that is missing. Existing files are never overwritten.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	files := map[string]string{filepath.Join(s.dir, "README.md"): promptReadme}
	for _, name := range driven.DefaultPromptNames() {
		files[s.file(name)] = driven.DefaultPrompt(name)
	}
	for path, content := range files {
		if err := writeIfMissing(path, content); err != nil {
			return fmt.Errorf("seed %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func placeholders(template string) int {
	return strings.Count(template, "%s")
}

const promptReadme = `# Playbook Bot Prompts

These templates drive the LLM features of playbookbot.

- ` + "`classify.txt`" + ` assigns a category to a synced playbook
- ` + "`explain.txt`" + ` explains why a playbook matches a query
- ` + "`suggest.txt`" + ` proposes alternative phrasings of a request
- ` + "`intent.txt`" + ` summarises what the requester wants

Edit a file to change behaviour. Changes apply to the next command or after
restarting the MCP server. Delete a file to restore its default.

Keep every ` + "`%s`" + ` placeholder: classify takes categories, title,
description and content; explain takes query, title, category and summary;
suggest and intent take the query. A template with the wrong number of
placeholders is ignored in favour of the built-in one.
`
