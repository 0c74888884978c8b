package driven

import "context"

// LLMService is a text-generation provider (OpenAI, Anthropic or Ollama).
// It is optional: without one the reasoner degrades and search still works.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat continues a conversation. System messages may appear anywhere;
	// adapters move them to the provider's system slot.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	ModelName() string

	// Ping checks credentials and model availability without generating.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// System is an instruction placed ahead of the prompt, in the
	// provider's system slot.
	System string

	// MaxTokens caps the completion; zero uses the adapter default.
	MaxTokens int

	Temperature float64

	// StopWords end generation when produced.
	StopWords []string
}

// ChatMessage is one turn of a conversation. Role is "system", "user" or
// "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions configures Chat.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
