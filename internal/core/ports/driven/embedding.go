package driven

import "context"

// EmbeddingService turns text into vectors for similarity search. The
// OpenAI and Ollama adapters implement it, and cache.CachedEmbeddingService
// wraps any implementation with a TTL cache.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length. The store's vector column must match.
	Dimensions() int

	ModelName() string

	// Ping checks credentials and model availability without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
