package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/custodia-labs/playbookbot/internal/core/domain"
	"github.com/custodia-labs/playbookbot/internal/core/ports/driven"
	"github.com/custodia-labs/playbookbot/internal/logger"
)

// DefaultEmbeddingTTL is how long an embedding stays cached.
const DefaultEmbeddingTTL = time.Hour

// EmbeddingCache maps text to its embedding.
// Keys are content hashes of the exact text; callers normalise first if they
// want near-duplicates to share an entry.
type EmbeddingCache struct {
	ttl   time.Duration
	cache *TTLCache[string, []float32]
}

// NewEmbeddingCache creates an embedding cache.
// A zero opts.TTL uses DefaultEmbeddingTTL.
func NewEmbeddingCache(opts Options) *EmbeddingCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultEmbeddingTTL
	}
	return &EmbeddingCache{
		ttl:   opts.TTL,
		cache: NewTTLCache[string, []float32](opts),
	}
}

// Get returns a copy of the cached embedding for text.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	v, ok := c.cache.Get(hashText(text))
	if !ok {
		return nil, false
	}
	return copyVector(v), true
}

// Set caches a copy of vec for text.
func (c *EmbeddingCache) Set(text string, vec []float32) {
	c.cache.Set(hashText(text), copyVector(vec), c.ttl)
}

// GetOrCompute returns the cached embedding for text or computes it once.
// Empty vectors are rejected and never cached.
func (c *EmbeddingCache) GetOrCompute(ctx context.Context, text string, fn func(context.Context) ([]float32, error)) ([]float32, error) {
	v, err := c.cache.GetOrCompute(ctx, hashText(text), func(ctx context.Context) ([]float32, error) {
		vec, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: provider returned an empty vector", domain.ErrEmbeddingUnavailable)
		}
		return copyVector(vec), nil
	}, c.ttl)
	if err != nil {
		return nil, err
	}
	return copyVector(v), nil
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *EmbeddingCache) Purge() {
	c.cache.Purge()
}

// Close stops the janitor.
func (c *EmbeddingCache) Close() error {
	return c.cache.Close()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func copyVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// CachedEmbeddingService decorates an EmbeddingService with an EmbeddingCache.
type CachedEmbeddingService struct {
	inner driven.EmbeddingService
	cache *EmbeddingCache
}

// Verify interface compliance.
var _ driven.EmbeddingService = (*CachedEmbeddingService)(nil)

// NewCachedEmbeddingService wraps inner with cache.
func NewCachedEmbeddingService(inner driven.EmbeddingService, cache *EmbeddingCache) *CachedEmbeddingService {
	return &CachedEmbeddingService{inner: inner, cache: cache}
}

// Embed returns the cached embedding or generates and caches it.
func (s *CachedEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.cache.GetOrCompute(ctx, text, func(ctx context.Context) ([]float32, error) {
		logger.Debug("embedding cache miss (%d chars)", len(text))
		return s.inner.Embed(ctx, text)
	})
}

// EmbedBatch serves cached texts from the cache and embeds the rest in one batch.
func (s *CachedEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vec, ok := s.cache.Get(text); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := s.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbeddingUnavailable, len(missing), len(vecs))
	}

	for j, vec := range vecs {
		if len(vec) > 0 {
			s.cache.Set(missing[j], vec)
		}
		out[missingIdx[j]] = vec
	}
	return out, nil
}

// Dimensions returns the inner service's dimensions.
func (s *CachedEmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *CachedEmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service.
func (s *CachedEmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service. The cache is owned by the caller.
func (s *CachedEmbeddingService) Close() error {
	return s.inner.Close()
}
