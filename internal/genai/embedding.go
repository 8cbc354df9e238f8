package genai

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chaincontext/chaincontext/internal/cache"
)

const embeddingTTL = 24 * time.Hour

// CachedEmbedder wraps an Embedder with a cache keyed by text hash.
// Caching is advisory: concurrent misses recompute independently and the
// zero vector is never cached so transient failures retry on the next call.
type CachedEmbedder struct {
	inner Embedder
	store cache.Cache
}

// NewCachedEmbedder wraps the embedder. A nil cache disables caching.
func NewCachedEmbedder(inner Embedder, store cache.Cache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: store}
}

// Embed returns the cached vector when present, otherwise delegates
func (e *CachedEmbedder) Embed(ctx context.Context, text string) []float32 {
	if e.inner == nil {
		return ZeroVector()
	}
	if e.store == nil {
		return e.inner.Embed(ctx, text)
	}

	key := cache.Key("embedding:" + text)
	if raw, found := e.store.Get(key); found {
		var vector []float32
		if err := json.Unmarshal(raw, &vector); err == nil && len(vector) == EmbeddingDim {
			return vector
		}
	}

	vector := e.inner.Embed(ctx, text)
	if !isZero(vector) {
		if raw, err := json.Marshal(vector); err == nil {
			_ = e.store.Set(key, raw, embeddingTTL)
		}
	}
	return vector
}

func isZero(vector []float32) bool {
	for _, v := range vector {
		if v != 0 {
			return false
		}
	}
	return true
}
