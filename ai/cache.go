package ai

import (
	"context"

	"github.com/dgraph-io/ristretto/v2"
)

// CachingEmbedder memoizes embeddings by text. Query texts repeat often and
// ingestion re-embeds identical sentences across re-ingested documents.
type CachingEmbedder struct {
	next  Embedder
	cache *ristretto.Cache[string, []float32]
}

var _ Embedder = (*CachingEmbedder)(nil)

// NewCachingEmbedder wraps next with a cache holding up to entries vectors.
func NewCachingEmbedder(next Embedder, entries int64) (*CachingEmbedder, error) {
	if next == nil {
		return nil, ErrEmbedderRequired
	}
	entries = max(entries, 1)
	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters: entries * 10,
		MaxCost:     entries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachingEmbedder{next: next, cache: cache}, nil
}

func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	var missTexts []string
	var missIndex []int
	for i, text := range texts {
		if v, ok := c.cache.Get(text); ok {
			result[i] = v
			continue
		}
		missTexts = append(missTexts, text)
		missIndex = append(missIndex, i)
	}
	if len(missTexts) == 0 {
		return result, nil
	}

	vectors, err := c.next.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, ErrEmbeddingCount
	}
	for j, v := range vectors {
		result[missIndex[j]] = v
		c.cache.Set(missTexts[j], v, 1)
	}
	return result, nil
}

// Wait blocks until pending cache writes are visible.
func (c *CachingEmbedder) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *CachingEmbedder) Close() error {
	c.cache.Close()
	return nil
}
