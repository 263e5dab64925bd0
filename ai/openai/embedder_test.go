package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/lexis/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer answers OpenAI style embedding requests. vectorFor maps an
// input text to its vector.
func embeddingServer(t *testing.T, vectorFor func(text string) []float32) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			data[i] = item{Object: "embedding", Embedding: vectorFor(text), Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func testConfig(host string, opts ...ai.ConfigOption) *ai.Config {
	return ai.NewConfig(append([]ai.ConfigOption{
		ai.WithEmbeddingHost(host),
		ai.WithEmbeddingModel("test-embed"),
		ai.WithRetry(1, 0),
	}, opts...)...)
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	srv, _ := embeddingServer(t, func(text string) []float32 {
		return []float32{float32(len(text)), 1, 0}
	})
	embedder, err := NewEmbedder(testConfig(srv.URL, ai.WithDimensions(3)))
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "abc"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 1, 0}, vectors[0])
	assert.Equal(t, []float32{3, 1, 0}, vectors[1])

	v, err := embedder.EmbedText(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 1, 0}, v)

	empty, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEmbedder_RejectsUnusableVectors(t *testing.T) {
	t.Run("dimension mismatch", func(t *testing.T) {
		srv, _ := embeddingServer(t, func(string) []float32 { return []float32{1, 0} })
		embedder, err := NewEmbedder(testConfig(srv.URL, ai.WithDimensions(3)))
		require.NoError(t, err)

		_, err = embedder.EmbedText(context.Background(), "Pflichtteil")
		assert.ErrorIs(t, err, ai.ErrDimensionMismatch)
	})

	t.Run("zero vector", func(t *testing.T) {
		srv, _ := embeddingServer(t, func(string) []float32 { return []float32{0, 0, 0} })
		embedder, err := NewEmbedder(testConfig(srv.URL))
		require.NoError(t, err)

		_, err = embedder.EmbedText(context.Background(), "Pflichtteil")
		assert.ErrorIs(t, err, ai.ErrZeroVector)
	})
}

func TestEmbedder_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	embedder, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)
	_, err = embedder.EmbedText(context.Background(), "Pflichtteil")
	assert.ErrorIs(t, err, ai.ErrEmbeddingProvider)
}

func TestProvider(t *testing.T) {
	srv, requests := embeddingServer(t, func(text string) []float32 { return []float32{1, float32(len(text))} })

	t.Run("decorated embedder caches", func(t *testing.T) {
		provider, err := NewProvider(testConfig(srv.URL, ai.WithCacheEntries(100)))
		require.NoError(t, err)
		defer provider.Close()

		ctx := context.Background()
		first, err := provider.Embedder().EmbedText(ctx, "Erbvertrag")
		require.NoError(t, err)
		cache, ok := provider.Embedder().(*ai.CachingEmbedder)
		require.True(t, ok)
		cache.Wait()
		before := requests.Load()
		second, err := provider.Embedder().EmbedText(ctx, "Erbvertrag")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, before, requests.Load())
	})

	t.Run("token counter", func(t *testing.T) {
		provider, err := NewProvider(testConfig(srv.URL))
		require.NoError(t, err)
		assert.IsType(t, ai.ApproxTokenCounter{}, provider.TokenCounter())

		counter := fixedCounter(7)
		provider, err = NewProvider(testConfig(srv.URL), WithTokenCounter(counter))
		require.NoError(t, err)
		assert.Equal(t, 7, provider.TokenCounter().CountTokens("irrelevant"))
		assert.NoError(t, provider.Close())
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(ai.WithEmbeddingModel("")))
		assert.Error(t, err)
	})
}

type fixedCounter int

func (c fixedCounter) CountTokens(string) int { return int(c) }
