package ai_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/ai/mock"
	"github.com/poiesic/lexis/vector"
)

func fastConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithRetry(3, time.Millisecond),
		ai.WithTimeout(time.Second),
	)
}

func TestRetryingEmbedder(t *testing.T) {
	t.Run("eventual success", func(t *testing.T) {
		m := mock.NewMockEmbedder()
		var calls atomic.Int32
		m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			if calls.Add(1) < 3 {
				return nil, errors.New("connection reset")
			}
			return [][]float32{{1, 0}}, nil
		}

		r, err := ai.NewRetryingEmbedder(m, fastConfig())
		require.NoError(t, err)

		v, err := r.EmbedText(context.Background(), "text")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, v)
		assert.Equal(t, 3, m.CallCount())
	})

	t.Run("persistent failure is a provider error", func(t *testing.T) {
		m := mock.NewMockEmbedder()
		m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("service unavailable")
		}

		r, err := ai.NewRetryingEmbedder(m, fastConfig())
		require.NoError(t, err)

		_, err = r.EmbedTexts(context.Background(), []string{"a"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ai.ErrEmbeddingProvider)
		assert.Equal(t, 3, m.CallCount())
	})

	t.Run("zero vector fails closed", func(t *testing.T) {
		m := mock.NewMockEmbedder()
		m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{0, 0, 0}}, nil
		}

		r, err := ai.NewRetryingEmbedder(m, fastConfig())
		require.NoError(t, err)

		_, err = r.EmbedTexts(context.Background(), []string{"a"})
		assert.ErrorIs(t, err, ai.ErrZeroVector)
	})

	t.Run("count mismatch fails closed", func(t *testing.T) {
		m := mock.NewMockEmbedder()
		m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		}

		r, err := ai.NewRetryingEmbedder(m, fastConfig())
		require.NoError(t, err)

		_, err = r.EmbedTexts(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, ai.ErrEmbeddingCount)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r, err := ai.NewRetryingEmbedder(mock.NewMockEmbedder(), fastConfig())
		require.NoError(t, err)

		_, err = r.EmbedTexts(ctx, []string{"a"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := ai.NewRetryingEmbedder(nil, fastConfig())
		assert.ErrorIs(t, err, ai.ErrEmbedderRequired)
	})
}

func TestThrottledEmbedder(t *testing.T) {
	t.Run("batches preserve order", func(t *testing.T) {
		m := mock.NewMockEmbedder()
		cfg := fastConfig()
		cfg.BatchSize = 3

		th, err := ai.NewThrottledEmbedder(m, cfg)
		require.NoError(t, err)

		texts := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
		vectors, err := th.EmbedTexts(context.Background(), texts)
		require.NoError(t, err)
		require.Len(t, vectors, len(texts))
		for i, text := range texts {
			assert.Equal(t, mock.Vector(text, mock.DefaultDimension), vectors[i], "text %d", i)
		}
		assert.Equal(t, 4, m.CallCount())
	})

	t.Run("bounded in flight", func(t *testing.T) {
		var inFlight, peak atomic.Int32
		var mu sync.Mutex
		m := mock.NewMockEmbedder()
		m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			n := inFlight.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = []float32{1}
			}
			return out, nil
		}
		cfg := fastConfig()
		cfg.BatchSize = 1
		cfg.MaxInFlight = 2

		th, err := ai.NewThrottledEmbedder(m, cfg)
		require.NoError(t, err)

		_, err = th.EmbedTexts(context.Background(), make([]string, 12))
		require.NoError(t, err)
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("batch failure", func(t *testing.T) {
		m := mock.NewMockEmbedder()
		m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, ai.ErrEmbeddingProvider
		}
		th, err := ai.NewThrottledEmbedder(m, fastConfig())
		require.NoError(t, err)

		_, err = th.EmbedTexts(context.Background(), []string{"a"})
		assert.ErrorIs(t, err, ai.ErrEmbeddingProvider)
	})
}

func TestCachingEmbedder(t *testing.T) {
	m := mock.NewMockEmbedder()
	c, err := ai.NewCachingEmbedder(m, 100)
	require.NoError(t, err)
	defer c.Close()

	first, err := c.EmbedTexts(context.Background(), []string{"Vertrag", "Erbe"})
	require.NoError(t, err)
	c.Wait()

	second, err := c.EmbedTexts(context.Background(), []string{"Erbe", "Vertrag", "Haftung"})
	require.NoError(t, err)
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[1])
	assert.Equal(t, 3, m.TextCount(), "only the new text reaches the provider")
}

func TestDecorate(t *testing.T) {
	cfg := fastConfig()
	e, err := ai.Decorate(mock.NewMockEmbedder(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &ai.ThrottledEmbedder{}, e)

	cfg.CacheEntries = 10
	e, err = ai.Decorate(mock.NewMockEmbedder(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &ai.CachingEmbedder{}, e)

	_, err = ai.Decorate(nil, cfg)
	assert.ErrorIs(t, err, ai.ErrEmbedderRequired)
}

func TestCheckEmbeddings(t *testing.T) {
	assert.NoError(t, ai.CheckEmbeddings([]string{"a"}, [][]float32{{1, 0}}, 2))
	assert.ErrorIs(t, ai.CheckEmbeddings([]string{"a"}, nil, 0), ai.ErrEmbeddingCount)
	assert.ErrorIs(t, ai.CheckEmbeddings([]string{"a"}, [][]float32{{}}, 0), ai.ErrEmptyEmbedding)
	assert.ErrorIs(t, ai.CheckEmbeddings([]string{"a"}, [][]float32{{1}}, 2), ai.ErrDimensionMismatch)
	assert.ErrorIs(t, ai.CheckEmbeddings([]string{"a"}, [][]float32{{0, 0}}, 2), ai.ErrZeroVector)
}

func TestApproxTokenCounter(t *testing.T) {
	var c ai.ApproxTokenCounter
	assert.Equal(t, 0, c.CountTokens(""))
	assert.Equal(t, 1, c.CountTokens("abc"))
	assert.Equal(t, 2, c.CountTokens("abcde"))
	assert.Equal(t, 1, c.CountTokens("äöü"))
}

func TestMockVector(t *testing.T) {
	a := mock.Vector("Der Käufer verlangt Schadensersatz", 384)
	b := mock.Vector("Schadensersatz verlangt der Käufer", 384)
	c := mock.Vector("Das Testament ist formnichtig", 384)

	assert.InDelta(t, 1.0, vector.Magnitude(a), 1e-6)
	assert.InDelta(t, 1.0, vector.Cosine(a, b), 1e-6)
	assert.Less(t, vector.Cosine(a, c), 0.5)
	assert.False(t, vector.IsZero(mock.Vector("...", 8)))
}
