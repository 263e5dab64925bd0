package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/ai/mock"
	"github.com/poiesic/lexis/storage/badger"
	"github.com/poiesic/lexis/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Collection:     testCollection,
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedder(t *testing.T) {
	store, _ := setupTestDB(t)

	_, err := NewReembedder(nil, mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)

	_, err = NewReembedder(store, nil, nil)
	assert.ErrorIs(t, err, ai.ErrEmbedderRequired)

	r, err := NewReembedder(store, mock.NewMockEmbedder(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad collection", func(c *Config) { c.Collection = "a:b" }},
		{"empty collection", func(c *Config) { c.Collection = "" }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"negative delay", func(c *Config) { c.RetryDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestReembedder_Run(t *testing.T) {
	store, _ := setupTestDB(t)
	ids := seedChunks(t, store, 10, nil)
	ctx := context.Background()

	var buf bytes.Buffer
	r, err := NewReembedder(store, unnormalizedEmbedder(), testConfig(), WithProgress(&buf))
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Total)
	assert.Equal(t, 10, summary.Processed)
	assert.Equal(t, 10, summary.Embedded)
	assert.Zero(t, summary.Skipped)
	assert.False(t, summary.Resumed)

	chunks, err := store.GetByIDs(ctx, testCollection, ids...)
	require.NoError(t, err)
	require.Len(t, chunks, 10)
	for _, c := range chunks {
		require.NotEmpty(t, c.Embedding, c.ID)
		assert.InDelta(t, 1.0, vector.Magnitude(c.Embedding), 1e-6)
	}

	output := buf.String()
	assert.Contains(t, output, "Starting reembedding of 10 chunks")
	assert.Contains(t, output, "Reembedding complete")
}

func TestReembedder_EmptyCollection(t *testing.T) {
	store, _ := setupTestDB(t)
	var buf bytes.Buffer
	r, err := NewReembedder(store, mock.NewMockEmbedder(), testConfig(), WithProgress(&buf))
	require.NoError(t, err)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Contains(t, buf.String(), "No chunks found")
}

func TestReembedder_MissingOnly(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()
	seedChunks(t, store, 4, []float32{0, 1, 0})

	missing, err := store.GetByIDs(ctx, testCollection, "doc:2:0001", "doc:2:0003")
	require.NoError(t, err)
	for _, c := range missing {
		c.Embedding = nil
	}
	require.NoError(t, store.Upsert(ctx, testCollection, missing...))

	embedder := unnormalizedEmbedder()
	cfg := testConfig()
	cfg.MissingOnly = true
	r, err := NewReembedder(store, embedder, cfg)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Embedded)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 2, embedder.TextCount())

	kept, err := store.GetByIDs(ctx, testCollection, "doc:2:0000")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, kept[0].Embedding)
}

func TestReembedder_CheckpointResume(t *testing.T) {
	store, backend := setupTestDB(t)
	checkpoints := badger.NewCheckpointRepository(backend)
	ctx := context.Background()
	ids := seedChunks(t, store, 9, nil)

	// Fail on the second batch.
	failing := mock.NewMockEmbedder()
	calls := 0
	failing.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("quota exceeded")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0, 0}
		}
		return out, nil
	}

	r, err := NewReembedder(store, failing, testConfig(), WithCheckpoints(checkpoints))
	require.NoError(t, err)
	summary, err := r.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 3, summary.Processed)

	cp, err := checkpoints.LoadCheckpoint(ctx, ProcessorName, testCollection)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, ids[2], cp.LastID)
	assert.Equal(t, 3, cp.Processed)

	healthy := unnormalizedEmbedder()
	r, err = NewReembedder(store, healthy, testConfig(), WithCheckpoints(checkpoints))
	require.NoError(t, err)
	summary, err = r.Run(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Resumed)
	assert.Equal(t, 9, summary.Processed)
	assert.Equal(t, 6, summary.Embedded)
	assert.Equal(t, 6, healthy.TextCount(), "completed batches are not embedded again")

	cp, err = checkpoints.LoadCheckpoint(ctx, ProcessorName, testCollection)
	require.NoError(t, err)
	assert.Nil(t, cp, "checkpoint is cleared after completion")

	chunks, err := store.GetByIDs(ctx, testCollection, ids...)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.NotEmpty(t, c.Embedding, c.ID)
	}
}

func TestReembedder_ContextCanceled(t *testing.T) {
	store, _ := setupTestDB(t)
	seedChunks(t, store, 3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewReembedder(store, mock.NewMockEmbedder(), testConfig())
	require.NoError(t, err)
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
