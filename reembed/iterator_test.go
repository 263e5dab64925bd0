package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
	"github.com/poiesic/lexis/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "opinions"

func setupTestDB(t *testing.T) (storage.VectorStore, *badger.Backend) {
	t.Helper()
	store, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return store, backend
}

// seedChunks stores n chunks of document "doc" with the given embedding.
func seedChunks(t *testing.T, store storage.VectorStore, n int, embedding []float32) []string {
	t.Helper()
	chunks := make([]*core.Chunk, n)
	ids := make([]string, n)
	for i := range chunks {
		ids[i] = core.ChunkID("doc", i)
		chunks[i] = &core.Chunk{
			ID:          ids[i],
			DocumentID:  "doc",
			SegmentID:   core.SegmentID("doc", 0),
			Level:       core.LevelChunk,
			SectionType: core.SectionLegalAnalysis,
			Text:        fmt.Sprintf("Abschnitt %d der rechtlichen Würdigung.", i),
			Embedding:   embedding,
		}
	}
	require.NoError(t, store.Upsert(context.Background(), testCollection, chunks...))
	return ids
}

func TestChunkIterator_Basic(t *testing.T) {
	store, _ := setupTestDB(t)
	want := seedChunks(t, store, 5, nil)

	iter := NewChunkIterator(store, testCollection, 2)
	var batches int
	var ids []string
	err := iter.ForEach(context.Background(), "", func(chunks []*core.Chunk) error {
		batches++
		for _, c := range chunks {
			ids = append(ids, c.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, batches)
	assert.Equal(t, want, ids)
}

func TestChunkIterator_AfterID(t *testing.T) {
	store, _ := setupTestDB(t)
	want := seedChunks(t, store, 5, nil)

	iter := NewChunkIterator(store, testCollection, 10)
	var ids []string
	err := iter.ForEach(context.Background(), want[2], func(chunks []*core.Chunk) error {
		for _, c := range chunks {
			ids = append(ids, c.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want[3:], ids)
}

func TestChunkIterator_ExactMultipleOfBatchSize(t *testing.T) {
	store, _ := setupTestDB(t)
	seedChunks(t, store, 4, nil)

	iter := NewChunkIterator(store, testCollection, 2)
	calls := 0
	err := iter.ForEach(context.Background(), "", func(chunks []*core.Chunk) error {
		calls++
		assert.NotEmpty(t, chunks)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestChunkIterator_Empty(t *testing.T) {
	store, _ := setupTestDB(t)

	iter := NewChunkIterator(store, testCollection, 0)
	assert.Equal(t, DefaultBatchSize, iter.batchSize)

	called := false
	err := iter.ForEach(context.Background(), "", func([]*core.Chunk) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestChunkIterator_StopsOnError(t *testing.T) {
	store, _ := setupTestDB(t)
	seedChunks(t, store, 5, nil)

	boom := errors.New("boom")
	iter := NewChunkIterator(store, testCollection, 2)
	calls := 0
	err := iter.ForEach(context.Background(), "", func([]*core.Chunk) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestChunkIterator_ContextCanceled(t *testing.T) {
	store, _ := setupTestDB(t)
	seedChunks(t, store, 5, nil)

	ctx, cancel := context.WithCancel(context.Background())
	iter := NewChunkIterator(store, testCollection, 2)
	calls := 0
	err := iter.ForEach(ctx, "", func([]*core.Chunk) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
