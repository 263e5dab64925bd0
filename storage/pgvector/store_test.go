package pgvector

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to the database named by LEXIS_PG_DSN and returns a
// store plus a collection unique to the test.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dsn := os.Getenv("LEXIS_PG_DSN")
	if dsn == "" {
		t.Skip("LEXIS_PG_DSN not set")
	}
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn)
	require.NoError(t, err)

	collection := "test_" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), `DELETE FROM lexis_chunks WHERE collection = $1`, collection)
		store.Close()
	})
	return store, collection
}

func chunk(docID string, ordinal int, section core.SectionType, text string, embedding []float32, norms ...string) *core.Chunk {
	return &core.Chunk{
		ID:             core.ChunkID(docID, ordinal),
		SegmentID:      core.SegmentID(docID, 0),
		DocumentID:     docID,
		Level:          core.LevelChunk,
		SectionType:    section,
		StartChar:      ordinal * 100,
		EndChar:        ordinal*100 + len(text),
		Text:           text,
		TokenCount:     len(text) / 4,
		CoherenceScore: 0.75,
		LegalNorms:     norms,
		Embedding:      embedding,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store, collection := newTestStore(t)
	ctx := context.Background()

	a := chunk("doc1", 0, core.SectionLegalAnalysis, "Die Schenkung ist ergänzungspflichtig.", []float32{1, 0, 0}, "§ 2325 BGB")
	a.Keywords = []string{"schenkung"}
	b := chunk("doc1", 1, core.SectionConclusion, "Im Ergebnis besteht der Anspruch.", []float32{0, 1, 0})
	c := chunk("doc2", 0, core.SectionFactPattern, "Der Erblasser verstarb.", nil)
	require.NoError(t, store.Upsert(ctx, collection, a, b, c))

	got, err := store.GetByIDs(ctx, collection, c.ID, a.ID, "missing:2:0000")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, c, got[0])
	assert.Equal(t, a, got[1])

	count, err := store.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	hits, err := store.Query(ctx, collection, storage.QueryRequest{Vector: []float32{1, 0, 0}, TopK: 5})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, a.ID, hits[0].Chunk.ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
	assert.InDelta(t, 1, hits[1].Distance, 1e-6)

	hits, err = store.Query(ctx, collection, storage.QueryRequest{
		Vector: []float32{1, 0, 0},
		TopK:   5,
		Filter: &core.Filter{SectionTypes: []core.SectionType{core.SectionConclusion}},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, b.ID, hits[0].Chunk.ID)

	hits, err = store.Query(ctx, collection, storage.QueryRequest{
		Vector: []float32{0, 1, 0},
		TopK:   5,
		Filter: &core.Filter{LegalNorms: []string{"§ 2325 BGB"}},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID, hits[0].Chunk.ID)

	hits, err = store.Query(ctx, collection, storage.QueryRequest{Text: "Schenkung", TopK: 5})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, a.ID, hits[0].Chunk.ID)

	page, err := store.ListChunks(ctx, collection, a.ID, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, b.ID, page[0].ID)

	removed, err := store.Delete(ctx, collection, b.ID, "doc1:2:0099")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = store.DeleteDocument(ctx, collection, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestStore_Documents(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id := fmt.Sprintf("doc-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), `DELETE FROM lexis_documents WHERE id = $1`, id)
	})

	_, err := store.GetDocument(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	record := &core.DocumentRecord{
		ID:          id,
		Fingerprint: "abc",
		LegalArea:   "Erbrecht",
		ChunkIDs:    []string{core.ChunkID(id, 0)},
		IngestedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.SaveDocument(ctx, record))

	got, err := store.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestStore_Checkpoints(t *testing.T) {
	store, collection := newTestStore(t)
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), `DELETE FROM lexis_checkpoints WHERE collection = $1`, collection)
	})

	cp, err := store.LoadCheckpoint(ctx, "reembed", collection)
	require.NoError(t, err)
	assert.Nil(t, cp)

	checkpoint := &core.Checkpoint{Processor: "reembed", Collection: collection, LastID: "doc1:2:0004", Processed: 5}
	require.NoError(t, store.SaveCheckpoint(ctx, checkpoint))

	cp, err = store.LoadCheckpoint(ctx, "reembed", collection)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "doc1:2:0004", cp.LastID)
	assert.Equal(t, 5, cp.Processed)
	assert.True(t, checkpoint.UpdatedAt.Equal(cp.UpdatedAt))

	require.NoError(t, store.DeleteCheckpoint(ctx, "reembed", collection))
	require.NoError(t, store.DeleteCheckpoint(ctx, "reembed", collection))
	cp, err = store.LoadCheckpoint(ctx, "reembed", collection)
	require.NoError(t, err)
	assert.Nil(t, cp)

	err = store.SaveCheckpoint(ctx, &core.Checkpoint{Processor: "reembed", Collection: "a:b"})
	assert.ErrorIs(t, err, storage.ErrInvalidCollection)
}
