package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore(t *testing.T) {
	_, docs, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err = docs.GetDocument(ctx, "doc1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	records := []*core.DocumentRecord{
		{ID: "doc2", Fingerprint: "bb", LegalArea: "Erbrecht", ChunkIDs: []string{"doc2:2:0000"}, IngestedAt: now},
		{ID: "doc1", Fingerprint: "aa", LegalNorms: []string{"§ 2325 BGB"}, IngestedAt: now},
	}
	for _, r := range records {
		require.NoError(t, docs.SaveDocument(ctx, r))
	}

	got, err := docs.GetDocument(ctx, "doc2")
	require.NoError(t, err)
	assert.Equal(t, records[0], got)

	// Replace.
	updated := *records[1]
	updated.Fingerprint = "cc"
	require.NoError(t, docs.SaveDocument(ctx, &updated))

	list, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "doc1", list[0].ID)
	assert.Equal(t, "cc", list[0].Fingerprint)
	assert.Equal(t, "doc2", list[1].ID)

	assert.ErrorIs(t, docs.SaveDocument(ctx, &core.DocumentRecord{ID: "a:b"}), core.ErrValidation)
	assert.ErrorIs(t, docs.SaveDocument(ctx, nil), core.ErrValidation)
}
