package reembed

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/lexis/ai/mock"
	"github.com/poiesic/lexis/cluster"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/ingestion"
	"github.com/poiesic/lexis/segment"
	"github.com/poiesic/lexis/storage/badger"
	"github.com/poiesic/lexis/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const opinion = `I. Sachverhalt
Die Mandantin erwarb im Jahr 2015 ein Grundstück, das ihr Vater ihr kurz vor seinem Tod geschenkt hatte.
II. Frage
Es wird gefragt, ob der Bruder einen Pflichtteilsergänzungsanspruch gegen die Mandantin geltend machen kann.
III. Rechtslage
Nach § 2325 BGB kann der Pflichtteilsberechtigte eine Ergänzung verlangen. Die Schenkung wird innerhalb der Zehnjahresfrist anteilig berücksichtigt.
`

// TestIntegration_FullReembeddingWorkflow ingests documents with one model
// and re-embeds them with another.
func TestIntegration_FullReembeddingWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	store, documents, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	oldModel := mock.NewMockEmbedder()
	oldModel.Dimension = 16
	segmenter, err := segment.New()
	require.NoError(t, err)
	clusterer, err := cluster.New(oldModel)
	require.NoError(t, err)
	pipeline, err := ingestion.NewPipeline(store, documents, segmenter, clusterer, ingestion.WithPoolSize(2))
	require.NoError(t, err)
	defer pipeline.Release()

	docs := make([]*core.Document, 5)
	for i := range docs {
		docs[i] = &core.Document{ID: fmt.Sprintf("gutachten-%d", i), RawText: opinion}
	}
	report, err := pipeline.IngestDocuments(ctx, docs)
	require.NoError(t, err)
	require.Equal(t, 5, report.Ingested)

	newModel := mock.NewMockEmbedder()
	newModel.Dimension = 32

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Collection = ingestion.DefaultCollection
	cfg.BatchSize = 4
	cfg.ReportInterval = 4
	r, err := NewReembedder(store, newModel, cfg,
		WithProgress(&buf),
		WithCheckpoints(badger.NewCheckpointRepository(backend)))
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.Chunks, summary.Total)
	assert.Equal(t, report.Chunks, summary.Embedded)

	chunks, err := store.ListChunks(ctx, ingestion.DefaultCollection, "", 0)
	require.NoError(t, err)
	require.Len(t, chunks, report.Chunks)
	for _, c := range chunks {
		require.Len(t, c.Embedding, 32, c.ID)
		assert.InDelta(t, 1.0, vector.Magnitude(c.Embedding), 1e-5)
	}

	output := buf.String()
	assert.Contains(t, output, fmt.Sprintf("%d/%d chunks", report.Chunks, report.Chunks))
	assert.Contains(t, output, "100.0%")
	assert.Contains(t, output, "Reembedding complete")
}
