package storage

import (
	"testing"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalChunk(t *testing.T) {
	tests := []struct {
		name  string
		chunk *core.Chunk
	}{
		{
			name: "minimal chunk",
			chunk: &core.Chunk{
				ID:         "doc1:2:0000",
				SegmentID:  "doc1:1:0000",
				DocumentID: "doc1",
				Level:      core.LevelChunk,
				Text:       "Kurz.",
			},
		},
		{
			name: "chunk with metadata and embedding",
			chunk: &core.Chunk{
				ID:             "doc1:2:0003",
				SegmentID:      "doc1:1:0001",
				DocumentID:     "doc1",
				Level:          core.LevelChunk,
				SectionType:    core.SectionLegalAnalysis,
				StartChar:      120,
				EndChar:        480,
				Text:           "Der Pflichtteilsergänzungsanspruch nach § 2325 BGB setzt eine Schenkung voraus.",
				TokenCount:     21,
				CoherenceScore: 0.83,
				LegalNorms:     []string{"§ 2325 BGB"},
				Keywords:       []string{"pflichtteilsergänzungsanspruch", "schenkung"},
				Embedding:      []float32{0.1, -0.25, 0.5, 0},
			},
		},
		{
			name: "unicode text",
			chunk: &core.Chunk{
				ID:         "doc2:2:0000",
				DocumentID: "doc2",
				Level:      core.LevelChunk,
				Text:       "Grundstücksübertragung „unter Lebenden“ – Nießbrauch",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunk(tt.chunk)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChunk(data)
			require.NoError(t, err)
			assert.Equal(t, tt.chunk, decoded)
		})
	}
}

func TestUnmarshalChunk_Invalid(t *testing.T) {
	valid := MarshalChunk(&core.Chunk{
		ID:         "doc1:2:0000",
		DocumentID: "doc1",
		Text:       "Ein Satz mit etwas Inhalt.",
		Keywords:   []string{"satz", "inhalt"},
		Embedding:  []float32{1, 2, 3},
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated data", valid[:len(valid)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalChunk(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalDocumentRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	published := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	record := &core.DocumentRecord{
		ID:              "DNotI-12345",
		Fingerprint:     "3f2a",
		PublicationDate: published,
		LegalArea:       "Erbrecht",
		LegalNorms:      []string{"§ 2325 BGB", "§ 2329 BGB"},
		Segments: []core.Segment{
			{
				ID:          "DNotI-12345:1:0000",
				DocumentID:  "DNotI-12345",
				SectionType: core.SectionFactPattern,
				Heading:     "I. Sachverhalt",
				StartChar:   0,
				EndChar:     42,
				Text:        "I. Sachverhalt\nDer Erblasser verstarb 2020.",
			},
		},
		ChunkIDs:   []string{"DNotI-12345:2:0000"},
		Degraded:   true,
		IngestedAt: now,
	}

	data := MarshalDocumentRecord(record)
	decoded, err := UnmarshalDocumentRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)

	_, err = UnmarshalDocumentRecord(data[:3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	checkpoint := &core.Checkpoint{
		Processor:  "reembed",
		Collection: "opinions",
		LastID:     "doc9:2:0012",
		Processed:  117,
		UpdatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(checkpoint))
	require.NoError(t, err)
	assert.Equal(t, checkpoint, decoded)

	_, err = UnmarshalCheckpoint(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestQueryRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     QueryRequest
		wantErr bool
	}{
		{"vector query", QueryRequest{Vector: []float32{1}, TopK: 5}, false},
		{"text query", QueryRequest{Text: "Schenkung", TopK: 1}, false},
		{"no vector or text", QueryRequest{TopK: 5}, true},
		{"zero top k", QueryRequest{Text: "Schenkung"}, true},
		{"negative top k", QueryRequest{Vector: []float32{1}, TopK: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQuery)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCollection(t *testing.T) {
	assert.NoError(t, ValidateCollection("opinions"))
	assert.ErrorIs(t, ValidateCollection(""), ErrInvalidCollection)
	assert.ErrorIs(t, ValidateCollection("a:b"), ErrInvalidCollection)
}
