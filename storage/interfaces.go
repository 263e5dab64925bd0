package storage

import (
	"context"

	"github.com/poiesic/lexis/core"
)

// QueryRequest describes a nearest-neighbor query. Exactly one of Vector
// and Text is set. Text queries are embedded by the store when it has an
// embedder and answered by a lexical scan otherwise.
type QueryRequest struct {
	Vector []float32
	Text   string
	TopK   int
	Filter *core.Filter
}

// Validate checks the request before any I/O.
func (r QueryRequest) Validate() error {
	if len(r.Vector) == 0 && r.Text == "" {
		return ErrInvalidQuery
	}
	if r.TopK < 1 {
		return ErrInvalidQuery
	}
	return nil
}

// Hit is one query result. Distance is the cosine distance 1 - cos(q, c),
// or 1 - lexical overlap for lexical text queries. Smaller is closer.
type Hit struct {
	Chunk    *core.Chunk
	Distance float64
}

// VectorStore persists chunks with their embeddings and answers
// nearest-neighbor queries. Implementations must be thread-safe and support
// concurrent access.
type VectorStore interface {
	// Upsert inserts or replaces chunks by chunk ID.
	Upsert(ctx context.Context, collection string, chunks ...*core.Chunk) error

	// Query returns up to TopK chunks matching the filter, ordered by
	// ascending distance and then by chunk ID.
	Query(ctx context.Context, collection string, req QueryRequest) ([]Hit, error)

	// GetByIDs returns the chunks that exist, in the order of ids.
	// Missing IDs are skipped without error.
	GetByIDs(ctx context.Context, collection string, ids ...string) ([]*core.Chunk, error)

	// Delete removes chunks by ID and returns how many existed.
	Delete(ctx context.Context, collection string, ids ...string) (int, error)

	// DeleteDocument removes every chunk of a document and returns how many
	// were removed.
	DeleteDocument(ctx context.Context, collection, documentID string) (int, error)

	// ListChunks returns up to limit chunks with IDs greater than afterID,
	// in ascending ID order. limit <= 0 returns all remaining chunks.
	ListChunks(ctx context.Context, collection, afterID string, limit int) ([]*core.Chunk, error)

	// Count returns the number of chunks in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// DocumentRepository persists ingestion records.
type DocumentRepository interface {
	// SaveDocument inserts or replaces a document record.
	SaveDocument(ctx context.Context, record *core.DocumentRecord) error

	// GetDocument returns ErrNotFound if the document was never ingested.
	GetDocument(ctx context.Context, id string) (*core.DocumentRecord, error)

	// ListDocuments returns all records ordered by document ID.
	ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error)

	// Close releases resources held by the repository.
	Close() error
}

// CheckpointRepository persists progress of resumable maintenance runs.
type CheckpointRepository interface {
	// SaveCheckpoint stores a checkpoint, replacing any previous one for
	// the same processor and collection.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processor, collection string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes a checkpoint. Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, processor, collection string) error
}
