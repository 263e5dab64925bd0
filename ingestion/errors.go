package ingestion

import "errors"

var (
	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrSegmenterRequired is returned when a segmenter is not provided.
	ErrSegmenterRequired = errors.New("segmenter required")

	// ErrClustererRequired is returned when a clusterer is not provided.
	ErrClustererRequired = errors.New("clusterer required")

	// ErrDuplicateDocument is recorded for a document whose ID already
	// appeared earlier in the same batch.
	ErrDuplicateDocument = errors.New("duplicate document in batch")
)
