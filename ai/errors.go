package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingProvider is the root of all embedding failures.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrEmptyEmbedding is returned when the provider answers without a vector.
	ErrEmptyEmbedding = fmt.Errorf("%w: empty embedding", ErrEmbeddingProvider)

	// ErrEmbeddingCount is returned when the number of vectors differs from the number of texts.
	ErrEmbeddingCount = fmt.Errorf("%w: embedding count mismatch", ErrEmbeddingProvider)

	// ErrZeroVector is returned when the provider answers with an all-zero vector.
	ErrZeroVector = fmt.Errorf("%w: zero embedding vector", ErrEmbeddingProvider)

	// ErrDimensionMismatch is returned when a vector has an unexpected dimension.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrEmbeddingProvider)

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbedderRequired is returned when a decorator is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
)
