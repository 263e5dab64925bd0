package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use and must fail closed:
// a missing or all-zero vector is an error, never a silent result.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TokenCounter counts model tokens in a text.
// Implementations must be thread-safe for concurrent use.
type TokenCounter interface {
	CountTokens(text string) int
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// TokenCounter returns the token counter matching the provider's models.
	TokenCounter() TokenCounter

	// Close releases resources held by the provider and its services.
	Close() error
}
