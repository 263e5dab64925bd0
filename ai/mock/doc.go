// Package mock provides test double implementations of AI service interfaces.
//
// The mocks allow tests to run without an embedding service and give
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	provider := mock.NewMockProvider()
//	vector, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("provider down")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns hashed bag-of-words vectors, so texts that share
// words are similar. Vectors are unit length and never all zero.
package mock
