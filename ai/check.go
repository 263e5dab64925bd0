package ai

import (
	"fmt"

	"github.com/poiesic/lexis/vector"
)

// CheckEmbeddings verifies a provider response for texts. It rejects a
// missing, empty, all-zero or wrongly sized vector. dim <= 0 skips the
// dimension check.
func CheckEmbeddings(texts []string, vectors [][]float32, dim int) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingCount, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if err := CheckEmbedding(v, dim); err != nil {
			return fmt.Errorf("text %d: %w", i, err)
		}
	}
	return nil
}

// CheckEmbedding verifies a single vector.
func CheckEmbedding(v []float32, dim int) error {
	switch {
	case len(v) == 0:
		return ErrEmptyEmbedding
	case dim > 0 && len(v) != dim:
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), dim)
	case vector.IsZero(v):
		return ErrZeroVector
	}
	return nil
}
