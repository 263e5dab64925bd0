package cluster

import (
	"errors"
	"fmt"

	"github.com/poiesic/lexis/core"
)

var (
	// ErrInvalidSegment is returned for a nil segment.
	ErrInvalidSegment = fmt.Errorf("%w: invalid segment", core.ErrValidation)

	// ErrSplitterRequired is returned when WithSplitter is given a nil splitter.
	ErrSplitterRequired = errors.New("sentence splitter is required")

	// ErrWindowFallback is recorded on a Result whose chunks came from the
	// sliding-window chunker because sentence embeddings failed.
	ErrWindowFallback = errors.New("sentence embeddings unavailable, used sliding window")

	// ErrChunkEmbedding is recorded on a Result whose chunks could not be
	// embedded. Such chunks are stored without vectors.
	ErrChunkEmbedding = errors.New("chunk embeddings unavailable")
)
