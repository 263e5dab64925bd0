// Package tiktoken counts tokens with OpenAI's BPE encodings.
//
// Loading an encoding downloads its vocabulary on first use unless the
// TIKTOKEN_CACHE_DIR environment variable points at a populated cache.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/poiesic/lexis/ai"
)

// DefaultEncoding is the encoding used by current OpenAI embedding models.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a tiktoken encoding.
type Counter struct {
	encoding *tiktoken.Tiktoken
}

var _ ai.TokenCounter = (*Counter)(nil)

// NewCounter loads the named encoding. An empty name selects DefaultEncoding.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding %q: %w", encoding, err)
	}
	return &Counter{encoding: enc}, nil
}

func (c *Counter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}
