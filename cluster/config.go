package cluster

import (
	"errors"
	"log/slog"

	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/sentence"
)

// Config holds the clustering thresholds. Chunk sizes are measured in
// characters (runes).
type Config struct {
	// SimilarityThreshold is the cosine similarity a sentence needs with the
	// seed of a group to join it.
	// Default: 0.7
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// MinChunkSize discards groups with shorter text.
	// Default: 100
	MinChunkSize int `yaml:"min_chunk_size"`

	// MaxChunkSize caps the text length of every chunk.
	// Default: 1000
	MaxChunkSize int `yaml:"max_chunk_size"`

	// WindowWords and OverlapWords shape the sliding-window chunker used
	// when sentence embeddings are unavailable.
	// Default: 200 words, 50 words overlap
	WindowWords  int `yaml:"window_words"`
	OverlapWords int `yaml:"overlap_words"`

	// MaxKeywords limits the keywords stored per chunk.
	// Default: 10
	MaxKeywords int `yaml:"max_keywords"`
}

// DefaultConfig returns the default clustering thresholds.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.7,
		MinChunkSize:        100,
		MaxChunkSize:        1000,
		WindowWords:         200,
		OverlapWords:        50,
		MaxKeywords:         10,
	}
}

// Validate checks the thresholds for consistency.
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold >= 1 {
		return errors.New("cluster config: SimilarityThreshold must be in [0, 1)")
	}
	if c.MinChunkSize < 1 {
		return errors.New("cluster config: MinChunkSize must be positive")
	}
	if c.MaxChunkSize < 2*c.MinChunkSize {
		return errors.New("cluster config: MaxChunkSize must be at least twice MinChunkSize")
	}
	if c.WindowWords < 1 {
		return errors.New("cluster config: WindowWords must be positive")
	}
	if c.OverlapWords < 0 || c.OverlapWords >= c.WindowWords {
		return errors.New("cluster config: OverlapWords must be in [0, WindowWords)")
	}
	if c.MaxKeywords < 0 {
		return errors.New("cluster config: MaxKeywords must not be negative")
	}
	return nil
}

// Option configures a Clusterer.
type Option func(*Clusterer) error

// WithConfig replaces the default thresholds.
func WithConfig(cfg Config) Option {
	return func(c *Clusterer) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.cfg = cfg
		return nil
	}
}

// WithSplitter sets the sentence splitter. Default: sentence.NewUnicodeSplitter().
func WithSplitter(splitter sentence.Splitter) Option {
	return func(c *Clusterer) error {
		if splitter == nil {
			return ErrSplitterRequired
		}
		c.splitter = splitter
		return nil
	}
}

// WithTokenCounter sets the token counter used for Chunk.TokenCount.
// Default: ai.ApproxTokenCounter.
func WithTokenCounter(counter ai.TokenCounter) Option {
	return func(c *Clusterer) error {
		if counter == nil {
			counter = ai.ApproxTokenCounter{}
		}
		c.counter = counter
		return nil
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clusterer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}
