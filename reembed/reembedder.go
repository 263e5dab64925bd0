// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
)

// ProcessorName identifies reembed checkpoints.
const ProcessorName = "reembed"

// Config holds configuration for the reembedding operation.
type Config struct {
	// Collection is the vector store collection to re-embed
	Collection string

	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for failed embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// MissingOnly limits the run to chunks stored without an embedding
	MissingOnly bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Collection:     "opinions",
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := storage.ValidateCollection(c.Collection); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ai.ErrInvalidMaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Summary describes a finished or interrupted run.
type Summary struct {
	Total     int // Chunks in the collection
	Processed int // Chunks visited, including those of a resumed run
	Embedded  int // Chunks embedded by this run
	Skipped   int // Chunks that already had an embedding (MissingOnly)
	Resumed   bool
	Took      time.Duration
}

// Reembedder orchestrates the reembedding of all chunks in a collection.
type Reembedder struct {
	store       storage.VectorStore
	embedder    ai.Embedder
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *ChunkIterator
	logger      *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder) error

// WithCheckpoints persists progress after each batch and resumes from it.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(r *Reembedder) error {
		r.checkpoints = repo
		return nil
	}
}

// WithProgress sets where progress output is written (typically os.Stderr).
// Default discards progress output.
func WithProgress(w io.Writer) Option {
	return func(r *Reembedder) error {
		if w == nil {
			w = io.Discard
		}
		r.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewReembedder creates a new reembedder. A nil config uses DefaultConfig.
func NewReembedder(store storage.VectorStore, embedder ai.Embedder, config *Config, opts ...Option) (*Reembedder, error) {
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ai.ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Reembedder{
		store:     store,
		embedder:  embedder,
		config:    config,
		progress:  io.Discard,
		processor: NewBatchProcessor(store, config.Collection, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(store, config.Collection, config.BatchSize),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "reembed", "collection", config.Collection)
	return r, nil
}

// Run executes the reembedding operation.
// Chunks are re-embedded in ID order with the configured embedder. When a
// checkpoint exists the run continues after the last completed batch; the
// checkpoint is removed once the collection is done. An interrupted run
// returns the partial summary together with the error.
func (r *Reembedder) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	summary := &Summary{}

	total, err := r.store.Count(ctx, r.config.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	summary.Total = total
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in collection %q\n", r.config.Collection)
		return summary, nil
	}

	afterID := ""
	if r.checkpoints != nil {
		cp, err := r.checkpoints.LoadCheckpoint(ctx, ProcessorName, r.config.Collection)
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			afterID = cp.LastID
			summary.Processed = cp.Processed
			summary.Resumed = true
			r.logger.Info("resuming from checkpoint", "last_id", cp.LastID, "processed", cp.Processed)
		}
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start(summary.Processed)

	err = r.iterator.ForEach(ctx, afterID, func(chunks []*core.Chunk) error {
		todo := chunks
		if r.config.MissingOnly {
			todo = make([]*core.Chunk, 0, len(chunks))
			for _, chunk := range chunks {
				if len(chunk.Embedding) == 0 {
					todo = append(todo, chunk)
				}
			}
		}

		if err := r.processor.Process(ctx, todo); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		summary.Embedded += len(todo)
		summary.Skipped += len(chunks) - len(todo)
		summary.Processed += len(chunks)
		tracker.Update(summary.Processed)

		return r.saveCheckpoint(ctx, chunks[len(chunks)-1].ID, summary.Processed)
	})
	summary.Took = time.Since(started)
	if err != nil {
		r.logger.Error("reembedding interrupted", "processed", summary.Processed, "err", err)
		return summary, err
	}

	tracker.Finish()
	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, ProcessorName, r.config.Collection); err != nil {
			return summary, fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Embedded %d chunks in %v (%.1f chunks/sec)\n",
		summary.Embedded, elapsed.Round(time.Second), float64(summary.Embedded)/elapsed.Seconds())
	r.logger.Info("reembedding complete",
		"embedded", summary.Embedded,
		"skipped", summary.Skipped,
		"took", summary.Took)
	return summary, nil
}

func (r *Reembedder) saveCheckpoint(ctx context.Context, lastID string, processed int) error {
	if r.checkpoints == nil {
		return nil
	}
	err := r.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		Processor:  ProcessorName,
		Collection: r.config.Collection,
		LastID:     lastID,
		Processed:  processed,
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
