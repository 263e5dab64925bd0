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


package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryWithBackoff executes an operation with exponential backoff retry logic.
// It attempts the operation up to maxAttempts times, with delays between attempts
// following an exponential backoff pattern: baseDelay, baseDelay*2, baseDelay*4, etc.
//
// The function respects context cancellation and will return immediately if the
// context is canceled, even during a backoff delay.
//
// Returns nil if the operation succeeds, or the last error encountered if all attempts fail.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		// A canceled caller gets no further attempts.
		if errors.Is(lastErr, context.Canceled) && ctx.Err() != nil {
			return ctx.Err()
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}

		// Calculate exponential backoff: baseDelay * 2^(attempt-1)
		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// RetryingEmbedder retries failed embedding calls with exponential backoff.
// Each attempt runs under its own timeout.
type RetryingEmbedder struct {
	next        Embedder
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
	dim         int
}

var _ Embedder = (*RetryingEmbedder)(nil)

// NewRetryingEmbedder wraps next with the retry policy of cfg.
// Responses are checked with CheckEmbeddings, so a malformed answer is retried
// like a transport error.
func NewRetryingEmbedder(next Embedder, cfg *Config) (*RetryingEmbedder, error) {
	if next == nil {
		return nil, ErrEmbedderRequired
	}
	if cfg.MaxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	return &RetryingEmbedder{
		next:        next,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		timeout:     cfg.Timeout,
		dim:         cfg.Dimensions,
	}, nil
}

func (r *RetryingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := r.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (r *RetryingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var result [][]float32
	err := RetryWithBackoff(ctx, func() error {
		attemptCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		vectors, err := r.next.EmbedTexts(attemptCtx, texts)
		if err != nil {
			return err
		}
		if err := CheckEmbeddings(texts, vectors, r.dim); err != nil {
			return err
		}
		result = vectors
		return nil
	}, r.maxAttempts, r.baseDelay)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, err
		}
		if !errors.Is(err, ErrEmbeddingProvider) {
			err = fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
		}
		return nil, err
	}
	return result, nil
}
