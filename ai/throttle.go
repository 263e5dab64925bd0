package ai

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ThrottledEmbedder splits large requests into batches and bounds how many
// batches are in flight against the provider at once. An optional rate
// limiter paces the batches.
type ThrottledEmbedder struct {
	next      Embedder
	batchSize int
	inFlight  *semaphore.Weighted
	limiter   *rate.Limiter
}

var _ Embedder = (*ThrottledEmbedder)(nil)

// NewThrottledEmbedder wraps next with the batching and backpressure settings of cfg.
func NewThrottledEmbedder(next Embedder, cfg *Config) (*ThrottledEmbedder, error) {
	if next == nil {
		return nil, ErrEmbedderRequired
	}
	batchSize := max(cfg.BatchSize, 1)
	maxInFlight := max(cfg.MaxInFlight, 1)

	t := &ThrottledEmbedder{
		next:      next,
		batchSize: batchSize,
		inFlight:  semaphore.NewWeighted(int64(maxInFlight)),
	}
	if cfg.RequestsPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), maxInFlight)
	}
	return t, nil
}

func (t *ThrottledEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := t.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, ErrEmbeddingCount
	}
	return vectors[0], nil
}

func (t *ThrottledEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)

	for start := 0; start < len(texts); start += t.batchSize {
		end := min(start+t.batchSize, len(texts))
		if err := t.inFlight.Acquire(gctx, 1); err != nil {
			// The group context is only done once a batch failed or ctx ended.
			break
		}
		g.Go(func() error {
			defer t.inFlight.Release(1)
			if t.limiter != nil {
				if err := t.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			batch := texts[start:end]
			vectors, err := t.next.EmbedTexts(gctx, batch)
			if err != nil {
				return err
			}
			if len(vectors) != len(batch) {
				return ErrEmbeddingCount
			}
			copy(result[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
