package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexis/cluster"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/segment"
	"github.com/poiesic/lexis/storage"
)

const (
	// DefaultCollection is the collection chunks are written to.
	DefaultCollection = "opinions"

	// DefaultSegmentConcurrency bounds concurrent clustering within one document.
	DefaultSegmentConcurrency = 4

	// DefaultStoreTimeout bounds each storage call.
	DefaultStoreTimeout = 30 * time.Second
)

// Pipeline orchestrates the ingestion of legal opinions.
// Documents of a batch are processed concurrently on a worker pool.
type Pipeline struct {
	pool   *ants.Pool
	proc   *processor
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent document processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithCollection sets the vector store collection.
func WithCollection(collection string) Option {
	return func(p *Pipeline) error {
		if err := storage.ValidateCollection(collection); err != nil {
			return err
		}
		p.proc.collection = collection
		return nil
	}
}

// WithSegmentConcurrency bounds how many segments of one document are
// clustered at the same time.
func WithSegmentConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.proc.segmentConcurrency = n
		return nil
	}
}

// WithStoreTimeout bounds each storage call. Zero disables the timeout.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		p.proc.storeTimeout = timeout
		return nil
	}
}

// WithForce re-ingests documents even when their fingerprint is unchanged.
func WithForce(force bool) Option {
	return func(p *Pipeline) error {
		p.proc.force = force
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store storage.VectorStore,
	documents storage.DocumentRepository,
	segmenter *segment.Segmenter,
	clusterer *cluster.Clusterer,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if segmenter == nil {
		return nil, ErrSegmenterRequired
	}
	if clusterer == nil {
		return nil, ErrClustererRequired
	}

	p := &Pipeline{
		proc: &processor{
			store:              store,
			documents:          documents,
			segmenter:          segmenter,
			clusterer:          clusterer,
			collection:         DefaultCollection,
			segmentConcurrency: DefaultSegmentConcurrency,
			storeTimeout:       DefaultStoreTimeout,
		},
		logger: slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	if p.pool == nil {
		poolSize := runtime.NumCPU() / 2
		if poolSize < 1 {
			poolSize = 1
		}
		pool, err := ants.NewPool(poolSize)
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}

	p.logger = p.logger.With("component", "ingestion")
	p.proc.logger = p.logger
	return p, nil
}

// IngestDocuments ingests a batch of documents and waits for all of them.
// Per-document failures are recorded in the report; the returned error is
// non-nil only when ctx was canceled, in which case the partial report is
// still returned.
func (p *Pipeline) IngestDocuments(ctx context.Context, docs []*core.Document) (*Report, error) {
	started := time.Now()
	report := &Report{
		BatchID:   uuid.NewString(),
		Documents: make([]DocumentReport, len(docs)),
	}
	logger := p.logger.With("batch", report.BatchID)
	logger.Info("ingesting documents", "documents", len(docs))

	seen := make(map[string]int, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		if doc != nil {
			if first, dup := seen[doc.ID]; dup {
				report.Documents[i] = DocumentReport{
					DocumentID: doc.ID,
					Status:     StatusFailed,
					Err:        ErrDuplicateDocument,
				}
				logger.Warn("duplicate document in batch", "document", doc.ID, "first_index", first)
				continue
			}
			seen[doc.ID] = i
		}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			report.Documents[i] = p.proc.process(ctx, doc)
		})
		if err != nil {
			wg.Done()
			report.Documents[i] = DocumentReport{Status: StatusFailed, Err: err}
			if doc != nil {
				report.Documents[i].DocumentID = doc.ID
			}
		}
	}
	wg.Wait()

	report.tally()
	report.Took = time.Since(started)
	for _, d := range report.Documents {
		if d.Status == StatusFailed {
			logger.Error("document failed", "document", d.DocumentID, "err", d.Err)
		}
	}
	logger.Info("batch finished",
		"ingested", report.Ingested,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"degraded", report.Degraded,
		"chunks", report.Chunks,
		"took", report.Took)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
