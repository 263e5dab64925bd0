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


// Package lexis indexes German legal opinions and retrieves the passages
// relevant to a query.
//
// An Engine wires the components of a deployment from a config.Config:
// the vector store, the embedding provider, the structural segmenter, the
// semantic clusterer, the search orchestrator and the query-adaptive
// selector.
package lexis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/ai/mock"
	"github.com/poiesic/lexis/ai/openai"
	"github.com/poiesic/lexis/ai/tiktoken"
	"github.com/poiesic/lexis/cluster"
	"github.com/poiesic/lexis/config"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/ingestion"
	"github.com/poiesic/lexis/query"
	"github.com/poiesic/lexis/reembed"
	"github.com/poiesic/lexis/search"
	"github.com/poiesic/lexis/segment"
	"github.com/poiesic/lexis/selector"
	"github.com/poiesic/lexis/sentence"
	"github.com/poiesic/lexis/storage"
	"github.com/poiesic/lexis/storage/badger"
	"github.com/poiesic/lexis/storage/pgvector"
)

// Engine owns the storage and provider of one deployment and the
// components built on them. It is safe for concurrent use.
type Engine struct {
	cfg         *config.Config
	backend     *badger.Backend // nil for pgvector
	store       storage.VectorStore
	documents   storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	provider    ai.Provider
	counter     ai.TokenCounter
	segmenter   *segment.Segmenter
	clusterer   *cluster.Clusterer
	searcher    *search.Searcher
	selector    *selector.Selector
	parent      *slog.Logger // handed to components
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.Provider
	logger   *slog.Logger
}

// WithProvider replaces the provider selected by the configuration.
// The engine takes ownership and closes it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger of the engine and its components.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open validates cfg and builds an Engine. The context bounds connecting
// to the store.
func Open(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{
		cfg:    cfg,
		parent: options.logger,
		logger: options.logger.With("component", "engine"),
	}
	counter, err := newTokenCounter(cfg.Text)
	if err != nil {
		return nil, err
	}
	e.counter = counter

	e.provider = options.provider
	if e.provider == nil {
		if e.provider, err = newProvider(cfg, counter); err != nil {
			return nil, err
		}
	}
	if err := e.openStorage(ctx); err != nil {
		e.provider.Close()
		return nil, err
	}
	if err := e.build(); err != nil {
		e.Close()
		return nil, err
	}

	e.logger.Info("engine opened",
		"backend", cfg.Storage.Backend,
		"collection", cfg.Storage.Collection,
		"provider", cfg.Embedding.Provider)
	return e, nil
}

func newTokenCounter(cfg config.TextConfig) (ai.TokenCounter, error) {
	if cfg.Tokenizer == config.TokenizerApprox {
		return ai.ApproxTokenCounter{}, nil
	}
	return tiktoken.NewCounter(cfg.Encoding)
}

func newProvider(cfg *config.Config, counter ai.TokenCounter) (ai.Provider, error) {
	if cfg.Embedding.Provider == config.ProviderMock {
		return mock.NewMockProviderWithEmbedder(&mock.MockEmbedder{Dimension: cfg.Embedding.Dimensions}), nil
	}
	return openai.NewProvider(cfg.AI(), openai.WithTokenCounter(counter))
}

func (e *Engine) openStorage(ctx context.Context) error {
	logger := e.parent
	var textEmbedder ai.Embedder
	if e.cfg.Storage.TextQuery == config.TextQueryEmbedding {
		textEmbedder = e.provider.Embedder()
	}

	if e.cfg.Storage.Backend == config.BackendPgvector {
		opts := []pgvector.Option{
			pgvector.WithTextSearchConfig(e.cfg.Storage.TextSearchConfig),
			pgvector.WithLogger(logger),
		}
		if textEmbedder != nil {
			opts = append(opts, pgvector.WithEmbedder(textEmbedder))
		}
		store, err := pgvector.New(ctx, e.cfg.Storage.DSN, opts...)
		if err != nil {
			return err
		}
		e.store, e.documents, e.checkpoints = store, store, store
		return nil
	}

	backend, err := badger.OpenBackend(e.cfg.Storage.Path, e.cfg.Storage.Path == "")
	if err != nil {
		return err
	}
	opts := []badger.ChunkStoreOption{badger.WithLogger(logger)}
	if textEmbedder != nil {
		opts = append(opts, badger.WithEmbedder(textEmbedder))
	}
	store, err := badger.NewChunkStore(backend, opts...)
	if err != nil {
		backend.Close()
		return err
	}
	e.backend = backend
	e.store = store
	e.documents = badger.NewDocumentStore(backend)
	e.checkpoints = badger.NewCheckpointRepository(backend)
	return nil
}

func (e *Engine) build() error {
	logger := e.parent
	embedder := e.provider.Embedder()
	splitter, err := sentence.New(sentence.Kind(e.cfg.Text.Splitter))
	if err != nil {
		return err
	}
	if e.segmenter, err = segment.New(
		segment.WithConfig(e.cfg.Segment),
		segment.WithLogger(logger),
	); err != nil {
		return err
	}
	if e.clusterer, err = cluster.New(embedder,
		cluster.WithConfig(e.cfg.Cluster),
		cluster.WithSplitter(splitter),
		cluster.WithTokenCounter(e.counter),
		cluster.WithLogger(logger),
	); err != nil {
		return err
	}
	processor, err := query.NewProcessor()
	if err != nil {
		return err
	}
	s := e.cfg.Search
	if e.searcher, err = search.NewSearcher(e.store, embedder,
		search.WithCollection(e.cfg.Storage.Collection),
		search.WithProcessor(processor),
		search.WithLimits(s.DefaultLimit, s.MaxLimit),
		search.WithKeywordQueries(s.KeywordQueries),
		search.WithStrategyTimeout(s.StrategyTimeout),
		search.WithClampRelevance(s.ClampRelevance),
		search.WithLogger(logger),
	); err != nil {
		return err
	}
	e.selector, err = selector.New(
		selector.WithConfig(e.cfg.Selector),
		selector.WithTokenCounter(e.counter),
		selector.WithLogger(logger),
	)
	return err
}

// Close releases the provider and the storage.
func (e *Engine) Close() error {
	var errs []error
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Error("error closing vector store", "err", err)
			errs = append(errs, err)
		}
	}
	if e.backend != nil {
		if err := e.documents.Close(); err != nil {
			e.logger.Error("error closing document store", "err", err)
			errs = append(errs, err)
		}
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the configuration the engine was opened with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) Store() storage.VectorStore {
	return e.store
}

func (e *Engine) Documents() storage.DocumentRepository {
	return e.documents
}

func (e *Engine) Searcher() *search.Searcher {
	return e.searcher
}

func (e *Engine) Selector() *selector.Selector {
	return e.selector
}

// NewIngestionPipeline creates a pipeline over the engine's storage with the
// configured concurrency. Options override the configuration. Callers must
// Release the pipeline.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	ic := e.cfg.Ingestion
	defaults := []ingestion.Option{
		ingestion.WithCollection(e.cfg.Storage.Collection),
		ingestion.WithLogger(e.parent),
	}
	if ic.PoolSize > 0 {
		defaults = append(defaults, ingestion.WithPoolSize(ic.PoolSize))
	}
	if ic.SegmentConcurrency > 0 {
		defaults = append(defaults, ingestion.WithSegmentConcurrency(ic.SegmentConcurrency))
	}
	if ic.StoreTimeout > 0 {
		defaults = append(defaults, ingestion.WithStoreTimeout(ic.StoreTimeout))
	}
	return ingestion.NewPipeline(e.store, e.documents, e.segmenter, e.clusterer, append(defaults, opts...)...)
}

// Ingest segments, clusters, embeds and stores a batch of documents.
func (e *Engine) Ingest(ctx context.Context, docs []*core.Document, opts ...ingestion.Option) (*ingestion.Report, error) {
	pipeline, err := e.NewIngestionPipeline(opts...)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()
	return pipeline.IngestDocuments(ctx, docs)
}

// Search answers a request with the search orchestrator.
func (e *Engine) Search(ctx context.Context, req *core.SearchRequest) (*core.SearchResponse, error) {
	return e.searcher.Search(ctx, req)
}

// SelectResult is the response of a search together with the passages
// chosen from it for a token budget.
type SelectResult struct {
	Response  *core.SearchResponse
	Selection *selector.Selection
}

// Select runs a search and selects a diverse, budgeted subset of its
// results for the analyzed query. The stored chunks are loaded so that
// redundancy is judged on their embeddings. When they cannot be loaded the
// selection runs on the result texts and the response is marked degraded.
func (e *Engine) Select(ctx context.Context, req *core.SearchRequest) (*SelectResult, error) {
	resp, err := e.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(resp.Results))
	scores := make(map[string]float64, len(resp.Results))
	for i, r := range resp.Results {
		ids[i] = r.ChunkID
		scores[r.ChunkID] = r.RelevanceScore
	}
	var candidates []selector.Candidate
	chunks, err := e.store.GetByIDs(ctx, e.cfg.Storage.Collection, ids...)
	if err != nil {
		e.logger.Warn("loading selection candidates failed, selecting on result texts", "err", err)
		resp.Degraded = true
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("selection candidates unavailable: %v", err))
		candidates = resultCandidates(resp.Results)
	} else {
		candidates = make([]selector.Candidate, len(chunks))
		for i, c := range chunks {
			candidates[i] = selector.Candidate{Chunk: c, Score: scores[c.ID]}
		}
	}

	q := resp.QueryAnalysis
	queryVector := e.queryVector(ctx, q)
	return &SelectResult{
		Response:  resp,
		Selection: e.selector.Select(q, queryVector, candidates),
	}, nil
}

// resultCandidates rebuilds chunks without embeddings from search results.
func resultCandidates(results []*core.SearchResult) []selector.Candidate {
	candidates := make([]selector.Candidate, len(results))
	for i, r := range results {
		candidates[i] = selector.Candidate{
			Chunk: &core.Chunk{
				ID:          r.ChunkID,
				SegmentID:   r.Metadata.SegmentID,
				DocumentID:  r.Metadata.DocumentID,
				Level:       core.LevelChunk,
				SectionType: r.Metadata.SectionType,
				Text:        r.Text,
				LegalNorms:  r.Metadata.LegalNorms,
				Keywords:    r.Metadata.Keywords,
			},
			Score: r.RelevanceScore,
		}
	}
	return candidates
}

// queryVector embeds the analyzed query. A failure leaves the selector to
// score on candidate relevance alone.
func (e *Engine) queryVector(ctx context.Context, q *core.Query) []float32 {
	if q == nil {
		return nil
	}
	text := q.ExpandedText
	if text == "" {
		text = q.NormalizedText
	}
	if text == "" {
		return nil
	}
	vec, err := e.provider.Embedder().EmbedText(ctx, text)
	if err != nil {
		e.logger.Warn("query embedding failed, selecting without it", "err", err)
		return nil
	}
	return vec
}

// Reembed recomputes the embeddings of the configured collection. A nil
// config selects reembed.DefaultConfig for that collection. Progress is
// written to progress when it is non-nil. An interrupted run resumes from
// its last checkpoint.
func (e *Engine) Reembed(ctx context.Context, cfg *reembed.Config, progress io.Writer) (*reembed.Summary, error) {
	if cfg == nil {
		cfg = reembed.DefaultConfig()
		cfg.Collection = e.cfg.Storage.Collection
	}
	opts := []reembed.Option{reembed.WithLogger(e.parent)}
	if progress != nil {
		opts = append(opts, reembed.WithProgress(progress))
	}
	opts = append(opts, reembed.WithCheckpoints(e.checkpoints))
	r, err := reembed.NewReembedder(e.store, e.provider.Embedder(), cfg, opts...)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// Stats summarizes the indexed corpus.
type Stats struct {
	Collection string
	Documents  int
	// Degraded counts documents ingested with segmentation or embedding warnings.
	Degraded int
	Chunks   int
	// Segments maps section type names to segment counts.
	Segments map[string]int
}

// Stats reports document, chunk and section type counts.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	records, err := e.documents.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := e.store.Count(ctx, e.cfg.Storage.Collection)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		Collection: e.cfg.Storage.Collection,
		Documents:  len(records),
		Chunks:     chunks,
		Segments:   make(map[string]int),
	}
	for _, rec := range records {
		if rec.Degraded {
			stats.Degraded++
		}
		for _, seg := range rec.Segments {
			stats.Segments[seg.SectionType.String()]++
		}
	}
	return stats, nil
}
