package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/query"
	"github.com/poiesic/lexis/storage"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCollection is the collection searched when none is configured.
	DefaultCollection = "opinions"

	// DefaultLimit is used when a request does not set a limit.
	DefaultLimit = 10

	// DefaultMaxLimit is the largest accepted request limit.
	DefaultMaxLimit = 100

	// DefaultStrategyTimeout bounds each strategy's external calls.
	DefaultStrategyTimeout = 10 * time.Second

	// DefaultKeywordQueries is the number of top keywords issued as text queries.
	DefaultKeywordQueries = 5
)

// Searcher runs retrieval strategies against a vector store and ranks the
// fused candidates. A Searcher holds no per-query state and is safe for
// concurrent use.
type Searcher struct {
	store           storage.VectorStore
	embedder        ai.Embedder
	processor       *query.Processor
	collection      string
	defaultLimit    int
	maxLimit        int
	keywordQueries  int
	strategyTimeout time.Duration
	clamp           bool
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCollection sets the collection to search.
func WithCollection(collection string) Option {
	return func(s *Searcher) error {
		if err := storage.ValidateCollection(collection); err != nil {
			return err
		}
		s.collection = collection
		return nil
	}
}

// WithProcessor sets the query processor. Default is query.NewProcessor().
func WithProcessor(processor *query.Processor) Option {
	return func(s *Searcher) error {
		if processor == nil {
			return errors.New("query processor cannot be nil")
		}
		s.processor = processor
		return nil
	}
}

// WithLimits sets the default and maximum result limits.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Searcher) error {
		if defaultLimit < 1 || maxLimit < defaultLimit {
			return fmt.Errorf("invalid limits: default %d, max %d", defaultLimit, maxLimit)
		}
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
		return nil
	}
}

// WithKeywordQueries sets how many top keywords the keyword strategy issues.
func WithKeywordQueries(n int) Option {
	return func(s *Searcher) error {
		if n < 1 {
			return fmt.Errorf("keyword queries must be at least 1, got %d", n)
		}
		s.keywordQueries = n
		return nil
	}
}

// WithStrategyTimeout sets the timeout of each strategy. Zero disables it.
func WithStrategyTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout < 0 {
			return fmt.Errorf("strategy timeout cannot be negative: %s", timeout)
		}
		s.strategyTimeout = timeout
		return nil
	}
}

// WithClampRelevance controls whether relevance scores are clamped to
// [0, 1] after ranking bonuses. Default is true. Without clamping, bonuses
// can push scores above 1.
func WithClampRelevance(clamp bool) Option {
	return func(s *Searcher) error {
		s.clamp = clamp
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.VectorStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ai.ErrEmbedderRequired
	}

	s := &Searcher{
		store:           store,
		embedder:        embedder,
		collection:      DefaultCollection,
		defaultLimit:    DefaultLimit,
		maxLimit:        DefaultMaxLimit,
		keywordQueries:  DefaultKeywordQueries,
		strategyTimeout: DefaultStrategyTimeout,
		clamp:           true,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.processor == nil {
		processor, err := query.NewProcessor()
		if err != nil {
			return nil, err
		}
		s.processor = processor
	}
	s.logger = s.logger.With("component", "searcher")
	return s, nil
}

// Search runs a search request.
func (s *Searcher) Search(ctx context.Context, req *core.SearchRequest) (*core.SearchResponse, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs a search request with monitoring.
// The monitor receives callbacks at each stage of the search process.
//
// Only validation errors and context errors are returned. Strategy failures
// produce a degraded response.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req *core.SearchRequest, monitor SearchMonitor) (*core.SearchResponse, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	start := time.Now()

	q, err := s.analyze(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	monitor.Start(q)

	resp := &core.SearchResponse{
		QueryID:       uuid.NewString(),
		QueryAnalysis: q,
		Results:       []*core.SearchResult{},
	}

	var (
		semantic, keyword       map[string]*candidate
		semanticErr, keywordErr error
	)
	switch q.Strategy {
	case core.StrategySemantic:
		semantic, semanticErr = s.semantic(ctx, q)
	case core.StrategyKeyword:
		keyword, keywordErr = s.keyword(ctx, q)
	case core.StrategyHybrid:
		// Strategies fail independently, so the group never cancels.
		var g errgroup.Group
		g.Go(func() error {
			semantic, semanticErr = s.semantic(ctx, q)
			return nil
		})
		g.Go(func() error {
			keyword, keywordErr = s.keyword(ctx, q)
			return nil
		})
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		s.logger.Debug("search canceled", "query_id", resp.QueryID, "err", err)
		return nil, err
	}

	if semanticErr != nil {
		s.degrade(resp, monitor, core.StrategySemantic, semanticErr)
	} else if semantic != nil {
		monitor.AfterSemanticSearch(candidateIDs(semantic))
	}
	if keywordErr != nil {
		s.degrade(resp, monitor, core.StrategyKeyword, keywordErr)
	} else if keyword != nil {
		monitor.AfterKeywordSearch(candidateIDs(keyword))
	}

	effective := q.Strategy
	if effective == core.StrategyHybrid {
		switch {
		case semanticErr != nil && keywordErr == nil:
			effective = core.StrategyKeyword
		case keywordErr != nil && semanticErr == nil:
			effective = core.StrategySemantic
		}
	}
	fused := fuse(effective, semantic, keyword)
	resp.TotalFound = len(fused)
	resp.Results = rank(fused, q.Limit, s.clamp)
	monitor.AfterRanking(resp.Results)

	resp.Aggregations, resp.AvgSimilarityScore = aggregate(resp.Results)
	resp.Took = time.Since(start)
	monitor.Finish(resp)

	s.logger.Debug("search complete",
		"query_id", resp.QueryID,
		"strategy", string(q.Strategy),
		"effective_strategy", string(effective),
		"found", resp.TotalFound,
		"returned", len(resp.Results),
		"degraded", resp.Degraded,
		"took", resp.Took)
	return resp, nil
}

// analyze validates the request and builds the enriched query. No I/O
// happens here.
func (s *Searcher) analyze(req *core.SearchRequest) (*core.Query, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	strategy, err := core.ParseStrategy(string(req.Strategy))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 || limit > s.maxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidRequest, s.maxLimit, req.Limit)
	}
	if req.MinSimilarity < 0 || req.MinSimilarity > 1 {
		return nil, fmt.Errorf("%w: min similarity must be in [0, 1], got %g", ErrInvalidRequest, req.MinSimilarity)
	}
	if req.Sort != "" && req.Sort != core.SortRelevance {
		return nil, fmt.Errorf("%w: unsupported sort order %q", ErrInvalidRequest, req.Sort)
	}
	for _, st := range req.Filters.SectionTypes {
		if err := core.ValidateSectionType(st); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	q, err := s.processor.Process(req.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	q.Strategy = strategy
	q.Limit = limit
	q.MinSimilarity = req.MinSimilarity
	q.Filters = req.Filters
	return q, nil
}

func (s *Searcher) degrade(resp *core.SearchResponse, monitor SearchMonitor, strategy core.Strategy, err error) {
	resp.Degraded = true
	resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s strategy unavailable: %v", strategy, err))
	monitor.StrategyFailed(strategy, err)
	s.logger.Warn("retrieval strategy failed", "query_id", resp.QueryID, "strategy", string(strategy), "err", err)
}

// strategyContext scopes one strategy's external calls.
func (s *Searcher) strategyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.strategyTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.strategyTimeout)
}

// semantic retrieves the nearest chunks to the expanded query.
func (s *Searcher) semantic(ctx context.Context, q *core.Query) (map[string]*candidate, error) {
	ctx, cancel := s.strategyContext(ctx)
	defer cancel()

	text := q.ExpandedText
	if text == "" {
		text = q.NormalizedText
	}
	queryVector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrStrategyFailed, err)
	}
	hits, err := s.store.Query(ctx, s.collection, storage.QueryRequest{
		Vector: queryVector,
		TopK:   2 * q.Limit,
		Filter: &q.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStrategyFailed, err)
	}

	candidates := make(map[string]*candidate, len(hits))
	for _, hit := range hits {
		similarity := 1 / (1 + hit.Distance)
		if similarity < q.MinSimilarity {
			continue
		}
		candidates[hit.Chunk.ID] = &candidate{chunk: hit.Chunk, semantic: similarity, inSemantic: true}
	}
	return candidates, nil
}

// keyword issues one text query per top keyword and keeps the best keyword
// score per chunk.
func (s *Searcher) keyword(ctx context.Context, q *core.Query) (map[string]*candidate, error) {
	ctx, cancel := s.strategyContext(ctx)
	defer cancel()

	keywords := q.Keywords
	if len(keywords) > s.keywordQueries {
		keywords = keywords[:s.keywordQueries]
	}

	candidates := make(map[string]*candidate)
	for _, kw := range keywords {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits, err := s.store.Query(ctx, s.collection, storage.QueryRequest{
			Text:   kw,
			TopK:   2 * q.Limit,
			Filter: &q.Filters,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: keyword %q: %w", ErrStrategyFailed, kw, err)
		}
		for _, hit := range hits {
			score := keywordScore(hit.Chunk.Text, kw)
			if score <= 0 {
				continue
			}
			c, ok := candidates[hit.Chunk.ID]
			if !ok {
				candidates[hit.Chunk.ID] = &candidate{chunk: hit.Chunk, keyword: score, inKeyword: true}
				continue
			}
			c.keyword = max(c.keyword, score)
		}
	}
	return candidates, nil
}
