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


// Package selector picks a budget-bounded, diverse subset of retrieved
// chunks to hand to an answer generator.
//
// Candidates are scored by a weighted sum of query similarity, a section
// prior, citation overlap and keyword overlap. They are then accepted
// greedily in score order while they fit the remaining token budget and are
// not too similar to an already accepted chunk.
package selector

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/legal"
	"github.com/poiesic/lexis/vector"
)

// Candidate is a chunk offered for selection. Score is a prior relevance in
// [0, 1], typically the search relevance, used when no embedding is available.
type Candidate struct {
	Chunk *core.Chunk
	Score float64
}

// Selected is an accepted chunk with its selection score.
type Selected struct {
	Chunk  *core.Chunk
	Score  float64
	Tokens int
}

// Selection is the outcome of one Select call.
type Selection struct {
	Chunks      []Selected
	TotalTokens int
	Budget      int
	// Considered is the number of valid candidates.
	Considered int
	// SkippedBudget counts candidates that did not fit the remaining budget.
	SkippedBudget int
	// SkippedRedundant counts candidates too similar to a selected chunk.
	SkippedRedundant int
}

// Selector is immutable after construction and safe for concurrent use.
type Selector struct {
	cfg     Config
	counter ai.TokenCounter
	logger  *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector) error

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(s *Selector) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		s.cfg = cfg
		return nil
	}
}

// WithTokenCounter sets the counter used for chunks without a stored token count.
func WithTokenCounter(counter ai.TokenCounter) Option {
	return func(s *Selector) error {
		if counter == nil {
			counter = ai.ApproxTokenCounter{}
		}
		s.counter = counter
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a Selector with the default configuration.
func New(opts ...Option) (*Selector, error) {
	s := &Selector{
		cfg:     DefaultConfig(),
		counter: ai.ApproxTokenCounter{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "selector")
	return s, nil
}

// Config returns the active configuration.
func (s *Selector) Config() Config {
	return s.cfg
}

// entry is one candidate in the selection arena.
type entry struct {
	chunk    *core.Chunk
	score    float64
	tokens   int
	tokenSet map[string]struct{}
}

// Select picks chunks for q. queryVector may be nil. The total token count
// of the selection never exceeds the budget, and no two selected chunks have
// a similarity of 1-DiversityFactor or more.
func (s *Selector) Select(q *core.Query, queryVector []float32, candidates []Candidate) *Selection {
	if q == nil {
		q = &core.Query{}
	}
	sel := &Selection{Budget: s.cfg.MaxTokens, Chunks: []Selected{}}

	queryNorms := make(map[string]struct{}, len(q.ExtractedNorms))
	for _, norm := range legal.NormStrings(q.ExtractedNorms) {
		queryNorms[norm] = struct{}{}
	}

	arena := make([]entry, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c.Chunk == nil {
			continue
		}
		if _, dup := seen[c.Chunk.ID]; dup {
			continue
		}
		seen[c.Chunk.ID] = struct{}{}

		tokens := c.Chunk.TokenCount
		if tokens <= 0 {
			tokens = s.counter.CountTokens(c.Chunk.Text)
		}
		tokenSet := legal.TokenSet(c.Chunk.Text)
		arena = append(arena, entry{
			chunk:    c.Chunk,
			score:    s.score(q, queryVector, queryNorms, c, tokenSet),
			tokens:   tokens,
			tokenSet: tokenSet,
		})
	}
	sel.Considered = len(arena)

	order := make([]int, len(arena))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(arena[b].score, arena[a].score); c != 0 {
			return c
		}
		return cmp.Compare(arena[a].chunk.ID, arena[b].chunk.ID)
	})

	limit := 1 - s.cfg.DiversityFactor
	remaining := s.cfg.MaxTokens
	var accepted []int
	for _, i := range order {
		if s.cfg.MaxChunks > 0 && len(accepted) >= s.cfg.MaxChunks {
			break
		}
		e := &arena[i]
		if e.tokens > remaining {
			sel.SkippedBudget++
			continue
		}
		redundant := false
		for _, j := range accepted {
			if similarity(e, &arena[j]) >= limit {
				redundant = true
				break
			}
		}
		if redundant {
			sel.SkippedRedundant++
			continue
		}
		accepted = append(accepted, i)
		remaining -= e.tokens
		sel.TotalTokens += e.tokens
		sel.Chunks = append(sel.Chunks, Selected{Chunk: e.chunk, Score: e.score, Tokens: e.tokens})
	}

	s.logger.Debug("chunks selected",
		"considered", sel.Considered,
		"selected", len(sel.Chunks),
		"tokens", sel.TotalTokens,
		"budget", sel.Budget,
		"skipped_budget", sel.SkippedBudget,
		"skipped_redundant", sel.SkippedRedundant)
	return sel
}

// score combines the selection signals of one candidate.
func (s *Selector) score(q *core.Query, queryVector []float32, queryNorms map[string]struct{}, c Candidate, tokenSet map[string]struct{}) float64 {
	w := s.cfg.Weights

	sim := clamp01(c.Score)
	if len(queryVector) > 0 && len(c.Chunk.Embedding) == len(queryVector) {
		sim = clamp01(vector.Cosine(queryVector, c.Chunk.Embedding))
	}

	var normOverlap float64
	if len(queryNorms) > 0 {
		hits := 0
		for norm := range queryNorms {
			if slices.Contains(c.Chunk.LegalNorms, norm) {
				hits++
			}
		}
		normOverlap = float64(hits) / float64(len(queryNorms))
	}

	var keywordOverlap float64
	if len(q.Keywords) > 0 {
		hits := 0
		for _, kw := range q.Keywords {
			_, inText := tokenSet[kw]
			if inText || slices.Contains(c.Chunk.Keywords, kw) {
				hits++
			}
		}
		keywordOverlap = float64(hits) / float64(len(q.Keywords))
	}

	return w.Similarity*sim +
		w.Section*sectionPrior(q, c.Chunk.SectionType) +
		w.Norm*normOverlap +
		w.Keyword*keywordOverlap
}

// similarity compares two candidates by embedding when both have one of the
// same dimension, and by token overlap otherwise.
func similarity(a, b *entry) float64 {
	if len(a.chunk.Embedding) > 0 && len(a.chunk.Embedding) == len(b.chunk.Embedding) {
		return vector.Cosine(a.chunk.Embedding, b.chunk.Embedding)
	}
	return legal.Jaccard(a.tokenSet, b.tokenSet)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
