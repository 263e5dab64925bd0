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


package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/legal"
	"github.com/poiesic/lexis/sentence"
	"github.com/poiesic/lexis/vector"
)

// Result is the outcome of clustering one segment.
type Result struct {
	// Chunks are in segment order. IDs are left empty; see AssignIDs.
	Chunks []*core.Chunk
	// Fallback is set when the sliding-window chunker replaced semantic grouping.
	Fallback bool
	// Err records ErrWindowFallback or ErrChunkEmbedding. It is never
	// returned by Cluster.
	Err error
}

// Clusterer groups the sentences of a segment into semantically coherent
// chunks. A Clusterer is immutable after construction and safe for
// concurrent use.
type Clusterer struct {
	embedder ai.Embedder
	splitter sentence.Splitter
	counter  ai.TokenCounter
	cfg      Config
	logger   *slog.Logger
}

// New creates a Clusterer. The embedder is expected to carry its own retry
// policy (see ai.Decorate).
func New(embedder ai.Embedder, opts ...Option) (*Clusterer, error) {
	if embedder == nil {
		return nil, ai.ErrEmbedderRequired
	}
	c := &Clusterer{
		embedder: embedder,
		splitter: sentence.NewUnicodeSplitter(),
		counter:  ai.ApproxTokenCounter{},
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "clusterer")
	return c, nil
}

// Config returns the thresholds in use.
func (c *Clusterer) Config() Config {
	return c.cfg
}

// unit is a sentence, or a word-bounded piece of an over-long sentence.
type unit struct {
	text       string
	start, end int // byte offsets into the segment text
	runes      int
}

// piece is a chunk under construction.
type piece struct {
	text       string
	start, end int
	coherence  float64
}

// Cluster splits a segment into chunks. Embedding failures never fail the
// call: sentence embedding errors switch to the sliding-window chunker and
// chunk embedding errors leave the chunks without vectors. Only a canceled
// context is returned as an error.
func (c *Clusterer) Cluster(ctx context.Context, seg *core.Segment) (*Result, error) {
	if seg == nil {
		return nil, fmt.Errorf("%w: segment is nil", ErrInvalidSegment)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := seg.Text
	units := c.units(text)
	if len(units) == 0 {
		return &Result{}, nil
	}

	start, end := trimmedSpan(text)
	if len(units) < 2 || utf8.RuneCountInString(text[start:end]) < c.cfg.MinChunkSize {
		p := piece{text: text[start:end], start: start, end: end, coherence: 1}
		return c.finish(ctx, seg, []piece{p}, &Result{})
	}

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.text
	}
	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err == nil {
		err = ai.CheckEmbeddings(texts, vectors, 0)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("sentence embedding failed, using sliding window",
			"segment", seg.ID,
			"sentences", len(units),
			"err", err)
		result := &Result{Fallback: true, Err: fmt.Errorf("%w: %w", ErrWindowFallback, err)}
		return c.finish(ctx, seg, c.windowPieces(text), result)
	}

	sim := vector.SimilarityMatrix(vectors)
	var pieces []piece
	for _, group := range c.group(units, sim) {
		p := joinGroup(units, group, sim)
		if utf8.RuneCountInString(p.text) < c.cfg.MinChunkSize {
			continue
		}
		pieces = append(pieces, p)
	}
	if len(pieces) == 0 {
		c.logger.Debug("no group reached the minimum size, chunking whole text", "segment", seg.ID)
		pieces = c.wholeTextPieces(text, units, sim)
	}
	return c.finish(ctx, seg, pieces, &Result{})
}

// units splits text into sentences and cuts sentences longer than
// MaxChunkSize at word boundaries.
func (c *Clusterer) units(text string) []unit {
	var out []unit
	for _, s := range c.splitter.Split(text) {
		n := utf8.RuneCountInString(s.Text)
		if n <= c.cfg.MaxChunkSize {
			out = append(out, unit{text: s.Text, start: s.Start, end: s.End, runes: n})
			continue
		}
		ws := words(s.Text, c.cfg.MaxChunkSize)
		for _, r := range pack(s.Text, ws, c.cfg.MinChunkSize, c.cfg.MaxChunkSize) {
			from, to := ws[r.from].start, ws[r.to-1].end
			part := s.Text[from:to]
			out = append(out, unit{
				text:  part,
				start: s.Start + from,
				end:   s.Start + to,
				runes: utf8.RuneCountInString(part),
			})
		}
	}
	return out
}

// group performs greedy grouping in sentence order. Each unvisited unit
// seeds a group; later unvisited units join when their similarity to the
// seed exceeds the threshold and the joined text stays within MaxChunkSize.
func (c *Clusterer) group(units []unit, sim [][]float64) [][]int {
	visited := make([]bool, len(units))
	var groups [][]int
	for i := range units {
		if visited[i] {
			continue
		}
		visited[i] = true
		group := []int{i}
		length := units[i].runes
		for j := i + 1; j < len(units); j++ {
			if visited[j] || sim[i][j] <= c.cfg.SimilarityThreshold {
				continue
			}
			if length+1+units[j].runes > c.cfg.MaxChunkSize {
				continue
			}
			visited[j] = true
			group = append(group, j)
			length += 1 + units[j].runes
		}
		groups = append(groups, group)
	}
	return groups
}

// joinGroup joins the sentences of a group. The span covers the first to the
// last member, including any sentences between them that joined other groups.
func joinGroup(units []unit, group []int, sim [][]float64) piece {
	texts := make([]string, len(group))
	for k, idx := range group {
		texts[k] = units[idx].text
	}
	return piece{
		text:      strings.Join(texts, " "),
		start:     units[group[0]].start,
		end:       units[group[len(group)-1]].end,
		coherence: coherence(group, sim),
	}
}

// coherence is the mean pairwise similarity within a group, 1 for a singleton.
func coherence(group []int, sim [][]float64) float64 {
	if len(group) < 2 {
		return 1
	}
	var sum float64
	pairs := 0
	for a := 0; a < len(group); a++ {
		for b := a + 1; b < len(group); b++ {
			sum += sim[group[a]][group[b]]
			pairs++
		}
	}
	return sum / float64(pairs)
}

// wholeTextPieces packs the whole segment into consecutive chunks when no
// semantic group was large enough.
func (c *Clusterer) wholeTextPieces(text string, units []unit, sim [][]float64) []piece {
	all := make([]int, len(units))
	for i := range all {
		all[i] = i
	}
	score := coherence(all, sim)

	ws := words(text, c.cfg.MaxChunkSize)
	ranges := pack(text, ws, c.cfg.MinChunkSize, c.cfg.MaxChunkSize)
	pieces := make([]piece, len(ranges))
	for i, r := range ranges {
		pieces[i] = spanPiece(text, ws, r, score)
	}
	return pieces
}

// windowPieces chunks the segment with a word-based sliding window.
func (c *Clusterer) windowPieces(text string) []piece {
	ws := words(text, c.cfg.MaxChunkSize)
	ranges := windows(text, ws, c.cfg.WindowWords, c.cfg.OverlapWords, c.cfg.MinChunkSize, c.cfg.MaxChunkSize)
	pieces := make([]piece, len(ranges))
	for i, r := range ranges {
		pieces[i] = spanPiece(text, ws, r, 0)
	}
	return pieces
}

func spanPiece(text string, ws []span, r wordRange, score float64) piece {
	start, end := ws[r.from].start, ws[r.to-1].end
	return piece{text: text[start:end], start: start, end: end, coherence: score}
}

// finish turns pieces into chunks and embeds them in one batch.
func (c *Clusterer) finish(ctx context.Context, seg *core.Segment, pieces []piece, result *Result) (*Result, error) {
	result.Chunks = make([]*core.Chunk, len(pieces))
	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.text
		result.Chunks[i] = &core.Chunk{
			SegmentID:      seg.ID,
			DocumentID:     seg.DocumentID,
			Level:          core.LevelChunk,
			SectionType:    seg.SectionType,
			StartChar:      seg.StartChar + p.start,
			EndChar:        seg.StartChar + p.end,
			Text:           p.text,
			TokenCount:     c.counter.CountTokens(p.text),
			CoherenceScore: p.coherence,
			LegalNorms:     legal.NormStrings(legal.ExtractNorms(p.text)),
			Keywords:       legal.ExtractKeywords(p.text, c.cfg.MaxKeywords),
		}
	}

	vectors, err := c.embedder.EmbedTexts(ctx, texts)
	if err == nil {
		err = ai.CheckEmbeddings(texts, vectors, 0)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("chunk embedding failed, storing chunks without vectors",
			"segment", seg.ID,
			"chunks", len(pieces),
			"err", err)
		if result.Err == nil {
			result.Err = fmt.Errorf("%w: %w", ErrChunkEmbedding, err)
		}
		return result, nil
	}
	for i, v := range vectors {
		result.Chunks[i].Embedding = v
	}

	c.logger.Debug("segment clustered",
		"segment", seg.ID,
		"chunks", len(result.Chunks),
		"fallback", result.Fallback)
	return result, nil
}

// AssignIDs numbers chunks with deterministic IDs starting at ordinal next
// and returns the next free ordinal.
func AssignIDs(documentID string, chunks []*core.Chunk, next int) int {
	for _, chunk := range chunks {
		chunk.ID = core.ChunkID(documentID, next)
		next++
	}
	return next
}

func trimmedSpan(text string) (start, end int) {
	start = len(text) - len(strings.TrimLeftFunc(text, unicode.IsSpace))
	end = len(strings.TrimRightFunc(text, unicode.IsSpace))
	if end < start {
		end = start
	}
	return start, end
}
