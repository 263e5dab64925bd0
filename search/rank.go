package search

import (
	"cmp"
	"slices"

	"github.com/poiesic/lexis/core"
)

// Fusion weights for hybrid search.
const (
	semanticWeight     = 0.7
	keywordWeight      = 0.3
	keywordOnlyWeight  = 0.5
	semanticOnlyWeight = 0.7
)

// Ranking bonuses added to the fused relevance.
const (
	analysisBonus   = 0.05
	conclusionBonus = 0.03
	normBonus       = 0.02
)

// candidate is one chunk found by at least one strategy.
type candidate struct {
	chunk      *core.Chunk
	semantic   float64
	keyword    float64
	inSemantic bool
	inKeyword  bool
	relevance  float64
}

// similarity is the score reported to callers: the semantic similarity when
// the chunk was found semantically, the keyword score otherwise.
func (c *candidate) similarity() float64 {
	if c.inSemantic {
		return c.semantic
	}
	return c.keyword
}

func (c *candidate) matchedBy() []core.Strategy {
	var by []core.Strategy
	if c.inSemantic {
		by = append(by, core.StrategySemantic)
	}
	if c.inKeyword {
		by = append(by, core.StrategyKeyword)
	}
	return by
}

// fuse merges the strategy results and computes the base relevance of each
// candidate. A hybrid search that lost one strategy is fused as the
// surviving single strategy, so its scores match a plain search of that kind.
func fuse(strategy core.Strategy, semantic, keyword map[string]*candidate) []*candidate {
	fused := make([]*candidate, 0, len(semantic)+len(keyword))

	switch strategy {
	case core.StrategySemantic:
		for _, c := range semantic {
			c.relevance = c.semantic
			fused = append(fused, c)
		}
	case core.StrategyKeyword:
		for _, c := range keyword {
			c.relevance = c.keyword
			fused = append(fused, c)
		}
	default:
		for id, c := range semantic {
			if kw, ok := keyword[id]; ok {
				c.keyword = kw.keyword
				c.inKeyword = true
				c.relevance = min(1, c.semantic*semanticWeight+c.keyword*keywordWeight)
			} else {
				c.relevance = c.semantic * semanticOnlyWeight
			}
			fused = append(fused, c)
		}
		for id, c := range keyword {
			if _, ok := semantic[id]; ok {
				continue
			}
			c.relevance = c.keyword * keywordOnlyWeight
			fused = append(fused, c)
		}
	}
	return fused
}

// bonus is the section and citation bonus of a chunk.
func bonus(chunk *core.Chunk) float64 {
	var b float64
	switch chunk.SectionType {
	case core.SectionLegalAnalysis:
		b += analysisBonus
	case core.SectionConclusion:
		b += conclusionBonus
	}
	return b + normBonus*float64(distinct(chunk.LegalNorms))
}

func distinct(items []string) int {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item] = struct{}{}
	}
	return len(seen)
}

// rank applies bonuses, orders candidates by relevance (ties by ascending
// chunk ID), truncates to limit and assigns 1-based ranks.
func rank(candidates []*candidate, limit int, clamp bool) []*core.SearchResult {
	for _, c := range candidates {
		c.relevance += bonus(c.chunk)
		if clamp {
			c.relevance = max(0, min(1, c.relevance))
		}
	}
	slices.SortFunc(candidates, func(a, b *candidate) int {
		if c := cmp.Compare(b.relevance, a.relevance); c != 0 {
			return c
		}
		return cmp.Compare(a.chunk.ID, b.chunk.ID)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]*core.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = &core.SearchResult{
			ChunkID:         c.chunk.ID,
			Text:            c.chunk.Text,
			SimilarityScore: c.similarity(),
			RelevanceScore:  c.relevance,
			Rank:            i + 1,
			Metadata: core.ResultMetadata{
				SectionType: c.chunk.SectionType,
				DocumentID:  c.chunk.DocumentID,
				SegmentID:   c.chunk.SegmentID,
				LegalNorms:  c.chunk.LegalNorms,
				Keywords:    c.chunk.Keywords,
			},
			MatchedBy: c.matchedBy(),
		}
	}
	return results
}

// aggregate computes histograms and the mean similarity of the returned results.
func aggregate(results []*core.SearchResult) (core.Aggregations, float64) {
	agg := core.Aggregations{
		SectionTypes: make(map[string]int),
		Documents:    make(map[string]int),
		LegalNorms:   make(map[string]int),
	}
	if len(results) == 0 {
		return agg, 0
	}
	var total float64
	for _, r := range results {
		agg.SectionTypes[r.Metadata.SectionType.String()]++
		agg.Documents[r.Metadata.DocumentID]++
		for _, norm := range r.Metadata.LegalNorms {
			agg.LegalNorms[norm]++
		}
		total += r.SimilarityScore
	}
	return agg, total / float64(len(results))
}

func candidateIDs(candidates map[string]*candidate) []string {
	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
