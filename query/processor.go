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


package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/legal"
)

const (
	// DefaultMaxQueryLength is the longest accepted query in characters.
	DefaultMaxQueryLength = 2000

	// DefaultMaxKeywords limits the ranked keyword list.
	DefaultMaxKeywords = 20

	// DefaultMaxExpansions limits the terms appended to the expanded text.
	DefaultMaxExpansions = 5
)

// Processor turns raw query text into an enriched core.Query.
// Processing is pure: no I/O and no shared mutable state, so a Processor
// is safe for concurrent use.
type Processor struct {
	maxQueryLength int
	maxKeywords    int
	maxExpansions  int
}

// Option configures a Processor.
type Option func(*Processor) error

// WithMaxQueryLength sets the longest accepted query in characters.
func WithMaxQueryLength(n int) Option {
	return func(p *Processor) error {
		if n < 1 {
			return fmt.Errorf("max query length must be positive, got %d", n)
		}
		p.maxQueryLength = n
		return nil
	}
}

// WithMaxKeywords limits the number of ranked keywords. Zero keeps all.
func WithMaxKeywords(n int) Option {
	return func(p *Processor) error {
		if n < 0 {
			return fmt.Errorf("max keywords must not be negative, got %d", n)
		}
		p.maxKeywords = n
		return nil
	}
}

// WithMaxExpansions limits the concept-related terms appended to the query.
// Zero disables query expansion.
func WithMaxExpansions(n int) Option {
	return func(p *Processor) error {
		if n < 0 {
			return fmt.Errorf("max expansions must not be negative, got %d", n)
		}
		p.maxExpansions = n
		return nil
	}
}

// NewProcessor creates a Processor.
func NewProcessor(opts ...Option) (*Processor, error) {
	p := &Processor{
		maxQueryLength: DefaultMaxQueryLength,
		maxKeywords:    DefaultMaxKeywords,
		maxExpansions:  DefaultMaxExpansions,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Process validates and enriches a query text. Citations, concept tags,
// keywords, expansions and suggested filters are derived from the text;
// Strategy defaults to hybrid and the request fields (Limit, MinSimilarity,
// Filters) are left for the caller.
func (p *Processor) Process(text string) (*core.Query, error) {
	normalized := legal.Normalize(text)
	if normalized == "" {
		return nil, ErrEmptyQuery
	}
	if n := utf8.RuneCountInString(normalized); n > p.maxQueryLength {
		return nil, fmt.Errorf("%w: %d characters, limit %d", ErrQueryTooLong, n, p.maxQueryLength)
	}

	norms := legal.ExtractNorms(normalized)
	concepts := legal.TagConcepts(normalized)

	q := &core.Query{
		RawText:        text,
		NormalizedText: normalized,
		ExpandedText:   normalized,
		ExtractedNorms: norms,
		LegalConcepts:  concepts,
		Keywords:       legal.ExtractKeywords(normalized, p.maxKeywords),
		Strategy:       core.StrategyHybrid,
	}

	if p.maxExpansions > 0 && len(concepts) > 0 {
		q.Expansions = legal.Expansions(concepts, normalized, p.maxExpansions)
		if len(q.Expansions) > 0 {
			q.ExpandedText = normalized + " " + strings.Join(q.Expansions, " ")
		}
	}

	if len(norms) > 0 {
		q.SuggestedFilters.LegalNorms = legal.NormStrings(norms)
	}
	return q, nil
}
