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


package segment

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/lexis/core"
)

// FallbackStrategy is the strategy name reported when no strategy matched.
const FallbackStrategy = "fallback"

// Result is the outcome of segmenting one document.
type Result struct {
	Segments []*core.Segment
	// Strategy is the name of the strategy whose boundaries were used.
	Strategy string
	// Fallback is set when the whole document became one unclassified segment.
	Fallback bool
	// Err records ErrSegmentationEmpty for a fallback result.
	Err error
}

// Segmenter splits documents into typed segments with an ordered cascade of
// strategies. The first strategy that finds a boundary wins; outputs of
// different strategies are never combined.
//
// A Segmenter is immutable after construction and safe for concurrent use.
type Segmenter struct {
	cfg        Config
	strategies []Strategy
	logger     *slog.Logger
}

// New creates a Segmenter with the default cascade and thresholds.
func New(opts ...Option) (*Segmenter, error) {
	s := &Segmenter{
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.strategies == nil {
		s.strategies = DefaultStrategies(s.cfg)
	}
	s.logger = s.logger.With("component", "segmenter")
	return s, nil
}

// section is a span of the document under construction.
type section struct {
	start, end int
	heading    string
	typ        core.SectionType
}

// Segment splits a document into ordered segments that partition its text.
// Segmenting the same document twice yields identical results.
func (s *Segmenter) Segment(doc *core.Document) (*Result, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	text := doc.RawText
	result := &Result{}

	var bounds []Boundary
	for _, strategy := range s.strategies {
		if b := strategy.Boundaries(text); len(b) > 0 {
			bounds = b
			result.Strategy = strategy.Name()
			break
		}
	}

	var sections []section
	if len(bounds) == 0 {
		result.Strategy = FallbackStrategy
		result.Fallback = true
		result.Err = ErrSegmentationEmpty
		s.logger.Warn("segmentation degraded to whole document", "document", doc.ID, "err", ErrSegmentationEmpty)
		sections = []section{{start: 0, end: len(text)}}
	} else {
		sections = buildSections(text, bounds)
	}

	sections = s.mergeShort(text, sections)
	sections = s.mergeSimilarHeadings(text, sections)
	s.relabel(doc.ID, text, sections)

	result.Segments = make([]*core.Segment, len(sections))
	for i, sec := range sections {
		result.Segments[i] = &core.Segment{
			ID:          core.SegmentID(doc.ID, i),
			DocumentID:  doc.ID,
			SectionType: sec.typ,
			Heading:     sec.heading,
			StartChar:   sec.start,
			EndChar:     sec.end,
			Text:        text[sec.start:sec.end],
		}
	}

	s.logger.Debug("document segmented",
		"document", doc.ID,
		"strategy", result.Strategy,
		"segments", len(result.Segments))
	return result, nil
}

// buildSections turns boundaries into contiguous sections covering text.
// Non-blank text before the first boundary becomes an introduction.
func buildSections(text string, bounds []Boundary) []section {
	bounds = slices.Clone(bounds)
	slices.SortStableFunc(bounds, func(a, b Boundary) int { return a.Start - b.Start })
	bounds = slices.CompactFunc(bounds, func(a, b Boundary) bool { return a.Start == b.Start })

	sections := make([]section, 0, len(bounds)+1)
	for i, b := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1].Start
		}
		typ := b.Type
		if typ == core.SectionUnclassified {
			typ = classifyHeading(b.Heading)
		}
		sections = append(sections, section{start: b.Start, end: end, heading: b.Heading, typ: typ})
	}

	if first := bounds[0].Start; first > 0 {
		if strings.TrimSpace(text[:first]) != "" {
			intro := section{start: 0, end: first, typ: core.SectionIntroduction}
			sections = append([]section{intro}, sections...)
		} else {
			sections[0].start = 0
		}
	}
	return sections
}
