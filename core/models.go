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


package core

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Level identifies the position of a unit in the document hierarchy.
type Level int

const (
	// LevelSegment is a structurally delimited section of a document.
	LevelSegment Level = 1
	// LevelChunk is a semantically coherent retrieval unit inside a segment.
	LevelChunk Level = 2
)

// SegmentID returns the deterministic ID of the ordinal-th segment of a document.
func SegmentID(documentID string, ordinal int) string {
	return unitID(documentID, LevelSegment, ordinal)
}

// ChunkID returns the deterministic ID of the ordinal-th chunk of a document.
// Ordinals run across the whole document in segment order.
func ChunkID(documentID string, ordinal int) string {
	return unitID(documentID, LevelChunk, ordinal)
}

func unitID(documentID string, level Level, ordinal int) string {
	return fmt.Sprintf("%s:%d:%04d", documentID, level, ordinal)
}

// Fingerprint computes a BLAKE2b content fingerprint of a document.
// Identical text and metadata always produce the same fingerprint.
func Fingerprint(doc *Document) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(doc.ID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(doc.PublicationDate.UnixMicro(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(doc.LegalArea))
	h.Write([]byte{0})
	for _, norm := range doc.LegalNorms {
		h.Write([]byte(norm))
		h.Write([]byte{0})
	}
	h.Write([]byte(doc.RawText))
	return hex.EncodeToString(h.Sum(nil))
}

// SectionType classifies the role a segment plays in a legal opinion.
type SectionType int

const (
	// SectionUnclassified is used when no structural evidence was found.
	SectionUnclassified SectionType = iota
	SectionIntroduction
	SectionFactPattern
	SectionLegalQuestion
	SectionLegalAnalysis
	SectionConclusion
)

var sectionTypeNames = [...]string{
	SectionUnclassified:  "unclassified",
	SectionIntroduction:  "introduction",
	SectionFactPattern:   "fact_pattern",
	SectionLegalQuestion: "legal_question",
	SectionLegalAnalysis: "legal_analysis",
	SectionConclusion:    "conclusion",
}

// SectionTypes lists every section type in declaration order.
var SectionTypes = []SectionType{
	SectionUnclassified,
	SectionIntroduction,
	SectionFactPattern,
	SectionLegalQuestion,
	SectionLegalAnalysis,
	SectionConclusion,
}

func (s SectionType) String() string {
	if s < 0 || int(s) >= len(sectionTypeNames) {
		return "SectionType(" + strconv.Itoa(int(s)) + ")"
	}
	return sectionTypeNames[s]
}

// ParseSectionType converts a name produced by String back into a SectionType.
// Hyphenated spellings ("fact-pattern") are accepted as well.
func ParseSectionType(name string) (SectionType, error) {
	for i, n := range sectionTypeNames {
		if n == name || hyphenated(n) == name {
			return SectionType(i), nil
		}
	}
	return SectionUnclassified, fmt.Errorf("%w: %q", ErrInvalidSectionType, name)
}

func hyphenated(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '_' {
			b[i] = '-'
		}
	}
	return string(b)
}

// Document is a legal opinion as delivered by the acquisition step.
// Documents are immutable once ingested.
type Document struct {
	ID              string
	PublicationDate time.Time
	LegalArea       string
	LegalNorms      []string // Citation strings in document order
	RawText         string
}

// Segment is a Level-1 unit. StartChar and EndChar are byte offsets into
// Document.RawText, and Text == RawText[StartChar:EndChar].
type Segment struct {
	ID          string
	DocumentID  string
	SectionType SectionType
	Heading     string
	StartChar   int
	EndChar     int
	Text        string
}

// Chunk is a Level-2 retrieval unit. StartChar and EndChar delimit the span
// from the first to the last of the chunk's sentences inside the document.
// Sentences need not be contiguous: the span of a semantic group may enclose
// sentences of other chunks, and Text joins only the chunk's own sentences.
// For contiguous chunks Text equals the document text of the span.
type Chunk struct {
	ID             string
	SegmentID      string
	DocumentID     string
	Level          Level
	SectionType    SectionType
	StartChar      int
	EndChar        int
	Text           string
	TokenCount     int
	CoherenceScore float64
	LegalNorms     []string
	Keywords       []string
	Embedding      []float32 // Computed once at ingestion; empty until embedded
}

// DocumentRecord is the persisted outcome of ingesting one document.
type DocumentRecord struct {
	ID              string
	Fingerprint     string
	PublicationDate time.Time
	LegalArea       string
	LegalNorms      []string
	Segments        []Segment
	ChunkIDs        []string
	Degraded        bool // Segmentation or clustering had to fall back
	IngestedAt      time.Time
}

// Checkpoint records the progress of a resumable maintenance run over a
// collection. LastID is the last chunk ID that was fully processed.
type Checkpoint struct {
	Processor  string
	Collection string
	LastID     string
	Processed  int
	UpdatedAt  time.Time
}

// LegalNorm is a parsed statutory citation such as "§ 280 Abs. 1 BGB".
type LegalNorm struct {
	Kind       string // "§" or "Art."
	Paragraph  string
	Subsection string // Optional "Abs." value
	Law        string
}

// String renders the citation without the subsection, which is the form
// stored on chunks and used for filtering.
func (n LegalNorm) String() string {
	kind := n.Kind
	if kind == "" {
		kind = "§"
	}
	return kind + " " + n.Paragraph + " " + n.Law
}

// Strategy selects how candidates are retrieved from the vector store.
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyKeyword  Strategy = "keyword"
	StrategyHybrid   Strategy = "hybrid"
)

// ParseStrategy validates a strategy name. The empty string maps to hybrid.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case "":
		return StrategyHybrid, nil
	case StrategySemantic, StrategyKeyword, StrategyHybrid:
		return Strategy(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
}

// SortOrder selects the result ordering. Relevance is the only ordering that
// keeps relevance scores non-increasing, so it is the only one supported.
type SortOrder string

const SortRelevance SortOrder = "relevance"

// Filter restricts retrieval by chunk metadata. Empty fields match anything.
type Filter struct {
	SectionTypes []SectionType
	DocumentIDs  []string
	LegalNorms   []string // Matches when the chunk cites any of these
}

// IsEmpty reports whether the filter matches every chunk.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.SectionTypes) == 0 && len(f.DocumentIDs) == 0 && len(f.LegalNorms) == 0)
}

// Matches reports whether a chunk satisfies the filter.
func (f *Filter) Matches(c *Chunk) bool {
	if f.IsEmpty() {
		return true
	}
	if len(f.SectionTypes) > 0 && !contains(f.SectionTypes, c.SectionType) {
		return false
	}
	if len(f.DocumentIDs) > 0 && !contains(f.DocumentIDs, c.DocumentID) {
		return false
	}
	if len(f.LegalNorms) > 0 {
		for _, norm := range c.LegalNorms {
			if contains(f.LegalNorms, norm) {
				return true
			}
		}
		return false
	}
	return true
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// Query is the enriched, per-request form of a search query.
type Query struct {
	RawText          string
	NormalizedText   string
	ExpandedText     string // NormalizedText plus Expansions; used for embedding
	ExtractedNorms   []LegalNorm
	LegalConcepts    []string
	Keywords         []string // Ranked by in-query frequency
	Expansions       []string
	SuggestedFilters Filter
	Strategy         Strategy
	Limit            int
	MinSimilarity    float64
	Filters          Filter
}

// SearchRequest is the consumer-facing query contract.
type SearchRequest struct {
	Text          string
	Strategy      Strategy
	Limit         int
	MinSimilarity float64
	Filters       Filter
	Sort          SortOrder
}

// ResultMetadata carries the chunk metadata returned with a result.
type ResultMetadata struct {
	SectionType SectionType
	DocumentID  string
	SegmentID   string
	LegalNorms  []string
	Keywords    []string
}

// SearchResult is one ranked chunk.
type SearchResult struct {
	ChunkID         string
	Text            string
	SimilarityScore float64 // In [0,1]
	RelevanceScore  float64 // Fused and bonus-adjusted
	Rank            int     // 1-based
	Metadata        ResultMetadata
	MatchedBy       []Strategy
}

// Aggregations are histograms computed over the returned results.
type Aggregations struct {
	SectionTypes map[string]int
	Documents    map[string]int
	LegalNorms   map[string]int
}

// SearchResponse is produced fresh for every query.
type SearchResponse struct {
	QueryID            string
	Results            []*SearchResult
	TotalFound         int
	AvgSimilarityScore float64
	Aggregations       Aggregations
	QueryAnalysis      *Query
	Degraded           bool
	Warnings           []string
	Took               time.Duration
}
