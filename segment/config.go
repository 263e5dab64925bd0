package segment

import (
	"errors"
	"log/slog"
)

// Config holds the thresholds of the segmentation cascade and its
// post-processing passes. Lengths are measured in characters.
type Config struct {
	// MaxHeadingLength rejects heading candidates with longer titles.
	MaxHeadingLength int `yaml:"max_heading_length"`

	// MinKeywordBodyLength is the minimum body length of a keyword-anchored heading.
	MinKeywordBodyLength int `yaml:"min_keyword_body_length"`

	// MinCitationAnchors is the number of citation lines required before
	// citation-anchored segmentation is used.
	MinCitationAnchors int `yaml:"min_citation_anchors"`

	// MinSegmentLength merges shorter segments into their neighbor.
	MinSegmentLength int `yaml:"min_segment_length"`

	// ShortSegmentLength and ShortSegmentRatio trigger the heading-vocabulary
	// merge pass when more than the ratio of segments are still short.
	ShortSegmentLength int     `yaml:"short_segment_length"`
	ShortSegmentRatio  float64 `yaml:"short_segment_ratio"`

	// HeadingOverlap is the Jaccard similarity of heading tokens at which
	// adjacent segments are merged by that pass.
	HeadingOverlap float64 `yaml:"heading_overlap"`

	// RelabelMinHits and RelabelDominance control body relabeling: the best
	// section type needs at least RelabelMinHits indicator hits and
	// RelabelDominance times the hits of the current label.
	RelabelMinHits   int     `yaml:"relabel_min_hits"`
	RelabelDominance float64 `yaml:"relabel_dominance"`
}

// DefaultConfig returns the default segmentation thresholds.
func DefaultConfig() Config {
	return Config{
		MaxHeadingLength:     80,
		MinKeywordBodyLength: 50,
		MinCitationAnchors:   2,
		MinSegmentLength:     50,
		ShortSegmentLength:   200,
		ShortSegmentRatio:    0.4,
		HeadingOverlap:       0.5,
		RelabelMinHits:       2,
		RelabelDominance:     2,
	}
}

// Validate checks the thresholds for consistency.
func (c Config) Validate() error {
	if c.MaxHeadingLength < 1 {
		return errors.New("segment config: MaxHeadingLength must be positive")
	}
	if c.MinCitationAnchors < 1 {
		return errors.New("segment config: MinCitationAnchors must be positive")
	}
	if c.MinSegmentLength < 0 || c.ShortSegmentLength < 0 || c.MinKeywordBodyLength < 0 {
		return errors.New("segment config: lengths must not be negative")
	}
	if c.ShortSegmentRatio < 0 || c.ShortSegmentRatio > 1 {
		return errors.New("segment config: ShortSegmentRatio must be between 0 and 1")
	}
	if c.HeadingOverlap <= 0 || c.HeadingOverlap > 1 {
		return errors.New("segment config: HeadingOverlap must be in (0, 1]")
	}
	if c.RelabelMinHits < 1 || c.RelabelDominance < 1 {
		return errors.New("segment config: relabel thresholds must be at least 1")
	}
	return nil
}

// Option configures a Segmenter.
type Option func(*Segmenter) error

// WithConfig replaces the default thresholds.
func WithConfig(cfg Config) Option {
	return func(s *Segmenter) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		s.cfg = cfg
		return nil
	}
}

// WithStrategies replaces the default cascade. Strategies are tried in order.
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Segmenter) error {
		if len(strategies) == 0 {
			return ErrNoStrategies
		}
		s.strategies = strategies
		return nil
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Segmenter) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}
