package selector

import (
	"fmt"
	"math"

	"github.com/poiesic/lexis/core"
)

// Weights are the multi-signal score weights.
type Weights struct {
	Similarity float64 `yaml:"similarity"`
	Section    float64 `yaml:"section"`
	Norm       float64 `yaml:"norm"`
	Keyword    float64 `yaml:"keyword"`
}

// Config holds the selection thresholds.
type Config struct {
	// MaxTokens is the token budget of one selection.
	MaxTokens int `yaml:"max_tokens"`
	// DiversityFactor d rejects a chunk whose similarity to any selected
	// chunk is >= 1-d.
	DiversityFactor float64 `yaml:"diversity_factor"`
	// MaxChunks caps the number of selected chunks. Zero means no cap.
	MaxChunks int     `yaml:"max_chunks"`
	Weights   Weights `yaml:"weights"`
}

// DefaultConfig returns the default selection settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:       2000,
		DiversityFactor: 0.15,
		Weights: Weights{
			Similarity: 0.6,
			Section:    0.15,
			Norm:       0.15,
			Keyword:    0.1,
		},
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidConfig, c.MaxTokens)
	}
	if c.DiversityFactor < 0 || c.DiversityFactor > 1 {
		return fmt.Errorf("%w: diversity factor must be in [0, 1], got %g", ErrInvalidConfig, c.DiversityFactor)
	}
	if c.MaxChunks < 0 {
		return fmt.Errorf("%w: max chunks cannot be negative, got %d", ErrInvalidConfig, c.MaxChunks)
	}
	w := c.Weights
	for _, v := range []float64{w.Similarity, w.Section, w.Norm, w.Keyword} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: weights cannot be negative", ErrInvalidConfig)
		}
	}
	if w.Similarity+w.Section+w.Norm+w.Keyword == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalidConfig)
	}
	return nil
}

// sectionPriors rate how useful a section type is as answer context.
var sectionPriors = map[core.SectionType]float64{
	core.SectionLegalAnalysis: 1.0,
	core.SectionConclusion:    0.8,
	core.SectionLegalQuestion: 0.5,
	core.SectionFactPattern:   0.4,
	core.SectionUnclassified:  0.3,
	core.SectionIntroduction:  0.2,
}

// sectionPrior returns the prior of a section type for a query. Queries
// without citations or legal concepts usually ask about facts, so fact
// patterns rank as high as conclusions for them.
func sectionPrior(q *core.Query, st core.SectionType) float64 {
	prior := sectionPriors[st]
	if st == core.SectionFactPattern && len(q.ExtractedNorms) == 0 && len(q.LegalConcepts) == 0 {
		prior = sectionPriors[core.SectionConclusion]
	}
	return prior
}
