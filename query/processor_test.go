package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexis/core"
)

func newProcessor(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	p, err := NewProcessor(opts...)
	require.NoError(t, err)
	return p
}

func TestProcess_ScenarioB(t *testing.T) {
	p := newProcessor(t)

	q, err := p.Process("Schadensersatz § 280 BGB")
	require.NoError(t, err)

	require.Len(t, q.ExtractedNorms, 1)
	assert.Equal(t, "BGB", q.ExtractedNorms[0].Law)
	assert.Equal(t, "280", q.ExtractedNorms[0].Paragraph)
	assert.Contains(t, q.LegalConcepts, "schadensersatz")
	assert.Equal(t, []string{"schadensersatz"}, q.Keywords)
	assert.Equal(t, []string{"§ 280 BGB"}, q.SuggestedFilters.LegalNorms)
	assert.Equal(t, core.StrategyHybrid, q.Strategy)
}

func TestProcess_Expansions(t *testing.T) {
	t.Run("related terms appended", func(t *testing.T) {
		p := newProcessor(t)

		q, err := p.Process("Schadensersatz § 280 BGB")
		require.NoError(t, err)

		assert.Equal(t, []string{"pflichtverletzung", "vertretenmüssen"}, q.Expansions,
			"schaden already occurs in the query")
		assert.Equal(t, "Schadensersatz § 280 BGB pflichtverletzung vertretenmüssen", q.ExpandedText)
	})

	t.Run("limited", func(t *testing.T) {
		p := newProcessor(t, WithMaxExpansions(1))

		q, err := p.Process("Schadensersatz § 280 BGB")
		require.NoError(t, err)

		assert.Equal(t, []string{"pflichtverletzung"}, q.Expansions)
	})

	t.Run("disabled", func(t *testing.T) {
		p := newProcessor(t, WithMaxExpansions(0))

		q, err := p.Process("Schadensersatz § 280 BGB")
		require.NoError(t, err)

		assert.Empty(t, q.Expansions)
		assert.Equal(t, q.NormalizedText, q.ExpandedText)
	})

	t.Run("no concepts", func(t *testing.T) {
		p := newProcessor(t)

		q, err := p.Process("Welche Frist gilt hier")
		require.NoError(t, err)

		assert.Empty(t, q.Expansions)
		assert.Equal(t, q.NormalizedText, q.ExpandedText)
	})
}

func TestProcess_Normalization(t *testing.T) {
	p := newProcessor(t)
	raw := "  Schadensersatz\n\t§ 280   BGB "

	q, err := p.Process(raw)
	require.NoError(t, err)

	assert.Equal(t, raw, q.RawText)
	assert.Equal(t, "Schadensersatz § 280 BGB", q.NormalizedText)
}

func TestProcess_Keywords(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name: "ranked by frequency",
			text: "Erbschein Testament Pflichtteil Testament",
			want: []string{"testament", "erbschein", "pflichtteil"},
		},
		{
			name: "stop words and short tokens dropped",
			text: "Ist der Vertrag über das Haus wirksam",
			want: []string{"vertrag", "haus", "wirksam"},
		},
		{
			name:  "limited",
			text:  "Erbschein Testament Pflichtteil Testament",
			limit: 1,
			want:  []string{"testament"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.limit > 0 {
				opts = append(opts, WithMaxKeywords(tt.limit))
			}
			p := newProcessor(t, opts...)

			q, err := p.Process(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Keywords)
		})
	}
}

func TestProcess_SuggestedFilters(t *testing.T) {
	p := newProcessor(t)

	q, err := p.Process("Wann ist ein Testament wirksam")
	require.NoError(t, err)
	assert.True(t, q.SuggestedFilters.IsEmpty())

	q, err = p.Process("Pflichtteilsergänzung nach §§ 2325, 2329 BGB")
	require.NoError(t, err)
	assert.Equal(t, []string{"§ 2325 BGB", "§ 2329 BGB"}, q.SuggestedFilters.LegalNorms)
	assert.True(t, q.Filters.IsEmpty(), "suggestions are never applied automatically")
}

func TestProcess_Validation(t *testing.T) {
	p := newProcessor(t, WithMaxQueryLength(10))

	_, err := p.Process(" \n\t ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = p.Process(strings.Repeat("a", 11))
	assert.ErrorIs(t, err, ErrQueryTooLong)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = p.Process("Testament")
	assert.NoError(t, err)
}

func TestNewProcessor_InvalidOptions(t *testing.T) {
	_, err := NewProcessor(WithMaxQueryLength(0))
	assert.Error(t, err)

	_, err = NewProcessor(WithMaxKeywords(-1))
	assert.Error(t, err)

	_, err = NewProcessor(WithMaxExpansions(-1))
	assert.Error(t, err)
}
