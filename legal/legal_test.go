package legal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lexis/core"
)

func TestExtractNorms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []core.LegalNorm
	}{
		{
			name: "single section",
			text: "Schadensersatz § 280 BGB",
			want: []core.LegalNorm{{Kind: "§", Paragraph: "280", Law: "BGB"}},
		},
		{
			name: "list citation",
			text: "Ansprüche aus §§ 280, 281 BGB",
			want: []core.LegalNorm{
				{Kind: "§", Paragraph: "280", Law: "BGB"},
				{Kind: "§", Paragraph: "281", Law: "BGB"},
			},
		},
		{
			name: "subsection",
			text: "gemäß § 311b Abs. 1 BGB",
			want: []core.LegalNorm{{Kind: "§", Paragraph: "311b", Subsection: "1", Law: "BGB"}},
		},
		{
			name: "article",
			text: "Art. 14 GG schützt das Eigentum",
			want: []core.LegalNorm{{Kind: "Art.", Paragraph: "14", Law: "GG"}},
		},
		{
			name: "bare number",
			text: "nach 823 BGB",
			want: []core.LegalNorm{{Kind: "§", Paragraph: "823", Law: "BGB"}},
		},
		{
			name: "duplicates removed in order",
			text: "§ 15 GmbHG und § 2 GmbHG, ferner § 15 GmbHG",
			want: []core.LegalNorm{
				{Kind: "§", Paragraph: "15", Law: "GmbHG"},
				{Kind: "§", Paragraph: "2", Law: "GmbHG"},
			},
		},
		{
			name: "unknown law ignored",
			text: "§ 12 XYZ",
			want: nil,
		},
		{
			name: "no citation",
			text: "Der Käufer verlangt Rücktritt.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractNorms(tt.text))
		})
	}
}

func TestExtractNorms_SubsectionNumberNotBare(t *testing.T) {
	norms := ExtractNorms("§ 280 Abs. 1 BGB")
	require.Len(t, norms, 1)
	assert.Equal(t, "280", norms[0].Paragraph)
	assert.Equal(t, "1", norms[0].Subsection)
}

func TestNormStrings(t *testing.T) {
	norms := []core.LegalNorm{
		{Kind: "§", Paragraph: "280", Subsection: "1", Law: "BGB"},
		{Kind: "§", Paragraph: "280", Law: "BGB"},
		{Kind: "Art.", Paragraph: "3", Law: "GG"},
	}
	assert.Equal(t, []string{"§ 280 BGB", "Art. 3 GG"}, NormStrings(norms))
	assert.Nil(t, NormStrings(nil))
}

func TestIsLawAbbreviation(t *testing.T) {
	assert.True(t, IsLawAbbreviation("BGB"))
	assert.True(t, IsLawAbbreviation("gmbhg"))
	assert.False(t, IsLawAbbreviation("Vertrag"))
}

func TestTagConcepts(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains []string
		absent   []string
	}{
		{
			name:     "schadensersatz with citation",
			text:     "Schadensersatz § 280 BGB",
			contains: []string{"schadensersatz"},
			absent:   []string{"erbrecht"},
		},
		{
			name:     "case insensitive substring",
			text:     "Das TESTAMENT des Erblassers",
			contains: []string{"erbrecht"},
		},
		{
			name:     "decomposed umlaut",
			text:     "Gewa\u0308hrleistung beim Kauf",
			contains: []string{"gewährleistung"},
		},
		{
			name:   "nothing",
			text:   "Guten Tag",
			absent: []string{"schadensersatz", "vertragsrecht"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := TagConcepts(tt.text)
			for _, c := range tt.contains {
				assert.Contains(t, tags, c)
			}
			for _, c := range tt.absent {
				assert.NotContains(t, tags, c)
			}
		})
	}
}

func TestExpansions(t *testing.T) {
	got := Expansions([]string{"schadensersatz"}, "Schadensersatz wegen Pflichtverletzung", 0)
	assert.NotContains(t, got, "pflichtverletzung", "terms already present are not expanded")
	assert.Contains(t, got, "vertretenmüssen")

	limited := Expansions([]string{"schadensersatz", "erbrecht"}, "", 2)
	assert.Len(t, limited, 2)

	assert.Empty(t, Expansions([]string{"unknown"}, "", 0))
}

func TestExtractKeywords(t *testing.T) {
	t.Run("scenario query", func(t *testing.T) {
		assert.Equal(t, []string{"schadensersatz"}, ExtractKeywords("Schadensersatz § 280 BGB", 0))
	})

	t.Run("ranked by frequency then first occurrence", func(t *testing.T) {
		text := "Kaufvertrag über ein Grundstück. Das Grundstück ist belastet, der Kaufvertrag nichtig? Grundstück!"
		got := ExtractKeywords(text, 0)
		require.GreaterOrEqual(t, len(got), 3)
		assert.Equal(t, []string{"grundstück", "kaufvertrag", "belastet"}, got[:3])
	})

	t.Run("stop words and short tokens removed", func(t *testing.T) {
		got := ExtractKeywords("Ist die Ehe nach dem Recht wirksam oder nicht", 0)
		assert.Equal(t, []string{"recht", "wirksam"}, got)
	})

	t.Run("limit", func(t *testing.T) {
		got := ExtractKeywords("alpha beta gamma delta epsilon", 2)
		assert.Equal(t, []string{"alpha", "beta"}, got)
	})
}

func TestNormalizeAndLower(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a \n\t b   c "))
	assert.Equal(t, "über", Lower("ÜBER"))
	assert.Equal(t, "\u00e4", Normalize("a\u0308"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"schadensersatz", "280", "bgb"}, Tokenize("Schadensersatz § 280 BGB"))
	assert.Empty(t, Tokenize(" ,.;"))
}

func TestJaccardAndSubset(t *testing.T) {
	a := TokenSet("Rechtliche Würdigung")
	b := TokenSet("Würdigung")
	assert.InDelta(t, 0.5, Jaccard(a, b), 1e-9)
	assert.True(t, IsSubset(b, a))
	assert.False(t, IsSubset(a, b))
	assert.Equal(t, 0.0, Jaccard(TokenSet(""), TokenSet("")))
	assert.False(t, IsSubset(TokenSet(""), a))
}
