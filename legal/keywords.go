package legal

import (
	"slices"
	"unicode/utf8"
)

// MinKeywordLength is the minimum length in characters of a keyword.
const MinKeywordLength = 4

// ExtractKeywords returns the content words of text ranked by frequency,
// ties broken by first occurrence. Stop words, pure numbers and law
// abbreviations are dropped. limit <= 0 returns all keywords.
func ExtractKeywords(text string, limit int) []string {
	type stat struct {
		word  string
		count int
		first int
	}

	var stats []*stat
	index := make(map[string]*stat)
	for i, token := range Tokenize(text) {
		if !isKeyword(token) {
			continue
		}
		if s, ok := index[token]; ok {
			s.count++
			continue
		}
		s := &stat{word: token, count: 1, first: i}
		index[token] = s
		stats = append(stats, s)
	}

	slices.SortStableFunc(stats, func(a, b *stat) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return a.first - b.first
	})

	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	keywords := make([]string, len(stats))
	for i, s := range stats {
		keywords[i] = s.word
	}
	return keywords
}

func isKeyword(token string) bool {
	return utf8.RuneCountInString(token) >= MinKeywordLength &&
		!IsStopWord(token) &&
		!isNumeric(token) &&
		!IsLawAbbreviation(token)
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range Tokenize(text) {
		set[token] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for token := range a {
		if _, ok := b[token]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// IsSubset reports whether every token of a is in b. The empty set is not
// considered a subset of anything.
func IsSubset(a, b map[string]struct{}) bool {
	if len(a) == 0 {
		return false
	}
	for token := range a {
		if _, ok := b[token]; !ok {
			return false
		}
	}
	return true
}
