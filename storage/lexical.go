package storage

import (
	"github.com/poiesic/lexis/legal"
)

// QueryTerms returns the distinct content tokens of a query, in order of
// first occurrence. Stop words are dropped unless nothing else remains.
func QueryTerms(text string) []string {
	var terms, all []string
	seen := make(map[string]struct{})
	for _, token := range legal.Tokenize(text) {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		all = append(all, token)
		if !legal.IsStopWord(token) {
			terms = append(terms, token)
		}
	}
	if len(terms) == 0 {
		return all
	}
	return terms
}

// LexicalDistance returns 1 minus the fraction of terms present in text.
// ok is false when no term occurs at all.
func LexicalDistance(terms []string, text string) (distance float64, ok bool) {
	if len(terms) == 0 {
		return 0, false
	}
	tokens := legal.TokenSet(text)
	matched := 0
	for _, term := range terms {
		if _, hit := tokens[term]; hit {
			matched++
		}
	}
	if matched == 0 {
		return 0, false
	}
	return 1 - float64(matched)/float64(len(terms)), true
}
