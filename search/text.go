package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/lexis/legal"
)

// keywordScore rates how strongly text is about keyword: occurrences at word
// boundaries count twice, occurrences inside longer words once, normalized by
// the number of words and scaled by 10. The result is capped at 1.
func keywordScore(text, keyword string) float64 {
	keyword = legal.Lower(strings.TrimSpace(keyword))
	if keyword == "" {
		return 0
	}
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	lowered := legal.Lower(text)

	weighted := 0
	for offset := 0; ; {
		i := strings.Index(lowered[offset:], keyword)
		if i < 0 {
			break
		}
		start := offset + i
		end := start + len(keyword)
		if atBoundary(lowered, start, end) {
			weighted += 2
		} else {
			weighted++
		}
		offset = end
	}
	return min(1, float64(weighted)/float64(words)*10)
}

// atBoundary reports whether text[start:end] is delimited by non-word runes.
func atBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
