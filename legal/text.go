package legal

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize converts text to NFC and collapses runs of whitespace, so that
// decomposed umlauts and line-wrapped input compare equal to typed queries.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// Lower lowercases text with German casing rules.
// A Caser holds state, so one is created per call.
func Lower(text string) string {
	return cases.Lower(language.German).String(text)
}

// Tokenize splits text into lowercase word tokens. Letters and digits form
// words; everything else separates them.
func Tokenize(text string) []string {
	return strings.FieldsFunc(Lower(norm.NFC.String(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// isNumeric reports whether a token consists of digits only.
func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return token != ""
}
