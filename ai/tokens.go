package ai

import "unicode/utf8"

// ApproxTokenCounter estimates tokens as one per four characters. It is used
// when no tokenizer encoding is available.
type ApproxTokenCounter struct{}

var _ TokenCounter = ApproxTokenCounter{}

func (ApproxTokenCounter) CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
