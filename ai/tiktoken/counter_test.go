package tiktoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounter_CountTokens(t *testing.T) {
	counter, err := NewCounter("")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty string", text: "", expected: 0},
		{name: "simple english", text: "Hello, World!", expected: 4},
		{name: "longer text", text: "This is a test sentence with multiple words.", expected: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, counter.CountTokens(tt.text))
		})
	}

	assert.Greater(t, counter.CountTokens("Schadensersatz gemäß § 280 Abs. 1 BGB"), 5)
}

func TestNewCounter_UnknownEncoding(t *testing.T) {
	_, err := NewCounter("no_such_encoding")
	assert.Error(t, err)
}
