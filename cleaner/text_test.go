package cleaner

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces and tabs", "a  \t b", "a b"},
		{"trims line edges", "  first  \n   second  ", "first\nsecond"},
		{"three newlines become two", "a\n\n\n\nb", "a\n\nb"},
		{"keeps double newline", "a\n\nb", "a\n\nb"},
		{"windows line endings", "a\r\n\r\n\r\nb", "a\n\nb"},
		{"blank lines with spaces", "a\n   \n  \n \nb", "a\n\nb"},
		{"empty", "   \n\n  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keeps indented code", "Intro\n\n    code line\n        nested", "Intro\n\n    code line\n        nested"},
		{"keeps nested list", "- a\n  - b\n    - c", "- a\n  - b\n    - c"},
		{"keeps hard break", "line one  \nline two", "line one  \nline two"},
		{"keeps leading indentation", "\n\n    first", "    first"},
		{"three newlines become two", "a\n\n\n\nb", "a\n\nb"},
		{"blank lines with spaces", "a\n   \n \t\n\nb", "a\n\nb"},
		{"windows line endings", "a\r\n\r\n\r\nb", "a\n\nb"},
		{"empty", "  \n\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMarkdown(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "hello", Truncate("hello", 0))

	// Multi-byte runes are never split.
	s := strings.Repeat("é", 10)
	got := Truncate(s, 4)
	assert.Equal(t, 4, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))

	// Trailing whitespace at the cut is dropped.
	assert.Equal(t, "ab", Truncate("ab cd", 3))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 3, EstimateTokens("123456789"))
}
