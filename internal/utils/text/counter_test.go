package text_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-notebook/internal/utils/text"
)

func TestCountRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "ASCII text", input: "hello world", expected: 11},
		{name: "Japanese", input: "こんにちは世界", expected: 7},
		{name: "Chinese", input: "人工智能", expected: 4},
		{name: "mixed", input: "test123テスト", expected: 10},
		{name: "emoji", input: "Hello👋", expected: 6},
		{name: "flag emoji is two runes", input: "🇯🇵", expected: 2},
		{name: "empty", input: "", expected: 0},
		{name: "whitespace", input: " \t\n ", expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, text.CountRunes(tt.input))
		})
	}
}

func TestCountRunes_NotBytes(t *testing.T) {
	s := strings.Repeat("字", 100)
	assert.Equal(t, 300, len(s))
	assert.Equal(t, 100, text.CountRunes(s))
}

func BenchmarkCountRunes(b *testing.B) {
	input := strings.Repeat("機械学習 machine learning ", 200)
	for i := 0; i < b.N; i++ {
		text.CountRunes(input)
	}
}
