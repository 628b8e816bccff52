package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugger_Slugify(t *testing.T) {
	slugger := NewSlugger()

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "first four words hyphenated",
			content:  "golden sunrise over mountains --ar 16:9",
			expected: "golden-sunrise-over-mountains",
		},
		{
			name:     "long content truncated to four words",
			content:  "a very long prompt about misty alpine lakes",
			expected: "a-very-long-prompt",
		},
		{
			name:     "imagine prefix stripped",
			content:  "/imagine prompt:calm lake reflection at dawn --s 20",
			expected: "calm-lake-reflection-at",
		},
		{
			name:     "prefix without colon stripped",
			content:  "imagine prompt calm lake reflection",
			expected: "calm-lake-reflection",
		},
		{
			name:     "mixed case prefix",
			content:  "/Imagine Prompt: Winter Night",
			expected: "winter-night",
		},
		{
			name:     "punctuation removed",
			content:  "a cat, a dog & a fox!",
			expected: "a-cat-a-dog",
		},
		{
			name:     "empty content falls back",
			content:  "",
			expected: "image",
		},
		{
			name:     "parameter block only falls back",
			content:  "--ar 16:9 --s 20",
			expected: "image",
		},
		{
			// Hyphens are in the allowed class, so the word-joining hyphen
			// survives even when every word sanitizes away.
			name:     "punctuation-only content keeps the joining hyphen",
			content:  "!!! ???",
			expected: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugger.Slugify(tt.content))
		})
	}
}

func TestSlugger_CategorySlug(t *testing.T) {
	slugger := NewSlugger()

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "single word", text: "Nature", expected: "nature"},
		{name: "multi word trimmed to four", text: "Business Teamwork In Modern Office", expected: "business-teamwork-in-modern"},
		{name: "punctuation removed", text: "Food & Drink", expected: "food-drink"},
		{name: "empty falls back", text: "", expected: "category"},
		{name: "whitespace falls back", text: "   ", expected: "category"},
		{name: "no prefix stripping for categories", text: "imagine prompt studio", expected: "imagine-prompt-studio"},
		{name: "no parameter cut for categories", text: "tech--ware", expected: "tech--ware"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugger.CategorySlug(tt.text))
		})
	}
}
