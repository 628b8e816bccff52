// Package catalog owns the prompt-partition contract between the producer
// and the ingest session: the record layout under <date>/<category>, the
// per-date correlation index built from it, the canonical prompt prefix,
// and the fallback slug of the message text.
package catalog

import (
	"regexp"
	"strings"
	"unicode"
)

// promptPrefixes are the spellings a prompt echo may start with. Compared
// lowercase, stripped from the original text.
var promptPrefixes = []string{
	"/imagine prompt:",
	"/imagine prompt",
	"imagine prompt:",
	"imagine prompt",
}

type Slugger struct {
	sanitizer *regexp.Regexp
}

func NewSlugger() *Slugger {
	return &Slugger{
		sanitizer: regexp.MustCompile(`[^a-z0-9-]+`),
	}
}

// Slugify builds the fallback category slug from message content: prompt
// prefix stripped, parameter block cut, first four words joined with
// hyphens, anything outside [a-z0-9-] removed. Empty input or an empty
// result slugs to "image".
func (s *Slugger) Slugify(content string) string {
	if content == "" {
		return "image"
	}

	text := strings.TrimSpace(content)
	low := strings.ToLower(text)
	for _, prefix := range promptPrefixes {
		if strings.HasPrefix(low, prefix) {
			text = strings.TrimLeftFunc(text[len(prefix):], unicode.IsSpace)
			break
		}
	}

	if idx := strings.Index(text, "--"); idx >= 0 {
		text = text[:idx]
	}

	return s.shorten(text, "image")
}

// CategorySlug normalizes a category name into the partition directory name
// the producer lays out and the index maps ids to. Unlike Slugify it keeps
// the text as-is apart from normalization; empty input slugs to "category".
func (s *Slugger) CategorySlug(text string) string {
	if text == "" {
		return "category"
	}
	return s.shorten(text, "category")
}

func (s *Slugger) shorten(text, fallback string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(words) == 0 {
		return fallback
	}
	if len(words) > 4 {
		words = words[:4]
	}

	slug := s.sanitizer.ReplaceAllString(strings.Join(words, "-"), "")
	if slug == "" {
		return fallback
	}
	return slug
}
