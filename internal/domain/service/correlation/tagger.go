// Package correlation implements the tag codec that ties a chat message
// back to the prompt that produced it. Outgoing prompts carry a short
// bracketed id, incoming messages echo it, and both sides meet here.
package correlation

import (
	"regexp"
	"strings"
	"unicode"
)

// Tag wire format: [av:<hex-id>], id at least 4 hex chars, case-insensitive
// on read, lowercase on write.
type Tagger struct {
	extractPattern *regexp.Regexp
	stripPattern   *regexp.Regexp
}

func NewTagger() *Tagger {
	return &Tagger{
		extractPattern: regexp.MustCompile(`(?i)\[av:([0-9a-f]{4,})\]`),
		stripPattern:   regexp.MustCompile(`\[av:[^\]]+\]`),
	}
}

// Attach inserts the tag for id into prompt, immediately before the first
// `--` parameter block when one is present, otherwise at the end. Attaching
// an id the text already carries returns the text unchanged.
func (t *Tagger) Attach(prompt, id string) string {
	tag := " [av:" + id + "]"
	if strings.Contains(prompt, "[av:"+id+"]") {
		return prompt
	}

	s := strings.TrimRightFunc(prompt, unicode.IsSpace)
	if idx := strings.Index(s, "--"); idx >= 0 {
		base := strings.TrimRightFunc(s[:idx], unicode.IsSpace)
		rest := strings.TrimLeftFunc(s[idx+2:], unicode.IsSpace)
		return base + tag + " --" + rest
	}
	return s + tag
}

// Extract returns the first embedded correlation id, lowercased, or false
// when the text carries none.
func (t *Tagger) Extract(text string) (string, bool) {
	m := t.extractPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// StripTags removes every [av:...] occurrence from the text.
func (t *Tagger) StripTags(text string) string {
	return t.stripPattern.ReplaceAllString(text, "")
}
