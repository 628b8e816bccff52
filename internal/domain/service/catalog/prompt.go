package catalog

import (
	"strings"
	"unicode"
)

// NormalizePrompt rewrites a prompt so it starts with exactly
// "/imagine prompt:" and nothing between the colon and the content. Any of
// the accepted prefix spellings is folded into the canonical one; a bare
// prompt gets the prefix added. This is the producer-side counterpart of the
// prefix stripping Slugify does on arriving echoes.
func NormalizePrompt(prompt string) string {
	s := strings.TrimSpace(prompt)
	low := strings.ToLower(s)

	for _, prefix := range promptPrefixes {
		if !strings.HasPrefix(low, prefix) {
			continue
		}
		rest := s[len(prefix):]
		if !strings.HasSuffix(prefix, ":") {
			rest = strings.TrimLeft(rest, ": ")
		}
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		return "/imagine prompt:" + rest
	}
	return "/imagine prompt:" + s
}
