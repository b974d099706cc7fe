package titles

import (
	"strings"
	"unicode"
)

// Normalize converts a display title into the canonical form used for
// deduplication and match comparison: lowercase, word characters and spaces
// only, single-spaced, trimmed. It is pure and idempotent, so normalizing an
// already-normalized title is a no-op.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			result.WriteRune(r)
		case unicode.IsSpace(r):
			result.WriteRune(' ')
		}
	}

	// Collapse runs of whitespace into single spaces
	return strings.Join(strings.Fields(result.String()), " ")
}
