package textutil

import "strings"

// Normalize lowercases s and drops every character outside [a-z0-9].
// Letters with diacritics and other non-ASCII runes are removed, not folded.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}

// MatchNormalized reports whether either normalized string contains the
// other. The empty string is contained in every string.
func MatchNormalized(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Matches normalizes both sides and applies MatchNormalized.
func Matches(a, b string) bool {
	return MatchNormalized(Normalize(a), Normalize(b))
}
