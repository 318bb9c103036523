package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minQueryRunes = 3
	maxQueryRunes = 500
)

// Sanitize trims and normalises a raw query, stripping characters that
// have no business in a free-text question (control characters, angle
// brackets, backslashes). Returns the sanitized text or a validation
// error; emptiness is checked before anything else, so a query that is
// both empty and off-topic is always rejected for emptiness.
func Sanitize(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", NewValidationError("query", raw, ErrEmptyQuery)
	}
	if utf8.RuneCountInString(text) > maxQueryRunes {
		return "", NewValidationError("query", text[:32]+"...", ErrQueryTooLong)
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsControl(r):
			b.WriteByte(' ')
		case r == '<' || r == '>' || r == '\\' || r == '`' || r == '{' || r == '}':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	text = strings.Join(strings.Fields(b.String()), " ")

	if utf8.RuneCountInString(text) < minQueryRunes {
		return "", NewValidationError("query", text, ErrQueryTooShort)
	}
	return text, nil
}

// NormalizeQuery produces the canonical form used for cache keys:
// lowercased, whitespace collapsed, trailing punctuation dropped.
// Deliberately has no time or session component, so identical queries
// from different sessions share a cache entry.
func NormalizeQuery(sanitized string) string {
	s := strings.ToLower(strings.TrimSpace(sanitized))
	s = strings.TrimRight(s, "?!. ")
	return strings.Join(strings.Fields(s), " ")
}
