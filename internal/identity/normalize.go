// Package identity holds the one normalization applied to identity keys at ingestion.
// Every adapter goes through it so sources cannot disagree on what a key looks like.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// nanpLength is the length of a national North American number without country code
const nanpLength = 10

// CanonicalEmail returns the join key for an email address: trimmed and lowercased.
// Compatibility forms are not folded, so the key matches the stores' LOWER(email).
// Empty input stays empty; callers drop records without a key.
func CanonicalEmail(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	// Caser is stateful, so one per call
	return cases.Lower(language.Und).String(s)
}

// NormalizePhone strips formatting from a phone number so numbers from different
// sources compare equal. Whitespace, dashes of any kind, parentheses and plus signs
// are removed; a bare 10-digit national number gets the "1" country code.
func NormalizePhone(raw string) string {
	s := norm.NFKC.String(raw)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.Is(unicode.Pd, r) || r == '(' || r == ')' || r == '+' {
			continue
		}
		b.WriteRune(r)
	}

	out := b.String()
	if len(out) == nanpLength && isDigits(out) {
		return "1" + out
	}
	return out
}

// SamePhone reports whether two raw numbers normalize to the same non-empty value
func SamePhone(a, b string) bool {
	na := NormalizePhone(a)
	return na != "" && na == NormalizePhone(b)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
