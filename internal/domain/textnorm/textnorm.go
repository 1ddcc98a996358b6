// Package textnorm canonicalizes item keys and labels before comparison.
//
// Normalization lower-cases the text, decomposes it (NFKD) and drops every
// combining mark (nonspacing, spacing or enclosing), so "Descripción" and
// "descripcion" compare equal.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxPasses bounds the fixed-point loop in Normalize. Compatibility
// decomposition can surface upper-case letters (e.g. U+210C), which a second
// lower-casing pass folds; nothing in Unicode needs more than two.
const maxPasses = 4

// Normalize lower-cases s and strips its diacritical marks. The result is
// stable: Normalize(Normalize(s)) == Normalize(s). Invalid UTF-8 is returned
// unchanged.
func Normalize(s string) string {
	if s == "" || !utf8.ValidString(s) {
		return s
	}
	cur := s
	for i := 0; i < maxPasses; i++ {
		next := fold(cur)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

// Value normalizes v when it is a string and returns any other value as is.
func Value(v any) any {
	if s, ok := v.(string); ok {
		return Normalize(s)
	}
	return v
}

func fold(s string) string {
	lowered := strings.ToLower(s)
	// A transformer chain keeps state, so build one per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.M)))
	out, _, err := transform.String(t, lowered)
	if err != nil {
		return lowered
	}
	return out
}
