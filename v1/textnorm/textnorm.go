package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the comparison form of s: diacritics stripped, lower-cased,
// "&" spelled out as "and", whitespace collapsed to single spaces.
//
//	Fold("Pokémon  Mario & Luigi") == "pokemon mario and luigi"
func Fold(s string) string {
	stripped, _, err := transform.String(stripMarks(), s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(stripped)
	stripped = strings.ReplaceAll(stripped, "&", " and ")
	return strings.Join(strings.Fields(stripped), " ")
}

// Slug turns a title into the hyphen-separated slug form used by the
// external catalog. Slug is idempotent: Slug(Slug(s)) == Slug(s).
//
//	Slug("Mario & Luigi: Superstar Saga") == "mario-and-luigi-superstar-saga"
//	Slug("Disney+ @ Home") == "disney-plus-at-home"
func Slug(s string) string {
	folded := Fold(s)
	folded = strings.NewReplacer("+", " plus ", "@", " at ", "'", "", "’", "").Replace(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if isSlugRune(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// IsSlug reports whether s is already in slug form.
func IsSlug(s string) bool {
	return s != "" && Slug(s) == s
}

func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// stripMarks builds a fresh chain per call; transform.Transformer values
// keep state and are not safe for concurrent use.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
