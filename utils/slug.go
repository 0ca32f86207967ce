package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks after canonical decomposition, so
// "Café" becomes "Cafe".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify derives a URL slug from a display name. Apostrophes are dropped
// rather than turned into separators ("Men's" -> "mens"); every other run of
// non-alphanumerics becomes a single hyphen. The result may be empty.
func Slugify(name string) string {
	return keyify(name, '-')
}

// FieldKey derives a stable form-field key from an attribute name
// ("Fabric Type" -> "fabric_type").
func FieldKey(name string) string {
	return keyify(name, '_')
}

func keyify(s string, sep rune) string {
	s = strings.ToLower(foldDiacritics(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		switch {
		case r == '\'' || r == '’':
			continue
		case r == 'đ':
			r = 'd'
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
