// utils/valid.go
package utils

import (
	"strings"
	"unicode"
)

// NormalizeName trims the input, removes control characters and collapses
// internal whitespace runs to a single space.
func NormalizeName(input string) string {
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
	return strings.Join(strings.Fields(input), " ")
}

// NormalizeValues normalizes every entry, drops empties and duplicates, and
// keeps first-seen order. The result is never nil.
func NormalizeValues(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		v := NormalizeName(in)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
