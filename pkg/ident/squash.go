package ident

import (
	"strings"
	"unicode"
)

// Squash normalizes a title or name for equality-based duplicate
// matching: the string is case-folded and every rune that is not a letter
// or a digit (punctuation, whitespace, symbols) is dropped.
//
// "Foo   Bar!" and "foo bar" squash to the same value, which is why two
// sources scraping the same paper independently produce the same HashID.
func Squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SquashAll squashes every string of a list, keeping the list order.
func SquashAll(ss []string) []string {
	res := make([]string, len(ss))
	for i, s := range ss {
		res[i] = Squash(s)
	}
	return res
}
