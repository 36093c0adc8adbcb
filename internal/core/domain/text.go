package domain

import (
	"strings"
	"unicode/utf8"
)

// NormalizeText collapses every run of whitespace to a single space
// and trims both ends.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CharLen returns the length of s in characters (code points).
func CharLen(s string) int {
	return utf8.RuneCountInString(s)
}
