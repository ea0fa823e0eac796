package utils

import (
	"strings"
	"unicode/utf8"
)

// TruncateRunes returns at most n runes of s. n <= 0 returns s unchanged.
func TruncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Ellipsize shortens s to limit runes, ending in "..." when anything was cut.
// A 60-rune string with limit 50 becomes its first 47 runes plus "...".
func Ellipsize(s string, limit int) string {
	const dots = "..."
	if limit <= len(dots) || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return TruncateRunes(s, limit-len(dots)) + dots
}

// CollapseSpace trims s and replaces every run of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
