package stream

import "unicode/utf8"

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Truncate cuts s to at most n Unicode characters, appending Ellipsis when
// anything was removed. It never splits a multi-byte character.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for idx := range s {
		if i == n {
			return s[:idx] + Ellipsis
		}
		i++
	}
	return s
}
