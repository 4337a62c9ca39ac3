package util

import (
	"fmt"
	"unicode/utf8"
)

// DefaultLogMaxLen is the default number of characters of source code kept in log lines.
const DefaultLogMaxLen = 120

// TruncateRunes shortens s to at most maxLen characters for log output.
// Cutting on rune boundaries keeps multi-byte identifiers intact.
func TruncateRunes(s string, maxLen int) string {
	n := utf8.RuneCountInString(s)
	if n <= maxLen {
		return s
	}
	cut := 0
	for i := range s {
		if cut == maxLen {
			return s[:i] + fmt.Sprintf("... [truncated, %d chars total]", n)
		}
		cut++
	}
	return s
}

// Preview is TruncateRunes with DefaultLogMaxLen and newlines flattened,
// so a snippet stays on one log line.
func Preview(s string) string {
	flat := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		flat = append(flat, r)
	}
	return TruncateRunes(string(flat), DefaultLogMaxLen)
}

// RuneLen reports the length of s in characters, which is how input limits are measured.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
