package tui

import (
	"regexp"
	"unicode/utf8"
)

const ellipsis = "..."

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes ANSI escape codes from a string.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// truncate shortens text to maxWidth runes, ending in an ellipsis.
func truncate(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxWidth {
		return text
	}

	if maxWidth <= len(ellipsis) {
		return ellipsis[:maxWidth]
	}
	runes := []rune(text)
	return string(runes[:maxWidth-len(ellipsis)]) + ellipsis
}
