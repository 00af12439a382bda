package output

import (
	"regexp"
	"strings"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape sequences from external data before it is
// written to a terminal or file.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Clean strips ANSI sequences and remaining control characters (including
// line breaks) so a registry- or certificate-supplied value stays on one row.
func Clean(s string) string {
	s = StripANSI(s)
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s))
}
