package extractor

import "strings"

// Normalize strips every character outside printable ASCII (0x20-0x7E)
// when stripNonASCII is set, and returns text unchanged otherwise.
func Normalize(text string, stripNonASCII bool) string {
	if !stripNonASCII {
		return text
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E {
			return -1
		}
		return r
	}, text)
}
