package report

import (
	"strings"
)

// SuggestedFilename derives the output filename from the inspection address:
// uppercased, filesystem-hostile characters stripped, interior whitespace
// collapsed to single spaces.
func SuggestedFilename(address string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r', '\t':
			return ' '
		}
		return r
	}, address)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.ToUpper(cleaned)
	if cleaned == "" {
		cleaned = "REPORT"
	}
	return cleaned + ".pdf"
}
