package validation

import (
	"strings"
	"unicode"
)

// MaxTermLength caps history search queries.
const MaxTermLength = 256

// SanitizeTerm normalises a history search query: it trims the input, turns
// control characters into spaces, collapses runs of whitespace and caps the
// length. An empty result means the input was blank.
func SanitizeTerm(input string) string {
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)

	input = strings.Join(strings.Fields(input), " ")

	if r := []rune(input); len(r) > MaxTermLength {
		input = strings.TrimSpace(string(r[:MaxTermLength]))
	}

	return input
}
