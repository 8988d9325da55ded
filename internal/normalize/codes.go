package normalize

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D+`)

// DigitsOnly strips every non-digit character. NDCs are joined on this form.
func DigitsOnly(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// UpperTrim trims whitespace and uppercases, used for indicator codes.
func UpperTrim(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
