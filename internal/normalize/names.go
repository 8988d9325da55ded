package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// CleanText trims surrounding whitespace. Missing values are the empty string.
func CleanText(s string) string {
	return strings.TrimSpace(s)
}

// HeaderKey lowercases, collapses whitespace, and trims a column header.
func HeaderKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return multiSpace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

var unsafeFilename = regexp.MustCompile(`[\\/*?:"<>|]`)

// SafeFilename replaces characters that are unsafe in file names with "_".
func SafeFilename(s string) string {
	return unsafeFilename.ReplaceAllString(s, "_")
}
