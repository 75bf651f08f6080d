// Package sanitize cleans user-supplied free text before it is stored.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripHTML removes tags, decodes entities and strips again so encoded tags
// cannot survive the round trip.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = html.UnescapeString(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips markup and collapses runs of whitespace to one space. The
// result is in Unicode NFC.
func Text(s string) string {
	return whitespaceRegex.ReplaceAllString(norm.NFC.String(StripHTML(s)), " ")
}

// Email trims and lowercases an address. Format is not checked here.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
