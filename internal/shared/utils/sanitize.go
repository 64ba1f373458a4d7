package utils

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxErrorTextLength bounds text taken from an upstream error body
const MaxErrorTextLength = 200

var strictPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// ErrorText turns an upstream error body into one line of plain text. Gateways
// answer with HTML pages, so markup is dropped when the body looks like HTML.
func ErrorText(body []byte) string {
	s := string(body)
	if looksLikeHTML(s) {
		s = html.UnescapeString(strictPolicy.Sanitize(s))
	}
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > MaxErrorTextLength {
		s = string([]rune(s)[:MaxErrorTextLength]) + "..."
	}
	return s
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "<!doctype html") ||
		strings.HasPrefix(lower, "<html") ||
		strings.Contains(lower, "</")
}
