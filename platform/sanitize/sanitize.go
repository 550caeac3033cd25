// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex  = regexp.MustCompile(`<[^>]*>`)
	entityDecoder = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
	)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityDecoder.Replace(result)
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Line sanitizes a single-line value such as a contact name or service
// label: HTML is stripped and runs of whitespace (including newlines)
// collapse to one space.
func Line(s string) string {
	return strings.Join(strings.Fields(StripHTML(s)), " ")
}

// LinePtr is Line for optional values. Values that sanitize to empty become nil.
func LinePtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Line(*s)
	if result == "" {
		return nil
	}
	return &result
}
