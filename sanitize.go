package main

import (
	"regexp"
	"strings"

	"jaytaylor.com/html2text"
)

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	anyTagPattern      = regexp.MustCompile(`<[^>]*>`)
	spaceRunPattern    = regexp.MustCompile(`[ \t]+`)
	blankRunPattern    = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
)

// Sanitize converts email markup to plain text. It is total: when the
// converter cannot handle malformed markup it falls back to stripping
// tags directly rather than returning an error.
func Sanitize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text, err := html2text.FromString(raw, html2text.Options{TextOnly: true})
	if err != nil {
		text = scriptBlockPattern.ReplaceAllString(raw, " ")
		text = anyTagPattern.ReplaceAllString(text, " ")
	}

	text = spaceRunPattern.ReplaceAllString(text, " ")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncateBody bounds the text included in a prompt so token cost stays
// predictable regardless of email size.
func truncateBody(body string, maxChars int) string {
	if maxChars > 0 && len(body) > maxChars {
		return body[:maxChars]
	}
	return body
}
