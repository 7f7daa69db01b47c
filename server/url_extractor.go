package main

import (
	"regexp"
	"strings"
)

// urlPattern is the single pattern shared by extraction and validation, so the
// two can never diverge. Only http and https schemes are accepted.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// urlValidPattern anchors the shared pattern for whole-string validation.
var urlValidPattern = regexp.MustCompile(`^(?:` + urlPattern.String() + `)$`)

// URLExtractor extracts URLs from post messages
type URLExtractor struct{}

// NewURLExtractor creates a new URL extractor
func NewURLExtractor() *URLExtractor {
	return &URLExtractor{}
}

// Extract returns the ordered sequence of distinct URLs found in the message.
// Trailing sentence punctuation is trimmed, since chat text routinely ends a
// URL with a period or closing bracket.
func (e *URLExtractor) Extract(message string) []string {
	var urls []string
	seen := make(map[string]bool)

	for _, match := range urlPattern.FindAllString(message, -1) {
		match = strings.TrimRight(match, ".,;:!?)")
		if match == "" || seen[match] {
			continue
		}
		urls = append(urls, match)
		seen[match] = true
	}

	return urls
}

// IsValid reports whether the whole string matches the shared URL pattern.
func (e *URLExtractor) IsValid(raw string) bool {
	return urlValidPattern.MatchString(raw)
}
