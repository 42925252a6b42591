package stream

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun    = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,!?;:])`)
	sentenceBoundary = regexp.MustCompile(`([.!?])([A-Z])`)
	boldSpacing      = regexp.MustCompile(`\*\*\s+([^*]*?)\s+\*\*`)
	italicSpacing    = regexp.MustCompile(`\*\s+([^*]*?)\s+\*`)
)

// NormalizeWhitespace cleans up text reassembled from stream chunks:
// whitespace runs collapse to a single space, stray spaces before sentence
// punctuation are removed, missing spaces between sentences are restored,
// and markdown emphasis markers hug their content.
func NormalizeWhitespace(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = sentenceBoundary.ReplaceAllString(s, "$1 $2")
	s = boldSpacing.ReplaceAllString(s, "**$1**")
	s = italicSpacing.ReplaceAllString(s, "*$1*")
	return strings.TrimSpace(s)
}
