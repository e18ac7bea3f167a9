// Package cleaner strips markup from raw job descriptions before analysis.
package cleaner

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// Sanitizer reduces ingested description HTML to plain text so the text
// analyzers see words, not tags.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer that strips all HTML.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text removes all markup, decodes entities and tidies whitespace.
func (s *Sanitizer) Text(raw string) string {
	text := s.policy.Sanitize(raw)
	text = html.UnescapeString(text)
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
