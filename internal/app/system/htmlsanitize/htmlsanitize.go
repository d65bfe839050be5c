// Package htmlsanitize strips markup from citizen-supplied text before it
// is persisted.
//
// Report descriptions and responder notes are plain text; anything that
// looks like HTML in them is hostile or accidental, so the strict policy
// removes it entirely rather than allowlisting tags.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Sanitize removes all HTML from s and trims surrounding whitespace.
func Sanitize(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
