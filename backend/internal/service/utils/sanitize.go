package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// SanitizeText strips every html tag from user text. Entities produced by the
// policy are decoded back so the stored value stays plain text, the client is
// responsible for escaping on render.
func SanitizeText(text string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(text)))
}
