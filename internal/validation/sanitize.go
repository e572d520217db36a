package validation

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

// SanitizeText strips every HTML element from user-supplied text and trims it.
// Ampersands are escaped before sanitizing so that decoding the policy's output
// restores exactly what the user typed, entities included.
func SanitizeText(s string) string {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	s = strings.ReplaceAll(s, "&", "&amp;")
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
