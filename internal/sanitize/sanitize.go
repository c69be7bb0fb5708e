// Package sanitize cleans user-supplied text before it is stored or
// displayed. Every function is total: any input yields a string.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	jsProtoPattern = regexp.MustCompile(`(?i)javascript:`)
	handlerPattern = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	slugCharset    = regexp.MustCompile(`[^a-zA-Z0-9 ._-]`)

	// Patterns that mark text as unsafe for display as-is.
	dangerous = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)\bon\w+\s*=`),
		regexp.MustCompile(`(?i)<\s*(iframe|object|embed|link|meta)`),
	}
)

var entityEncoder = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Display returns text safe to render in HTML: tag-like substrings,
// javascript: URLs and inline event handlers are removed, remaining
// dangerous characters are entity-encoded, and surrounding whitespace is
// trimmed.
func Display(s string) string {
	s = stripMarkup(s)
	return strings.TrimSpace(entityEncoder.Replace(s))
}

// Slug returns text safe to embed in a URL path segment. Dangerous
// substrings are removed and the result is restricted to alphanumerics,
// space, hyphen, underscore and dot.
func Slug(s string) string {
	s = stripMarkup(s)
	s = slugCharset.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// IsSafe reports whether the input already matches none of the known
// dangerous patterns. It is a read-only check, not a transform.
func IsSafe(s string) bool {
	for _, p := range dangerous {
		if p.MatchString(s) {
			return false
		}
	}
	return true
}

func stripMarkup(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = jsProtoPattern.ReplaceAllString(s, "")
	s = handlerPattern.ReplaceAllString(s, "")
	return s
}
