// internal/app/system/normalize/normalize.go

// Package normalize cleans caller-supplied text before it is stored or sent
// to the geocoder.
package normalize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict drops all HTML, leaving text content only. Shared and safe for
// concurrent use.
var strict = bluemonday.StrictPolicy()

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Text strips any HTML markup and trims whitespace. Used for free-text
// fields that flow back out in API responses and provider requests (names,
// addresses, region names).
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
