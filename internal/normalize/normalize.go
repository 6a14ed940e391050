// Package normalize canonicalizes URLs and anchor text for backlink comparison.
package normalize

import "strings"

// URL canonicalizes a URL for comparison: lower-case, no scheme, no leading
// www., no query string or fragment, no trailing slash. Empty input returns "".
func URL(raw string) string {
	if raw == "" {
		return ""
	}

	normalized := strings.ToLower(raw)
	normalized = strings.TrimPrefix(normalized, "https://")
	normalized = strings.TrimPrefix(normalized, "http://")
	normalized = strings.TrimPrefix(normalized, "www.")

	if idx := strings.IndexByte(normalized, '?'); idx >= 0 {
		normalized = normalized[:idx]
	}
	if idx := strings.IndexByte(normalized, '#'); idx >= 0 {
		normalized = normalized[:idx]
	}

	return strings.TrimSuffix(normalized, "/")
}

// Text canonicalizes anchor text for comparison: lower-case, whitespace runs
// collapsed to a single space, trimmed. Empty input returns "".
func Text(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
