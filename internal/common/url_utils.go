package common

import (
	"net/url"
	"strings"
)

// ExtractHost parses the host (including port, when present) from a URL.
// Returns "" when the URL cannot be parsed.
func ExtractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// NormalizedHost strips a leading "www." for host comparisons.
func NormalizedHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
