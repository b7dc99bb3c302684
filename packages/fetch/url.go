package fetch

import (
	"fmt"
	neturl "net/url"
	"strings"
)

// normalizeBaseURL strips trailing slashes so joins never double them.
func normalizeBaseURL(base string) string {
	return strings.TrimRight(base, "/")
}

// IsAbsoluteURL reports whether raw carries an http or https scheme.
func IsAbsoluteURL(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ResolveURL builds the request URL for raw.
//
// Absolute http(s) URLs are returned as given and ignore base. Anything else
// is appended to base with exactly one slash between them. With an empty base
// a relative URL cannot be resolved and ErrInvalidURL is returned.
func ResolveURL(base, raw string) (string, error) {
	if IsAbsoluteURL(raw) {
		if _, err := neturl.Parse(raw); err != nil {
			return "", &URLError{URL: raw, Err: err}
		}
		return raw, nil
	}

	if base == "" {
		return "", fmt.Errorf("%w: %q is relative and no base URL is configured", ErrInvalidURL, raw)
	}

	path := raw
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return &URLError{URL: rawURL, Err: err}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return &URLError{URL: rawURL, Err: fmt.Errorf("unsupported URL scheme %q (only http and https are allowed)", u.Scheme)}
	}

	if u.Host == "" {
		return &URLError{URL: rawURL, Err: fmt.Errorf("URL must have a host")}
	}

	return nil
}
