// Package validation holds cross-cutting input checks that are too
// structural for the sanitizer and too specific for struct tags.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

type URLError struct {
	Field   string
	Message string
}

func (e URLError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// WebsiteURL checks that a user-supplied link is an absolute http(s) URL
// with a host. Empty values pass; optional fields stay optional.
func WebsiteURL(raw, field string) error {
	if raw == "" {
		return nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return URLError{Field: field, Message: "malformed URL"}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		return URLError{Field: field, Message: "must include http:// or https://"}
	}
	if scheme != "http" && scheme != "https" {
		return URLError{Field: field, Message: "scheme must be http or https"}
	}
	if parsed.Host == "" {
		return URLError{Field: field, Message: "must include a host"}
	}
	return nil
}
