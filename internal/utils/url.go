package utils

import (
	"fmt"
	"net/url"
)

// ParseSecureURL parses raw and rejects anything but absolute https URLs.
func ParseSecureURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("insecure URL rejected: %s", raw)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("URL has no host: %s", raw)
	}
	return parsed, nil
}
