// Package validation checks untrusted strings that reach the share-link
// builder, the studio server and the bench file loader.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// dangerous characters that have no business in an origin or a share URL
// opened by a browser helper.
var dangerous = []string{";", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\", "\n", "\r", " "}

// ValidateURL validates an http(s) URL before it is handed to a browser
// or printed as a share link.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only allow http/https schemes to prevent protocol handlers
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidateShareOrigin checks the origin a share link is built on: an
// http(s) scheme and host, optionally a port and a path prefix, and no
// query, fragment or credentials.
func ValidateShareOrigin(origin string) error {
	if origin == "" {
		return fmt.Errorf("origin cannot be empty")
	}
	if err := ValidateURL(origin); err != nil {
		return err
	}

	parsed, _ := url.Parse(origin)
	if parsed.User != nil {
		return fmt.Errorf("origin must not carry credentials")
	}
	if parsed.RawQuery != "" || parsed.ForceQuery || parsed.Fragment != "" || strings.ContainsAny(origin, "?#") {
		return fmt.Errorf("origin must not have a query or fragment")
	}

	return nil
}

// ValidateOrigin validates a request Origin header against an allowlist
// for CSRF protection on the studio websocket.
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}
