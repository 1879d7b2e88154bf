// Package fileutil provides URI and filesystem helpers shared by the asset
// and proxy packages. Asset identifiers are commonly file URIs; the transcode
// and rename paths need the underlying filesystem locations.
package fileutil

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// IsURI reports whether value parses as a URI with a scheme. Identifiers that
// fail this check are rejected as relocation replacements.
func IsURI(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && len(parsed.Scheme) > 1
}

// PathFromURI converts a file URI into a filesystem path. Plain paths are
// returned unchanged; non-file schemes are refused.
func PathFromURI(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", fmt.Errorf("empty identifier")
	}
	if !strings.Contains(trimmed, "://") {
		return trimmed, nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse identifier %q: %w", id, err)
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("identifier %q is not file-backed", id)
	}
	if parsed.Path == "" {
		return "", fmt.Errorf("identifier %q has no path", id)
	}
	return parsed.Path, nil
}

// URIFromPath converts a filesystem path into a file URI.
func URIFromPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "://") {
		return trimmed
	}
	return (&url.URL{Scheme: "file", Path: trimmed}).String()
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(strings.TrimSpace(path))
	return err == nil && !info.IsDir()
}
