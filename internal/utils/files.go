package utils

import (
	"net/url"
	"path"
	"strings"
)

// FileDisplayName derives a human-readable name from an opaque file URL. The
// workflow treats files purely as strings; only the display layer needs this.
func FileDisplayName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Path == "" {
		return path.Base(trimmed)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return trimmed
	}

	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}

	return name
}
