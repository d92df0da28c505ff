package util

import "strings"

// IsBlank reports whether a message body is empty or whitespace-only.
// Blank bodies are rejected before any persistence happens.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
