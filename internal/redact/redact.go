// Package redact strips sensitive fragments from strings before they reach
// logs or error responses: connection strings, bearer tokens, secrets, and
// filesystem paths.
package redact

import "regexp"

// RedactionPlaceholder replaces any matched sensitive fragment.
const RedactionPlaceholder = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	// Database connection strings with embedded credentials
	regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`),

	// JWT tokens (three base64url segments)
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),

	// Key/secret/token assignments
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password|auth)(['" :=]+)[A-Za-z0-9_\-.~+/]{8,}`),

	// Filesystem paths
	regexp.MustCompile(`(/[\w.-]+){2,}`),
}

// String returns s with every sensitive fragment replaced.
func String(s string) string {
	for _, pattern := range sensitivePatterns {
		s = pattern.ReplaceAllString(s, RedactionPlaceholder)
	}
	return s
}

// Error returns the redacted message of err, or "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
