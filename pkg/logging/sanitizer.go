package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// API keys passed as query parameters or key=value pairs. Gemini in
	// particular echoes the key in error URLs.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Bearer tokens in echoed request headers.
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)

	// Inline credentials in URLs (user:pass@host).
	urlCredsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeError scrubs credentials from an error message before logging.
// Provider SDK errors can echo the request URL, which may carry the key.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Sanitize scrubs credentials from an arbitrary string.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	out := apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	out = bearerPattern.ReplaceAllString(out, "Bearer "+RedactedText)
	out = urlCredsPattern.ReplaceAllString(out, "://"+RedactedText+"@"+RedactedText)
	return out
}

// TruncateString shortens a string to maxLen for log fields.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
