package logging

import (
	"regexp"
)

const (
	// MaxErrorLogLength caps sanitized error text surfaced to operators.
	MaxErrorLogLength = 300
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Bearer tokens in echoed request headers
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-_.]+`)

	// Provider secret keys (OpenAI "sk-...", Anthropic "sk-ant-...")
	secretKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9\-_]{8,}`)

	// key=value style API keys
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|x-api-key|key)=[A-Za-z0-9\-_]{16,}`)

	// user:pass@host credentials in URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@`)
)

// SanitizeError renders an error for logs and operator-visible text with credentials removed.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeText(err.Error())
}

// SanitizeText removes credentials from arbitrary text and caps its length.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}
	sanitized := bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	sanitized = secretKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
	return TruncateString(sanitized, MaxErrorLogLength)
}

// TruncateString truncates a string to maxLen runes and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// RuneSlice returns the runes of s in [start, start+n), clamped to the string bounds.
func RuneSlice(s string, start, n int) string {
	r := []rune(s)
	if start >= len(r) || n <= 0 {
		return ""
	}
	end := start + n
	if end > len(r) {
		end = len(r)
	}
	return string(r[start:end])
}
