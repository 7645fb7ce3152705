package logging

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Patterns for secrets users tend to paste into chat drafts.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9]{20,})`),                     // OpenAI style
	regexp.MustCompile(`(?i)(anthropic-[a-zA-Z0-9]{20,})`),              // Anthropic style
	regexp.MustCompile(`(?i)(AIza[a-zA-Z0-9_-]{35})`),                   // Google API key
	regexp.MustCompile(`(?i)(ghp_[a-zA-Z0-9]{36})`),                     // GitHub PAT
	regexp.MustCompile(`(?i)(gho_[a-zA-Z0-9]{36})`),                     // GitHub OAuth
	regexp.MustCompile(`(?i)(github_pat_[a-zA-Z0-9]{22}_[a-zA-Z0-9]+)`), // GitHub fine-grained PAT

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),

	// Generic long hex/base64 strings that look like secrets
	regexp.MustCompile(`(?i)(key|token|secret|password|auth)[=:]["']?([a-zA-Z0-9+/=_-]{32,})["']?`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces sensitive information in a string.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// Preview returns a redacted single-line excerpt of chat text, at most max
// runes long, for debug logs.
func Preview(text string, max int) string {
	text = strings.Join(strings.Fields(Redact(text)), " ")
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
