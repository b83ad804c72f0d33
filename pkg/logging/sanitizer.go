package logging

import (
	"regexp"
	"unicode/utf8"

	"github.com/mapwise/mapping-engine/pkg/models"
)

const (
	// MaxSampleLogLength is the maximum length of a sample value to log.
	MaxSampleLogLength = 40
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

// Sample values come from customer work items and may carry personal data.
// Emails and anything email-shaped are redacted before logging.
var emailPattern = regexp.MustCompile(`[^@\s]+@[^@\s]+\.[^@\s]+`)

// SanitizeSample renders a sample value for logging: user references are
// reduced to their display name, emails are redacted, and long text is
// truncated.
func SanitizeSample(v models.FieldValue) string {
	switch v.Kind {
	case models.FieldValueUser:
		if v.User == nil {
			return ""
		}
		return truncate(v.User.DisplayName)
	case models.FieldValueText:
		return truncate(emailPattern.ReplaceAllString(v.Text, RedactedText))
	default:
		return truncate(v.Display())
	}
}

// SanitizeSamples sanitizes a slice of sample values for logging.
func SanitizeSamples(values []models.FieldValue) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = SanitizeSample(v)
	}
	return out
}

func truncate(s string) string {
	if len(s) <= MaxSampleLogLength {
		return s
	}
	// Back off to a rune boundary so the cut never splits a multi-byte rune.
	cut := MaxSampleLogLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
