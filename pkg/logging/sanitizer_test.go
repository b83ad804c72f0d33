package logging

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/mapwise/mapping-engine/pkg/models"
)

func TestSanitizeSample(t *testing.T) {
	tests := []struct {
		name  string
		value models.FieldValue
		want  string
	}{
		{
			name:  "plain text passes through",
			value: models.TextValue("In Progress"),
			want:  "In Progress",
		},
		{
			name:  "email in text is redacted",
			value: models.TextValue("contact dana@example.com for details"),
			want:  "contact [REDACTED] for details",
		},
		{
			name:  "user reduces to display name",
			value: models.UserValue(models.UserRef{AccountID: "u1", DisplayName: "Dana Li", Email: "dana@example.com"}),
			want:  "Dana Li",
		},
		{
			name:  "nil user renders empty",
			value: models.FieldValue{Kind: models.FieldValueUser},
			want:  "",
		},
		{
			name:  "number renders without trailing zeros",
			value: models.NumberValue(5),
			want:  "5",
		},
		{
			name:  "date renders as RFC3339",
			value: models.DateValue(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
			want:  "2024-06-01T12:00:00Z",
		},
		{
			name:  "null renders as null",
			value: models.NullValue(),
			want:  "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSample(tt.value))
		})
	}
}

func TestSanitizeSample_TruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", MaxSampleLogLength+20)
	got := SanitizeSample(models.TextValue(long))

	assert.Len(t, got, MaxSampleLogLength+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSanitizeSample_TruncatesOnRuneBoundary(t *testing.T) {
	// 20 three-byte runes span 60 bytes, so the cut falls mid-rune at byte 40.
	long := strings.Repeat("日", 20)
	got := SanitizeSample(models.TextValue(long))

	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("日", 13)+"...", got)
}

func TestSanitizeSamples(t *testing.T) {
	got := SanitizeSamples([]models.FieldValue{
		models.TextValue("ok"),
		models.TextValue("mail me at bob@corp.io"),
		models.NullValue(),
	})
	assert.Equal(t, []string{"ok", "mail me at [REDACTED]", "null"}, got)
}
