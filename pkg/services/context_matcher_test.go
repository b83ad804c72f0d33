package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mapwise/mapping-engine/pkg/models"
	"github.com/mapwise/mapping-engine/pkg/schema"
)

func newTestContextMatcher(t *testing.T) ContextMatcher {
	t.Helper()
	registry, err := schema.Load()
	require.NoError(t, err)
	return NewContextMatcher(registry, zap.NewNop())
}

func TestContextMatcher_StoryPointSamples(t *testing.T) {
	m := newTestContextMatcher(t)

	tests := []struct {
		name     string
		field    models.SourceField
		expected float64
	}{
		{
			name: "fibonacci-like samples corroborate story points",
			field: models.SourceField{
				Type: models.FieldTypeNumber,
				Samples: []models.FieldValue{
					models.NumberValue(1), models.NumberValue(2), models.NumberValue(3),
					models.NumberValue(5), models.NumberValue(8),
				},
			},
			expected: 0.3,
		},
		{
			name: "nulls among samples are ignored",
			field: models.SourceField{
				Type: models.FieldTypeNumber,
				Samples: []models.FieldValue{
					models.NullValue(), models.NumberValue(13), models.NumberValue(21),
				},
			},
			expected: 0.3,
		},
		{
			name: "a single off-scale value breaks the pattern",
			field: models.SourceField{
				Type: models.FieldTypeNumber,
				Samples: []models.FieldValue{
					models.NumberValue(1), models.NumberValue(4),
				},
			},
			expected: 0.0,
		},
		{
			name:     "no samples corroborate nothing",
			field:    models.SourceField{Type: models.FieldTypeNumber},
			expected: 0.0,
		},
		{
			name: "rule requires the number type",
			field: models.SourceField{
				Type:    models.FieldTypeSelect,
				Samples: []models.FieldValue{models.NumberValue(5)},
			},
			expected: 0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, m.Score(&tt.field, "storyPointEstimate"), 1e-9)
		})
	}
}

func TestContextMatcher_PrioritySamples(t *testing.T) {
	m := newTestContextMatcher(t)

	tests := []struct {
		name     string
		samples  []models.FieldValue
		expected float64
	}{
		{"exact priority word", []models.FieldValue{models.TextValue("High")}, 0.3},
		{"case-insensitive match", []models.FieldValue{models.TextValue("CRITICAL")}, 0.3},
		{"one match among noise is enough", []models.FieldValue{models.TextValue("Unknown"), models.TextValue("minor")}, 0.3},
		{"no priority words", []models.FieldValue{models.TextValue("Sometime")}, 0.0},
		{"null-only samples", []models.FieldValue{models.NullValue()}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := models.SourceField{Type: models.FieldTypeSelect, Samples: tt.samples}
			assert.InDelta(t, tt.expected, m.Score(&field, "priority"), 1e-9)
		})
	}
}

func TestContextMatcher_TargetWithoutRules(t *testing.T) {
	m := newTestContextMatcher(t)

	field := models.SourceField{
		Type:    models.FieldTypeText,
		Samples: []models.FieldValue{models.TextValue("anything")},
	}
	assert.Zero(t, m.Score(&field, "description"))
}
