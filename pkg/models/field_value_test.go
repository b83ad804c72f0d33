package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapwise/mapping-engine/pkg/apperrors"
)

func TestFieldValue_IsNull(t *testing.T) {
	assert.True(t, NullValue().IsNull())
	assert.True(t, FieldValue{}.IsNull(), "zero value is the null variant")
	assert.False(t, NumberValue(5).IsNull())
	assert.False(t, TextValue("").IsNull())
}

func TestFieldValue_Display(t *testing.T) {
	tests := []struct {
		name     string
		value    FieldValue
		expected string
	}{
		{"null", NullValue(), "null"},
		{"integer-valued number has no decimals", NumberValue(8), "8"},
		{"fractional number", NumberValue(2.5), "2.5"},
		{"text", TextValue("High"), "High"},
		{"user shows display name", UserValue(UserRef{AccountID: "u1", DisplayName: "Dana Li"}), "Dana Li"},
		{"date is RFC3339", DateValue(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)), "2024-03-01T12:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.Display())
		})
	}
}

func TestFieldValue_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value FieldValue
	}{
		{"null", NullValue()},
		{"number", NumberValue(13)},
		{"text", TextValue("In Progress")},
		{"user", UserValue(UserRef{AccountID: "u1", DisplayName: "Dana Li", Email: "dana@example.com"})},
		{"date", DateValue(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.value)
			require.NoError(t, err)

			var back FieldValue
			require.NoError(t, json.Unmarshal(raw, &back))
			assert.Equal(t, tt.value.Kind, back.Kind)
			assert.Equal(t, tt.value.Display(), back.Display())
		})
	}
}

func TestFieldValue_UnmarshalNaturalShapes(t *testing.T) {
	var v FieldValue
	require.NoError(t, json.Unmarshal([]byte(`5`), &v))
	assert.Equal(t, FieldValueNumber, v.Kind)

	require.NoError(t, json.Unmarshal([]byte(`"High"`), &v))
	assert.Equal(t, FieldValueText, v.Kind)

	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	assert.True(t, v.IsNull())

	require.NoError(t, json.Unmarshal([]byte(`{"display_name":"Dana Li"}`), &v))
	require.Equal(t, FieldValueUser, v.Kind)
	assert.Equal(t, "Dana Li", v.User.DisplayName)

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T12:00:00Z"`), &v))
	assert.Equal(t, FieldValueDate, v.Kind)
}

func TestFieldValue_UnmarshalRejectsArrays(t *testing.T) {
	var v FieldValue
	err := json.Unmarshal([]byte(`[1,2,3]`), &v)
	assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
}

func TestSourceField_NonNullSamples(t *testing.T) {
	f := SourceField{
		Samples: []FieldValue{NullValue(), NumberValue(3), NullValue(), TextValue("x")},
	}
	samples := f.NonNullSamples()
	require.Len(t, samples, 2)
	assert.Equal(t, FieldValueNumber, samples[0].Kind)
	assert.Equal(t, FieldValueText, samples[1].Kind)
}
