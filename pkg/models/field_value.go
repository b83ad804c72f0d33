package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mapwise/mapping-engine/pkg/apperrors"
)

// ============================================================================
// Field Values
// ============================================================================

// FieldValueKind discriminates the variants of a FieldValue.
type FieldValueKind string

const (
	FieldValueNull   FieldValueKind = "null"
	FieldValueNumber FieldValueKind = "number"
	FieldValueText   FieldValueKind = "text"
	FieldValueUser   FieldValueKind = "user"
	FieldValueDate   FieldValueKind = "date"
)

// UserRef is a reference to a person in the external tool.
type UserRef struct {
	AccountID   string `json:"account_id,omitempty"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// FieldValue is a tagged variant for raw sample values observed on a source
// field. Exactly one of the payload fields is meaningful, selected by Kind.
// Using a tagged variant (instead of any) lets transformation and context
// matching switch exhaustively over value shapes.
type FieldValue struct {
	Kind   FieldValueKind `json:"kind"`
	Number float64        `json:"number,omitempty"`
	Text   string         `json:"text,omitempty"`
	User   *UserRef       `json:"user,omitempty"`
	Date   time.Time      `json:"date,omitempty"`
}

// NullValue returns the null field value.
func NullValue() FieldValue {
	return FieldValue{Kind: FieldValueNull}
}

// NumberValue wraps a numeric sample value.
func NumberValue(n float64) FieldValue {
	return FieldValue{Kind: FieldValueNumber, Number: n}
}

// TextValue wraps a text sample value.
func TextValue(s string) FieldValue {
	return FieldValue{Kind: FieldValueText, Text: s}
}

// UserValue wraps a user reference sample value.
func UserValue(u UserRef) FieldValue {
	return FieldValue{Kind: FieldValueUser, User: &u}
}

// DateValue wraps a date sample value.
func DateValue(t time.Time) FieldValue {
	return FieldValue{Kind: FieldValueDate, Date: t}
}

// IsNull reports whether the value is the null variant.
func (v FieldValue) IsNull() bool {
	return v.Kind == FieldValueNull || v.Kind == ""
}

// Display renders the value as a human-readable string for examples and logs.
func (v FieldValue) Display() string {
	switch v.Kind {
	case FieldValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case FieldValueText:
		return v.Text
	case FieldValueUser:
		if v.User == nil {
			return ""
		}
		return v.User.DisplayName
	case FieldValueDate:
		return v.Date.Format(time.RFC3339)
	default:
		return "null"
	}
}

// MarshalJSON encodes the value as its natural JSON shape: null, number,
// string, RFC3339 string, or a user object.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldValueNumber:
		return json.Marshal(v.Number)
	case FieldValueText:
		return json.Marshal(v.Text)
	case FieldValueUser:
		return json.Marshal(v.User)
	case FieldValueDate:
		return json.Marshal(v.Date.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a natural JSON value into the matching variant.
// Strings that parse as RFC3339 timestamps become date values; objects with a
// display_name become user references.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal field value: %w", err)
	}

	switch val := raw.(type) {
	case nil:
		*v = NullValue()
	case float64:
		*v = NumberValue(val)
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			*v = DateValue(t)
		} else {
			*v = TextValue(val)
		}
	case map[string]any:
		var user UserRef
		if err := json.Unmarshal(data, &user); err != nil {
			return fmt.Errorf("unmarshal user reference: %w", err)
		}
		*v = UserValue(user)
	default:
		return fmt.Errorf("%w: unsupported field value shape %T", apperrors.ErrMalformedInput, raw)
	}
	return nil
}
