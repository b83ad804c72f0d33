package models

// ============================================================================
// Field Types
// ============================================================================

// FieldType is the engine's normalized field type enumeration.
// Provider adapters are responsible for translating tool-specific types
// (Jira, Linear, Monday, Asana) into these kinds before analysis.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeStoryPoints FieldType = "storyPoints"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiSelect"
	FieldTypeDate        FieldType = "date"
	FieldTypeUser        FieldType = "user"
	FieldTypeLabels      FieldType = "labels"
	FieldTypeUnknown     FieldType = "unknown"
)

// ValidFieldTypes contains all valid field type values.
var ValidFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeStoryPoints,
	FieldTypeSelect,
	FieldTypeMultiSelect,
	FieldTypeDate,
	FieldTypeUser,
	FieldTypeLabels,
	FieldTypeUnknown,
}

// IsValidFieldType checks if the given type is valid.
func IsValidFieldType(t FieldType) bool {
	for _, v := range ValidFieldTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ============================================================================
// Source Field
// ============================================================================

// SourceField is one field discovered on an external work-tracking tool,
// as normalized by a provider adapter. Immutable once handed to the engine.
type SourceField struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`

	Type FieldType `json:"type"`

	// PopulationRate is the fraction (0-1) of work items where this field
	// is non-null. A proxy for field usefulness.
	PopulationRate float64 `json:"population_rate"`

	// ItemCount is the total number of work items the adapter inspected when
	// computing PopulationRate. Zero when the adapter did not report it.
	ItemCount int `json:"item_count,omitempty"`

	// Samples is a small ordered sequence of observed raw values.
	// May contain nulls.
	Samples []FieldValue `json:"samples,omitempty"`

	Required    bool `json:"required"`
	CustomField bool `json:"custom_field"`
}

// NonNullSamples returns the field's samples with null values removed.
func (f *SourceField) NonNullSamples() []FieldValue {
	out := make([]FieldValue, 0, len(f.Samples))
	for _, s := range f.Samples {
		if !s.IsNull() {
			out = append(out, s)
		}
	}
	return out
}
