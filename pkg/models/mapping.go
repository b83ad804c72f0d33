package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Recommendation Tiers
// ============================================================================

// RecommendationTier classifies how much human review a mapping needs before
// it can be trusted for a migration.
type RecommendationTier string

const (
	TierAutoMap       RecommendationTier = "AUTO_MAP"
	TierSuggest       RecommendationTier = "SUGGEST"
	TierManualReview  RecommendationTier = "MANUAL_REVIEW"
	TierLowConfidence RecommendationTier = "LOW_CONFIDENCE"
	TierNoMatch       RecommendationTier = "NO_MATCH"
)

// ValidRecommendationTiers contains all valid tier values.
var ValidRecommendationTiers = []RecommendationTier{
	TierAutoMap,
	TierSuggest,
	TierManualReview,
	TierLowConfidence,
	TierNoMatch,
}

// IsValidRecommendationTier checks if the given tier is valid.
func IsValidRecommendationTier(t RecommendationTier) bool {
	for _, v := range ValidRecommendationTiers {
		if v == t {
			return true
		}
	}
	return false
}

// ============================================================================
// Mapping Confidence
// ============================================================================

// ConfidenceFactors holds the individual scoring signals that feed a mapping
// confidence. All values are in [0,1].
type ConfidenceFactors struct {
	NameMatch      float64 `json:"name_match"`
	TypeMatch      float64 `json:"type_match"`
	PopulationRate float64 `json:"population_rate"`
	ContextMatch   float64 `json:"context_match"`

	// HistoricalSuccess is looked up from prior accepted/rejected mappings.
	// It informs reasoning and alternative ordering but is deliberately NOT
	// folded into Overall.
	HistoricalSuccess float64 `json:"historical_success"`
}

// MappingConfidence is the scored verdict for one (source, target) pair.
type MappingConfidence struct {
	// Overall is derived deterministically from Factors.
	Overall float64           `json:"overall"`
	Factors ConfidenceFactors `json:"factors"`

	Recommendation RecommendationTier `json:"recommendation"`

	// Threshold is the tier cut-point Overall cleared.
	Threshold float64 `json:"threshold"`
}

// ============================================================================
// Recommendations
// ============================================================================

// AlternativeMapping is a lower-ranked target candidate for a source field.
type AlternativeMapping struct {
	TargetField string  `json:"target_field"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// MappingExample shows an observed source value and its transformed form.
type MappingExample struct {
	SourceValue FieldValue `json:"source_value"`
	TargetValue FieldValue `json:"target_value"`

	// Transformation is a human-readable description of the conversion
	// applied, empty when the value passes through unchanged.
	Transformation string `json:"transformation,omitempty"`
}

// MappingRecommendation is the engine's verdict for one source field.
// Created fresh on every analysis run and never mutated afterwards.
type MappingRecommendation struct {
	ID uuid.UUID `json:"id"`

	SourceFieldID   string `json:"source_field_id"`
	SourceFieldName string `json:"source_field_name"`
	TargetField     string `json:"target_field"`

	Confidence MappingConfidence `json:"confidence"`
	Reasoning  string            `json:"reasoning"`

	Alternatives []AlternativeMapping `json:"alternatives,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
	Examples     []MappingExample     `json:"examples,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
