package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityForPopulationRate_Boundaries(t *testing.T) {
	tests := []struct {
		rate     float64
		expected DataQuality
	}{
		{1.0, DataQualityExcellent},
		{0.91, DataQualityExcellent},
		{0.9, DataQualityGood}, // boundary is exclusive
		{0.75, DataQualityGood},
		{0.7, DataQualityFair},
		{0.5, DataQualityFair},
		{0.4, DataQualityPoor},
		{0.2, DataQualityPoor},
		{0.1, DataQualityUnusable},
		{0.0, DataQualityUnusable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, QualityForPopulationRate(tt.rate), "rate %v", tt.rate)
	}
}

func TestIsValidRecommendationTier(t *testing.T) {
	for _, tier := range ValidRecommendationTiers {
		assert.True(t, IsValidRecommendationTier(tier))
	}
	assert.False(t, IsValidRecommendationTier("MAYBE"))
}

func TestIsValidFieldType(t *testing.T) {
	for _, ft := range ValidFieldTypes {
		assert.True(t, IsValidFieldType(ft))
	}
	assert.False(t, IsValidFieldType("geo"))
}
