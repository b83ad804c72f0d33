package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Data Quality
// ============================================================================

// DataQuality rates how reliably a field is populated across work items.
type DataQuality string

const (
	DataQualityExcellent DataQuality = "EXCELLENT"
	DataQualityGood      DataQuality = "GOOD"
	DataQualityFair      DataQuality = "FAIR"
	DataQualityPoor      DataQuality = "POOR"
	DataQualityUnusable  DataQuality = "UNUSABLE"
)

// QualityForPopulationRate maps a population rate onto the fixed quality
// boundaries. The boundaries are invariants of the engine, not tunables.
func QualityForPopulationRate(rate float64) DataQuality {
	switch {
	case rate > 0.9:
		return DataQualityExcellent
	case rate > 0.7:
		return DataQualityGood
	case rate > 0.4:
		return DataQualityFair
	case rate > 0.1:
		return DataQualityPoor
	default:
		return DataQualityUnusable
	}
}

// PopulationRate is a per-field data-quality snapshot.
type PopulationRate struct {
	FieldID        string      `json:"field_id"`
	FieldName      string      `json:"field_name"`
	PopulationRate float64     `json:"population_rate"`
	TotalItems     int         `json:"total_items"`
	PopulatedItems int         `json:"populated_items"`
	Quality        DataQuality `json:"quality"`
}

// ============================================================================
// Integration-Level Rollups
// ============================================================================

// ConfidenceAnalysis summarizes the recommendations of one analysis run.
// It is derived purely from the run's recommendations and never stored
// independently of them.
type ConfidenceAnalysis struct {
	TotalFields      int `json:"total_fields"`
	AutoMappable     int `json:"auto_mappable"`
	HighConfidence   int `json:"high_confidence"`
	MediumConfidence int `json:"medium_confidence"`
	LowConfidence    int `json:"low_confidence"`
	NoMatch          int `json:"no_match"`

	AverageConfidence float64 `json:"average_confidence"`

	// DistributionByType counts recommendations per source field type.
	DistributionByType map[FieldType]int `json:"distribution_by_type"`
}

// HierarchyLevel is one level of the mapped field hierarchy.
type HierarchyLevel struct {
	Level        int      `json:"level"`
	TargetFields []string `json:"target_fields"`
}

// FieldHierarchy is a coarse structural grouping of mapped target fields.
// The base engine emits a single flat level; multi-level parent/child
// grouping is an extension point.
type FieldHierarchy struct {
	Levels []HierarchyLevel `json:"levels"`
}

// FieldAnalysisResult is the top-level output of one analysis run.
// Created once per invocation and immutable afterwards.
type FieldAnalysisResult struct {
	IntegrationID uuid.UUID `json:"integration_id"`
	Provider      string    `json:"provider"`

	SchemaVersion string `json:"schema_version"`

	DiscoveredFields    []SourceField            `json:"discovered_fields"`
	RecommendedMappings []*MappingRecommendation `json:"recommended_mappings"`

	ConfidenceMetrics     ConfidenceAnalysis `json:"confidence_metrics"`
	PopulationRates       []PopulationRate   `json:"population_rates"`
	HierarchicalStructure FieldHierarchy     `json:"hierarchical_structure"`

	AnalysisTimestamp time.Time     `json:"analysis_timestamp"`
	ProcessingTime    time.Duration `json:"processing_time"`

	// Warnings carries integration-level data-quality and coverage notes.
	// Errors is reserved for catastrophic input failures; a non-empty Errors
	// means RecommendedMappings must not be trusted.
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}
