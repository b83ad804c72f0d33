package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mapwise/mapping-engine/pkg/config"
	"github.com/mapwise/mapping-engine/pkg/models"
	"github.com/mapwise/mapping-engine/pkg/repositories"
	"github.com/mapwise/mapping-engine/pkg/schema"
	"github.com/mapwise/mapping-engine/pkg/workers"
)

// coverageWarningRate is the mapped-fields fraction below which the run gets
// a low-coverage warning.
const coverageWarningRate = 0.5

// criticalTargetFields must be mapped for a migration to make sense; their
// absence from the mapped targets is reported as an integration warning.
var criticalTargetFields = []string{"title", "type", "status"}

// FieldAnalysisService is the engine's top-level entry point: it analyzes a
// provider's discovered fields against the canonical schema and produces one
// immutable FieldAnalysisResult per invocation.
type FieldAnalysisService interface {
	// AnalyzeFieldStructure scores every source field, assembles per-field
	// recommendations, and rolls up integration-level metrics and warnings.
	// Partial per-field problems degrade to warnings; Errors is populated
	// only for malformed top-level input.
	AnalyzeFieldStructure(ctx context.Context, provider string, sourceFields []models.SourceField, integrationID uuid.UUID) (*models.FieldAnalysisResult, error)
}

type fieldAnalysisService struct {
	registry *schema.Registry
	builder  RecommendationBuilder
	pool     *workers.Pool
	logger   *zap.Logger
}

// NewFieldAnalysisService wires up the full scoring pipeline. Each engine
// instance owns its own semantic cache, so a fresh instance always starts
// cold. historyRepo may be nil when no historical store is available.
func NewFieldAnalysisService(
	registry *schema.Registry,
	historyRepo repositories.MappingHistoryRepository,
	cfg config.AnalysisConfig,
	logger *zap.Logger,
) FieldAnalysisService {
	matcher := NewSemanticMatcher(registry, logger)
	typeScorer := NewTypeCompatibilityScorer(registry)
	contextMatcher := NewContextMatcher(registry, logger)
	classifier := NewConfidenceClassifier(
		matcher, typeScorer, contextMatcher,
		historyRepo, cfg.HistoryLookupTimeout(), logger)
	builder := NewRecommendationBuilder(registry, classifier, logger)

	return &fieldAnalysisService{
		registry: registry,
		builder:  builder,
		pool:     workers.NewPool(workers.PoolConfig{MaxConcurrent: cfg.MaxConcurrent}, logger),
		logger:   logger.Named("field-analysis"),
	}
}

var _ FieldAnalysisService = (*fieldAnalysisService)(nil)

func (s *fieldAnalysisService) AnalyzeFieldStructure(ctx context.Context, provider string, sourceFields []models.SourceField, integrationID uuid.UUID) (*models.FieldAnalysisResult, error) {
	start := time.Now()

	result := &models.FieldAnalysisResult{
		IntegrationID:     integrationID,
		Provider:          provider,
		SchemaVersion:     s.registry.Version(),
		AnalysisTimestamp: start,
	}

	if sourceFields == nil {
		result.Errors = append(result.Errors, "source fields must not be nil")
		result.ProcessingTime = time.Since(start)
		return result, nil
	}

	result.DiscoveredFields = sourceFields

	s.logger.Info("Starting field analysis",
		zap.String("provider", provider),
		zap.String("integration_id", integrationID.String()),
		zap.Int("field_count", len(sourceFields)))

	recommendations, err := s.buildAllRecommendations(ctx, provider, sourceFields)
	if err != nil {
		return nil, err
	}

	result.RecommendedMappings = recommendations
	result.ConfidenceMetrics = confidenceMetrics(sourceFields, recommendations)
	result.PopulationRates = populationRates(sourceFields)
	result.HierarchicalStructure = buildHierarchy(recommendations)
	result.Warnings = integrationWarnings(sourceFields, recommendations)
	result.ProcessingTime = time.Since(start)

	s.logger.Info("Field analysis complete",
		zap.Int("mapped", len(recommendations)),
		zap.Int("discovered", len(sourceFields)),
		zap.Float64("average_confidence", result.ConfidenceMetrics.AverageConfidence),
		zap.Duration("duration", result.ProcessingTime))

	return result, nil
}

// buildAllRecommendations fans per-field scoring out on the worker pool.
// Each field is scored independently, so completion order is irrelevant;
// results are re-ordered to input order, and fields with no candidate are
// dropped (not errors).
func (s *fieldAnalysisService) buildAllRecommendations(ctx context.Context, provider string, sourceFields []models.SourceField) ([]*models.MappingRecommendation, error) {
	type indexedRecommendation struct {
		index int
		rec   *models.MappingRecommendation
	}

	items := make([]workers.WorkItem[indexedRecommendation], len(sourceFields))
	for i, field := range sourceFields {
		index, field := i, field
		items[i] = workers.WorkItem[indexedRecommendation]{
			ID: field.ID,
			Execute: func(ctx context.Context) (indexedRecommendation, error) {
				rec, err := s.builder.BuildRecommendation(ctx, provider, field)
				return indexedRecommendation{index: index, rec: rec}, err
			},
		}
	}

	byIndex := make([]*models.MappingRecommendation, len(sourceFields))
	for _, r := range workers.Process(ctx, s.pool, items, nil) {
		if r.Err != nil {
			// The builder only fails on context cancellation, which is the
			// caller's own timeout and aborts the whole run.
			return nil, fmt.Errorf("analyze field %q: %w", r.ID, r.Err)
		}
		byIndex[r.Result.index] = r.Result.rec
	}

	recommendations := make([]*models.MappingRecommendation, 0, len(sourceFields))
	for _, rec := range byIndex {
		if rec != nil {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations, nil
}

// confidenceMetrics counts recommendations per tier and averages overall
// confidence. TotalFields equals the number of recommendations, and the tier
// counts always sum to it.
func confidenceMetrics(sourceFields []models.SourceField, recommendations []*models.MappingRecommendation) models.ConfidenceAnalysis {
	typeByFieldID := make(map[string]models.FieldType, len(sourceFields))
	for _, f := range sourceFields {
		typeByFieldID[f.ID] = f.Type
	}

	metrics := models.ConfidenceAnalysis{
		TotalFields:        len(recommendations),
		DistributionByType: make(map[models.FieldType]int),
	}

	var sum float64
	for _, rec := range recommendations {
		sum += rec.Confidence.Overall
		metrics.DistributionByType[typeByFieldID[rec.SourceFieldID]]++

		switch rec.Confidence.Recommendation {
		case models.TierAutoMap:
			metrics.AutoMappable++
		case models.TierSuggest:
			metrics.HighConfidence++
		case models.TierManualReview:
			metrics.MediumConfidence++
		case models.TierLowConfidence:
			metrics.LowConfidence++
		case models.TierNoMatch:
			metrics.NoMatch++
		}
	}

	if len(recommendations) > 0 {
		metrics.AverageConfidence = sum / float64(len(recommendations))
	}
	return metrics
}

// populationRates snapshots data quality for every discovered field, mapped
// or not. When the adapter did not report an item count, sample count stands
// in for it.
func populationRates(sourceFields []models.SourceField) []models.PopulationRate {
	rates := make([]models.PopulationRate, 0, len(sourceFields))
	for _, f := range sourceFields {
		total := f.ItemCount
		if total == 0 {
			total = len(f.Samples)
		}
		rates = append(rates, models.PopulationRate{
			FieldID:        f.ID,
			FieldName:      f.Name,
			PopulationRate: f.PopulationRate,
			TotalItems:     total,
			PopulatedItems: int(math.Round(f.PopulationRate * float64(total))),
			Quality:        models.QualityForPopulationRate(f.PopulationRate),
		})
	}
	return rates
}

// buildHierarchy emits a single flat level of mapped target names.
// Multi-level parent/child grouping is an extension point.
func buildHierarchy(recommendations []*models.MappingRecommendation) models.FieldHierarchy {
	if len(recommendations) == 0 {
		return models.FieldHierarchy{}
	}

	targets := make([]string, 0, len(recommendations))
	for _, rec := range recommendations {
		targets = append(targets, rec.TargetField)
	}
	sort.Strings(targets)

	return models.FieldHierarchy{
		Levels: []models.HierarchyLevel{
			{Level: 1, TargetFields: targets},
		},
	}
}

func integrationWarnings(sourceFields []models.SourceField, recommendations []*models.MappingRecommendation) []string {
	if len(sourceFields) == 0 {
		return nil
	}

	var warnings []string

	coverage := float64(len(recommendations)) / float64(len(sourceFields))
	if coverage < coverageWarningRate {
		warnings = append(warnings, fmt.Sprintf(
			"Low mapping coverage: only %d%% of discovered fields could be mapped",
			roundPercent(coverage)))
	}

	lowPopulation := 0
	for _, f := range sourceFields {
		if f.PopulationRate < sparselyPopulatedRate {
			lowPopulation++
		}
	}
	if lowPopulation > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d field(s) are populated on fewer than %d%% of items",
			lowPopulation, roundPercent(sparselyPopulatedRate)))
	}

	mappedTargets := make(map[string]bool, len(recommendations))
	for _, rec := range recommendations {
		mappedTargets[rec.TargetField] = true
	}
	var missing []string
	for _, name := range criticalTargetFields {
		if !mappedTargets[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"Missing critical field mappings: %s", strings.Join(missing, ", ")))
	}

	return warnings
}
