package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mapwise/mapping-engine/pkg/logging"
	"github.com/mapwise/mapping-engine/pkg/models"
	"github.com/mapwise/mapping-engine/pkg/schema"
)

const (
	// candidateFloor decides whether a target is considered a candidate at
	// all. It is an independent constant from thresholdLowConfidence even
	// though both sit at 0.3: the floor gates candidacy, the threshold
	// labels a surviving candidate.
	candidateFloor = 0.3

	maxAlternatives = 3
	maxExamples     = 3

	// requiredFieldReviewConfidence is the confidence below which a mapping
	// onto a required target field gets a manual-review warning.
	requiredFieldReviewConfidence = 0.7

	// unclearCustomFieldNameScore is the name-match score below which a
	// custom field's mapping is flagged as unclear.
	unclearCustomFieldNameScore = 0.5
)

// RecommendationBuilder produces the per-field mapping verdict: primary
// recommendation, alternatives, illustrative examples, and field-level
// warnings.
type RecommendationBuilder interface {
	// BuildRecommendation scores the field against every target schema entry
	// and returns the best mapping, or nil when no candidate clears the
	// floor. A nil recommendation is not an error.
	BuildRecommendation(ctx context.Context, provider string, field models.SourceField) (*models.MappingRecommendation, error)
}

type recommendationBuilder struct {
	registry   *schema.Registry
	classifier ConfidenceClassifier
	logger     *zap.Logger
}

// NewRecommendationBuilder creates a RecommendationBuilder.
func NewRecommendationBuilder(
	registry *schema.Registry,
	classifier ConfidenceClassifier,
	logger *zap.Logger,
) RecommendationBuilder {
	return &recommendationBuilder{
		registry:   registry,
		classifier: classifier,
		logger:     logger.Named("recommendation-builder"),
	}
}

var _ RecommendationBuilder = (*recommendationBuilder)(nil)

type targetCandidate struct {
	target     schema.TargetField
	confidence models.MappingConfidence
}

func (s *recommendationBuilder) BuildRecommendation(ctx context.Context, provider string, field models.SourceField) (*models.MappingRecommendation, error) {
	var candidates []targetCandidate
	for _, target := range s.registry.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		conf := s.classifier.Classify(ctx, provider, &field, target)
		if conf.Overall > candidateFloor {
			candidates = append(candidates, targetCandidate{target: target, confidence: conf})
		}
	}

	if len(candidates) == 0 {
		s.logger.Debug("No mapping candidate cleared the floor",
			zap.String("source_field", field.Name),
			zap.Strings("samples", logging.SanitizeSamples(field.Samples)))
		return nil, nil
	}

	// Overall descending; ties broken by historical success, then target
	// name, so identical input always yields identical ordering.
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i].confidence, candidates[j].confidence
		if ci.Overall != cj.Overall {
			return ci.Overall > cj.Overall
		}
		if ci.Factors.HistoricalSuccess != cj.Factors.HistoricalSuccess {
			return ci.Factors.HistoricalSuccess > cj.Factors.HistoricalSuccess
		}
		return candidates[i].target.Name < candidates[j].target.Name
	})

	primary := candidates[0]

	alternatives := make([]models.AlternativeMapping, 0, maxAlternatives)
	for _, c := range candidates[1:] {
		if len(alternatives) == maxAlternatives {
			break
		}
		alternatives = append(alternatives, models.AlternativeMapping{
			TargetField: c.target.Name,
			Confidence:  c.confidence.Overall,
			Reasoning:   s.classifier.Reasoning(&field, c.target, c.confidence),
		})
	}

	rec := &models.MappingRecommendation{
		ID:              uuid.New(),
		SourceFieldID:   field.ID,
		SourceFieldName: field.Name,
		TargetField:     primary.target.Name,
		Confidence:      primary.confidence,
		Reasoning:       s.classifier.Reasoning(&field, primary.target, primary.confidence),
		Alternatives:    alternatives,
		Warnings:        fieldWarnings(&field, primary),
		Examples:        buildExamples(&field),
		CreatedAt:       time.Now(),
	}

	s.logger.Debug("Built mapping recommendation",
		zap.String("source_field", field.Name),
		zap.String("target_field", rec.TargetField),
		zap.Float64("confidence", rec.Confidence.Overall),
		zap.String("tier", string(rec.Confidence.Recommendation)))

	return rec, nil
}

// buildExamples turns up to maxExamples non-null samples into before/after
// pairs, recording a transformation description when one applies.
func buildExamples(field *models.SourceField) []models.MappingExample {
	samples := field.NonNullSamples()
	if len(samples) > maxExamples {
		samples = samples[:maxExamples]
	}

	examples := make([]models.MappingExample, 0, len(samples))
	for _, s := range samples {
		transformed, description := transformSample(s)
		examples = append(examples, models.MappingExample{
			SourceValue:    s,
			TargetValue:    transformed,
			Transformation: description,
		})
	}
	return examples
}

// transformSample applies the engine's named value transformations. User
// references collapse to a display-name string; numbers, text, and dates pass
// through unchanged.
func transformSample(v models.FieldValue) (models.FieldValue, string) {
	switch v.Kind {
	case models.FieldValueUser:
		display := ""
		if v.User != nil {
			display = v.User.DisplayName
		}
		return models.TextValue(display), "user reference reduced to display name"
	default:
		return v, ""
	}
}

func fieldWarnings(field *models.SourceField, primary targetCandidate) []string {
	var warnings []string

	if field.PopulationRate < sparselyPopulatedRate {
		warnings = append(warnings, fmt.Sprintf(
			"Low population rate (%d%% of items)", roundPercent(field.PopulationRate)))
	}
	if primary.target.Required && primary.confidence.Overall < requiredFieldReviewConfidence {
		warnings = append(warnings, fmt.Sprintf(
			"Mapping to required field %q needs manual review", primary.target.Name))
	}
	if field.CustomField && primary.confidence.Factors.NameMatch < unclearCustomFieldNameScore {
		warnings = append(warnings, "Custom field with unclear name; verify mapping manually")
	}

	return warnings
}
