package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mapwise/mapping-engine/pkg/models"
	"github.com/mapwise/mapping-engine/pkg/repositories"
	"github.com/mapwise/mapping-engine/pkg/retry"
	"github.com/mapwise/mapping-engine/pkg/schema"
)

// Confidence formula weights. Name, type, and population are weighted
// fractions of the base score; the context boost is additive on top (it is
// already scaled to at most 0.3 by the rule tables), so corroborating sample
// values can promote a strong candidate into the auto-map tier.
const (
	weightNameMatch      = 0.4
	weightTypeMatch      = 0.3
	weightPopulationRate = 0.1

	// populationBoost rewards well-populated fields before clamping to 1.0.
	populationBoost = 1.2

	// neutralHistoricalSuccess is assumed when no history exists or the
	// lookup fails.
	neutralHistoricalSuccess = 0.5
)

// Tier cut-points, evaluated high to low, first match wins. These are
// invariant constants of the engine: tuning them means shipping a new rule
// version, never a silent change.
const (
	thresholdAutoMap       = 0.9
	thresholdSuggest       = 0.75
	thresholdManualReview  = 0.5
	thresholdLowConfidence = 0.3
)

// Population-rate bounds used for qualitative reasoning and warnings.
const (
	wellPopulatedRate     = 0.8
	sparselyPopulatedRate = 0.3
)

// TierFor classifies an overall confidence into its recommendation tier and
// returns the cut-point it cleared (0 for NO_MATCH).
func TierFor(overall float64) (models.RecommendationTier, float64) {
	switch {
	case overall >= thresholdAutoMap:
		return models.TierAutoMap, thresholdAutoMap
	case overall >= thresholdSuggest:
		return models.TierSuggest, thresholdSuggest
	case overall >= thresholdManualReview:
		return models.TierManualReview, thresholdManualReview
	case overall >= thresholdLowConfidence:
		return models.TierLowConfidence, thresholdLowConfidence
	default:
		return models.TierNoMatch, 0
	}
}

// ConfidenceClassifier combines the scoring signals for one
// (sourceField, targetField) pair into a MappingConfidence.
type ConfidenceClassifier interface {
	Classify(ctx context.Context, provider string, field *models.SourceField, target schema.TargetField) models.MappingConfidence

	// Reasoning renders the deterministic explanation for a classification.
	Reasoning(field *models.SourceField, target schema.TargetField, conf models.MappingConfidence) string
}

type confidenceClassifier struct {
	matcher        SemanticMatcher
	typeScorer     TypeCompatibilityScorer
	contextMatcher ContextMatcher
	historyRepo    repositories.MappingHistoryRepository
	lookupTimeout  time.Duration
	logger         *zap.Logger
}

// NewConfidenceClassifier creates a ConfidenceClassifier. historyRepo may be
// nil when no historical store is available; lookups then report the neutral
// score.
func NewConfidenceClassifier(
	matcher SemanticMatcher,
	typeScorer TypeCompatibilityScorer,
	contextMatcher ContextMatcher,
	historyRepo repositories.MappingHistoryRepository,
	lookupTimeout time.Duration,
	logger *zap.Logger,
) ConfidenceClassifier {
	if lookupTimeout <= 0 {
		lookupTimeout = 250 * time.Millisecond
	}
	return &confidenceClassifier{
		matcher:        matcher,
		typeScorer:     typeScorer,
		contextMatcher: contextMatcher,
		historyRepo:    historyRepo,
		lookupTimeout:  lookupTimeout,
		logger:         logger.Named("confidence-classifier"),
	}
}

var _ ConfidenceClassifier = (*confidenceClassifier)(nil)

func (s *confidenceClassifier) Classify(ctx context.Context, provider string, field *models.SourceField, target schema.TargetField) models.MappingConfidence {
	nameScore := s.matcher.Score(field, target.Name)
	typeScore := s.typeScorer.Score(field.Type, target.Type)
	contextScore := s.contextMatcher.Score(field, target.Name)

	populationBoosted := math.Min(1.0, field.PopulationRate*populationBoost)

	overall := weightNameMatch*nameScore +
		weightTypeMatch*typeScore +
		weightPopulationRate*populationBoosted +
		contextScore
	if overall > 1.0 {
		overall = 1.0
	}

	// Historical success is looked up and carried as a factor, but it is not
	// folded into the overall score. It informs reasoning and the ordering
	// of alternatives only.
	historical := s.historicalSuccess(ctx, provider, field.Name, target.Name)

	tier, threshold := TierFor(overall)

	return models.MappingConfidence{
		Overall: overall,
		Factors: models.ConfidenceFactors{
			NameMatch:         nameScore,
			TypeMatch:         typeScore,
			PopulationRate:    field.PopulationRate,
			ContextMatch:      contextScore,
			HistoricalSuccess: historical,
		},
		Recommendation: tier,
		Threshold:      threshold,
	}
}

// historicalSuccess looks up prior mapping outcomes with a bounded timeout.
// Absence, failure, or timeout all degrade to the neutral score; a slow or
// broken history store must never stall or fail an analysis.
func (s *confidenceClassifier) historicalSuccess(ctx context.Context, provider, sourceField, targetField string) float64 {
	if s.historyRepo == nil {
		return neutralHistoricalSuccess
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	type lookupResult struct {
		rate float64
		ok   bool
	}
	res, err := retry.DoWithResult(lookupCtx, retry.LookupConfig(), func() (lookupResult, error) {
		rate, ok, err := s.historyRepo.LookupSuccessRate(lookupCtx, provider, sourceField, targetField)
		return lookupResult{rate: rate, ok: ok}, err
	})
	if err != nil {
		s.logger.Debug("Historical lookup failed, using neutral score",
			zap.String("source_field", sourceField),
			zap.String("target_field", targetField),
			zap.Error(err))
		return neutralHistoricalSuccess
	}
	if !res.ok {
		return neutralHistoricalSuccess
	}
	return res.rate
}

func (s *confidenceClassifier) Reasoning(field *models.SourceField, target schema.TargetField, conf models.MappingConfidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name match %d%%, type compatibility %d%%",
		roundPercent(conf.Factors.NameMatch),
		roundPercent(conf.Factors.TypeMatch))

	if conf.Factors.ContextMatch > 0 {
		fmt.Fprintf(&b, "; sample values corroborate %s", target.Name)
	}
	if field.PopulationRate > wellPopulatedRate {
		fmt.Fprintf(&b, "; field is well populated (%d%%)", roundPercent(field.PopulationRate))
	} else if field.PopulationRate < sparselyPopulatedRate {
		fmt.Fprintf(&b, "; field is sparsely populated (%d%%)", roundPercent(field.PopulationRate))
	}
	if conf.Factors.HistoricalSuccess != neutralHistoricalSuccess {
		fmt.Fprintf(&b, "; prior mappings to %s succeeded %d%% of the time",
			target.Name, roundPercent(conf.Factors.HistoricalSuccess))
	}
	return b.String()
}

func roundPercent(fraction float64) int {
	return int(math.Round(fraction * 100))
}
