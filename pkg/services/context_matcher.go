package services

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mapwise/mapping-engine/pkg/models"
	"github.com/mapwise/mapping-engine/pkg/schema"
)

// ContextMatcher inspects a source field's sample values for shapes that
// corroborate a target field's semantics (Fibonacci-like numbers for story
// points, enumerated priority words). Returns the accumulated boost for the
// target, capped at 1.0, or 0 when no rule applies.
type ContextMatcher interface {
	Score(field *models.SourceField, targetName string) float64
}

type contextMatcher struct {
	registry *schema.Registry
	logger   *zap.Logger
}

// NewContextMatcher creates a ContextMatcher driven by the registry's
// context rules.
func NewContextMatcher(registry *schema.Registry, logger *zap.Logger) ContextMatcher {
	return &contextMatcher{
		registry: registry,
		logger:   logger.Named("context-matcher"),
	}
}

var _ ContextMatcher = (*contextMatcher)(nil)

func (m *contextMatcher) Score(field *models.SourceField, targetName string) float64 {
	var score float64
	for _, rule := range m.registry.ContextRules() {
		if rule.Target != targetName || rule.SourceType != field.Type {
			continue
		}
		if ruleFires(rule, field) {
			score += rule.Boost
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func ruleFires(rule schema.ContextRule, field *models.SourceField) bool {
	switch rule.Match {
	case schema.MatchAllNumbersInSet:
		return allNumbersInSet(field.NonNullSamples(), rule.Numbers)
	case schema.MatchAnyTextInSet:
		return anyTextInSet(field.Samples, rule.Texts)
	default:
		return false
	}
}

// allNumbersInSet reports whether every non-null sample is a number drawn
// from the allowed set. An empty sample set corroborates nothing.
func allNumbersInSet(samples []models.FieldValue, allowed []float64) bool {
	if len(samples) == 0 {
		return false
	}
	for _, s := range samples {
		if s.Kind != models.FieldValueNumber {
			return false
		}
		found := false
		for _, n := range allowed {
			if s.Number == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// anyTextInSet reports whether any sample text equals one of the allowed
// words, case-insensitively.
func anyTextInSet(samples []models.FieldValue, allowed []string) bool {
	for _, s := range samples {
		if s.Kind != models.FieldValueText {
			continue
		}
		for _, w := range allowed {
			if strings.EqualFold(s.Text, w) {
				return true
			}
		}
	}
	return false
}
