package services

import (
	"github.com/mapwise/mapping-engine/pkg/models"
	"github.com/mapwise/mapping-engine/pkg/schema"
)

// TypeCompatibilityScorer scores compatibility between a source field's
// declared type and a target field's declared type in [0,1].
type TypeCompatibilityScorer interface {
	Score(source, target models.FieldType) float64
}

type typeCompatibilityScorer struct {
	registry *schema.Registry
}

// NewTypeCompatibilityScorer creates a scorer backed by the registry's
// pairwise compatibility table.
func NewTypeCompatibilityScorer(registry *schema.Registry) TypeCompatibilityScorer {
	return &typeCompatibilityScorer{registry: registry}
}

var _ TypeCompatibilityScorer = (*typeCompatibilityScorer)(nil)

func (s *typeCompatibilityScorer) Score(source, target models.FieldType) float64 {
	return s.registry.TypeScore(source, target)
}
