package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mapwise/mapping-engine/pkg/apperrors"
	"github.com/mapwise/mapping-engine/pkg/models"
)

type historyKey struct {
	provider, sourceField, targetField string
}

type historyCounts struct {
	accepted, rejected int64
}

// MemoryMappingHistoryRepository is an in-memory MappingHistoryRepository for
// tests and embedding callers that do not run a database. Safe for concurrent
// use.
type MemoryMappingHistoryRepository struct {
	mu       sync.RWMutex
	counts   map[historyKey]historyCounts
	analyses []*models.FieldAnalysisResult
}

// NewMemoryMappingHistoryRepository creates an empty in-memory repository.
func NewMemoryMappingHistoryRepository() *MemoryMappingHistoryRepository {
	return &MemoryMappingHistoryRepository{
		counts: make(map[historyKey]historyCounts),
	}
}

var _ MappingHistoryRepository = (*MemoryMappingHistoryRepository)(nil)

func (r *MemoryMappingHistoryRepository) LookupSuccessRate(_ context.Context, provider, sourceField, targetField string) (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.counts[historyKey{provider, sourceField, targetField}]
	total := c.accepted + c.rejected
	if !ok || total == 0 {
		return 0, false, nil
	}
	return float64(c.accepted) / float64(total), true, nil
}

func (r *MemoryMappingHistoryRepository) RecordOutcome(_ context.Context, provider, sourceField, targetField string, accepted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := historyKey{provider, sourceField, targetField}
	c := r.counts[key]
	if accepted {
		c.accepted++
	} else {
		c.rejected++
	}
	r.counts[key] = c
	return nil
}

func (r *MemoryMappingHistoryRepository) SaveAnalysis(_ context.Context, result *models.FieldAnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.analyses = append(r.analyses, result)
	return nil
}

func (r *MemoryMappingHistoryRepository) GetLatestAnalysis(_ context.Context, integrationID uuid.UUID, schemaVersion string) (*models.FieldAnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.analyses) - 1; i >= 0; i-- {
		result := r.analyses[i]
		if result.IntegrationID != integrationID {
			continue
		}
		if result.SchemaVersion != schemaVersion {
			return nil, fmt.Errorf("stored run uses schema version %s: %w", result.SchemaVersion, apperrors.ErrSchemaVersionMismatch)
		}
		return result, nil
	}
	return nil, fmt.Errorf("analysis for integration %s: %w", integrationID, apperrors.ErrNotFound)
}

// SavedAnalyses returns the analyses persisted so far.
func (r *MemoryMappingHistoryRepository) SavedAnalyses() []*models.FieldAnalysisResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.FieldAnalysisResult, len(r.analyses))
	copy(out, r.analyses)
	return out
}
