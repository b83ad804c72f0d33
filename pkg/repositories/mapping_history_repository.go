package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mapwise/mapping-engine/pkg/apperrors"
	"github.com/mapwise/mapping-engine/pkg/database"
	"github.com/mapwise/mapping-engine/pkg/models"
)

// MappingHistoryRepository provides access to historical mapping outcomes and
// persisted analysis runs. The engine consumes only LookupSuccessRate during
// scoring; recording and persistence are driven by the calling system after a
// human accepts or rejects recommendations.
type MappingHistoryRepository interface {
	// LookupSuccessRate returns the observed success rate for a
	// (provider, sourceField, targetField) mapping, or ok=false when no
	// history exists. Absence is not an error.
	LookupSuccessRate(ctx context.Context, provider, sourceField, targetField string) (rate float64, ok bool, err error)

	// RecordOutcome records one accepted or rejected mapping decision.
	RecordOutcome(ctx context.Context, provider, sourceField, targetField string, accepted bool) error

	// SaveAnalysis persists a completed analysis run as a document.
	SaveAnalysis(ctx context.Context, result *models.FieldAnalysisResult) error

	// GetLatestAnalysis returns the most recent persisted run for the
	// integration. It fails with apperrors.ErrNotFound when no run exists,
	// and with apperrors.ErrSchemaVersionMismatch when the stored run was
	// produced under a different schema version and must be re-analyzed.
	GetLatestAnalysis(ctx context.Context, integrationID uuid.UUID, schemaVersion string) (*models.FieldAnalysisResult, error)
}

type postgresMappingHistoryRepository struct {
	db *database.DB
}

// NewMappingHistoryRepository creates a PostgreSQL-backed MappingHistoryRepository.
func NewMappingHistoryRepository(db *database.DB) MappingHistoryRepository {
	return &postgresMappingHistoryRepository{db: db}
}

var _ MappingHistoryRepository = (*postgresMappingHistoryRepository)(nil)

func (r *postgresMappingHistoryRepository) LookupSuccessRate(ctx context.Context, provider, sourceField, targetField string) (float64, bool, error) {
	query := `
		SELECT accepted_count, rejected_count
		FROM mapping_history
		WHERE provider = $1 AND source_field = $2 AND target_field = $3`

	var accepted, rejected int64
	err := r.db.QueryRow(ctx, query, provider, sourceField, targetField).Scan(&accepted, &rejected)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup mapping history: %w", err)
	}

	total := accepted + rejected
	if total == 0 {
		return 0, false, nil
	}
	return float64(accepted) / float64(total), true, nil
}

func (r *postgresMappingHistoryRepository) RecordOutcome(ctx context.Context, provider, sourceField, targetField string, accepted bool) error {
	acceptedDelta := 0
	rejectedDelta := 0
	if accepted {
		acceptedDelta = 1
	} else {
		rejectedDelta = 1
	}

	query := `
		INSERT INTO mapping_history (provider, source_field, target_field, accepted_count, rejected_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, source_field, target_field) DO UPDATE SET
			accepted_count = mapping_history.accepted_count + EXCLUDED.accepted_count,
			rejected_count = mapping_history.rejected_count + EXCLUDED.rejected_count,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query, provider, sourceField, targetField, acceptedDelta, rejectedDelta, time.Now())
	if err != nil {
		return fmt.Errorf("record mapping outcome: %w", err)
	}
	return nil
}

func (r *postgresMappingHistoryRepository) SaveAnalysis(ctx context.Context, result *models.FieldAnalysisResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}

	query := `
		INSERT INTO field_analysis_runs (id, integration_id, provider, schema_version, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.Exec(ctx, query,
		uuid.New(), result.IntegrationID, result.Provider,
		result.SchemaVersion, doc, result.AnalysisTimestamp,
	)
	if err != nil {
		return fmt.Errorf("save analysis run: %w", err)
	}
	return nil
}

func (r *postgresMappingHistoryRepository) GetLatestAnalysis(ctx context.Context, integrationID uuid.UUID, schemaVersion string) (*models.FieldAnalysisResult, error) {
	query := `
		SELECT schema_version, result
		FROM field_analysis_runs
		WHERE integration_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var storedVersion string
	var doc []byte
	err := r.db.QueryRow(ctx, query, integrationID).Scan(&storedVersion, &doc)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("analysis for integration %s: %w", integrationID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get latest analysis: %w", err)
	}

	if storedVersion != schemaVersion {
		return nil, fmt.Errorf("stored run uses schema version %s: %w", storedVersion, apperrors.ErrSchemaVersionMismatch)
	}

	var result models.FieldAnalysisResult
	if err := json.Unmarshal(doc, &result); err != nil {
		return nil, fmt.Errorf("unmarshal analysis result: %w", err)
	}
	return &result, nil
}
