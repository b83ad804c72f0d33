//go:build integration

package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapwise/mapping-engine/pkg/apperrors"
	"github.com/mapwise/mapping-engine/pkg/models"
	"github.com/mapwise/mapping-engine/pkg/testhelpers"
)

// historyTestContext holds all dependencies for mapping history integration tests.
type historyTestContext struct {
	t    *testing.T
	repo MappingHistoryRepository
}

// setupHistoryTest creates a test context backed by a real database.
func setupHistoryTest(t *testing.T) *historyTestContext {
	t.Helper()

	engineDB := testhelpers.GetEngineDB(t)
	return &historyTestContext{
		t:    t,
		repo: NewMappingHistoryRepository(engineDB.DB),
	}
}

// uniqueField returns a field name that no other test run has recorded,
// so tests stay isolated on the shared container.
func uniqueField(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

func TestMappingHistoryRepository_LookupMissing(t *testing.T) {
	tc := setupHistoryTest(t)

	rate, ok, err := tc.repo.LookupSuccessRate(context.Background(), "jira", uniqueField("ghost"), "status")
	require.NoError(t, err)
	assert.False(t, ok, "unseen mapping must report no history")
	assert.Zero(t, rate)
}

func TestMappingHistoryRepository_RecordAndLookup(t *testing.T) {
	tc := setupHistoryTest(t)
	ctx := context.Background()
	source := uniqueField("severity")

	for i := 0; i < 3; i++ {
		require.NoError(t, tc.repo.RecordOutcome(ctx, "jira", source, "priority", true))
	}
	require.NoError(t, tc.repo.RecordOutcome(ctx, "jira", source, "priority", false))

	rate, ok, err := tc.repo.LookupSuccessRate(ctx, "jira", source, "priority")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.75, rate, 1e-9, "3 accepted of 4 outcomes")

	// Outcomes are keyed per provider.
	_, ok, err = tc.repo.LookupSuccessRate(ctx, "linear", source, "priority")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMappingHistoryRepository_SaveAndGetLatestAnalysis(t *testing.T) {
	tc := setupHistoryTest(t)
	ctx := context.Background()
	integrationID := uuid.New()

	older := analysisFixture(integrationID, "2024-06", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	newer := analysisFixture(integrationID, "2024-06", time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC))
	newer.Warnings = []string{"Low mapping coverage"}

	require.NoError(t, tc.repo.SaveAnalysis(ctx, older))
	require.NoError(t, tc.repo.SaveAnalysis(ctx, newer))

	got, err := tc.repo.GetLatestAnalysis(ctx, integrationID, "2024-06")
	require.NoError(t, err)
	assert.Equal(t, integrationID, got.IntegrationID)
	assert.True(t, got.AnalysisTimestamp.Equal(newer.AnalysisTimestamp), "latest run wins")
	assert.Equal(t, []string{"Low mapping coverage"}, got.Warnings)
}

func TestMappingHistoryRepository_GetLatestAnalysisNotFound(t *testing.T) {
	tc := setupHistoryTest(t)

	_, err := tc.repo.GetLatestAnalysis(context.Background(), uuid.New(), "2024-06")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestMappingHistoryRepository_GetLatestAnalysisVersionMismatch(t *testing.T) {
	tc := setupHistoryTest(t)
	ctx := context.Background()
	integrationID := uuid.New()

	stored := analysisFixture(integrationID, "2023-01", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, tc.repo.SaveAnalysis(ctx, stored))

	_, err := tc.repo.GetLatestAnalysis(ctx, integrationID, "2024-06")
	assert.True(t, errors.Is(err, apperrors.ErrSchemaVersionMismatch))
}

func analysisFixture(integrationID uuid.UUID, schemaVersion string, ts time.Time) *models.FieldAnalysisResult {
	return &models.FieldAnalysisResult{
		IntegrationID: integrationID,
		Provider:      "jira",
		SchemaVersion: schemaVersion,
		DiscoveredFields: []models.SourceField{
			{Name: "Status", Type: models.FieldTypeSelect, PopulationRate: 0.9},
		},
		AnalysisTimestamp: ts,
	}
}
