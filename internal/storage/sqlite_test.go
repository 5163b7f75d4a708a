package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportaudit/internal/model"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		ID:              "11111111-2222-3333-4444-555555555555",
		ProcessedAt:     time.Date(2025, 10, 31, 12, 0, 0, 0, time.UTC),
		FilePath:        "veeam_okt.csv",
		DetectedType:    "veeam_backup",
		DetectionMethod: model.DetectedByFilename,
		AnalysisMethod:  model.MethodAlgorithmic,
		Score:           75,
		RiskLevel:       model.RiskMedium,
		Status:          model.StatusLimited,
		CheckResults: []model.CheckResult{
			{CheckID: "failed_jobs", Outcome: model.OutcomeFailed, Severity: model.SeverityHigh, Message: "2 von 30 Zeilen betroffen (6.7%)"},
		},
		ExtractedFields: map[string]any{"reportPeriod": "2025-10"},
	}
}

func TestSaveAndCachedResult(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, "fp-1", testResult()))

	got, err := store.CachedResult(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 75, got.Score)
	assert.Equal(t, model.StatusLimited, got.Status)
	assert.Equal(t, model.RiskMedium, got.RiskLevel)
	assert.Equal(t, "veeam_backup", got.DetectedType)
	require.Len(t, got.CheckResults, 1)
	assert.Equal(t, "failed_jobs", got.CheckResults[0].CheckID)
	assert.Equal(t, "2025-10", got.ExtractedFields["reportPeriod"])
}

func TestCachedResultMiss(t *testing.T) {
	store := createTestStore(t)

	got, err := store.CachedResult(context.Background(), "unknown-fp")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveResultUpserts(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first := testResult()
	require.NoError(t, store.SaveResult(ctx, "fp-1", first))

	second := testResult()
	second.Score = 100
	second.Status = model.StatusOK
	second.RiskLevel = model.RiskLow
	require.NoError(t, store.SaveResult(ctx, "fp-1", second))

	got, err := store.CachedResult(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, model.StatusOK, got.Status)
}

func TestClear(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, "fp-1", testResult()))
	require.NoError(t, store.Clear(ctx))

	got, err := store.CachedResult(ctx, "fp-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveResultValidation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveResult(ctx, "", testResult()))
	assert.Error(t, store.SaveResult(ctx, "fp-1", nil))
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := createTestStore(t)
	assert.NoError(t, store.Migrate(context.Background()))
}
