package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "/docs/qa.pdf", "/docs/bom.xlsx")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusInitialized, run.Status)

	err = s.UpdateRunProgress(ctx, run.ID, model.RunStatusProcessing, model.StageTranslate, 5, "translating")
	require.NoError(t, err)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusProcessing, got.Status)
	assert.Equal(t, model.StageTranslate, got.CurrentStage)
	assert.Equal(t, 5.0, got.Progress)
	assert.Equal(t, "/docs/qa.pdf", got.QADocRef)

	result := &model.BOMComparisonResult{
		RunID:        run.ID,
		TotalQAItems: 2,
		Matches: []model.BOMMatch{
			{MaterialName: "bolt", MatchType: model.MatchExactPartNumber, ConfidenceScore: 0.98},
			{MaterialName: "glue", MatchType: model.MatchNone},
		},
		Summary: model.QAClassificationSummary{Total: 2, Green: 1, Red: 1},
	}
	require.NoError(t, s.UpdateRunResult(ctx, run.ID, result))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, 100.0, got.Progress)
	require.NotNil(t, got.Result)
	assert.Len(t, got.Result.Matches, 2)
	assert.Equal(t, 1, got.Result.Summary.Green)
}

func TestSQLiteStore_FailRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "qa", "bom")
	require.NoError(t, err)

	require.NoError(t, s.FailRun(ctx, run.ID, model.StageExtract, "extraction failed: boom"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusError, got.Status)
	assert.Equal(t, model.StageExtract, got.CurrentStage)
	assert.Contains(t, got.Message, "boom")
}

func TestSQLiteStore_UpdateMissingRun(t *testing.T) {
	s := newTestSQLite(t)
	err := s.UpdateRunProgress(context.Background(), "nope", model.RunStatusProcessing, model.StageTranslate, 5, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_ListRunsFilter(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, "qa1", "bom1")
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "qa2", "bom2")
	require.NoError(t, err)

	require.NoError(t, s.FailRun(ctx, a.ID, model.StageTranslate, "bad"))

	failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusError})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID, failed[0].ID)

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "qa", "bom")
	require.NoError(t, err)

	require.NoError(t, s.SaveSnapshot(ctx, run.ID, model.StageTranslate, map[string]any{"translated_text": "hello"}))
	require.NoError(t, s.SaveSnapshot(ctx, run.ID, model.StageSupplier, map[string]any{"total_items": 3}))

	// Overwrite is allowed; the latest snapshot for a stage wins.
	require.NoError(t, s.SaveSnapshot(ctx, run.ID, model.StageTranslate, map[string]any{"translated_text": "hello again"}))

	data, err := s.GetSnapshot(ctx, run.ID, model.StageTranslate)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello again")

	missing, err := s.GetSnapshot(ctx, run.ID, model.StageCompare)
	require.NoError(t, err)
	assert.Nil(t, missing)

	stages, err := s.ListSnapshotStages(ctx, run.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Stage{model.StageTranslate, model.StageSupplier}, stages)
}
