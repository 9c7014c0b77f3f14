package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, status, progress, current_stage, qa_doc_ref, supplier_ref, message, result, created_at, updated_at FROM workflow_runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "status", "progress", "current_stage", "qa_doc_ref",
		"supplier_ref", "message", "result", "created_at", "updated_at",
	}).AddRow(
		"run-1", model.RunStatusCompleted, 100.0, model.StageComplete, "qa.pdf",
		"bom.xlsx", "done", []byte(`{"workflow_id":"run-1","total_qa_items":1,"matches":[]}`), now, now,
	)

	mock.ExpectQuery(`SELECT id, status, progress, current_stage, qa_doc_ref, supplier_ref, message, result, created_at, updated_at FROM workflow_runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 1, run.Result.TotalQAItems)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunProgress_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE workflow_runs SET status = \$1, current_stage = \$2, progress = \$3, message = \$4, updated_at = \$5 WHERE id = \$6`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunProgress(context.Background(), "missing", model.RunStatusProcessing, model.StageTranslate, 5, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO stage_snapshots`).
		WithArgs(pgxmock.AnyArg(), "run-1", "translation", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveSnapshot(context.Background(), "run-1", model.StageTranslate, map[string]string{"translated_text": "hi"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ArchiveMatches(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM bom_matches WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"bom_matches"}, []string{
		"run_id", "material_name", "part_number", "supplier_part_number", "supplier_description",
		"match_type", "confidence_score", "classification_label", "action_path", "created_at",
	}).WillReturnResult(2)

	matches := []model.BOMMatch{
		{MaterialName: "hex bolt", PartNumber: "B-100", SupplierPartNumber: "B-100",
			MatchType: model.MatchExactPartNumber, ConfidenceScore: 1.0,
			Label: model.LabelConsumableWithPNQty, ActionPath: model.ActionGreen},
		{MaterialName: "epoxy adhesive", MatchType: model.MatchNone,
			Label: model.LabelAmbiguousConsumableName, ActionPath: model.ActionRed},
	}
	err := s.ArchiveMatches(context.Background(), "run-1", matches)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ArchiveMatches_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM bom_matches WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := s.ArchiveMatches(context.Background(), "run-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSnapshot_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM stage_snapshots WHERE run_id = \$1 AND stage = \$2`).
		WithArgs("run-1", "comparison").
		WillReturnError(pgx.ErrNoRows)

	data, err := s.GetSnapshot(context.Background(), "run-1", model.StageCompare)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}
