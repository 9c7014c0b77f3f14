package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS workflow_runs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL DEFAULT 'initialized',
	progress      REAL NOT NULL DEFAULT 0,
	current_stage TEXT NOT NULL DEFAULT '',
	qa_doc_ref    TEXT NOT NULL,
	supplier_ref  TEXT NOT NULL,
	message       TEXT NOT NULL DEFAULT '',
	result        TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS stage_snapshots (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES workflow_runs(id),
	stage      TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(run_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_workflow_runs_status ON workflow_runs(status);
CREATE INDEX IF NOT EXISTS idx_stage_snapshots_run_id ON stage_snapshots(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, qaDocRef, supplierRef string) (*model.WorkflowRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workflow_runs (id, status, qa_doc_ref, supplier_ref, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(model.RunStatusInitialized), qaDocRef, supplierRef, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.WorkflowRun{
		ID:          id,
		Status:      model.RunStatusInitialized,
		QADocRef:    qaDocRef,
		SupplierRef: supplierRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SQLiteStore) UpdateRunProgress(ctx context.Context, runID string, status model.RunStatus, stage model.Stage, progress float64, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflow_runs SET status = ?, current_stage = ?, progress = ?, message = ?, updated_at = ? WHERE id = ?`,
		string(status), string(stage), progress, message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run progress %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.BOMComparisonResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE workflow_runs SET result = ?, status = ?, progress = 100, current_stage = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusCompleted), string(model.StageComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, stage model.Stage, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflow_runs SET status = ?, current_stage = ?, message = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusError), string(stage), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.WorkflowRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, progress, current_stage, qa_doc_ref, supplier_ref, message, result, created_at, updated_at
		 FROM workflow_runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.WorkflowRun, error) {
	query := `SELECT id, status, progress, current_stage, qa_doc_ref, supplier_ref, message, result, created_at, updated_at
	          FROM workflow_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.WorkflowRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, runID string, stage model.Stage, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal %s snapshot", stage)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stage_snapshots (id, run_id, stage, data, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, stage) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		uuid.New().String(), runID, string(stage), string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save %s snapshot", stage)
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, runID string, stage model.Stage) (json.RawMessage, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM stage_snapshots WHERE run_id = ? AND stage = ?`,
		runID, string(stage),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s snapshot", stage)
	}
	return json.RawMessage(data), nil
}

func (s *SQLiteStore) ListSnapshotStages(ctx context.Context, runID string) ([]model.Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage FROM stage_snapshots WHERE run_id = ? ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshot stages")
	}
	defer rows.Close()

	var stages []model.Stage
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot stage")
		}
		stages = append(stages, model.Stage(stage))
	}
	return stages, eris.Wrap(rows.Err(), "sqlite: list snapshot stages iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.WorkflowRun, error) {
	var r model.WorkflowRun
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &r.Status, &r.Progress, &r.CurrentStage, &r.QADocRef,
		&r.SupplierRef, &r.Message, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan run")
	}

	if resultJSON.Valid {
		r.Result = &model.BOMComparisonResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal run result")
		}
	}
	return &r, nil
}
