package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/db"
	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path run registry operations.
var preparedStatements = map[string]string{
	"insert_run":          `INSERT INTO workflow_runs (id, status, qa_doc_ref, supplier_ref, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"update_run_progress": `UPDATE workflow_runs SET status = $1, current_stage = $2, progress = $3, message = $4, updated_at = $5 WHERE id = $6`,
	"update_run_result":   `UPDATE workflow_runs SET result = $1, status = $2, progress = 100, current_stage = $3, updated_at = $4 WHERE id = $5`,
	"fail_run":            `UPDATE workflow_runs SET status = $1, current_stage = $2, message = $3, updated_at = $4 WHERE id = $5`,
	"get_run":             `SELECT id, status, progress, current_stage, qa_doc_ref, supplier_ref, message, result, created_at, updated_at FROM workflow_runs WHERE id = $1`,
	"save_snapshot":       `INSERT INTO stage_snapshots (id, run_id, stage, data, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (run_id, stage) DO UPDATE SET data = EXCLUDED.data, created_at = EXCLUDED.created_at`,
	"get_snapshot":        `SELECT data FROM stage_snapshots WHERE run_id = $1 AND stage = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS workflow_runs (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status        TEXT NOT NULL DEFAULT 'initialized',
	progress      DOUBLE PRECISION NOT NULL DEFAULT 0,
	current_stage TEXT NOT NULL DEFAULT '',
	qa_doc_ref    TEXT NOT NULL,
	supplier_ref  TEXT NOT NULL,
	message       TEXT NOT NULL DEFAULT '',
	result        JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stage_snapshots (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES workflow_runs(id),
	stage      TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(run_id, stage)
);

CREATE TABLE IF NOT EXISTS bom_matches (
	run_id               TEXT NOT NULL REFERENCES workflow_runs(id),
	material_name        TEXT NOT NULL,
	part_number          TEXT NOT NULL DEFAULT '',
	supplier_part_number TEXT NOT NULL DEFAULT '',
	supplier_description TEXT NOT NULL DEFAULT '',
	match_type           TEXT NOT NULL,
	confidence_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	classification_label INTEGER NOT NULL,
	action_path          TEXT NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_workflow_runs_status ON workflow_runs(status);
CREATE INDEX IF NOT EXISTS idx_stage_snapshots_run_id ON stage_snapshots(run_id);
CREATE INDEX IF NOT EXISTS idx_bom_matches_run_id ON bom_matches(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, qaDocRef, supplierRef string) (*model.WorkflowRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO workflow_runs (id, status, qa_doc_ref, supplier_ref, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, string(model.RunStatusInitialized), qaDocRef, supplierRef, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) UpdateRunProgress(ctx context.Context, runID string, status model.RunStatus, stage model.Stage, progress float64, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE workflow_runs SET status = $1, current_stage = $2, progress = $3, message = $4, updated_at = $5 WHERE id = $6`,
		string(status), string(stage), progress, message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run progress %s", runID)
	}
	return checkTag(tag, "run", runID)
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.BOMComparisonResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE workflow_runs SET result = $1, status = $2, progress = 100, current_stage = $3, updated_at = $4 WHERE id = $5`,
		resultJSON, string(model.RunStatusCompleted), string(model.StageComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	return checkTag(tag, "run", runID)
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, stage model.Stage, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE workflow_runs SET status = $1, current_stage = $2, message = $3, updated_at = $4 WHERE id = $5`,
		string(model.RunStatusError), string(stage), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	return checkTag(tag, "run", runID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.WorkflowRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, progress, current_stage, qa_doc_ref, supplier_ref, message, result, created_at, updated_at FROM workflow_runs WHERE id = $1`,
		runID,
	)

	r, err := scanPgRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.WorkflowRun, error) {
	query := `SELECT id, status, progress, current_stage, qa_doc_ref, supplier_ref, message, result, created_at, updated_at FROM workflow_runs`
	var args []any

	argn := 1
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
		argn++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT $` + strconv.Itoa(argn)
	args = append(args, limit)
	argn++

	if filter.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(argn)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.WorkflowRun
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, runID string, stage model.Stage, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal %s snapshot", stage)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO stage_snapshots (id, run_id, stage, data, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (run_id, stage) DO UPDATE SET data = EXCLUDED.data, created_at = EXCLUDED.created_at`,
		uuid.New().String(), runID, string(stage), payload, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save %s snapshot", stage)
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, runID string, stage model.Stage) (json.RawMessage, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM stage_snapshots WHERE run_id = $1 AND stage = $2`,
		runID, string(stage),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get %s snapshot", stage)
	}
	return json.RawMessage(data), nil
}

func (s *PostgresStore) ListSnapshotStages(ctx context.Context, runID string) ([]model.Stage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT stage FROM stage_snapshots WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshot stages")
	}
	defer rows.Close()

	var stages []model.Stage
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot stage")
		}
		stages = append(stages, model.Stage(stage))
	}
	return stages, eris.Wrap(rows.Err(), "postgres: list snapshot stages iterate")
}

// ArchiveMatches replaces the relational match rows for a run with the given
// set, using COPY for the bulk insert. Rows here mirror the authoritative
// JSON result on workflow_runs and exist for ad-hoc SQL reporting.
func (s *PostgresStore) ArchiveMatches(ctx context.Context, runID string, matches []model.BOMMatch) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM bom_matches WHERE run_id = $1`, runID); err != nil {
		return eris.Wrapf(err, "postgres: clear matches %s", runID)
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []any{
			runID, m.MaterialName, m.PartNumber, m.SupplierPartNumber, m.SupplierDescription,
			string(m.MatchType), m.ConfidenceScore, int(m.Label), string(m.ActionPath), now,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "bom_matches", []string{
		"run_id", "material_name", "part_number", "supplier_part_number", "supplier_description",
		"match_type", "confidence_score", "classification_label", "action_path", "created_at",
	}, rows)
	return eris.Wrapf(err, "postgres: archive matches %s", runID)
}

// helpers

func checkTag(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func scanPgRun(row pgx.Row) (*model.WorkflowRun, error) {
	var r model.WorkflowRun
	var resultJSON []byte

	err := row.Scan(&r.ID, &r.Status, &r.Progress, &r.CurrentStage, &r.QADocRef,
		&r.SupplierRef, &r.Message, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan run")
	}

	if len(resultJSON) > 0 {
		r.Result = &model.BOMComparisonResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal run result")
		}
	}
	return &r, nil
}
