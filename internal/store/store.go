// Package store persists workflow runs and stage snapshots. It doubles as
// the concurrency-safe run registry shared by the pipeline and the HTTP
// surface.
package store

import (
	"context"
	"encoding/json"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the comparison workflow.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, qaDocRef, supplierRef string) (*model.WorkflowRun, error)
	UpdateRunProgress(ctx context.Context, runID string, status model.RunStatus, stage model.Stage, progress float64, message string) error
	UpdateRunResult(ctx context.Context, runID string, result *model.BOMComparisonResult) error
	FailRun(ctx context.Context, runID string, stage model.Stage, message string) error
	GetRun(ctx context.Context, runID string) (*model.WorkflowRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.WorkflowRun, error)

	// Stage snapshots (diagnostic artifacts, best-effort from the
	// pipeline's point of view)
	SaveSnapshot(ctx context.Context, runID string, stage model.Stage, data any) error
	GetSnapshot(ctx context.Context, runID string, stage model.Stage) (json.RawMessage, error)
	ListSnapshotStages(ctx context.Context, runID string) ([]model.Stage, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
