package model

import "time"

// RunStatus represents the lifecycle state of a workflow run.
// Completed and error are terminal.
type RunStatus string

const (
	RunStatusInitialized RunStatus = "initialized"
	RunStatusProcessing  RunStatus = "processing"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusError       RunStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusError
}

// Stage names the pipeline stages in execution order.
type Stage string

const (
	StageTranslate Stage = "translation"
	StageExtract   Stage = "extraction"
	StageSupplier  Stage = "supplier_bom"
	StageCompare   Stage = "comparison"
	StageFinalize  Stage = "finalization"
	StageComplete  Stage = "complete"
	StageError     Stage = "error"
)

// WorkflowRun is the registry record for one processing request. A single
// pipeline execution owns and mutates it; there are no concurrent writers.
type WorkflowRun struct {
	ID           string               `json:"id"`
	Status       RunStatus            `json:"status"`
	Progress     float64              `json:"progress"`
	CurrentStage Stage                `json:"current_stage"`
	QADocRef     string               `json:"qa_document_ref"`
	SupplierRef  string               `json:"supplier_bom_ref"`
	Message      string               `json:"message,omitempty"`
	Result       *BOMComparisonResult `json:"result,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}
