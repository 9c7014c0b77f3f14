package workflow

import (
	"errors"
	"fmt"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/model"
)

// StageError marks a collaborator failure in a named stage. It aborts the
// run and is never retried.
type StageError struct {
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// EngineError marks an unexpected failure inside the comparison stage. The
// pipeline degrades to an empty match list instead of aborting the run.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("match engine failed: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// FailedStage extracts the stage name from a pipeline error, if any.
func FailedStage(err error) (model.Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
