package lifecycle

import (
	"encoding/json"
	"fmt"
)

// Stage names the orchestrator step a failure happened in
type Stage string

const (
	StageConfiguration Stage = "configuration"
	StageFetch         Stage = "fetch"
	StageStartup       Stage = "startup"
	StageInvocation    Stage = "invocation"
	StageTraining      Stage = "training"
	StagePublish       Stage = "publish"
)

// StageError is a fatal failure of a training run.
// Payload is the structured error reported to the status endpoint.
type StageError struct {
	Stage   Stage
	Message string
	Payload json.RawMessage
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
