package models

import (
	"encoding/json"
	"path"
)

// TrainingJob identifies one training attempt.
// It is built once from the run configuration and never modified.
type TrainingJob struct {
	Tenant    string // external bot id, partitions storage and status namespaces
	RunID     string
	Bucket    string
	ConfigKey string // training config object name, relative to the tenant prefix
	ModelKey  string // destination model object name, relative to the tenant prefix
}

// ConfigObjectKey returns the storage key of the training configuration
func (j TrainingJob) ConfigObjectKey() string {
	return path.Join(j.Tenant, "training", j.ConfigKey)
}

// ModelObjectKey returns the storage key the trained model is published under
func (j TrainingJob) ModelObjectKey() string {
	return path.Join(j.Tenant, "models", j.ModelKey)
}

// LifecycleState represents the externally reported state of a training run
type LifecycleState string

const (
	StateProcessing LifecycleState = "processing"
	StateDone       LifecycleState = "done"
	StateError      LifecycleState = "error"
)

// IsTerminal reports whether no further transition may follow the state
func (s LifecycleState) IsTerminal() bool {
	return s == StateDone || s == StateError
}

// CanTransitionTo reports whether moving from s to next keeps the run monotonic.
// The zero state may only move to processing; processing may only finish.
func (s LifecycleState) CanTransitionTo(next LifecycleState) bool {
	switch s {
	case "":
		return next == StateProcessing
	case StateProcessing:
		return next.IsTerminal()
	default:
		return false
	}
}

// StatusReport is the body sent to the status-tracking endpoint.
// Error and ModelID are encoded as null when absent.
type StatusReport struct {
	State   LifecycleState  `json:"state"`
	Error   json.RawMessage `json:"error"`
	ModelID *string         `json:"model_id"`
}

// ErrorMessage is the structured error payload for failures detected by the
// supervisor itself (as opposed to payloads forwarded from the engine)
type ErrorMessage struct {
	Message string `json:"message"`
}

// NewErrorPayload encodes a human-readable message as a structured error payload
func NewErrorPayload(message string) json.RawMessage {
	b, err := json.Marshal(ErrorMessage{Message: message})
	if err != nil {
		// a struct with a single string field always marshals
		panic(err)
	}
	return b
}

// RemoteArtifact locates a published model in remote storage
type RemoteArtifact struct {
	Bucket string `json:"s3_bucket"`
	Key    string `json:"s3_object"`
}

// URI returns the s3:// form of the artifact location
func (a RemoteArtifact) URI() string {
	return "s3://" + path.Join(a.Bucket, a.Key)
}
