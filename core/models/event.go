package models

import "time"

// JobEvent represents a lifecycle transition recorded in the run journal
type JobEvent struct {
	ID        int64
	Tenant    string
	RunID     string
	At        time.Time
	FromState *LifecycleState
	ToState   LifecycleState
	Reason    string
	MetaJSON  map[string]interface{} // model id, artifact location, error payload
}
