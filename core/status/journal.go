package status

import (
	"context"
	"sync"

	"bot-supervisor/core/models"
)

// EventStore persists lifecycle events
type EventStore interface {
	CreateJobEvent(ctx context.Context, event models.JobEvent) error
	GetJobEvents(ctx context.Context, tenant, runID string, limit int) ([]models.JobEvent, error)
}

// Journal records every status report as a lifecycle event.
// A restarted run continues from the last state already journaled.
type Journal struct {
	store EventStore

	mu     sync.Mutex
	last   models.LifecycleState
	loaded bool
}

// NewJournal creates a journal backed by store
func NewJournal(store EventStore) *Journal {
	return &Journal{store: store}
}

// Notify implements Notifier
func (j *Journal) Notify(ctx context.Context, job models.TrainingJob, report models.StatusReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.loaded {
		if previous, err := j.store.GetJobEvents(ctx, job.Tenant, job.RunID, 1); err == nil {
			if len(previous) > 0 {
				j.last = previous[0].ToState
			}
			j.loaded = true
		}
	}

	event := models.JobEvent{
		Tenant:   job.Tenant,
		RunID:    job.RunID,
		ToState:  report.State,
		Reason:   reasonFor(report.State),
		MetaJSON: map[string]interface{}{},
	}
	if j.last != "" {
		from := j.last
		event.FromState = &from
	}
	if report.ModelID != nil {
		event.MetaJSON["model_id"] = *report.ModelID
	}
	if len(report.Error) > 0 {
		event.MetaJSON["error"] = report.Error
	}
	if report.State == models.StateDone || report.State == models.StateProcessing {
		event.MetaJSON["config_key"] = job.ConfigObjectKey()
		event.MetaJSON["model_key"] = job.ModelObjectKey()
	}

	if err := j.store.CreateJobEvent(ctx, event); err != nil {
		return err
	}
	j.last = report.State
	return nil
}

func reasonFor(state models.LifecycleState) string {
	switch state {
	case models.StateProcessing:
		return "training_started"
	case models.StateDone:
		return "training_completed"
	case models.StateError:
		return "training_failed"
	default:
		return string(state)
	}
}
