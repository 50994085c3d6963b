package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"bot-supervisor/core/models"
)

// EventRepository handles database operations for lifecycle events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateJobEvent appends a lifecycle transition to the journal
func (r *EventRepository) CreateJobEvent(ctx context.Context, event models.JobEvent) error {
	query := `
		INSERT INTO job_events (tenant, run_id, at, from_state, to_state, reason, meta_json)
		VALUES ($1, $2, NOW(), $3, $4, $5, $6)
	`

	var fromState sql.NullString
	if event.FromState != nil {
		fromState = sql.NullString{String: string(*event.FromState), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		event.Tenant,
		event.RunID,
		fromState,
		event.ToState,
		event.Reason,
		encodeMeta(event.MetaJSON),
	)
	return err
}

// GetJobEvents retrieves the most recent events of a training run
func (r *EventRepository) GetJobEvents(ctx context.Context, tenant, runID string, limit int) ([]models.JobEvent, error) {
	query := `
		SELECT id, tenant, run_id, at, from_state, to_state, reason, meta_json
		FROM job_events
		WHERE tenant = $1 AND run_id = $2
		ORDER BY at DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, tenant, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.JobEvent
	for rows.Next() {
		var event models.JobEvent
		var fromState sql.NullString
		var metaJSON string

		err := rows.Scan(
			&event.ID,
			&event.Tenant,
			&event.RunID,
			&event.At,
			&fromState,
			&event.ToState,
			&event.Reason,
			&metaJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job event: %w", err)
		}

		if fromState.Valid {
			state := models.LifecycleState(fromState.String)
			event.FromState = &state
		}

		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &event.MetaJSON); err != nil {
				return nil, fmt.Errorf("invalid meta of job event %d: %w", event.ID, err)
			}
		}

		events = append(events, event)
	}

	return events, rows.Err()
}

func encodeMeta(meta map[string]interface{}) string {
	if meta == nil {
		return "{}"
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(b)
}
