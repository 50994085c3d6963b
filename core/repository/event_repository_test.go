package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"bot-supervisor/core/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMeta(t *testing.T) {
	assert.Equal(t, "{}", encodeMeta(nil))
	assert.Equal(t, "{}", encodeMeta(map[string]interface{}{"bad": func() {}}))

	got := encodeMeta(map[string]interface{}{
		"model_id": "42",
		"error":    json.RawMessage(`{"message":"bad spec"}`),
	})
	assert.JSONEq(t, `{"model_id":"42","error":{"message":"bad spec"}}`, got)
}

var eventColumns = []string{"id", "tenant", "run_id", "at", "from_state", "to_state", "reason", "meta_json"}

func newMockRepository(t *testing.T) (*EventRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEventRepository(&DB{DB: db}), mock
}

func TestGetJobEvents(t *testing.T) {
	repo, mock := newMockRepository(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, tenant, run_id").
		WithArgs("t1", "r1", 1).
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow(int64(7), "t1", "r1", at, "processing", "done", "training_completed", `{"model_id":"42"}`))

	events, err := repo.GetJobEvents(context.Background(), "t1", "r1", 1)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(7), events[0].ID)
	require.NotNil(t, events[0].FromState)
	assert.Equal(t, models.StateProcessing, *events[0].FromState)
	assert.Equal(t, models.StateDone, events[0].ToState)
	assert.Equal(t, "42", events[0].MetaJSON["model_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJobEvents_BadRowsAreErrors(t *testing.T) {
	tests := []struct {
		name string
		row  []driver.Value
	}{
		{"unscannable timestamp", []driver.Value{int64(7), "t1", "r1", "yesterday", nil, "done", "", "{}"}},
		{"invalid meta", []driver.Value{int64(7), "t1", "r1", time.Now(), nil, "done", "", "{not json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			mock.ExpectQuery("SELECT id, tenant, run_id").
				WillReturnRows(sqlmock.NewRows(eventColumns).AddRow(tt.row...))

			events, err := repo.GetJobEvents(context.Background(), "t1", "r1", 1)

			assert.Error(t, err)
			assert.Nil(t, events)
		})
	}
}
