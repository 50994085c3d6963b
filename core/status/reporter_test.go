package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"bot-supervisor/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, job models.TrainingJob, report models.StatusReport) error {
	return m.Called(ctx, job, report).Error(0)
}

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) RegisterModel(ctx context.Context, tenant string, artifact models.RemoteArtifact) (string, error) {
	args := m.Called(ctx, tenant, artifact)
	return args.String(0), args.Error(1)
}

var job = models.TrainingJob{Tenant: "t1", RunID: "r1", Bucket: "bots", ConfigKey: "cfg.yml", ModelKey: "model.tar.gz"}

func TestReport_FansOutAndSwallowsFailures(t *testing.T) {
	failing := &mockNotifier{}
	failing.On("Notify", mock.Anything, job, mock.Anything).Return(errors.New("connection refused"))
	ok := &mockNotifier{}
	ok.On("Notify", mock.Anything, job, mock.Anything).Return(nil)

	r := NewReporter(time.Second, nil, failing, ok)
	r.Report(context.Background(), job, models.StatusReport{State: models.StateProcessing})

	failing.AssertNumberOfCalls(t, "Notify", 1)
	ok.AssertNumberOfCalls(t, "Notify", 1)
}

func TestReport_AppliesTimeout(t *testing.T) {
	n := &mockNotifier{}
	n.On("Notify", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 50*time.Millisecond
	}), job, mock.Anything).Return(nil)

	NewReporter(50*time.Millisecond, nil, n).Report(context.Background(), job, models.StatusReport{State: models.StateDone})

	n.AssertExpectations(t)
}

func TestReport_NoNotifiers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewReporter(0, nil).Report(context.Background(), job, models.StatusReport{State: models.StateProcessing})
	})
}

func TestNewReporter_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewReporter(0, nil).timeout)
}

func TestRegisterModel(t *testing.T) {
	artifact := models.RemoteArtifact{Bucket: "bots", Key: "t1/models/model.tar.gz"}

	reg := &mockRegistry{}
	reg.On("RegisterModel", mock.Anything, "t1", artifact).Return("17", nil)
	id := NewReporter(time.Second, reg).RegisterModel(context.Background(), job, artifact)
	if assert.NotNil(t, id) {
		assert.Equal(t, "17", *id)
	}

	failing := &mockRegistry{}
	failing.On("RegisterModel", mock.Anything, "t1", artifact).Return("", errors.New("500"))
	assert.Nil(t, NewReporter(time.Second, failing).RegisterModel(context.Background(), job, artifact))

	assert.Nil(t, NewReporter(time.Second, nil).RegisterModel(context.Background(), job, artifact))
}
