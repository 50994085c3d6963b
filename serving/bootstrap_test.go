package serving

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bot-supervisor/config"
	"bot-supervisor/training/frameworks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, lc *frameworks.LaunchConfig) (int, error) {
	args := m.Called(ctx, lc)
	return args.Int(0), args.Error(1)
}

type stubTracker struct {
	checks int
}

func (s *stubTracker) Check(context.Context) bool {
	s.checks++
	return false
}

func serveConfig(t *testing.T) *config.Config {
	return &config.Config{
		AWSRegion:   "eu-west-1",
		Bucket:      "bots",
		EngineBin:   "rasa",
		EnginePort:  5005,
		TemplateDir: t.TempDir(),
		ConfigDir:   t.TempDir(),
	}
}

func TestBootstrap_DefaultModelAndExitCode(t *testing.T) {
	cfg := serveConfig(t)
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.MatchedBy(func(lc *frameworks.LaunchConfig) bool {
		return assert.ObjectsAreEqual([]string{
			"run", "--enable-api", "--port", "5005",
			"--remote-storage", "aws",
			"--model", config.DefaultModel,
		}, lc.Args) && lc.Environment["BUCKET_NAME"] == "bots"
	})).Return(7, nil)

	code, err := NewBootstrap(cfg, runner, nil, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 7, code)
	runner.AssertExpectations(t)
}

func TestBootstrap_RendersAndPassesConfigFiles(t *testing.T) {
	cfg := serveConfig(t)
	cfg.Model = "t1/models/model.tar.gz"
	writeFile(t, filepath.Join(cfg.TemplateDir, "endpoints.yml.tmpl"), "action_endpoint:\n  url: {{ .Env.ACTION_URL }}\n")
	tracker := &stubTracker{}

	var launched *frameworks.LaunchConfig
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		launched = args.Get(1).(*frameworks.LaunchConfig)
	}).Return(0, nil)

	code, err := NewBootstrap(cfg, runner, tracker, []string{"ACTION_URL=http://actions:5055"}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, tracker.checks)
	assert.Equal(t, "action_endpoint:\n  url: http://actions:5055\n", readFile(t, filepath.Join(cfg.ConfigDir, "endpoints.yml")))
	require.NotNil(t, launched)
	assert.Contains(t, launched.Args, "t1/models/model.tar.gz")
	assert.Contains(t, launched.Args, filepath.Join(cfg.ConfigDir, "endpoints.yml"))
	assert.NotContains(t, launched.Args, "--credentials")
}

func TestBootstrap_TemplateFailure(t *testing.T) {
	cfg := serveConfig(t)
	writeFile(t, filepath.Join(cfg.TemplateDir, "endpoints.yml.tmpl"), "{{ broken")
	runner := &mockRunner{}

	code, err := NewBootstrap(cfg, runner, nil, nil).Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 1, code)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestBootstrap_EngineFailure(t *testing.T) {
	cfg := serveConfig(t)
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.Anything).Return(1, errors.New("exec: rasa not found"))

	code, err := NewBootstrap(cfg, runner, nil, nil).Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 1, code)
}
