package executor

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"bot-supervisor/training/frameworks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(script string, env map[string]string) *frameworks.LaunchConfig {
	return &frameworks.LaunchConfig{Bin: "/bin/sh", Args: []string{"-c", script}, Environment: env}
}

func TestStart_RunsInBackground(t *testing.T) {
	var out bytes.Buffer
	s := NewProcessSupervisor(&out, &out, os.Environ())

	p, err := s.Start(context.Background(), shell(`echo "$BUCKET_NAME"`, map[string]string{"BUCKET_NAME": "bots"}))
	require.NoError(t, err)
	assert.Greater(t, p.PID, 0)

	select {
	case err := <-p.Done():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
	assert.Equal(t, "bots", strings.TrimSpace(out.String()))
}

func TestStart_MissingBinary(t *testing.T) {
	s := NewProcessSupervisor(nil, nil, nil)

	_, err := s.Start(context.Background(), &frameworks.LaunchConfig{Bin: "/nonexistent/engine"})

	assert.Error(t, err)
}

func TestStart_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessSupervisor(nil, nil, nil).Start(ctx, shell("true", nil))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_PropagatesExitCode(t *testing.T) {
	s := NewProcessSupervisor(nil, nil, nil)

	code, err := s.Run(context.Background(), shell("exit 3", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	code, err = s.Run(context.Background(), shell("exit 0", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRun_ForwardsTermination(t *testing.T) {
	s := NewProcessSupervisor(nil, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	code, err := s.Run(ctx, shell("trap 'exit 143' TERM; sleep 30 & wait", nil))

	require.NoError(t, err)
	assert.NotEqual(t, 0, code)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_MissingBinary(t *testing.T) {
	code, err := NewProcessSupervisor(nil, nil, nil).Run(context.Background(), &frameworks.LaunchConfig{Bin: "/nonexistent/engine"})

	assert.Error(t, err)
	assert.Equal(t, 1, code)
}
