package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"bot-supervisor/core/logger"
	"bot-supervisor/training/frameworks"
)

// Process is a serving engine started in the background
type Process struct {
	PID  int
	done chan error
}

// Done is closed after the process exits; the exit error, if any, is sent first
func (p *Process) Done() <-chan error {
	return p.done
}

// ProcessSupervisor starts the serving engine as a child process.
// Children stay in the supervisor's process group so that signals sent to the
// group reach them.
type ProcessSupervisor struct {
	stdout    io.Writer
	stderr    io.Writer
	environ   []string
	stopGrace time.Duration
}

// NewProcessSupervisor creates a supervisor forwarding engine output to
// stdout/stderr and passing environ (plus the launch environment) to children
func NewProcessSupervisor(stdout, stderr io.Writer, environ []string) *ProcessSupervisor {
	return &ProcessSupervisor{
		stdout:    stdout,
		stderr:    stderr,
		environ:   environ,
		stopGrace: 10 * time.Second,
	}
}

// Start launches the engine without waiting for it.
// The process is never stopped by the supervisor; it ends with the process group.
func (s *ProcessSupervisor) Start(ctx context.Context, lc *frameworks.LaunchConfig) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(lc.Bin, lc.Args...)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	cmd.Env = lc.Environ(s.environ)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", lc.Bin, err)
	}

	p := &Process{PID: cmd.Process.Pid, done: make(chan error, 1)}
	logger.WithFields(map[string]interface{}{
		"pid":     p.PID,
		"command": lc.String(),
	}).Info("serving engine started in background")

	go func() {
		err := cmd.Wait()
		if err != nil {
			logger.WithField("pid", p.PID).WithError(err).Warn("serving engine exited")
		} else {
			logger.WithField("pid", p.PID).Info("serving engine exited")
		}
		p.done <- err
		close(p.done)
	}()

	return p, nil
}

// Run executes the engine in the foreground and returns its exit code.
// Cancelling ctx forwards SIGTERM to the engine and waits for it to exit.
func (s *ProcessSupervisor) Run(ctx context.Context, lc *frameworks.LaunchConfig) (int, error) {
	cmd := exec.CommandContext(ctx, lc.Bin, lc.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	cmd.Env = lc.Environ(s.environ)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = s.stopGrace

	logger.WithField("command", lc.String()).Info("running serving engine in foreground")

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	// ProcessState is only set when the engine actually ran; after a
	// cancellation Run reports ctx.Err() rather than an *exec.ExitError.
	if cmd.ProcessState == nil {
		return 1, fmt.Errorf("failed to run %s: %w", lc.Bin, err)
	}
	if code := cmd.ProcessState.ExitCode(); code > 0 {
		return code, nil
	}
	// killed by a signal, or stopped by cancellation after a clean exit
	return 1, nil
}
