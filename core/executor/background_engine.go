package executor

import (
	"context"
	"sync"

	"bot-supervisor/training/frameworks"
)

// BackgroundEngine starts one training server and remembers the process
type BackgroundEngine struct {
	supervisor *ProcessSupervisor
	launch     *frameworks.LaunchConfig

	mu      sync.Mutex
	process *Process
}

// NewBackgroundEngine binds a launch configuration to a supervisor
func NewBackgroundEngine(supervisor *ProcessSupervisor, launch *frameworks.LaunchConfig) *BackgroundEngine {
	return &BackgroundEngine{
		supervisor: supervisor,
		launch:     launch,
	}
}

// Start launches the engine once; later calls are no-ops
func (e *BackgroundEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.process != nil {
		return nil
	}
	p, err := e.supervisor.Start(ctx, e.launch)
	if err != nil {
		return err
	}
	e.process = p
	return nil
}

// Process returns the started engine, or nil before Start succeeds
func (e *BackgroundEngine) Process() *Process {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.process
}
