package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bot-supervisor/config"
	"bot-supervisor/core/executor"
	"bot-supervisor/core/lifecycle"
	"bot-supervisor/core/logger"
	"bot-supervisor/core/monitoring"
	"bot-supervisor/core/repository"
	"bot-supervisor/core/status"
	"bot-supervisor/providers/aws"
	"bot-supervisor/serving"
	"bot-supervisor/storage"
	"bot-supervisor/training/frameworks"
)

const usage = "usage: supervisor train <tenant> | run | bash"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches the mode named by args and returns the process exit code
func run(ctx context.Context, args []string, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 1
	}

	cfg := config.Load()
	logger.Init(cfg.Debug)

	switch {
	case args[0] == "train" && len(args) == 2:
		return train(ctx, cfg.WithTenant(args[1]))
	case args[0] == "run" && len(args) == 1:
		return serve(ctx, cfg)
	case args[0] == "bash" && len(args) == 1:
		return shell(cfg)
	default:
		fmt.Fprintln(stderr, usage)
		return 1
	}
}

func train(ctx context.Context, cfg *config.Config) int {
	reporter, closeJournal := newReporter(ctx, cfg)
	defer closeJournal()

	// setup failures still end the run with processing and error reports
	abort := func(message string, err error) int {
		lifecycle.NewOrchestrator(cfg, nil, nil, nil, nil, reporter).Abort(ctx, &lifecycle.StageError{
			Stage:   lifecycle.StageConfiguration,
			Message: message,
			Err:     err,
		})
		return 1
	}

	s3, err := aws.NewClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		return abort("failed to create storage client", err)
	}

	setup := &frameworks.RasaSetup{
		Bin:    cfg.EngineBin,
		Port:   cfg.EnginePort,
		Debug:  cfg.Debug,
		Region: cfg.AWSRegion,
		Bucket: cfg.Bucket,
	}
	launch, err := setup.TrainingServer()
	if err != nil {
		return abort("invalid serving engine configuration", err)
	}

	supervisor := executor.NewProcessSupervisor(os.Stdout, os.Stderr, os.Environ())
	engine := executor.NewEngineClient(cfg.EngineURL(), nil)
	poller := monitoring.NewReadinessPoller(engine.HealthURL(), nil, monitoring.PollPolicy{
		Interval:    cfg.ReadinessInterval,
		MaxAttempts: cfg.ReadinessMaxAttempts,
	})

	orchestrator := lifecycle.NewOrchestrator(
		cfg,
		storage.NewArtifactManager(s3, cfg.WorkDir),
		executor.NewBackgroundEngine(supervisor, launch),
		poller,
		engine,
		reporter,
	)
	if err := orchestrator.Run(ctx); err != nil {
		return 1
	}
	return 0
}

// newReporter wires the status API and, when configured, the event journal.
// The returned func releases the journal connection.
func newReporter(ctx context.Context, cfg *config.Config) (*status.Reporter, func()) {
	var (
		notifiers []status.Notifier
		registry  status.Registry
		closer    = func() {}
	)

	if cfg.APIURL != "" {
		client := status.NewClient(cfg.APIURL, nil)
		notifiers = append(notifiers, client)
		registry = client
	} else {
		logger.Log.Warn("API_URL is not set, status reports are disabled")
	}

	if cfg.JournalDatabaseURL != "" {
		db, err := repository.NewDB(ctx, cfg.JournalDatabaseURL)
		if err == nil {
			err = db.EnsureSchema(ctx)
			if err != nil {
				db.Close()
			}
		}
		if err != nil {
			logger.Log.WithError(err).Warn("event journal unavailable")
		} else {
			notifiers = append(notifiers, status.NewJournal(repository.NewEventRepository(db)))
			closer = func() { db.Close() }
		}
	}

	return status.NewReporter(cfg.StatusTimeout, registry, notifiers...), closer
}

func serve(ctx context.Context, cfg *config.Config) int {
	var tracker serving.TrackerStoreChecker
	if cfg.TrackerStoreURL != "" {
		probe, err := serving.NewTrackerStoreProbe(cfg.TrackerStoreURL)
		if err != nil {
			logger.Log.WithError(err).Error("can't connect to tracker store")
		} else {
			tracker = probe
		}
	}

	supervisor := executor.NewProcessSupervisor(os.Stdout, os.Stderr, os.Environ())
	code, err := serving.NewBootstrap(cfg, supervisor, tracker, os.Environ()).Run(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("serve mode failed")
	}
	return code
}

// shell replaces the process with a diagnostic shell
func shell(cfg *config.Config) int {
	err := syscall.Exec(cfg.ShellBin, []string{cfg.ShellBin}, os.Environ())
	logger.Log.WithError(err).WithField("shell", cfg.ShellBin).Error("failed to start shell")
	return 1
}
