package serving

import (
	"context"
	"os"
	"path/filepath"

	"bot-supervisor/config"
	"bot-supervisor/core/logger"
	"bot-supervisor/training/frameworks"

	"github.com/sirupsen/logrus"
)

// Optional engine configuration files looked up in the config dir
const (
	EndpointsFile   = "endpoints.yml"
	CredentialsFile = "credentials.yml"
)

// EngineRunner runs the serving engine in the foreground
type EngineRunner interface {
	Run(ctx context.Context, lc *frameworks.LaunchConfig) (int, error)
}

// TrackerStoreChecker reports whether the tracker store is reachable
type TrackerStoreChecker interface {
	Check(ctx context.Context) bool
}

// Bootstrap prepares serve mode and hands the process over to the engine
type Bootstrap struct {
	cfg     *config.Config
	runner  EngineRunner
	tracker TrackerStoreChecker
	environ []string
}

// NewBootstrap creates a serve-mode bootstrap. tracker may be nil.
func NewBootstrap(cfg *config.Config, runner EngineRunner, tracker TrackerStoreChecker, environ []string) *Bootstrap {
	return &Bootstrap{
		cfg:     cfg,
		runner:  runner,
		tracker: tracker,
		environ: environ,
	}
}

// Run renders configuration, then runs the engine until it exits.
// The returned code is the engine's exit code.
func (b *Bootstrap) Run(ctx context.Context) (int, error) {
	if _, err := RenderTemplates(b.cfg.TemplateDir, b.cfg.ConfigDir, TemplateData{Env: EnvironMap(b.environ)}); err != nil {
		return 1, err
	}

	if b.tracker != nil {
		b.tracker.Check(ctx)
	}

	setup := &frameworks.RasaSetup{
		Bin:    b.cfg.EngineBin,
		Port:   b.cfg.EnginePort,
		Debug:  b.cfg.Debug,
		Region: b.cfg.AWSRegion,
		Bucket: b.cfg.Bucket,
	}
	opts := frameworks.ServeOptions{
		ModelRef:        b.cfg.ModelRef(),
		EndpointsFile:   existing(filepath.Join(b.cfg.ConfigDir, EndpointsFile)),
		CredentialsFile: existing(filepath.Join(b.cfg.ConfigDir, CredentialsFile)),
	}
	lc, err := setup.ModelServer(opts)
	if err != nil {
		return 1, err
	}

	logger.WithFields(logrus.Fields{
		"model":  opts.ModelRef,
		"bucket": b.cfg.Bucket,
	}).Info("starting model server")

	return b.runner.Run(ctx, lc)
}

func existing(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
