package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"

	"bot-supervisor/config"
	"bot-supervisor/core/logger"
	"bot-supervisor/core/models"
	"bot-supervisor/core/spec"

	"github.com/sirupsen/logrus"
)

// ArtifactStore moves the training config and the trained model
type ArtifactStore interface {
	FetchTrainingConfig(ctx context.Context, job models.TrainingJob) (string, []byte, error)
	PublishModel(ctx context.Context, job models.TrainingJob, artifact []byte) (models.RemoteArtifact, error)
}

// Launcher starts the serving engine without waiting for it
type Launcher interface {
	Start(ctx context.Context) error
}

// ReadinessWaiter blocks until the serving engine answers
type ReadinessWaiter interface {
	WaitReady(ctx context.Context) error
}

// Trainer invokes training on the serving engine
type Trainer interface {
	Train(ctx context.Context, trainingConfig []byte) (models.TrainingResult, error)
}

// StatusSink is the best-effort status side channel
type StatusSink interface {
	Report(ctx context.Context, job models.TrainingJob, report models.StatusReport)
	RegisterModel(ctx context.Context, job models.TrainingJob, artifact models.RemoteArtifact) *string
}

// Orchestrator drives one training run:
// processing, fetch config, start engine, wait, train, publish, register, done.
// Any fatal stage failure ends the run in the error state.
type Orchestrator struct {
	cfg      *config.Config
	job      models.TrainingJob
	store    ArtifactStore
	launcher Launcher
	waiter   ReadinessWaiter
	trainer  Trainer
	status   StatusSink
	state    models.LifecycleState
	log      *logrus.Entry
}

// JobFromConfig builds the immutable training job of a run
func JobFromConfig(cfg *config.Config) models.TrainingJob {
	return models.TrainingJob{
		Tenant:    cfg.Tenant,
		RunID:     cfg.TrainingID,
		Bucket:    cfg.Bucket,
		ConfigKey: cfg.TrainingConfigKey,
		ModelKey:  cfg.ModelKey,
	}
}

// NewOrchestrator creates a new orchestrator for the run described by cfg
func NewOrchestrator(
	cfg *config.Config,
	store ArtifactStore,
	launcher Launcher,
	waiter ReadinessWaiter,
	trainer Trainer,
	status StatusSink,
) *Orchestrator {
	job := JobFromConfig(cfg)
	log := logger.WithFields(logrus.Fields{
		"tenant": job.Tenant,
		"run_id": job.RunID,
	})
	return &Orchestrator{
		cfg:      cfg,
		job:      job,
		store:    store,
		launcher: launcher,
		waiter:   waiter,
		trainer:  trainer,
		status:   status,
		log:      log,
	}
}

// State returns the last state reported for the run
func (o *Orchestrator) State() models.LifecycleState {
	return o.state
}

// Run executes the training lifecycle. A nil error means the model was
// published and done was reported; any error means the run failed.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.transition(ctx, models.StatusReport{State: models.StateProcessing})

	if err := o.cfg.ValidateTraining(); err != nil {
		return o.fail(ctx, &StageError{Stage: StageConfiguration, Message: err.Error()})
	}

	// Fetch
	o.log.WithField("key", o.job.ConfigObjectKey()).Info("downloading training config")
	localConfig, trainingConfig, err := o.store.FetchTrainingConfig(ctx, o.job)
	if err != nil {
		return o.fail(ctx, &StageError{
			Stage:   StageFetch,
			Message: fmt.Sprintf("failed to download training config %s from bucket %s", o.job.ConfigObjectKey(), o.job.Bucket),
			Err:     err,
		})
	}
	o.inspect(localConfig, trainingConfig)

	// Start and wait
	if err := ctx.Err(); err != nil {
		return o.cancelled(StageStartup, err)
	}
	if err := o.launcher.Start(ctx); err != nil {
		return o.fail(ctx, &StageError{Stage: StageStartup, Message: "failed to start serving engine", Err: err})
	}
	o.log.Info("waiting for serving engine")
	if err := o.waiter.WaitReady(ctx); err != nil {
		return o.fail(ctx, &StageError{Stage: StageStartup, Message: "serving engine did not become ready", Err: err})
	}

	// Train
	o.log.Info("training model")
	result, err := o.trainer.Train(ctx, trainingConfig)
	if err != nil {
		return o.fail(ctx, &StageError{Stage: StageInvocation, Message: "failed to invoke training on serving engine", Err: err})
	}
	if result.IsFailure() {
		return o.fail(ctx, &StageError{Stage: StageTraining, Message: "serving engine reported a training failure", Payload: json.RawMessage(result)})
	}

	// Publish
	if err := ctx.Err(); err != nil {
		return o.cancelled(StagePublish, err)
	}
	o.log.WithFields(logrus.Fields{
		"key":   o.job.ModelObjectKey(),
		"bytes": len(result),
	}).Info("uploading model")
	artifact, err := o.store.PublishModel(ctx, o.job, result)
	if err != nil {
		return o.fail(ctx, &StageError{
			Stage:   StagePublish,
			Message: fmt.Sprintf("failed to upload model to s3://%s/%s", o.job.Bucket, o.job.ModelObjectKey()),
			Err:     err,
		})
	}

	modelID := o.status.RegisterModel(ctx, o.job, artifact)
	o.transition(ctx, models.StatusReport{State: models.StateDone, ModelID: modelID})
	o.log.WithField("artifact", artifact.URI()).Info("training finished")
	return nil
}

// Abort ends a run that failed before its stages could run.
// Like a failing stage it reports processing, then error.
func (o *Orchestrator) Abort(ctx context.Context, serr *StageError) error {
	if o.state == "" {
		o.transition(ctx, models.StatusReport{State: models.StateProcessing})
	}
	return o.fail(ctx, serr)
}

// transition records and reports a state change, refusing non-monotonic ones
func (o *Orchestrator) transition(ctx context.Context, report models.StatusReport) {
	if !o.state.CanTransitionTo(report.State) {
		o.log.WithFields(logrus.Fields{
			"from": o.state,
			"to":   report.State,
		}).Error("refusing lifecycle transition")
		return
	}
	o.state = report.State
	o.status.Report(ctx, o.job, report)
}

func (o *Orchestrator) fail(ctx context.Context, serr *StageError) error {
	if err := ctx.Err(); err != nil {
		return o.cancelled(serr.Stage, err)
	}

	payload := serr.Payload
	if len(payload) == 0 {
		message := serr.Message
		if serr.Err != nil {
			message = fmt.Sprintf("%s: %v", serr.Message, serr.Err)
		}
		payload = models.NewErrorPayload(message)
	}
	serr.Payload = payload

	o.log.WithField("stage", serr.Stage).WithError(serr).Error("training run failed")
	o.transition(ctx, models.StatusReport{State: models.StateError, Error: payload})
	return serr
}

// cancelled ends the run without a terminal report; in-flight work is abandoned
func (o *Orchestrator) cancelled(stage Stage, err error) error {
	o.log.WithField("stage", stage).Warn("training run cancelled")
	return fmt.Errorf("training cancelled during %s stage: %w", stage, err)
}

func (o *Orchestrator) inspect(localPath string, content []byte) {
	log := o.log.WithField("path", localPath)

	trainingSpec, err := spec.ParseTrainingSpec(content)
	if err != nil {
		log.WithError(err).Warn("training config is not readable YAML, passing it to the engine as is")
		return
	}

	summary := trainingSpec.Summarize()
	log.WithFields(logrus.Fields{
		"assistant_id": summary.AssistantID,
		"language":     summary.Language,
		"pipeline":     summary.Components,
		"policies":     summary.Policies,
		"intents":      summary.Intents,
	}).Info("training config downloaded")
}
