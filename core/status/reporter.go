package status

import (
	"context"
	"time"

	"bot-supervisor/core/logger"
	"bot-supervisor/core/models"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds each status delivery
const DefaultTimeout = 10 * time.Second

// Notifier delivers a status report to one destination
type Notifier interface {
	Notify(ctx context.Context, job models.TrainingJob, report models.StatusReport) error
}

// Registry registers a published artifact and returns its model id
type Registry interface {
	RegisterModel(ctx context.Context, tenant string, artifact models.RemoteArtifact) (string, error)
}

// Reporter is the best-effort status side channel.
// Every delivery gets its own short timeout; failures are logged and dropped.
// There is no retry and no queue.
type Reporter struct {
	notifiers []Notifier
	registry  Registry
	timeout   time.Duration
}

// NewReporter creates a reporter fanning out to the given notifiers.
// registry may be nil, in which case registration is skipped.
func NewReporter(timeout time.Duration, registry Registry, notifiers ...Notifier) *Reporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Reporter{
		notifiers: notifiers,
		registry:  registry,
		timeout:   timeout,
	}
}

// Report delivers report to every notifier
func (r *Reporter) Report(ctx context.Context, job models.TrainingJob, report models.StatusReport) {
	log := logger.WithFields(logrus.Fields{
		"tenant": job.Tenant,
		"run_id": job.RunID,
		"state":  report.State,
	})
	if report.ModelID != nil {
		log = log.WithField("model_id", *report.ModelID)
	}
	if len(report.Error) > 0 {
		log = log.WithField("error_payload", string(report.Error))
	}
	log.Info("reporting training status")

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var result *multierror.Error
	for _, n := range r.notifiers {
		if err := n.Notify(ctx, job, report); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		log.WithError(err).Warn("failed to deliver training status")
	}
}

// RegisterModel registers the artifact and returns its id, or nil when no
// registry is configured or registration fails
func (r *Reporter) RegisterModel(ctx context.Context, job models.TrainingJob, artifact models.RemoteArtifact) *string {
	log := logger.WithFields(logrus.Fields{
		"tenant":   job.Tenant,
		"run_id":   job.RunID,
		"artifact": artifact.URI(),
	})
	if r.registry == nil {
		log.Warn("no model registry configured, model id will be null")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.registry.RegisterModel(ctx, job.Tenant, artifact)
	if err != nil {
		log.WithError(err).Warn("failed to register model, model id will be null")
		return nil
	}
	log.WithField("model_id", id).Info("model registered")
	return &id
}
