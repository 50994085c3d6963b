package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bot-supervisor/core/logger"
)

// ErrNotReady is returned when a bounded readiness policy runs out of attempts
var ErrNotReady = errors.New("endpoint not ready")

// PollPolicy controls how long the readiness poller waits.
// MaxAttempts <= 0 means poll until the endpoint answers or ctx is done.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollPolicy polls every second without limit
var DefaultPollPolicy = PollPolicy{Interval: time.Second}

// ReadinessPoller waits for a local HTTP endpoint to start answering
type ReadinessPoller struct {
	url    string
	client *http.Client
	policy PollPolicy
}

// NewReadinessPoller creates a poller for the given health URL
func NewReadinessPoller(url string, client *http.Client, policy PollPolicy) *ReadinessPoller {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if policy.Interval <= 0 {
		policy.Interval = DefaultPollPolicy.Interval
	}
	return &ReadinessPoller{
		url:    url,
		client: client,
		policy: policy,
	}
}

// WaitReady blocks until a GET against the health URL gets any HTTP response.
// Status codes are irrelevant; only transport failures count as not ready.
func (p *ReadinessPoller) WaitReady(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("invalid health URL: %w", err)
	}

	ticker := time.NewTicker(p.policy.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		err := p.probe(req)
		if err == nil {
			logger.WithField("attempts", attempt).Info("serving engine is ready")
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		logger.WithFields(map[string]interface{}{
			"url":     p.url,
			"attempt": attempt,
		}).WithError(err).Debug("serving engine not ready yet")

		if p.policy.MaxAttempts > 0 && attempt >= p.policy.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %s", ErrNotReady, attempt, p.url)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// probe sends req; a GET without body can be sent repeatedly
func (p *ReadinessPoller) probe(req *http.Request) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
