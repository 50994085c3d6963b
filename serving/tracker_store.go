package serving

import (
	"context"
	"fmt"
	"time"

	"bot-supervisor/core/logger"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// TrackerStoreProbe checks that the conversation tracker store answers
type TrackerStoreProbe struct {
	url     string
	client  *opensearch.Client
	timeout time.Duration
}

// NewTrackerStoreProbe creates a probe for the OpenSearch cluster at url
func NewTrackerStoreProbe(url string) (*TrackerStoreProbe, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    []string{url},
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker store client for %s: %w", url, err)
	}
	return &TrackerStoreProbe{
		url:     url,
		client:  client,
		timeout: 5 * time.Second,
	}, nil
}

// Check pings the tracker store and logs the outcome.
// The engine falls back to in-memory tracking, so a failure is not fatal.
func (p *TrackerStoreProbe) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	log := logger.WithField("url", p.url)

	res, err := p.client.Do(ctx, opensearchapi.PingReq{}, nil)
	if res != nil && res.Body != nil {
		defer res.Body.Close()
	}
	if err != nil {
		log.WithError(err).Error("can't connect to tracker store")
		return false
	}
	if res.IsError() {
		log.WithField("status", res.StatusCode).Error("can't connect to tracker store")
		return false
	}

	log.Info("connected to tracker store")
	return true
}
