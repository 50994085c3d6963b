package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bot-supervisor/core/models"
	"bot-supervisor/training/frameworks"
)

// EngineClient talks to the serving engine's local control endpoint
type EngineClient struct {
	baseURL string
	client  *http.Client
}

// NewEngineClient creates a client for the engine listening at baseURL.
// A nil client uses an http.Client without timeout: training takes as long as it takes.
func NewEngineClient(baseURL string, client *http.Client) *EngineClient {
	if client == nil {
		client = &http.Client{}
	}
	return &EngineClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// HealthURL returns the URL the readiness poller probes
func (c *EngineClient) HealthURL() string {
	return c.baseURL + frameworks.HealthPath
}

// Train posts the training configuration and returns the raw response body.
// Only transport failures are errors; the HTTP status is not interpreted
// because the body alone tells an artifact from a failure document.
func (c *EngineClient) Train(ctx context.Context, trainingConfig []byte) (models.TrainingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+frameworks.TrainPath, bytes.NewReader(trainingConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to build training request: %w", err)
	}
	req.Header.Set("Content-Type", frameworks.TrainContentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("training request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read training response (status %d): %w", resp.StatusCode, err)
	}
	return models.TrainingResult(body), nil
}
