package status

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"bot-supervisor/core/models"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Client is the REST client of the status-tracking API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// UpdateTraining handles PUT /bot/{tenant}/training/{run_id}
func (c *Client) UpdateTraining(ctx context.Context, tenant, runID string, report models.StatusReport) error {
	path := fmt.Sprintf("/bot/%s/training/%s", url.PathEscape(tenant), url.PathEscape(runID))
	_, err := c.do(ctx, http.MethodPut, path, report)
	return err
}

// Notify implements Notifier by updating the training run's state
func (c *Client) Notify(ctx context.Context, job models.TrainingJob, report models.StatusReport) error {
	return c.UpdateTraining(ctx, job.Tenant, job.RunID, report)
}

type registerModelResponse struct {
	ID interface{} `json:"id"`
}

// RegisterModel handles POST /bot/{tenant}/model and returns the new model id
func (c *Client) RegisterModel(ctx context.Context, tenant string, artifact models.RemoteArtifact) (string, error) {
	path := fmt.Sprintf("/bot/%s/model", url.PathEscape(tenant))
	body, err := c.do(ctx, http.MethodPost, path, artifact)
	if err != nil {
		return "", err
	}

	var resp registerModelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("invalid registry response: %w", err)
	}
	if resp.ID == nil {
		return "", fmt.Errorf("registry response carries no id")
	}

	// ids may come back as numbers or strings
	id, err := cast.ToStringE(resp.ID)
	if err != nil || id == "" {
		return "", fmt.Errorf("invalid model id %v", resp.ID)
	}
	return id, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trace-ID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
