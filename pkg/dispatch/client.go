// Package dispatch provides a client for triggering the downstream
// datasource loader service.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout is the maximum time to wait for the task runner to accept
// a trigger. Acceptance only means the task was enqueued; the load itself
// completes asynchronously.
const DefaultTimeout = 30 * time.Second

// Dispatcher triggers the asynchronous datasource load task.
type Dispatcher interface {
	// TriggerLoadDatasource asks the task runner to (re)load a datasource.
	// A nil return means the trigger was accepted, not that the load
	// finished.
	TriggerLoadDatasource(ctx context.Context, datasourceID uuid.UUID, text string) error
}

// Client provides access to the task runner API over HTTP.
type Client struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a new task runner client. timeout <= 0 falls back to
// DefaultTimeout.
func NewClient(baseURL, serviceToken string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("dispatch"),
	}
}

type triggerRequest struct {
	DatasourceID string `json:"datasource_id"`
	Text         string `json:"text,omitempty"`
}

// TriggerLoadDatasource asks the task runner to (re)load a datasource.
func (c *Client) TriggerLoadDatasource(ctx context.Context, datasourceID uuid.UUID, text string) error {
	endpoint, err := buildURL(c.baseURL, "api", "tasks", "load-datasource")
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	body, err := json.Marshal(triggerRequest{
		DatasourceID: datasourceID.String(),
		Text:         text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode trigger request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	c.logger.Debug("Triggering datasource load",
		zap.String("url", endpoint),
		zap.String("datasource_id", datasourceID.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call task runner: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded amount of the body for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("task runner returned status %d: %s", resp.StatusCode, snippet)
	}

	return nil
}

// buildURL joins a base URL with path segments.
func buildURL(baseURL string, segments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	elems := append([]string{u.Path}, segments...)
	u.Path = path.Join(elems...)
	return u.String(), nil
}

// Ensure Client implements Dispatcher at compile time.
var _ Dispatcher = (*Client)(nil)
