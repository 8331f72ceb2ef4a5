// Package client is a small Go SDK for a running GhostFetch service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultPollInterval is how often WaitForJob checks job state.
const defaultPollInterval = time.Second

// Client talks to one GhostFetch instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the service at baseURL, e.g.
// "http://localhost:8000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitRequest are the parameters for Submit.
type SubmitRequest struct {
	URL         string `json:"url"`
	SessionKey  string `json:"session_key,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
	IssueRef    int    `json:"issue_ref,omitempty"`
}

// SubmitResponse is the acknowledgement for an async fetch.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Health is the service's health report.
type Health struct {
	Status                string `json:"status"`
	Version               string `json:"version"`
	BrowserConnected      bool   `json:"browser_connected"`
	ActiveJobsQueue       int    `json:"active_jobs_queue"`
	ActiveBrowserContexts int    `json:"active_browser_contexts"`
	ConcurrencyLimit      int    `json:"concurrency_limit"`
}

// Submit enqueues a fetch and returns the job acknowledgement.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.post(ctx, "/fetch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJob returns the job by ID, or an error when it does not exist.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.get(ctx, "/job/"+url.PathEscape(jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitForJob polls until the job reaches a terminal state or ctx is
// cancelled. The returned job may be failed; inspect its status.
func (c *Client) WaitForJob(ctx context.Context, jobID string) (*Job, error) {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		job, err := c.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchSync submits a fetch and blocks server-side until it resolves.
// timeout <= 0 uses the server default.
func (c *Client) FetchSync(ctx context.Context, rawURL string, timeout time.Duration) (*Artifact, error) {
	q := url.Values{"url": {rawURL}}
	if timeout > 0 {
		q.Set("timeout", fmt.Sprintf("%g", timeout.Seconds()))
	}

	var resp struct {
		JobID        string        `json:"job_id"`
		Status       string        `json:"status"`
		Data         *Artifact     `json:"data"`
		Error        string        `json:"error"`
		ErrorDetails *ErrorDetails `json:"error_details"`
	}
	// Sync fetches can outlive the default client timeout; rely on the
	// context instead.
	if err := c.do(ctx, http.MethodGet, "/fetch/sync?"+q.Encode(), nil, &resp, &http.Client{}); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		if resp.Error != "" {
			return nil, fmt.Errorf("fetch failed: %s", resp.Error)
		}
		return nil, fmt.Errorf("fetch did not complete (status %q)", resp.Status)
	}
	return resp.Data, nil
}

// ServiceHealth returns the service's health report.
func (c *Client) ServiceHealth(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out, c.http)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out, c.http)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}, httpClient *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Sync fetches carry their outcome in the body even on 4xx/5xx.
	if resp.StatusCode >= 400 && !strings.HasPrefix(path, "/fetch/sync") {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (HTTP %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
