// Package report notifies the upstream platform when an indexing task
// finishes.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veridex/contentd/core"
)

// Reporter delivers a task completion notice.
type Reporter interface {
	Report(ctx context.Context, job core.IndexJob, success bool) error
}

// Client posts completion callbacks to the platform's task endpoint.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

type taskUpdate struct {
	TaskUUID string `json:"task_uuid"`
	Success  bool   `json:"success"`
	FileType string `json:"file_type"`
}

// NewClient creates a callback client for the platform at baseURL. The token
// is sent as a bearer credential when non-empty. If httpClient is nil, a
// default client with a 30 second timeout is used.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, token: token, client: httpClient}
}

// Report patches the task record with the outcome of an indexing job.
func (c *Client) Report(ctx context.Context, job core.IndexJob, success bool) error {
	payload, err := json.Marshal(taskUpdate{
		TaskUUID: job.TaskID,
		Success:  success,
		FileType: FileType(job),
	})
	if err != nil {
		return fmt.Errorf("encoding task update: %w", err)
	}

	url := fmt.Sprintf("%s/tasks/%s", c.baseURL, job.TaskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building task update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering task update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("task update for %s rejected with status %d: %s",
			job.TaskID, resp.StatusCode, string(body))
	}

	return nil
}

// FileType maps a job to the source-type tag the platform expects: "text"
// for raw text, "link" for web sources, "file" for everything else.
func FileType(job core.IndexJob) string {
	switch {
	case job.Kind == core.SourceKindText || job.Extension == "txt":
		return "text"
	case job.Kind == core.SourceKindURL || job.Extension == "urls":
		return "link"
	default:
		return "file"
	}
}
