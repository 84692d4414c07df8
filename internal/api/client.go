// Package api is a client for the StewardX REST interface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adamancini/stewardctl/internal/failure"
	"github.com/adamancini/stewardctl/internal/types"
)

// StatusMissing is reported when a status reply carries no status field.
const StatusMissing = "failed, please check StewardX logs"

const maxErrorBody = 4 << 10

// Client talks to a StewardX instance over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: zerolog.Nop(),
	}
}

// WithLogger sets the diagnostic logger.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log
	return c
}

// ListTasks returns every task.
func (c *Client) ListTasks(ctx context.Context) ([]types.Task, error) {
	var tasks []types.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ActiveTasks returns the tasks currently executing.
func (c *Client) ActiveTasks(ctx context.Context) ([]types.Task, error) {
	var tasks []types.Task
	if err := c.do(ctx, http.MethodGet, "/activetasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns one task as the raw JSON the service sent.
func (c *Client) GetTask(ctx context.Context, id string) (json.RawMessage, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CreateTask creates a task and returns the service's reply.
func (c *Client) CreateTask(ctx context.Context, req *types.CreateTaskRequest) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DeleteTask deletes a task and returns the reported status.
func (c *Client) DeleteTask(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return c.status(ctx, http.MethodDelete, "/tasks", taskIDBody{TaskID: id})
}

// ExecuteTask runs a task now and returns the reported status.
func (c *Client) ExecuteTask(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return c.status(ctx, http.MethodPost, "/execute/"+id, nil)
}

// AbortTask stops a running task and returns the reported status.
func (c *Client) AbortTask(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return c.status(ctx, http.MethodPost, "/abort", taskIDBody{TaskID: id})
}

// LatestReports returns the most recent execution reports.
func (c *Client) LatestReports(ctx context.Context) ([]types.Report, error) {
	var reports []types.Report
	if err := c.do(ctx, http.MethodGet, "/reports", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetReport returns one report as raw JSON.
func (c *Client) GetReport(ctx context.Context, id string) (json.RawMessage, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/reports/"+id, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// TaskReports returns the reports of one task.
func (c *Client) TaskReports(ctx context.Context, taskID string) ([]types.Report, error) {
	if err := ValidateID(taskID); err != nil {
		return nil, err
	}
	var reports []types.Report
	if err := c.do(ctx, http.MethodGet, "/tasks/"+taskID+"/reports", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ValidateID rejects identifiers that are not UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return failure.New(failure.KindInvalidInput, fmt.Sprintf("invalid ID '%s'", id), err).
			WithGuidance("IDs are UUIDs; list them with `stewardctl tasks list` or `stewardctl reports latest`")
	}
	return nil
}

type taskIDBody struct {
	TaskID string `json:"task_id"`
}

func (c *Client) status(ctx context.Context, method, path string, body any) (string, error) {
	var resp types.StatusResponse
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return "", err
	}
	if resp.Status == nil {
		return StatusMissing, nil
	}
	return *resp.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return failure.New(failure.KindInvalidInput, "encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return connectionFailure(method+" "+path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().Str("method", method).Str("url", url).Msg("calling StewardX")

	resp, err := c.client.Do(req)
	if err != nil {
		return connectionFailure(method+" "+path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().Int("status", resp.StatusCode).Msg("StewardX responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return failure.New(failure.KindConnection, method+" "+path,
			fmt.Errorf("StewardX returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))).
			WithGuidance("Please check StewardX logs")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return failure.Parse("decode StewardX response", err)
	}
	return nil
}

func connectionFailure(op string, err error) *failure.Error {
	return failure.New(failure.KindConnection, op, err).WithGuidance(strings.Join([]string{
		"Couldn't connect to StewardX. Here's what you can do:",
		"- Try the same command with LOG_LEVEL=debug, like LOG_LEVEL=debug stewardctl ...",
		"- Check if the StewardX instance is running (stewardctl service status)",
		"- Check the STEWARDX_URL or STEWARDX_HOST and STEWARDX_PORT environment variables",
		"- Use cURL to connect to the StewardX instance; if that works, please open an issue at " + failure.IssueURL,
	}, "\n"))
}
