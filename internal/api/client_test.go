package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/stewardctl/internal/failure"
	"github.com/adamancini/stewardctl/internal/types"
)

const (
	taskID   = "6f1c2b5e-8d7a-4c3b-9e2f-1a0b9c8d7e6f"
	reportID = "0b9e8d7c-6a5b-4c3d-8e2f-1a0b9c8d7e6f"
)

type recorded struct {
	method string
	path   string
	body   string
}

// stewardx serves canned replies keyed by "METHOD /path" and records requests.
func stewardx(t *testing.T, replies map[string]string) (*Client, <-chan recorded) {
	t.Helper()
	requests := make(chan recorded, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- recorded{method: r.Method, path: r.URL.Path, body: string(body)}

		reply, ok := replies[r.Method+" "+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/"), requests
}

func TestListTasks(t *testing.T) {
	client, requests := stewardx(t, map[string]string{
		"GET /tasks": `[{"id":"` + taskID + `","task_name":"backup","task_type":"CmdTask","frequency":"Hook","task_props":{"command":"ls"}}]`,
	})

	tasks, err := client.ListTasks(context.Background())

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, taskID, tasks[0].ID)
	assert.Equal(t, "backup", tasks[0].Name)
	assert.Equal(t, "CmdTask", tasks[0].Type)
	assert.Equal(t, "Hook", tasks[0].Frequency)
	assert.JSONEq(t, `{"command":"ls"}`, string(tasks[0].Props))
	assert.Equal(t, "GET", (<-requests).method)
}

func TestActiveTasksEmpty(t *testing.T) {
	client, _ := stewardx(t, map[string]string{"GET /activetasks": `[]`})

	tasks, err := client.ActiveTasks(context.Background())

	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestGetTaskReturnsRawJSON(t *testing.T) {
	client, requests := stewardx(t, map[string]string{
		"GET /tasks/" + taskID: `{"id":"` + taskID + `","extra":{"nested":true}}`,
	})

	raw, err := client.GetTask(context.Background(), taskID)

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+taskID+`","extra":{"nested":true}}`, string(raw))
	assert.Equal(t, "/tasks/"+taskID, (<-requests).path)
}

func TestCreateTaskBody(t *testing.T) {
	client, requests := stewardx(t, map[string]string{"POST /tasks": `{"id":"` + taskID + `"}`})
	req, err := types.NewCmdTask("backup", "Every(0 0 * * * *)", "ls")
	require.NoError(t, err)

	_, err = client.CreateTask(context.Background(), req)

	require.NoError(t, err)
	got := <-requests
	assert.Equal(t, http.MethodPost, got.method)
	assert.JSONEq(t, `{"task_name":"backup","task_type":"CmdTask","frequency":"Every(0 0 * * * *)","task_props":{"command":"ls"}}`, got.body)
}

func TestStatusOperations(t *testing.T) {
	tests := []struct {
		name     string
		route    string
		call     func(*Client) (string, error)
		wantBody string
	}{
		{
			name:     "delete",
			route:    "DELETE /tasks",
			call:     func(c *Client) (string, error) { return c.DeleteTask(context.Background(), taskID) },
			wantBody: `{"task_id":"` + taskID + `"}`,
		},
		{
			name:  "execute",
			route: "POST /execute/" + taskID,
			call:  func(c *Client) (string, error) { return c.ExecuteTask(context.Background(), taskID) },
		},
		{
			name:     "abort",
			route:    "POST /abort",
			call:     func(c *Client) (string, error) { return c.AbortTask(context.Background(), taskID) },
			wantBody: `{"task_id":"` + taskID + `"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, requests := stewardx(t, map[string]string{tt.route: `{"status":"ok"}`})

			status, err := tt.call(client)

			require.NoError(t, err)
			assert.Equal(t, "ok", status)
			got := <-requests
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, got.body)
			}
		})

		t.Run(tt.name+" missing status", func(t *testing.T) {
			client, _ := stewardx(t, map[string]string{tt.route: `{"error":"boom"}`})

			status, err := tt.call(client)

			require.NoError(t, err)
			assert.Equal(t, StatusMissing, status)
		})
	}
}

func TestReports(t *testing.T) {
	reports := `[{"id":"` + reportID + `","task_id":"` + taskID + `","created_at":"2021-05-01T12:30:45.5","successful":true}]`
	client, _ := stewardx(t, map[string]string{
		"GET /reports":                     reports,
		"GET /tasks/" + taskID + "/reports": reports,
		"GET /reports/" + reportID:          `{"id":"` + reportID + `","output":"done"}`,
	})

	latest, err := client.LatestReports(context.Background())
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.True(t, latest[0].Successful)
	assert.Equal(t, taskID, latest[0].TaskID)

	forTask, err := client.TaskReports(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, latest, forTask)

	raw, err := client.GetReport(context.Background(), reportID)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "done")
}

func TestInvalidIDIsRejectedBeforeRequest(t *testing.T) {
	client, requests := stewardx(t, nil)

	_, err := client.DeleteTask(context.Background(), "not-a-uuid")

	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrInvalidInput))
	assert.Empty(t, requests)
}

func TestParseFailure(t *testing.T) {
	client, _ := stewardx(t, map[string]string{"GET /tasks": `<html>`})

	_, err := client.ListTasks(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrParse))
	assert.Contains(t, failure.GuidanceOf(err), "open an issue")
}

func TestWrongFieldTypeIsParseFailure(t *testing.T) {
	client, _ := stewardx(t, map[string]string{"GET /reports": `[{"id":"x","successful":"yes"}]`})

	_, err := client.LatestReports(context.Background())

	assert.True(t, errors.Is(err, failure.ErrParse))
}

func TestHTTPErrorStatus(t *testing.T) {
	client, _ := stewardx(t, nil)

	_, err := client.ListTasks(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrConnection))
	assert.Contains(t, err.Error(), "404")
}

func TestConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).ListTasks(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrConnection))
	assert.Contains(t, failure.GuidanceOf(err), "STEWARDX_URL")
}

func TestRawMessageIsValidJSON(t *testing.T) {
	client, _ := stewardx(t, map[string]string{"GET /tasks/" + taskID: `{"a":1}`})

	raw, err := client.GetTask(context.Background(), taskID)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
}
