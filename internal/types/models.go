package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Task is a scheduled task as listed by the service.
type Task struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"task_name" yaml:"task_name"`
	Type      string          `json:"task_type" yaml:"task_type"`
	Frequency string          `json:"frequency" yaml:"frequency"`
	Props     json.RawMessage `json:"task_props,omitempty" yaml:"-"`
}

// Report is the outcome of one task execution.
type Report struct {
	ID         string `json:"id" yaml:"id"`
	TaskID     string `json:"task_id" yaml:"task_id"`
	CreatedAt  string `json:"created_at" yaml:"created_at"`
	Successful bool   `json:"successful" yaml:"successful"`
}

// ExecutedAt parses CreatedAt. The service sends timestamps without a zone;
// they are UTC.
func (r Report) ExecutedAt() (time.Time, error) {
	return ParseTimestamp(r.CreatedAt)
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// ParseTimestamp parses a service timestamp as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Name      string `json:"task_name"`
	Type      string `json:"task_type"`
	Frequency string `json:"frequency"`
	Props     any    `json:"task_props"`
}

// CmdProps are the properties of a command task.
type CmdProps struct {
	Command string `json:"command"`
}

// DockerImage identifies the image of a docker task. T is the wire form of
// a DockerSource and C is the image name or Dockerfile contents.
type DockerImage struct {
	T string `json:"t"`
	C string `json:"c"`
}

// DockerProps are the properties of a docker task.
type DockerProps struct {
	Image DockerImage `json:"image"`
	Env   []string    `json:"env"`
}

// NewCmdTask builds a command task request.
func NewCmdTask(name, frequency, command string) (*CreateTaskRequest, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("task name is required")
	}
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("command is required")
	}
	return &CreateTaskRequest{
		Name:      name,
		Type:      TaskTypeCmd.String(),
		Frequency: frequency,
		Props:     CmdProps{Command: command},
	}, nil
}

// NewDockerTask builds a docker task request. contents is the image name for
// DockerSourceImage and the Dockerfile text for DockerSourceFile.
func NewDockerTask(name, frequency string, source DockerSource, contents string, env []string) (*CreateTaskRequest, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("task name is required")
	}
	if err := source.Validate(); err != nil {
		return nil, err
	}
	for _, e := range env {
		if !strings.Contains(e, "=") {
			return nil, fmt.Errorf("invalid environment variable '%s' (expected KEY=VALUE)", e)
		}
	}
	if env == nil {
		env = []string{}
	}
	return &CreateTaskRequest{
		Name:      name,
		Type:      TaskTypeDocker.String(),
		Frequency: frequency,
		Props: DockerProps{
			Image: DockerImage{T: source.Wire(), C: contents},
			Env:   env,
		},
	}, nil
}

// StatusResponse is the reply to delete, execute and abort requests.
type StatusResponse struct {
	Status *string `json:"status"`
}
