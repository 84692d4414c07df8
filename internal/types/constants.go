// Package types provides type-safe constants and wire models for the
// StewardX REST API.
//
// Enumerated values are typed strings with Validate and Parse helpers so that
// command-line input is checked before a request is built.
package types

import (
	"fmt"
	"strings"
)

// TaskType is the kind of work a task performs.
type TaskType string

const (
	// TaskTypeCmd runs a shell command.
	TaskTypeCmd TaskType = "CmdTask"
	// TaskTypeDocker runs a container from an image or a Dockerfile.
	TaskTypeDocker TaskType = "DockerTask"
)

// AllTaskTypes returns all valid task types.
func AllTaskTypes() []TaskType {
	return []TaskType{TaskTypeCmd, TaskTypeDocker}
}

// Validate checks if the TaskType is a valid value.
func (t TaskType) Validate() error {
	switch t {
	case TaskTypeCmd, TaskTypeDocker:
		return nil
	case "":
		return fmt.Errorf("task type is required")
	default:
		return fmt.Errorf("invalid task type '%s' (must be CmdTask or DockerTask)", t)
	}
}

// String returns the string representation of the TaskType.
func (t TaskType) String() string {
	return string(t)
}

// IsCmd returns true if the task runs a command.
func (t TaskType) IsCmd() bool {
	return t == TaskTypeCmd
}

// IsDocker returns true if the task runs a container.
func (t TaskType) IsDocker() bool {
	return t == TaskTypeDocker
}

// ParseTaskType parses a string into a TaskType. The short forms "cmd" and
// "docker" are accepted in any case.
func ParseTaskType(s string) (TaskType, error) {
	switch strings.ToLower(s) {
	case "cmd", "cmdtask":
		return TaskTypeCmd, nil
	case "docker", "dockertask":
		return TaskTypeDocker, nil
	}
	t := TaskType(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// DockerSource says how a docker task's image is provided.
type DockerSource string

const (
	// DockerSourceFile builds the image from Dockerfile contents.
	DockerSourceFile DockerSource = "file"
	// DockerSourceImage pulls a named image.
	DockerSourceImage DockerSource = "image"
)

// AllDockerSources returns all valid docker sources.
func AllDockerSources() []DockerSource {
	return []DockerSource{DockerSourceFile, DockerSourceImage}
}

// Validate checks if the DockerSource is a valid value.
func (d DockerSource) Validate() error {
	switch d {
	case DockerSourceFile, DockerSourceImage:
		return nil
	case "":
		return fmt.Errorf("docker source type is required")
	default:
		return fmt.Errorf("invalid type '%s', please supply either \"file\" or \"image\"", d)
	}
}

// String returns the string representation of the DockerSource.
func (d DockerSource) String() string {
	return string(d)
}

// Wire returns the capitalised form the service expects ("File", "Image").
func (d DockerSource) Wire() string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsFile returns true if the image is built from a Dockerfile.
func (d DockerSource) IsFile() bool {
	return d == DockerSourceFile
}

// ParseDockerSource parses a string into a DockerSource.
func ParseDockerSource(s string) (DockerSource, error) {
	d := DockerSource(strings.ToLower(s))
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}
