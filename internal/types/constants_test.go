package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTaskTypeValidate(t *testing.T) {
	tests := []struct {
		name    string
		tt      TaskType
		wantErr bool
	}{
		{"cmd valid", TaskTypeCmd, false},
		{"docker valid", TaskTypeDocker, false},
		{"empty invalid", "", true},
		{"invalid value", "ShellTask", true},
		{"lowercase wire value invalid", "cmdtask", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tt.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TaskType.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskTypeHelpers(t *testing.T) {
	if !TaskTypeCmd.IsCmd() {
		t.Error("CmdTask.IsCmd() should be true")
	}
	if TaskTypeCmd.IsDocker() {
		t.Error("CmdTask.IsDocker() should be false")
	}
	if !TaskTypeDocker.IsDocker() {
		t.Error("DockerTask.IsDocker() should be true")
	}
	if len(AllTaskTypes()) != 2 {
		t.Errorf("AllTaskTypes() has %d entries, want 2", len(AllTaskTypes()))
	}
}

func TestParseTaskType(t *testing.T) {
	tests := []struct {
		input   string
		want    TaskType
		wantErr bool
	}{
		{"cmd", TaskTypeCmd, false},
		{"CMD", TaskTypeCmd, false},
		{"CmdTask", TaskTypeCmd, false},
		{"docker", TaskTypeDocker, false},
		{"DockerTask", TaskTypeDocker, false},
		{"", "", true},
		{"shell", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTaskType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTaskType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTaskType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDockerSource(t *testing.T) {
	tests := []struct {
		input    string
		want     DockerSource
		wantWire string
		wantErr  bool
	}{
		{"file", DockerSourceFile, "File", false},
		{"FILE", DockerSourceFile, "File", false},
		{"image", DockerSourceImage, "Image", false},
		{"Image", DockerSourceImage, "Image", false},
		{"", "", "", true},
		{"url", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDockerSource(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDockerSource(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDockerSource(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Wire() != tt.wantWire {
				t.Errorf("Wire() = %q, want %q", got.Wire(), tt.wantWire)
			}
		})
	}

	if !DockerSourceFile.IsFile() || DockerSourceImage.IsFile() {
		t.Error("IsFile() mismatch")
	}
}

func TestNewCmdTask(t *testing.T) {
	req, err := NewCmdTask("backup", "Hook", "tar czf /tmp/b.tgz /data")
	if err != nil {
		t.Fatalf("NewCmdTask() error = %v", err)
	}

	got, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"task_name":"backup","task_type":"CmdTask","frequency":"Hook","task_props":{"command":"tar czf /tmp/b.tgz /data"}}`
	if string(got) != want {
		t.Errorf("body = %s\nwant   %s", got, want)
	}

	if _, err := NewCmdTask("", "Hook", "ls"); err == nil {
		t.Error("NewCmdTask() with empty name should fail")
	}
	if _, err := NewCmdTask("x", "Hook", " "); err == nil {
		t.Error("NewCmdTask() with empty command should fail")
	}
}

func TestNewDockerTask(t *testing.T) {
	req, err := NewDockerTask("web", "Every(0 * * * * *)", DockerSourceImage, "nginx:latest", []string{"A=1", "B=2"})
	if err != nil {
		t.Fatalf("NewDockerTask() error = %v", err)
	}

	got, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"task_name":"web","task_type":"DockerTask","frequency":"Every(0 * * * * *)","task_props":{"image":{"t":"Image","c":"nginx:latest"},"env":["A=1","B=2"]}}`
	if string(got) != want {
		t.Errorf("body = %s\nwant   %s", got, want)
	}
}

func TestNewDockerTaskNoEnv(t *testing.T) {
	req, err := NewDockerTask("build", "Hook", DockerSourceFile, "FROM alpine\n", nil)
	if err != nil {
		t.Fatalf("NewDockerTask() error = %v", err)
	}
	props := req.Props.(DockerProps)
	if props.Env == nil {
		t.Error("Env should be an empty list, not null")
	}
	if props.Image.T != "File" {
		t.Errorf("Image.T = %q, want File", props.Image.T)
	}
}

func TestNewDockerTaskInvalid(t *testing.T) {
	if _, err := NewDockerTask("x", "Hook", "url", "y", nil); err == nil {
		t.Error("invalid source should fail")
	}
	if _, err := NewDockerTask("x", "Hook", DockerSourceImage, "y", []string{"NOEQUALS"}); err == nil {
		t.Error("env without '=' should fail")
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2021, 5, 1, 12, 30, 45, 0, time.UTC)
	for _, in := range []string{
		"2021-05-01T12:30:45",
		"2021-05-01 12:30:45",
		"2021-05-01T12:30:45Z",
	} {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}

	frac, err := (Report{CreatedAt: "2021-05-01T12:30:45.123456"}).ExecutedAt()
	if err != nil {
		t.Fatalf("ExecutedAt() error = %v", err)
	}
	if frac.Nanosecond() != 123456000 {
		t.Errorf("Nanosecond() = %d, want 123456000", frac.Nanosecond())
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("ParseTimestamp(yesterday) should fail")
	}
}
