package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Spawner handles detached process spawning.
type Spawner struct {
	// Env is the environment passed to the child process.
	Env []string
}

// NewSpawner creates a spawner that passes the current environment through,
// which is how the service receives STEWARDX_DATABASE_URL.
func NewSpawner() *Spawner {
	return &Spawner{
		Env: os.Environ(),
	}
}

// Setenv sets key=value in the child environment, replacing any existing
// entry for key.
func (s *Spawner) Setenv(key, value string) *Spawner {
	prefix := key + "="
	env := make([]string, 0, len(s.Env)+1)
	for _, kv := range s.Env {
		if !strings.HasPrefix(kv, prefix) {
			env = append(env, kv)
		}
	}
	s.Env = append(env, prefix+value)
	return s
}

// SpawnDetached starts binary in its own session with stdin closed and
// stdout/stderr appended to logPath, then releases it. The CLI does not wait
// for the child, which keeps running after the CLI exits.
//
// Returns the PID of the spawned process.
func (s *Spawner) SpawnDetached(binary string, args []string, logPath string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	// The child holds its own descriptor after Start.
	defer logFile.Close()

	cmd := exec.Command(binary, args...)
	cmd.Env = s.Env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start process: %w", err)
	}

	pid := cmd.Process.Pid

	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("process started but failed to release: %w", err)
	}

	return pid, nil
}
