package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamancini/stewardctl/internal/config"
	"github.com/adamancini/stewardctl/internal/failure"
	"github.com/adamancini/stewardctl/internal/release"
)

// LivenessProbe reports whether the service appears to be running.
type LivenessProbe interface {
	IsRunning() bool
}

// Provisioner installs the service binary when it is missing.
type Provisioner interface {
	Installed() bool
	Install(ctx context.Context) (*release.InstallResult, error)
}

// ProcessSpawner launches a detached process and returns its PID.
type ProcessSpawner interface {
	SpawnDetached(binary string, args []string, logPath string) (int, error)
}

// Waiter blocks until a socket file exists or the timeout passes.
type Waiter interface {
	WaitForSocket(ctx context.Context, path string, timeout time.Duration) bool
}

// StartResult describes a launch.
type StartResult struct {
	PID        int
	Confirmed  bool // the control socket appeared within the wait window
	Waited     time.Duration
	SocketPath string
	LogPath    string
	Installed  *release.InstallResult // set when the binary was provisioned during start
}

// Launcher runs the start sequence for the service.
type Launcher struct {
	settings    *config.Settings
	probe       LivenessProbe
	provisioner Provisioner
	spawner     ProcessSpawner
	waiter      Waiter
	lock        func(path string) (*FileLock, error)
	log         zerolog.Logger
}

// NewLauncher creates a launcher. The waiter may be nil, in which case the
// start is never confirmed.
func NewLauncher(settings *config.Settings, probe LivenessProbe, provisioner Provisioner, spawner ProcessSpawner, waiter Waiter) *Launcher {
	return &Launcher{
		settings:    settings,
		probe:       probe,
		provisioner: provisioner,
		spawner:     spawner,
		waiter:      waiter,
		lock:        AcquireLock,
		log:         zerolog.Nop(),
	}
}

// WithLogger sets the diagnostic logger.
func (l *Launcher) WithLogger(log zerolog.Logger) *Launcher {
	l.log = log
	return l
}

// Start launches the service if it is not already running, provisioning the
// binary first when absent. wait bounds how long to wait for the control
// socket; zero skips confirmation.
func (l *Launcher) Start(ctx context.Context, wait time.Duration) (*StartResult, error) {
	if !l.settings.DatabaseURLSet {
		return nil, failure.New(failure.KindConfigMissing,
			fmt.Sprintf("%s is not set", config.EnvDatabaseURL), nil).
			WithGuidance(fmt.Sprintf("Please set %s to the database connection string StewardX should use", config.EnvDatabaseURL))
	}

	if err := config.EnsureDir(l.settings.SocketDir); err != nil {
		return nil, failure.New(failure.KindFilesystem, "prepare socket directory", err)
	}

	lock, err := l.lock(l.settings.LockPath)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			return nil, failure.New(failure.KindAlreadyRunning, "another start is in progress", err)
		}
		return nil, failure.New(failure.KindFilesystem, "acquire start lock", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			l.log.Debug().Err(err).Msg("failed to release start lock")
		}
	}()

	if l.probe.IsRunning() {
		return nil, failure.New(failure.KindAlreadyRunning, "StewardX is already running", nil).
			WithGuidance(fmt.Sprintf("If it is not, remove the stale socket at %s", l.settings.SocketPath))
	}

	result := &StartResult{
		SocketPath: l.settings.SocketPath,
		LogPath:    l.settings.LogPath,
	}

	if !l.provisioner.Installed() {
		l.log.Info().Str("path", l.settings.BinaryPath).Msg("StewardX binary not found, installing it")
		inst, err := l.provisioner.Install(ctx)
		if err != nil {
			return nil, err
		}
		result.Installed = inst
	}

	if err := checkExecutable(l.settings.BinaryPath); err != nil {
		return nil, err
	}

	l.log.Debug().Str("binary", l.settings.BinaryPath).Str("log", l.settings.LogPath).Msg("spawning service")
	pid, err := l.spawner.SpawnDetached(l.settings.BinaryPath, nil, l.settings.LogPath)
	if err != nil {
		return nil, classifySpawnError(err)
	}
	result.PID = pid
	l.log.Debug().Int("pid", pid).Msg("service spawned")

	if l.waiter == nil || wait <= 0 {
		return result, nil
	}

	began := time.Now()
	result.Confirmed = l.waiter.WaitForSocket(ctx, l.settings.SocketPath, wait)
	result.Waited = time.Since(began)

	return result, nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return failure.New(failure.KindExec, "stat service binary", err).
			WithGuidance("Please run `stewardctl service install` first")
	}
	if !info.Mode().IsRegular() {
		return failure.New(failure.KindExec, fmt.Sprintf("%s is not a regular file", path), nil)
	}
	if info.Mode().Perm()&0111 == 0 {
		return failure.New(failure.KindExec, fmt.Sprintf("%s is not executable", path), nil).
			WithGuidance("Please run `stewardctl service install` to reinstall it")
	}
	return nil
}

func classifySpawnError(err error) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		return failure.New(failure.KindExec, "launch StewardX", err).
			WithGuidance("Please run `stewardctl service install` first")
	}
	return failure.New(failure.KindLaunch, "launch StewardX", err).
		WithGuidance("Please run `stewardctl service install` first")
}
