package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults used when neither the environment nor the config file set a value.
const (
	DefaultInstallDirName = ".stewardx"
	DefaultSocketDir      = "/tmp"
	DefaultHost           = "localhost"
	DefaultPort           = 3000
	DefaultReleaseRepo    = "gokayokyay/stewardx"
	DefaultStartTimeout   = 5 * time.Second

	BinaryName = "stewardx"
	SocketName = "stewardx.sock"
	LockName   = "stewardx.lock"
	LogName    = "stewardx.log"
)

// LookupFunc reports the value of an environment variable and whether it is set.
type LookupFunc func(key string) (string, bool)

// Settings is the fully resolved configuration every component consumes.
type Settings struct {
	InstallDir string // directory holding the service binary
	BinaryPath string // canonical path of the installed binary
	LogPath    string // where the detached service writes stdout/stderr

	SocketDir  string // directory holding the control channel
	SocketPath string // control channel (unix socket)
	LockPath   string // advisory lock serializing concurrent starts

	ServiceURL   string // REST base URL
	ReleaseRepo  string // owner/repo of the release index
	GitHubToken  string
	StartTimeout time.Duration

	DatabaseURLSet bool // presence of STEWARDX_DATABASE_URL; the value is never read
}

// Resolve resolves settings from the process environment and f.
func Resolve(f *File) (*Settings, error) {
	return ResolveWith(f, os.LookupEnv)
}

// ResolveWith resolves settings using lookup for environment access.
// Precedence is environment, then config file, then defaults.
func ResolveWith(f *File, lookup LookupFunc) (*Settings, error) {
	if f == nil {
		f = &File{}
	}

	env := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return v
	}

	installDir := firstNonEmpty(env(EnvInstallDir), f.InstallDir)
	if installDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		installDir = filepath.Join(home, DefaultInstallDirName)
	}

	// The service binds its socket under $STEWARDX_DIR, falling back to /tmp.
	socketDir := firstNonEmpty(env(EnvInstallDir), f.SocketDir, DefaultSocketDir)

	serviceURL, err := resolveServiceURL(f, env)
	if err != nil {
		return nil, err
	}

	startTimeout := DefaultStartTimeout
	if f.StartTimeout != "" {
		d, err := time.ParseDuration(f.StartTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid start_timeout: %w", err)
		}
		startTimeout = d
	}

	_, dbSet := lookup(EnvDatabaseURL)

	return &Settings{
		InstallDir:     installDir,
		BinaryPath:     filepath.Join(installDir, BinaryName),
		LogPath:        filepath.Join(installDir, LogName),
		SocketDir:      socketDir,
		SocketPath:     filepath.Join(socketDir, SocketName),
		LockPath:       filepath.Join(socketDir, LockName),
		ServiceURL:     serviceURL,
		ReleaseRepo:    firstNonEmpty(f.ReleaseRepo, DefaultReleaseRepo),
		GitHubToken:    env(EnvGitHubToken),
		StartTimeout:   startTimeout,
		DatabaseURLSet: dbSet,
	}, nil
}

func resolveServiceURL(f *File, env func(string) string) (string, error) {
	if u := firstNonEmpty(env(EnvURL), f.URL); u != "" {
		return u, nil
	}

	host := firstNonEmpty(env(EnvHost), f.Host, DefaultHost)

	port := DefaultPort
	if f.Port != 0 {
		port = f.Port
	}
	if p := env(EnvPort); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return "", fmt.Errorf("invalid %s '%s': must be a port number", EnvPort, p)
		}
		port = n
	}

	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// EnsureInstallDir creates the install directory if it does not exist.
// Calling it again is a no-op.
func (s *Settings) EnsureInstallDir() error {
	return EnsureDir(s.InstallDir)
}

// EnsureDir creates dir and its parents with owner-only permissions.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
