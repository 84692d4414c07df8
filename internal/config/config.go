// Package config resolves stewardctl settings from the environment, an
// optional config file and built-in defaults.
//
// Every component takes its paths and addresses from Settings; nothing else
// in the tree reads these environment variables directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables consulted during resolution.
const (
	EnvInstallDir  = "STEWARDX_DIR"
	EnvDatabaseURL = "STEWARDX_DATABASE_URL"
	EnvURL         = "STEWARDX_URL"
	EnvHost        = "STEWARDX_HOST"
	EnvPort        = "STEWARDX_PORT"
	EnvConfigFile  = "STEWARDCTL_CONFIG"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// File represents the optional stewardctl configuration file.
type File struct {
	InstallDir   string `yaml:"install_dir,omitempty" toml:"install_dir,omitempty" json:"install_dir,omitempty"`
	SocketDir    string `yaml:"socket_dir,omitempty" toml:"socket_dir,omitempty" json:"socket_dir,omitempty"`
	URL          string `yaml:"url,omitempty" toml:"url,omitempty" json:"url,omitempty"`
	Host         string `yaml:"host,omitempty" toml:"host,omitempty" json:"host,omitempty"`
	Port         int    `yaml:"port,omitempty" toml:"port,omitempty" json:"port,omitempty"`
	ReleaseRepo  string `yaml:"release_repo,omitempty" toml:"release_repo,omitempty" json:"release_repo,omitempty"` // owner/repo on GitHub
	StartTimeout string `yaml:"start_timeout,omitempty" toml:"start_timeout,omitempty" json:"start_timeout,omitempty"`
}

// configFileNames lists the accepted file names, in lookup order.
var configFileNames = []string{
	"config.yaml",
	"config.yml",
	"config.toml",
	"config.json",
}

// FindFile searches for a config file in the standard locations.
// It returns "" with a nil error when no file exists; a config file is optional.
func FindFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(EnvConfigFile); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file from %s not found: %s", EnvConfigFile, envPath)
		}
		return envPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory means no standard locations to search.
		return "", nil
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	searchPaths := []string{
		filepath.Join(xdgConfig, "stewardctl"),
		filepath.Join(home, ".stewardctl"),
	}

	for _, dir := range searchPaths {
		for _, name := range configFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", nil
}

// Load reads, parses and validates a config file.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	f, err := parse(content, format)
	if err != nil {
		return nil, err
	}

	if err := Validate(f); err != nil {
		return nil, err
	}

	return f, nil
}

// LoadDefault finds and loads the config file, returning an empty File when
// none exists.
func LoadDefault(explicitPath string) (*File, string, error) {
	path, err := FindFile(explicitPath)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return &File{}, "", nil
	}

	f, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}
