package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adamancini/stewardctl/internal/config"
	"github.com/adamancini/stewardctl/internal/failure"
)

// versionMarker records the tag of the last installed release next to the binary.
const versionMarker = ".stewardx-release"

// Installer fetches the latest release binary for a platform and installs it.
type Installer struct {
	checker    Checker
	downloader Downloader
	tag        string // canonical platform tag, e.g. linux_x64
	installDir string
	binaryPath string
	log        zerolog.Logger
}

// NewInstaller creates an installer writing to the paths in settings.
func NewInstaller(checker Checker, downloader Downloader, platformTag string, settings *config.Settings) *Installer {
	return &Installer{
		checker:    checker,
		downloader: downloader,
		tag:        platformTag,
		installDir: settings.InstallDir,
		binaryPath: settings.BinaryPath,
		log:        zerolog.Nop(),
	}
}

// WithLogger sets the diagnostic logger.
func (i *Installer) WithLogger(log zerolog.Logger) *Installer {
	i.log = log
	return i
}

// BinaryPath returns the canonical install location.
func (i *Installer) BinaryPath() string {
	return i.binaryPath
}

// Installed reports whether a binary is present at the canonical path.
func (i *Installer) Installed() bool {
	info, err := os.Stat(i.binaryPath)
	return err == nil && info.Mode().IsRegular()
}

// Install downloads the first asset matching the platform tag from the
// latest release and installs it at the canonical path with mode 0700.
func (i *Installer) Install(ctx context.Context) (*InstallResult, error) {
	rel, asset, err := i.resolve(ctx)
	if err != nil {
		return nil, err
	}

	i.log.Info().Str("asset", asset.Name).Str("release", rel.TagName).Msg("found the matching binary, downloading it")

	if err := config.EnsureDir(i.installDir); err != nil {
		return nil, failure.New(failure.KindFilesystem, "create install directory", err)
	}

	tmp, err := os.CreateTemp(i.installDir, ".stewardx-download-*")
	if err != nil {
		return nil, failure.New(failure.KindFilesystem, "create temporary file", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	n, err := i.downloader.Download(ctx, asset.BrowserDownloadURL, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	checked := false
	if sums := ChecksumsAsset(rel); sums != nil {
		if err := i.downloader.VerifyChecksum(ctx, tmpPath, asset.Name, sums.BrowserDownloadURL); err != nil {
			_ = os.Remove(tmpPath)
			return nil, err
		}
		checked = true
	}

	if err := NewBinaryReplacer(i.binaryPath).Replace(tmpPath); err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(i.installDir, versionMarker), []byte(rel.TagName+"\n"), 0600); err != nil {
		// The binary is in place; a missing marker only affects --check output.
		i.log.Warn().Err(err).Msg("failed to record installed release")
	}

	abs, err := filepath.Abs(i.binaryPath)
	if err != nil {
		abs = i.binaryPath
	}

	return &InstallResult{
		Path:    abs,
		Release: rel,
		Asset:   asset,
		Bytes:   n,
		Checked: checked,
	}, nil
}

// Check resolves the release and asset an install would use without
// downloading anything.
func (i *Installer) Check(ctx context.Context) (*CheckResult, error) {
	rel, asset, err := i.resolve(ctx)
	if err != nil {
		return nil, err
	}

	installed := i.InstalledRelease()
	return &CheckResult{
		Release:   rel,
		Asset:     asset,
		Installed: installed,
		Available: IsNewer(rel.TagName, installed),
	}, nil
}

func (i *Installer) resolve(ctx context.Context) (*Release, *Asset, error) {
	rel, err := i.checker.Latest(ctx)
	if err != nil {
		return nil, nil, err
	}

	if len(rel.Assets) == 0 {
		return nil, nil, failure.New(failure.KindNoAsset, "latest release doesn't have any assets", nil).
			WithGuidance(fmt.Sprintf("Please manually check: %s", i.checker.ManualCheckURL()))
	}

	asset := SelectAsset(rel, i.tag)
	if asset == nil {
		return nil, nil, failure.New(failure.KindNoAsset,
			fmt.Sprintf("latest release %s has no binary for platform %s", rel.TagName, i.tag), nil).
			WithGuidance(fmt.Sprintf("Please manually check: %s", i.checker.ManualCheckURL()))
	}

	return rel, asset, nil
}

// InstalledRelease returns the tag recorded by the last install, or "" when unknown.
func (i *Installer) InstalledRelease() string {
	data, err := os.ReadFile(filepath.Join(i.installDir, versionMarker))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			i.log.Debug().Err(err).Msg("failed to read installed release")
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}
