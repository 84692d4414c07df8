package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/adamancini/stewardctl/internal/config"
	"github.com/adamancini/stewardctl/internal/failure"
)

type staticChecker struct {
	release *Release
	err     error
	calls   int
}

func (c *staticChecker) Latest(ctx context.Context) (*Release, error) {
	c.calls++
	return c.release, c.err
}

func (c *staticChecker) ManualCheckURL() string {
	return "https://github.com/gokayokyay/stewardx/releases/latest"
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".stewardx")
	return &config.Settings{
		InstallDir: dir,
		BinaryPath: filepath.Join(dir, config.BinaryName),
	}
}

// assetServer serves the given payload per asset path.
func assetServer(t *testing.T, payloads map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSelectAssetFirstMatchWins(t *testing.T) {
	rel := &Release{Assets: []Asset{
		{Name: "win_x64"},
		{Name: "linux_x64"},
		{Name: "linux_x64_alt"},
	}}

	got := SelectAsset(rel, "linux_x64")
	if got == nil {
		t.Fatal("SelectAsset() = nil, want linux_x64")
	}
	if got.Name != "linux_x64" {
		t.Errorf("SelectAsset() = %s, want linux_x64", got.Name)
	}
	if got != &rel.Assets[1] {
		t.Error("SelectAsset() should point into the release's asset list")
	}
}

func TestSelectAssetNoMatch(t *testing.T) {
	rel := &Release{Assets: []Asset{{Name: "stewardx_darwin_arm64"}, {Name: ChecksumsAssetName}}}

	if got := SelectAsset(rel, "linux_x64"); got != nil {
		t.Errorf("SelectAsset() = %v, want nil", got)
	}
	if got := ChecksumsAsset(rel); got == nil || got.Name != ChecksumsAssetName {
		t.Errorf("ChecksumsAsset() = %v", got)
	}
}

func TestInstallerInstall(t *testing.T) {
	server := assetServer(t, map[string]string{
		"/win":   "windows build",
		"/linux": "linux build",
		"/alt":   "alternate build",
	})
	checker := &staticChecker{release: &Release{
		TagName: "v0.3.0",
		Assets: []Asset{
			{Name: "stewardx_windows_x64.exe", BrowserDownloadURL: server.URL + "/win"},
			{Name: "stewardx_linux_x64", BrowserDownloadURL: server.URL + "/linux"},
			{Name: "stewardx_linux_x64_musl", BrowserDownloadURL: server.URL + "/alt"},
		},
	}}
	settings := testSettings(t)

	result, err := NewInstaller(checker, NewHTTPDownloader(), "linux_x64", settings).Install(context.Background())
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	if !filepath.IsAbs(result.Path) {
		t.Errorf("Path = %s, want absolute", result.Path)
	}
	if result.Asset.Name != "stewardx_linux_x64" {
		t.Errorf("Asset = %s, want stewardx_linux_x64", result.Asset.Name)
	}
	if result.Bytes != int64(len("linux build")) {
		t.Errorf("Bytes = %d", result.Bytes)
	}
	if result.Checked {
		t.Error("Checked should be false without a checksums asset")
	}

	content, err := os.ReadFile(settings.BinaryPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "linux build" {
		t.Errorf("installed content = %q, want linux build", content)
	}

	info, err := os.Stat(settings.BinaryPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("mode = %o, want 0700", info.Mode().Perm())
	}

	leftovers, _ := filepath.Glob(filepath.Join(settings.InstallDir, ".stewardx-download-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestInstallerReinstallOverwrites(t *testing.T) {
	var payload atomic.Value
	payload.Store("first")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload.Load().(string)))
	}))
	defer server.Close()

	checker := &staticChecker{release: &Release{
		TagName: "v1.0.0",
		Assets:  []Asset{{Name: "stewardx_linux_x64", BrowserDownloadURL: server.URL}},
	}}
	settings := testSettings(t)
	installer := NewInstaller(checker, NewHTTPDownloader(), "linux_x64", settings)

	if _, err := installer.Install(context.Background()); err != nil {
		t.Fatalf("first Install() error = %v", err)
	}

	payload.Store("second")
	if _, err := installer.Install(context.Background()); err != nil {
		t.Fatalf("second Install() error = %v", err)
	}

	content, _ := os.ReadFile(settings.BinaryPath)
	if string(content) != "second" {
		t.Errorf("content = %q, want second", content)
	}

	info, _ := os.Stat(settings.BinaryPath)
	if info.Mode().Perm() != 0700 {
		t.Errorf("mode = %o, want 0700", info.Mode().Perm())
	}
}

func TestInstallerNoAssets(t *testing.T) {
	checker := &staticChecker{release: &Release{TagName: "v1.0.0"}}
	settings := testSettings(t)

	_, err := NewInstaller(checker, NewHTTPDownloader(), "linux_x64", settings).Install(context.Background())
	if !errors.Is(err, failure.ErrNoAsset) {
		t.Fatalf("Install() error = %v, want no-asset failure", err)
	}
	if !strings.Contains(failure.GuidanceOf(err), checker.ManualCheckURL()) {
		t.Errorf("guidance should include the manual check URL, got %q", failure.GuidanceOf(err))
	}

	if _, statErr := os.Stat(settings.InstallDir); !os.IsNotExist(statErr) {
		t.Error("install directory should not be created when there is nothing to install")
	}
}

func TestInstallerNoPlatformMatch(t *testing.T) {
	checker := &staticChecker{release: &Release{
		TagName: "v1.0.0",
		Assets:  []Asset{{Name: "stewardx_darwin_arm64", BrowserDownloadURL: "http://unused"}},
	}}

	_, err := NewInstaller(checker, NewHTTPDownloader(), "linux_riscv64", testSettings(t)).Install(context.Background())
	if !errors.Is(err, failure.ErrNoAsset) {
		t.Fatalf("Install() error = %v, want no-asset failure", err)
	}
	if !strings.Contains(err.Error(), "linux_riscv64") {
		t.Errorf("error should name the platform tag, got: %v", err)
	}
}

func TestInstallerCheckerError(t *testing.T) {
	checker := &staticChecker{err: failure.Connection("fetch latest release", errors.New("dial tcp: refused"))}

	_, err := NewInstaller(checker, NewHTTPDownloader(), "linux_x64", testSettings(t)).Install(context.Background())
	if !errors.Is(err, failure.ErrConnection) {
		t.Errorf("Install() error = %v, want connection failure", err)
	}
}

func TestInstallerChecksumMismatchKeepsExistingBinary(t *testing.T) {
	server := assetServer(t, map[string]string{
		"/linux":     "tampered build",
		"/checksums": fmt.Sprintf("%s  stewardx_linux_x64\n", sha256Hex([]byte("genuine build"))),
	})
	checker := &staticChecker{release: &Release{
		TagName: "v2.0.0",
		Assets: []Asset{
			{Name: "stewardx_linux_x64", BrowserDownloadURL: server.URL + "/linux"},
			{Name: ChecksumsAssetName, BrowserDownloadURL: server.URL + "/checksums"},
		},
	}}
	settings := testSettings(t)
	if err := os.MkdirAll(settings.InstallDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(settings.BinaryPath, []byte("working build"), 0700); err != nil {
		t.Fatal(err)
	}

	_, err := NewInstaller(checker, NewHTTPDownloader(), "linux_x64", settings).Install(context.Background())
	if !errors.Is(err, failure.ErrIntegrity) {
		t.Fatalf("Install() error = %v, want integrity failure", err)
	}

	content, _ := os.ReadFile(settings.BinaryPath)
	if string(content) != "working build" {
		t.Errorf("existing binary was clobbered: %q", content)
	}
}

func TestInstallerChecksumVerified(t *testing.T) {
	server := assetServer(t, map[string]string{
		"/linux":     "genuine build",
		"/checksums": fmt.Sprintf("%s  stewardx_linux_x64\n", sha256Hex([]byte("genuine build"))),
	})
	checker := &staticChecker{release: &Release{
		TagName: "v2.0.0",
		Assets: []Asset{
			{Name: ChecksumsAssetName, BrowserDownloadURL: server.URL + "/checksums"},
			{Name: "stewardx_linux_x64", BrowserDownloadURL: server.URL + "/linux"},
		},
	}}

	result, err := NewInstaller(checker, NewHTTPDownloader(), "linux_x64", testSettings(t)).Install(context.Background())
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !result.Checked {
		t.Error("Checked should be true when checksums.txt is published")
	}
}

func TestInstallerDownloadFailureKeepsExistingBinary(t *testing.T) {
	server := assetServer(t, map[string]string{})
	checker := &staticChecker{release: &Release{
		TagName: "v2.0.0",
		Assets:  []Asset{{Name: "stewardx_linux_x64", BrowserDownloadURL: server.URL + "/missing"}},
	}}
	settings := testSettings(t)
	if err := os.MkdirAll(settings.InstallDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(settings.BinaryPath, []byte("working build"), 0700); err != nil {
		t.Fatal(err)
	}

	_, err := NewInstaller(checker, NewHTTPDownloader(), "linux_x64", settings).Install(context.Background())
	if !errors.Is(err, failure.ErrConnection) {
		t.Fatalf("Install() error = %v, want connection failure", err)
	}

	content, _ := os.ReadFile(settings.BinaryPath)
	if string(content) != "working build" {
		t.Errorf("existing binary was clobbered: %q", content)
	}
	leftovers, _ := filepath.Glob(filepath.Join(settings.InstallDir, ".stewardx-download-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestInstallerCheck(t *testing.T) {
	checker := &staticChecker{release: &Release{
		TagName: "v0.4.0",
		Assets:  []Asset{{Name: "stewardx_linux_x64", BrowserDownloadURL: "http://unused"}},
	}}
	settings := testSettings(t)
	installer := NewInstaller(checker, NewHTTPDownloader(), "linux_x64", settings)

	result, err := installer.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !result.Available || result.Installed != "" {
		t.Errorf("Check() = %+v, want available with nothing installed", result)
	}
	if installer.Installed() {
		t.Error("Check() must not install anything")
	}

	if err := os.MkdirAll(settings.InstallDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(settings.InstallDir, versionMarker), []byte("v0.4.0\n"), 0600); err != nil {
		t.Fatal(err)
	}

	result, err = installer.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Available {
		t.Error("Available should be false when the latest release is installed")
	}
	if result.Installed != "v0.4.0" {
		t.Errorf("Installed = %q, want v0.4.0", result.Installed)
	}
}
