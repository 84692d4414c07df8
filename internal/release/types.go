// Package release provisions the StewardX service binary from its GitHub
// release index.
package release

import "context"

// ChecksumsAssetName is the release asset holding "<sha256>  <name>" lines.
const ChecksumsAssetName = "checksums.txt"

// Release represents a GitHub release response
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Checker fetches release metadata.
type Checker interface {
	Latest(ctx context.Context) (*Release, error)
	ManualCheckURL() string
}

// Downloader downloads and verifies binaries.
type Downloader interface {
	Download(ctx context.Context, url, dst string) (int64, error)
	VerifyChecksum(ctx context.Context, file, assetName, checksumsURL string) error
}

// InstallResult describes a completed install.
type InstallResult struct {
	Path    string   // absolute path of the installed binary
	Release *Release // release the binary came from
	Asset   *Asset   // selected asset
	Bytes   int64    // payload size written
	Checked bool     // whether a checksum was verified
}

// CheckResult describes what an install would fetch, without fetching it.
type CheckResult struct {
	Release   *Release
	Asset     *Asset
	Installed string // tag recorded by the last install, "" if unknown
	Available bool   // latest release is newer than Installed (or nothing recorded)
}
