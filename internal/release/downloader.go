package release

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adamancini/stewardctl/internal/failure"
)

// HTTPDownloader downloads binaries over HTTP
type HTTPDownloader struct {
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPDownloader creates a new HTTP downloader. The default client follows
// redirects, which GitHub asset URLs rely on.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{},
		log:    zerolog.Nop(),
	}
}

// WithLogger sets the diagnostic logger.
func (d *HTTPDownloader) WithLogger(log zerolog.Logger) *HTTPDownloader {
	d.log = log
	return d
}

// Download streams url into dst, truncating any existing file.
// On failure dst is removed.
func (d *HTTPDownloader) Download(ctx context.Context, url, dst string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, failure.Connection("build download request", err)
	}

	d.log.Debug().Str("url", url).Str("dst", dst).Msg("downloading asset")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, failure.Connection("download asset", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, failure.Connection("download asset", fmt.Errorf("server returned status %d", resp.StatusCode))
	}

	f, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return 0, failure.New(failure.KindFilesystem, "create download file", err)
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(dst)
		// Writes to the file fail with *fs.PathError; anything else came off the wire.
		var pathErr *fs.PathError
		if errors.As(copyErr, &pathErr) {
			return 0, failure.New(failure.KindFilesystem, "write binary", copyErr)
		}
		return 0, failure.Connection("download asset", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(dst)
		return 0, failure.New(failure.KindFilesystem, "close download file", closeErr)
	}

	d.log.Debug().Int64("bytes", n).Msg("download complete")
	return n, nil
}

// VerifyChecksum checks file's SHA-256 against the entry for assetName in
// the checksums file at checksumsURL.
func (d *HTTPDownloader) VerifyChecksum(ctx context.Context, file, assetName, checksumsURL string) error {
	checksums, err := d.downloadChecksums(ctx, checksumsURL)
	if err != nil {
		return err
	}

	expected, ok := checksums[assetName]
	if !ok {
		return failure.New(failure.KindIntegrity, "verify checksum",
			fmt.Errorf("checksum for %s not found in %s", assetName, ChecksumsAssetName))
	}

	actual, err := calculateSHA256(file)
	if err != nil {
		return failure.New(failure.KindFilesystem, "hash downloaded binary", err)
	}

	if !strings.EqualFold(actual, expected) {
		return failure.New(failure.KindIntegrity, "verify checksum",
			fmt.Errorf("checksum mismatch for %s: got %s, want %s", assetName, actual, expected))
	}

	d.log.Debug().Str("asset", assetName).Str("sha256", actual).Msg("checksum verified")
	return nil
}

// downloadChecksums fetches and parses a "<hash>  <name>" checksums file.
// Malformed lines are skipped.
func (d *HTTPDownloader) downloadChecksums(ctx context.Context, url string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, failure.Connection("build checksums request", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, failure.Connection("download checksums", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, failure.Connection("download checksums", fmt.Errorf("server returned status %d", resp.StatusCode))
	}

	checksums := make(map[string]string)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		// sha256sum marks binary mode with a leading '*'.
		checksums[strings.TrimPrefix(fields[1], "*")] = fields[0]
	}
	if err := scanner.Err(); err != nil {
		return nil, failure.Connection("read checksums", err)
	}

	return checksums, nil
}

// calculateSHA256 returns the hex SHA-256 of the file at path.
func calculateSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
