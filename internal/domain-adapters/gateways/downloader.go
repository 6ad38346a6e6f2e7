package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ochairo/binsync/internal/domain/entities"
	"github.com/ochairo/binsync/internal/domain/interfaces"
	"github.com/ochairo/binsync/internal/domain/services"
)

const downloadTimeout = 10 * time.Minute

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._+-]+`)

// Downloader fetches release assets and lays them out on disk
type Downloader struct {
	httpClient *http.Client
	userAgent  string
	extractor  *Extractor
	verifier   *checksumVerifier
	logger     interfaces.Logger
}

// DownloaderOption customizes a Downloader
type DownloaderOption func(*Downloader)

// WithDownloadClient replaces the default HTTP client
func WithDownloadClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithDownloadUserAgent overrides the User-Agent header
func WithDownloadUserAgent(userAgent string) DownloaderOption {
	return func(d *Downloader) {
		if userAgent != "" {
			d.userAgent = userAgent
		}
	}
}

// NewDownloader creates a new downloader
func NewDownloader(logger interfaces.Logger, opts ...DownloaderOption) *Downloader {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	d := &Downloader{
		httpClient: &http.Client{
			Timeout: downloadTimeout, // Long timeout for large downloads
		},
		userAgent: DefaultUserAgent,
		extractor: NewExtractor(logger),
		verifier:  NewChecksumVerifier(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Materialize downloads asset into stagingDir and expands or copies it into
// destination. Download problems wrap services.ErrDownloadFailed, layout
// problems wrap services.ErrExtractFailed.
func (d *Downloader) Materialize(ctx context.Context, asset entities.Asset, stagingDir, destination string) ([]string, error) {
	name := sanitizeFilename(asset.Name)
	if name == "" {
		name = "download"
	}
	staged := filepath.Join(stagingDir, name)
	defer func() {
		if err := os.Remove(staged); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("Failed to remove staged file", interfaces.F("path", staged), interfaces.F("error", err))
		}
	}()

	if err := d.downloadFile(ctx, asset.DownloadURL, staged); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", services.ErrDownloadFailed, asset.Name, err)
	}

	if asset.Digest != "" {
		checked, err := d.verifier.VerifyDigest(ctx, staged, asset.Digest)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", services.ErrDownloadFailed, asset.Name, err)
		}
		if !checked {
			d.logger.Debug("Skipping unrecognized digest", interfaces.F("asset", asset.Name), interfaces.F("digest", asset.Digest))
		}
	}

	format := DetectArchiveFormat(asset.Name)
	d.logger.Debug("Materializing asset",
		interfaces.F("asset", asset.Name),
		interfaces.F("kind", format.Kind.String()),
		interfaces.F("destination", destination))

	var written []string
	var err error
	switch format.Kind {
	case entities.ArchiveZip:
		written, err = d.extractor.ExtractZip(staged, destination)
	case entities.ArchiveTar:
		written, err = d.extractor.ExtractTar(staged, format.Compression, destination)
	default:
		var target string
		target, err = d.copyAsset(staged, destination, asset.Name)
		if err == nil {
			written = []string{target}
		}
	}
	if err != nil {
		return written, fmt.Errorf("%w: %s: %w", services.ErrExtractFailed, asset.Name, err)
	}

	return written, nil
}

// downloadFile streams url into dest. No authorization header is sent.
func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	if url == "" {
		return fmt.Errorf("asset has no download URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	//nolint:gosec // G304: dest is inside the staging directory
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return fmt.Errorf("short download: got %d of %d bytes", written, resp.ContentLength)
	}

	d.logger.Info("Downloaded",
		interfaces.F("file", filepath.Base(dest)),
		//nolint:gosec // G115: written is never negative
		interfaces.F("size", humanize.Bytes(uint64(written))))

	return nil
}

// copyAsset places a non-archive asset under its original file name
func (d *Downloader) copyAsset(staged, destination, assetName string) (string, error) {
	name, err := assetFileName(assetName)
	if err != nil {
		return "", err
	}
	return d.extractor.CopyFile(staged, destination, name)
}

// assetFileName returns the last path component of an asset name unchanged.
// Only names that cannot be a file name are rejected.
func assetFileName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("invalid asset file name: %q", name)
	}
	return base, nil
}

// sanitizeFilename reduces name to a single safe path component.
// Returns "" when nothing usable is left.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return ""
	}
	return name
}
