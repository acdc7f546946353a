// pkg/download/download.go - fetching installers and landing pages over HTTP.

package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
	"github.com/windowsadmins/setup-sqlserver/pkg/progress"
	"github.com/windowsadmins/setup-sqlserver/pkg/retry"
)

// Timeout bounds a single HTTP request, body transfer included.
const Timeout = 30 * time.Minute

// HTTPClient is the part of *http.Client the Downloader needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status code: %d (%s)", e.StatusCode, e.URL)
}

// Downloader saves remote files into a temporary directory.
type Downloader struct {
	httpClient  HTTPClient
	tempDir     string
	retryConfig retry.RetryConfig
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client HTTPClient) DownloaderOption {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithRetryConfig overrides the download retry policy.
func WithRetryConfig(cfg retry.RetryConfig) DownloaderOption {
	return func(d *Downloader) {
		d.retryConfig = cfg
	}
}

// New creates a Downloader writing into tempDir (the OS temp dir when empty).
func New(tempDir string, opts ...DownloaderOption) *Downloader {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	d := &Downloader{
		httpClient:  &http.Client{Timeout: Timeout},
		tempDir:     tempDir,
		retryConfig: retry.RetryConfig{MaxRetries: 3, InitialInterval: 10 * time.Second, Multiplier: 2.0},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadTool downloads rawURL to a uniquely named file and gives it ext, or
// the extension of the URL path when ext is empty. Windows refuses to run
// setup programs without their .exe/.msi extension.
func (d *Downloader) DownloadTool(ctx context.Context, rawURL, ext string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("invalid parameters: url cannot be empty")
	}
	if ext == "" {
		ext = urlExt(rawURL)
	}
	if err := os.MkdirAll(d.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	dest := filepath.Join(d.tempDir, uuid.NewString())
	logging.Debug("Downloading", "url", rawURL, "destination", dest)

	err := retry.Retry(ctx, d.retryConfig, func(ctx context.Context) error {
		return d.fetchToFile(ctx, rawURL, dest)
	})
	if err != nil {
		os.Remove(dest)
		return "", err
	}

	final := dest + ext
	if final != dest {
		if err := os.Rename(dest, final); err != nil {
			return "", fmt.Errorf("failed to rename download: %w", err)
		}
	}
	logging.Debug("Downloaded", "file", final)
	return final, nil
}

// FetchPage returns the body of a successful (2xx) GET.
func (d *Downloader) FetchPage(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to prepare HTTP request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

func (d *Downloader) fetchToFile(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to prepare HTTP request: %w", err))
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
		if !retryableStatus(resp.StatusCode) {
			return retry.Permanent(statusErr)
		}
		return statusErr
	}

	out, err := os.Create(dest)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to open destination file: %w", err))
	}
	body := progress.NewReader(resp.Body, resp.ContentLength, urlBase(rawURL))
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write downloaded data: %w", err)
	}
	return out.Close()
}

// retryableStatus treats server errors, timeouts and throttling as transient.
func retryableStatus(code int) bool {
	if code < 400 || code >= 500 {
		return true
	}
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

func urlExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return path.Ext(rawURL)
	}
	return path.Ext(u.Path)
}

func urlBase(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	return path.Base(u.Path)
}
