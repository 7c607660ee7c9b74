package relay

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"tweetrelay/pkg/errors"
	"tweetrelay/pkg/logger"
)

// HTTPDownloader fetches media binaries over plain HTTP. Media URLs come
// from the upstream CDN and need no authentication.
type HTTPDownloader struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewHTTPDownloader creates a downloader with the given per-request
// timeout
func NewHTTPDownloader(timeout time.Duration, log logger.Logger) *HTTPDownloader {
	if log == nil {
		log = logger.GetLogger()
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPDownloader{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Fetch downloads url into dest, creating the parent directory as
// needed. A partial file is removed on failure.
func (d *HTTPDownloader) Fetch(url, dest string) error {
	dir := filepath.Dir(dest)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.New(errors.ErrorTypeUnknown, 0, "failed to create temp directory: %v", err)
		}
	}

	start := time.Now()
	resp, err := d.httpClient.Get(url)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, 0, "download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.FromStatusCode(resp.StatusCode), resp.StatusCode, "download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create file: %v", err)
	}

	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(dest)
		return errors.New(errors.ErrorTypeNetwork, 0, "failed to save media data: %v", copyErr)
	}
	if closeErr != nil {
		os.Remove(dest)
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to close file: %v", closeErr)
	}

	d.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"url":      url,
		"dest":     dest,
		"size":     written,
		"duration": time.Since(start),
	})

	return nil
}
