package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Download fetches the workbook export at rawURL and writes it to dest. The
// file is replaced only once the whole body has been received.
func Download(ctx context.Context, client *http.Client, rawURL, dest string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, MaxFileSize+1)); err != nil {
		tmp.Close()
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if fi, err := os.Stat(tmp.Name()); err == nil && fi.Size() > MaxFileSize {
		return ErrFileTooLarge
	}
	return os.Rename(tmp.Name(), dest)
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("source url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid source url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("source url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}
