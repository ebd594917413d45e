// Package source retrieves ready-made highlights snapshots from a file or URL.
package source

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nikogura/profile-highlights/pkg/snapshot"
	"github.com/pkg/errors"
)

const (
	// UserAgent identifies snapshot requests.
	UserAgent = "profile-highlights/1.0"
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 30 * time.Second
	// maxBodyBytes caps the size of a fetched snapshot.
	maxBodyBytes = 1 << 20
)

// Fetch retrieves a snapshot from a file path or URL.
func Fetch(input string) (s snapshot.Snapshot, err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	s, err = FetchWithContext(ctx, input)
	return s, err
}

// FetchWithContext retrieves a snapshot with context.
func FetchWithContext(ctx context.Context, input string) (s snapshot.Snapshot, err error) {
	if input == "" {
		err = errors.New("snapshot location is empty")
		return s, err
	}

	parsedURL, urlErr := url.Parse(input)
	if urlErr == nil && (parsedURL.Scheme == "http" || parsedURL.Scheme == "https") {
		var data []byte
		var format snapshot.Format
		data, format, err = fetchFromURL(ctx, parsedURL)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch snapshot from URL: %s", input)
			return s, err
		}

		s, err = snapshot.Parse(data, format)
		if err != nil {
			err = errors.Wrapf(err, "invalid snapshot from URL: %s", input)
			return s, err
		}
		return s, err
	}

	var data []byte
	data, err = fetchFromFile(input)
	if err != nil {
		err = errors.Wrapf(err, "failed to fetch snapshot from file: %s", input)
		return s, err
	}

	s, err = snapshot.Parse(data, snapshot.FormatFromPath(input))
	if err != nil {
		err = errors.Wrapf(err, "invalid snapshot file: %s", input)
		return s, err
	}

	return s, err
}

// IsLocal reports whether input names a local file rather than a URL.
func IsLocal(input string) (local bool) {
	parsedURL, err := url.Parse(input)
	if err != nil {
		local = true
		return local
	}

	local = parsedURL.Scheme != "http" && parsedURL.Scheme != "https"
	return local
}

// fetchFromFile reads a snapshot file.
func fetchFromFile(path string) (data []byte, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return data, err
	}

	if len(data) == 0 {
		err = errors.New("file is empty")
		return data, err
	}

	return data, err
}

// fetchFromURL downloads a snapshot and picks its format from the
// Content-Type header, falling back to the URL path extension.
func fetchFromURL(ctx context.Context, target *url.URL) (data []byte, format snapshot.Format, err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return data, format, err
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")

	client := &http.Client{
		Timeout: DefaultTimeout,
	}

	var resp *http.Response
	resp, err = client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return data, format, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("HTTP request failed with status: %d", resp.StatusCode)
		return data, format, err
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return data, format, err
	}

	// A truncated snapshot would decode with missing fields set to zero.
	if len(data) > maxBodyBytes {
		err = errors.Errorf("snapshot exceeds %d bytes", maxBodyBytes)
		return nil, format, err
	}

	if len(data) == 0 {
		err = errors.New("fetched snapshot is empty")
		return data, format, err
	}

	format = formatFromContentType(resp.Header.Get("Content-Type"))
	if format == "" {
		format = snapshot.FormatFromPath(target.Path)
	}

	return data, format, err
}

func formatFromContentType(contentType string) (format snapshot.Format) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return format
	}

	switch {
	case strings.Contains(mediaType, "yaml"):
		format = snapshot.FormatYAML
	case strings.Contains(mediaType, "json"):
		format = snapshot.FormatJSON
	}

	return format
}
