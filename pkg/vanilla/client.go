package vanilla

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	snapshotFile = "snapshot.json"
	markerFile   = "VERSION"

	defaultTimeout = 30 * time.Second
)

// Option customises the client configuration.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for snapshot downloads.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds a single snapshot download.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client downloads reference dataset snapshots and caches them on disk,
// keyed by a version marker file. The cache holds exactly one version at a
// time; requesting a different version replaces it.
type Client struct {
	baseURL    string
	cacheDir   string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient constructs a Client. baseURL must contain a "{version}"
// placeholder; cacheDir is created on first use.
func NewClient(baseURL, cacheDir string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSpace(baseURL),
		cacheDir:   strings.TrimSpace(cacheDir),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Snapshot returns the reference dataset for the given version, from the
// local cache when the marker matches, downloading and caching otherwise.
// An unobtainable snapshot is an error; callers decide whether that is
// fatal for their run.
func (c *Client) Snapshot(ctx context.Context, version string) (*Snapshot, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, errors.New("vanilla: version is required")
	}

	if data, ok := c.cached(version); ok {
		return ParseSnapshot(version, data)
	}

	data, err := c.download(ctx, version)
	if err != nil {
		return nil, err
	}
	snapshot, err := ParseSnapshot(version, data)
	if err != nil {
		return nil, err
	}
	if err := c.store(version, data); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *Client) cached(version string) ([]byte, bool) {
	if c.cacheDir == "" {
		return nil, false
	}
	marker, err := os.ReadFile(filepath.Join(c.cacheDir, markerFile))
	if err != nil || strings.TrimSpace(string(marker)) != version {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(c.cacheDir, snapshotFile))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Client) store(version string, data []byte) error {
	if c.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("vanilla: create cache dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.cacheDir, snapshotFile), data, 0o644); err != nil {
		return fmt.Errorf("vanilla: cache snapshot: %w", err)
	}
	// The marker is written last so a torn cache never claims a version it
	// does not hold.
	if err := os.WriteFile(filepath.Join(c.cacheDir, markerFile), []byte(version+"\n"), 0o644); err != nil {
		return fmt.Errorf("vanilla: write version marker: %w", err)
	}
	return nil
}

func (c *Client) download(ctx context.Context, version string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, errors.New("vanilla: snapshot url is not configured")
	}
	url := strings.ReplaceAll(c.baseURL, "{version}", version)

	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("vanilla: build snapshot request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vanilla: fetch snapshot for %s: %w", version, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vanilla: snapshot for %s: unexpected status %s", version, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vanilla: read snapshot for %s: %w", version, err)
	}
	return data, nil
}
