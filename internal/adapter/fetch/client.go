// Package fetch downloads source dataset archives and unpacks them into the
// datasets directory, reusing files already on disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Archive is one zip file published at URL and unpacked into Dir.
type Archive struct {
	Name string
	URL  string
	Dir  string
	File string // zip name inside Dir
}

// Path is the location of the downloaded zip.
func (a Archive) Path() string { return filepath.Join(a.Dir, a.File) }

// Client downloads archives over HTTP.
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	metrics     *observability.Metrics
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	concurrency int
}

// NewClient creates a download client. timeout bounds each HTTP request.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:      logger,
		metrics:     metrics,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		maxBackoff:  10 * time.Second,
		concurrency: 3,
	}
}

// FetchAll fetches every archive, a few at a time. The first failure
// cancels the downloads still running.
func (c *Client) FetchAll(ctx context.Context, archives []Archive) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, a := range archives {
		g.Go(func() error {
			return c.Fetch(ctx, a)
		})
	}
	return g.Wait()
}

// Fetch downloads a unless its zip already exists, then extracts the entries
// missing from a.Dir.
func (c *Client) Fetch(ctx context.Context, a Archive) error {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("%s: create dir: %w", a.Name, err)
	}

	if _, err := os.Stat(a.Path()); err == nil {
		c.logger.Info("archive already exists, skipping download", "dataset", a.Name, "path", a.Path())
		c.metrics.Downloads.WithLabelValues("cached").Inc()
	} else {
		size, err := c.download(ctx, a)
		if err != nil {
			c.metrics.Downloads.WithLabelValues("error").Inc()
			return fmt.Errorf("%s: %w", a.Name, err)
		}
		c.metrics.Downloads.WithLabelValues("downloaded").Inc()
		c.logger.Info("archive downloaded", "dataset", a.Name, "size", humanize.Bytes(uint64(size)))
	}

	extracted, skipped, err := Extract(a.Path(), a.Dir)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Name, err)
	}
	c.logger.Info("archive extracted", "dataset", a.Name, "extracted", extracted, "skipped", skipped)
	return nil
}

// download retries transient failures with exponential backoff and writes
// the body through a temporary file so a partial zip is never left behind.
func (c *Client) download(ctx context.Context, a Archive) (int64, error) {
	backoff := c.backoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		size, err := c.get(ctx, a.URL, a.Path())
		if err == nil {
			return size, nil
		}
		lastErr = err
		var perm *permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			break
		}
		if attempt == c.maxAttempts {
			break
		}
		c.logger.Warn("download failed, retrying",
			"dataset", a.Name,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			return 0, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, c.maxBackoff)
	}
	return 0, lastErr
}

// permanentError marks a response that retrying will not fix.
type permanentError struct {
	status int
	body   string
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("download error: status %d: %s", e.status, e.body)
}

func (c *Client) get(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return 0, fmt.Errorf("download error: status %d: %s", resp.StatusCode, body)
		}
		return 0, &permanentError{status: resp.StatusCode, body: string(body)}
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}
	size, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return 0, fmt.Errorf("rename %s: %w", tmp, err)
	}
	return size, nil
}
