package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/inhies/go-bytesize"

	"github.com/glorpus-work/wingetmirror/internal/logger"
	"github.com/glorpus-work/wingetmirror/pkg/archive"
	"github.com/glorpus-work/wingetmirror/pkg/errors"
	"github.com/glorpus-work/wingetmirror/pkg/fsutil"
)

// IndexMember is the snapshot database inside the source package.
const IndexMember = "Public/index.db"

// DefaultSources are tried in order.
var DefaultSources = []string{"source2.msix", "source.msix"}

const defaultAttempts = 3

// Refresher downloads the source package and installs its snapshot database.
type Refresher struct {
	dir       string
	baseURL   string
	sources   []string
	client    *retryablehttp.Client
	extractor *archive.Manager
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithBaseURL sets the cache root the source packages are downloaded from.
func WithBaseURL(u string) RefresherOption {
	return func(r *Refresher) {
		if u != "" {
			r.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithSources overrides the source package names.
func WithSources(sources ...string) RefresherOption {
	return func(r *Refresher) {
		if len(sources) > 0 {
			r.sources = sources
		}
	}
}

// WithRetry sets the number of attempts per source and the backoff unit. Attempt n
// waits n units before retrying.
func WithRetry(attempts int, unit time.Duration) RefresherOption {
	return func(r *Refresher) {
		if attempts < 1 {
			attempts = 1
		}
		r.client.RetryMax = attempts - 1
		r.client.Backoff = linearBackoff(unit)
	}
}

// WithTimeout bounds each download attempt.
func WithTimeout(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.client.HTTPClient.Timeout = d
		}
	}
}

// WithTransport replaces the transport used for snapshot downloads.
func WithTransport(rt http.RoundTripper) RefresherOption {
	return func(r *Refresher) {
		if rt != nil {
			r.client.HTTPClient.Transport = rt
		}
	}
}

// NewRefresher creates a refresher that maintains the snapshot in dir.
func NewRefresher(dir string, opts ...RefresherOption) *Refresher {
	client := retryablehttp.NewClient()
	client.Logger = retryLogger{}
	client.RetryMax = defaultAttempts - 1
	client.Backoff = linearBackoff(time.Second)

	r := &Refresher{
		dir:       dir,
		baseURL:   DefaultCDNBaseURL,
		sources:   DefaultSources,
		client:    client,
		extractor: archive.NewManager(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func linearBackoff(unit time.Duration) retryablehttp.Backoff {
	return func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return time.Duration(attemptNum+1) * unit
	}
}

// Refresh tries each source package in turn and installs the first snapshot that
// downloads and extracts. The previous snapshot is kept when every source fails.
func (r *Refresher) Refresh(ctx context.Context) (Status, error) {
	if err := fsutil.EnsureDir(r.dir); err != nil {
		return Status{}, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	var lastErr error
	for _, source := range r.sources {
		u := r.baseURL + "/" + source
		if err := r.install(ctx, u, source); err != nil {
			logger.Warn("Catalog source failed", logger.Fields{"source": u, "error": err})
			lastErr = err
			if ctx.Err() != nil {
				return Status{}, ctx.Err()
			}
			continue
		}

		status := Status{
			LastPulled: time.Now().UTC(),
			SourceURL:  u,
			IndexPath:  IndexPath(r.dir),
		}
		if err := SaveStatus(r.dir, status); err != nil {
			return status, err
		}
		logger.Success("Catalog snapshot refreshed", logger.Fields{"source": u})
		return status, nil
	}
	return Status{}, fmt.Errorf("all catalog sources failed: %w: %w", errors.ErrFetch, lastErr)
}

func (r *Refresher) install(ctx context.Context, u, source string) error {
	tmp, err := os.CreateTemp(r.dir, "."+source+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	pkgPath := tmp.Name()
	defer func() { _ = os.Remove(pkgPath) }()

	n, err := r.download(ctx, u, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logger.Info("Downloaded catalog source", logger.Fields{"source": u, "size": bytesize.New(float64(n)).String()})

	// MSIX is a zip; the format is detected from the content.
	ok, err := r.extractor.Contains(ctx, pkgPath, IndexMember)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s not found in %s", IndexMember, filepath.Base(u))
	}
	return r.extractor.ExtractFile(ctx, pkgPath, IndexMember, IndexPath(r.dir))
}

func (r *Refresher) download(ctx context.Context, u string, w io.Writer) (int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrFetch, "download %s: %v", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.ErrUnexpectedStatus(resp.StatusCode, u)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.Wrapf(errors.ErrFetch, "read %s: %v", u, err)
	}
	return n, nil
}

// retryLogger routes retryablehttp messages into the application logger.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { logger.Error(msg, kvFields(kv)) }
func (retryLogger) Info(msg string, kv ...interface{})  { logger.Debug(msg, kvFields(kv)) }
func (retryLogger) Debug(msg string, kv ...interface{}) { logger.Debug(msg, kvFields(kv)) }
func (retryLogger) Warn(msg string, kv ...interface{})  { logger.Warn(msg, kvFields(kv)) }

func kvFields(kv []interface{}) logger.Fields {
	f := logger.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
