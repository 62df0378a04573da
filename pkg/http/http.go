// Package http holds the HTTP client shared by the upstream fetchers.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/glorpus-work/wingetmirror/pkg/errors"
)

const (
	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 60 * time.Second
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "wingetmirror/1.0"
	maxRedirects     = 10
)

// Client performs GET requests against the upstream CDN and installer hosts.
type Client struct {
	client    *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTransport replaces the transport of the underlying client.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.client.Transport = rt
		}
	}
}

// NewClient creates a client with the given per-request timeout. Redirects are followed.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open issues a GET and returns the body of a 200 response. The caller closes it.
// Transport failures and other status codes wrap errors.ErrFetch.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFetch, "create request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFetch, "get %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.ErrUnexpectedStatus(resp.StatusCode, url)
	}
	return resp.Body, nil
}

// Get downloads url into memory.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFetch, "read %s: %v", url, err)
	}
	return data, nil
}
