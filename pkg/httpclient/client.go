// Package httpclient is the outbound HTTP layer used for homepages,
// sitemaps, feeds and article pages.
package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout caps a single request when the caller sets no deadline.
	DefaultTimeout = 15 * time.Second

	// DefaultUserAgent identifies the harvester to the sites it reads.
	DefaultUserAgent = "Mozilla/5.0 (compatible; durjog-khobor/1.0; +https://github.com/Adda-Baaj/durjog-khobor)"
)

// Response is the part of an HTTP response the harvester reads.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs GET requests.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Option customizes the resty client.
type Option func(*resty.Client)

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.SetHeader("User-Agent", ua)
		}
	}
}

type restyClient struct {
	rc *resty.Client
}

// NewRestyClient builds a Client with a request timeout. Redirects are
// followed; retries are disabled since every fetch is a single attempt.
func NewRestyClient(timeout time.Duration, opts ...Option) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", DefaultUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for _, opt := range opts {
		opt(rc)
	}
	return &restyClient{rc: rc}
}

// Get issues a GET with the given extra headers.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.rc.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return resp, nil
}
