// Package crawler discovers candidate article links for a profile and
// extracts article records from their pages.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
	"github.com/Adda-Baaj/durjog-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/durjog-khobor/pkg/profiles"
)

const (
	maxHTMLBodyBytes = 2 << 20 // 2 MiB
	maxSnippetBytes  = 512
)

// ErrStatus marks a response whose status code is not 2xx.
var ErrStatus = errors.New("unexpected http status")

// pageLoader fetches pages with per-request deadlines and the profile's
// headers.
type pageLoader struct {
	client httpclient.Client
	log    logger.Logger
}

// fetchBody returns the body of a 2xx response, truncated to the size cap.
func (l pageLoader) fetchBody(ctx context.Context, p *profiles.Profile, pageURL string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := l.client.Get(ctx, pageURL, p.Headers)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, fmt.Errorf("%w: status %d body: %s", ErrStatus, code, responseSnippet(body))
	}

	if len(body) > maxHTMLBodyBytes {
		l.log.InfoObj("html body truncated", "truncation", map[string]any{
			"profile_id": p.ID,
			"url":        pageURL,
			"original":   len(body),
			"kept":       maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}
	return body, nil
}

// loadDocument fetches and parses an HTML page. The document's Url is set
// so extractors can resolve relative links against the page itself.
func (l pageLoader) loadDocument(ctx context.Context, p *profiles.Profile, pageURL string, timeout time.Duration) (*goquery.Document, error) {
	body, err := l.fetchBody(ctx, p, pageURL, timeout)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// responseSnippet returns a truncated snippet of the response body for logging.
func responseSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetBytes {
		return s[:maxSnippetBytes] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
