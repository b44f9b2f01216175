package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

const maxErrorBodyBytes = 512

// httpPublisher posts events as JSON to a webhook.
type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json")

	return &httpPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  client,
		log:     logger.Ensure(log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }

// Publish sends evt and treats any non-2xx answer as a failure.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeaders(p.headers).
		SetHeader("X-Event-Type", evt.Type).
		SetHeader("X-Event-Id", evt.ID).
		SetBody(evt).
		Execute(p.method, p.url)
	if err != nil {
		return fmt.Errorf("%s %s: %w", p.method, p.url, err)
	}
	if !resp.IsSuccess() {
		body := resp.Body()
		if len(body) > maxErrorBodyBytes {
			body = body[:maxErrorBodyBytes]
		}
		return fmt.Errorf("%s %s: status %d: %s", p.method, p.url, resp.StatusCode(), body)
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": p.id,
		"status":       resp.StatusCode(),
	})
	return nil
}

func (p *httpPublisher) Close() error { return nil }
