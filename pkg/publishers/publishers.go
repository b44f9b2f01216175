// Package publishers fans "article stored" events out to webhooks and cloud
// queues declared in a publishers file.
package publishers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

// EventArticleStored is emitted after an article is written to the store.
const EventArticleStored = "article.stored"

// Event is the payload delivered to every publisher.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Source     string         `json:"source"`
	OccurredAt time.Time      `json:"occurred_at"`
	Article    domain.Article `json:"article"`
}

// NewArticleEvent wraps a stored article in an event with a fresh id.
func NewArticleEvent(a domain.Article, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventArticleStored,
		Source:     a.Source,
		OccurredAt: at.UTC(),
		Article:    a,
	}
}

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Dispatcher publishes each stored article to every configured publisher.
// A failing publisher does not stop delivery to the others.
type Dispatcher struct {
	pubs []Publisher
	now  func() time.Time
	log  logger.Logger
}

// NewDispatcher creates a Dispatcher over pubs.
func NewDispatcher(pubs []Publisher, log logger.Logger) *Dispatcher {
	return &Dispatcher{pubs: pubs, now: time.Now, log: logger.Ensure(log)}
}

// Len returns the number of publishers.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.pubs)
}

// Publish sends an article.stored event for a to every publisher and joins
// their errors.
func (d *Dispatcher) Publish(ctx context.Context, a domain.Article) error {
	if d.Len() == 0 {
		return nil
	}
	evt := NewArticleEvent(a, d.now())

	var errs []error
	for _, p := range d.pubs {
		if err := p.Publish(ctx, evt); err != nil {
			d.log.WarnObj("publisher delivery failed", "publisher_error", map[string]any{
				"publisher_id": p.ID(),
				"type":         p.Type(),
				"event_id":     evt.ID,
				"url":          a.URL,
				"error":        err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.ID(), err))
			continue
		}
		d.log.DebugObj("event published", "publisher_delivered", map[string]any{
			"publisher_id": p.ID(),
			"event_id":     evt.ID,
			"url":          a.URL,
		})
	}
	return errors.Join(errs...)
}

// Close closes every publisher.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, p := range d.pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher %s: %w", p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
