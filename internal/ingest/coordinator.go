// Package ingest runs ingestion passes: it walks every profile, consults the
// freshness cache and the store, fetches what is new and prunes what has
// aged out of the retention window.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/durjog-khobor/internal/crawler"
	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/internal/freshness"
	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
	"github.com/Adda-Baaj/durjog-khobor/internal/storage"
	"github.com/Adda-Baaj/durjog-khobor/pkg/profiles"
)

// Discoverer lists fresh, relevant candidate links for a profile.
type Discoverer interface {
	Discover(ctx context.Context, p *profiles.Profile, now time.Time) []domain.CandidateLink
}

// ArticleFetcher turns one candidate URL into a tagged outcome.
type ArticleFetcher interface {
	Fetch(ctx context.Context, p *profiles.Profile, url string, now time.Time) crawler.Outcome
}

// EventSink receives every article written to the store.
type EventSink interface {
	Publish(ctx context.Context, a domain.Article) error
}

// Observer records pass level measurements.
type Observer interface {
	ObserveOutcome(profileID, outcome string)
	ObservePass(status string, duration time.Duration)
	ObservePruned(target string, n int)
	SetCacheSize(n int)
	SetStoredArticles(n int)
}

// StoreError wraps a store failure. It aborts the pass that hit it.
type StoreError struct {
	Op  string
	URL string
	Err error
}

func (e *StoreError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithEventSink publishes stored articles to sink.
func WithEventSink(sink EventSink) Option {
	return func(c *Coordinator) { c.sink = sink }
}

// WithObserver reports pass measurements to o.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator orchestrates ingestion passes. Profiles are processed one
// after another; concurrent passes are allowed and only share the cache and
// the store.
type Coordinator struct {
	profiles []*profiles.Profile
	walker   Discoverer
	fetcher  ArticleFetcher
	store    storage.Store
	cache    *freshness.Cache
	sink     EventSink
	observer Observer
	now      func() time.Time
	log      logger.Logger
}

// New creates a Coordinator. The retention window is the cache's window.
func New(
	list []*profiles.Profile,
	walker Discoverer,
	fetcher ArticleFetcher,
	store storage.Store,
	cache *freshness.Cache,
	log logger.Logger,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		profiles: list,
		walker:   walker,
		fetcher:  fetcher,
		store:    store,
		cache:    cache,
		now:      time.Now,
		log:      logger.Ensure(log),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	return c
}

// Window returns the retention window.
func (c *Coordinator) Window() time.Duration {
	return c.cache.Window()
}

// Profiles returns the profiles a pass walks, in order.
func (c *Coordinator) Profiles() []*profiles.Profile {
	out := make([]*profiles.Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// RunPass runs one ingestion pass over every profile. Per-URL failures are
// counted and skipped; a store failure stops the pass and is returned along
// with the partial report.
func (c *Coordinator) RunPass(ctx context.Context) (Report, error) {
	started := c.now()
	report := Report{
		StartedAt: started.UTC(),
		Profiles:  make([]ProfileReport, 0, len(c.profiles)),
	}
	c.log.InfoObj("ingestion pass started", "pass_start", map[string]any{
		"profiles": len(c.profiles),
	})

	err := c.runProfiles(ctx, &report)
	if err == nil {
		err = c.prune(ctx, &report)
	}
	report.Duration = c.now().Sub(started)
	c.observer.SetCacheSize(c.cache.Len())

	if err != nil {
		c.observer.ObservePass(StatusFailed, report.Duration)
		c.log.ErrorObj("ingestion pass aborted", "pass_failed", map[string]any{
			"stored":   report.Stored(),
			"duration": report.Duration.String(),
			"error":    err.Error(),
		})
		return report, err
	}

	total, countErr := c.store.Count(ctx)
	if countErr != nil {
		c.log.WarnObj("count stored articles failed", "pass_count_error", map[string]any{
			"error": countErr.Error(),
		})
		total = -1
	} else {
		c.observer.SetStoredArticles(total)
	}
	report.Total = total

	c.observer.ObservePass(StatusOK, report.Duration)
	c.log.InfoObj("ingestion pass finished", "pass_done", map[string]any{
		"new":          report.Inserted(),
		"stored":       report.Stored(),
		"deleted":      report.StorePruned,
		"cache_pruned": report.CachePruned,
		"total":        total,
		"cache_size":   c.cache.Len(),
		"duration":     report.Duration.String(),
	})
	return report, nil
}

func (c *Coordinator) runProfiles(ctx context.Context, report *Report) error {
	for _, p := range c.profiles {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pass cancelled before profile %s: %w", p.ID, err)
		}
		pr, err := c.runProfile(ctx, p)
		report.Profiles = append(report.Profiles, pr)
		if err != nil {
			return err
		}
	}
	return nil
}

// runProfile walks one profile and handles each of its candidates.
func (c *Coordinator) runProfile(ctx context.Context, p *profiles.Profile) (ProfileReport, error) {
	pr := ProfileReport{ProfileID: p.ID}
	links := c.walker.Discover(ctx, p, c.now())
	pr.Candidates = len(links)

	for _, link := range links {
		if err := c.handle(ctx, p, link, &pr); err != nil {
			return pr, err
		}
	}

	c.log.InfoObj("profile processed", "profile_done", map[string]any{
		"profile_id":         p.ID,
		"candidates":         pr.Candidates,
		"cache_hits":         pr.CacheHits,
		"store_hits":         pr.StoreHits,
		"stored":             pr.Stored,
		"skipped_no_date":    pr.SkippedNoDate,
		"skipped_irrelevant": pr.SkippedIrrelevant,
		"failed":             pr.Failed,
	})
	return pr, nil
}

// handle decides what to do with one candidate: skip it when the cache or a
// recent store write already covers it, otherwise fetch and persist it.
func (c *Coordinator) handle(ctx context.Context, p *profiles.Profile, link domain.CandidateLink, pr *ProfileReport) error {
	now := c.now()
	window := c.cache.Window()

	if c.cache.IsFresh(link.URL, now) {
		pr.CacheHits++
		return nil
	}

	existing, err := c.store.Get(ctx, link.URL)
	switch {
	case err == nil:
		if now.Sub(existing.ScrapedAt) < window {
			c.cache.Put(link.URL, existing.PublishedAt)
			pr.StoreHits++
			return nil
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return &StoreError{Op: "get", URL: link.URL, Err: err}
	}

	out := c.fetcher.Fetch(ctx, p, link.URL, now)
	c.observer.ObserveOutcome(p.ID, out.Kind.String())
	switch out.Kind {
	case crawler.OutcomeSkipNoDate:
		pr.SkippedNoDate++
		return nil
	case crawler.OutcomeSkipIrrelevant:
		pr.SkippedIrrelevant++
		return nil
	case crawler.OutcomeError:
		pr.Failed++
		return nil
	case crawler.OutcomeRecord:
	default:
		pr.Failed++
		return nil
	}

	article := *out.Article
	article.ScrapedAt = now
	article.Normalize()

	res, err := c.store.Upsert(ctx, article)
	if err != nil {
		return &StoreError{Op: "upsert", URL: article.URL, Err: err}
	}
	c.cache.Put(article.URL, article.PublishedAt)
	pr.Stored++
	if res == storage.Inserted {
		pr.Inserted++
	}
	c.log.InfoObj("article stored", "article_stored", map[string]any{
		"profile_id":   p.ID,
		"url":          article.URL,
		"result":       res.String(),
		"published_at": article.PublishedAt,
		"keywords":     article.Keywords,
	})

	if c.sink != nil {
		if err := c.sink.Publish(ctx, article); err != nil {
			c.log.WarnObj("publish stored article failed", "article_publish_error", map[string]any{
				"profile_id": p.ID,
				"url":        article.URL,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

// prune evicts aged entries from the cache, deletes records whose
// publication date left the window, then prunes the cache again so entries
// added while the store was being pruned are covered too.
func (c *Coordinator) prune(ctx context.Context, report *Report) error {
	now := c.now()
	report.CachePruned = c.cache.Prune(now)

	deleted, err := c.store.DeleteOlderThan(ctx, storage.FieldPublished, now.Add(-c.cache.Window()))
	if err != nil {
		return &StoreError{Op: "prune", Err: err}
	}
	report.StorePruned = deleted
	report.CachePruned += c.cache.Prune(now)

	c.observer.ObservePruned("cache", report.CachePruned)
	c.observer.ObservePruned("store", report.StorePruned)
	return nil
}

// Warm loads the cache from store records published within the window. It
// replaces whatever the cache held and returns the number of entries.
func (c *Coordinator) Warm(ctx context.Context) (int, error) {
	now := c.now()
	articles, err := c.store.ListSince(ctx, storage.FieldPublished, now.Add(-c.cache.Window()))
	if err != nil {
		return 0, &StoreError{Op: "list", Err: err}
	}
	entries := make(map[string]time.Time, len(articles))
	for _, a := range articles {
		entries[a.URL] = a.PublishedAt
	}
	c.cache.Load(entries)
	c.cache.Prune(now)
	c.observer.SetCacheSize(c.cache.Len())

	c.log.InfoObj("freshness cache warmed", "cache_warm", map[string]any{
		"entries": c.cache.Len(),
		"window":  c.cache.Window().String(),
	})
	return c.cache.Len(), nil
}

// Clear deletes every stored record and empties the cache.
func (c *Coordinator) Clear(ctx context.Context) (int, error) {
	deleted, err := c.store.DeleteAll(ctx)
	if err != nil {
		return 0, &StoreError{Op: "delete all", Err: err}
	}
	evicted := c.cache.Clear()
	c.observer.SetCacheSize(0)
	c.observer.SetStoredArticles(0)

	c.log.InfoObj("store cleared", "store_cleared", map[string]any{
		"deleted":       deleted,
		"cache_evicted": evicted,
	})
	return deleted, nil
}

// Articles returns the stored records published within the window, newest
// first.
func (c *Coordinator) Articles(ctx context.Context) ([]domain.Article, error) {
	articles, err := c.store.ListSince(ctx, storage.FieldPublished, c.now().Add(-c.cache.Window()))
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return articles, nil
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(string, string) {}

func (nopObserver) ObservePass(string, time.Duration) {}

func (nopObserver) ObservePruned(string, int) {}

func (nopObserver) SetCacheSize(int) {}

func (nopObserver) SetStoredArticles(int) {}
