package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
	"github.com/Adda-Baaj/durjog-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/durjog-khobor/pkg/profiles"
	"github.com/Adda-Baaj/durjog-khobor/pkg/relevance"
)

// Walker defaults.
const (
	DefaultListingTimeout = 15 * time.Second
	DefaultPageTimeout    = 5 * time.Second
	DefaultRequestDelay   = 200 * time.Millisecond
	DefaultMaxCandidates  = 60
	DefaultWindow         = 24 * time.Hour

	maxSitemapDepth = 3
)

// WalkerConfig tunes discovery.
type WalkerConfig struct {
	// Window is the retention window; older candidates are dropped.
	Window time.Duration
	// ListingTimeout bounds the homepage, sitemap or feed request.
	ListingTimeout time.Duration
	// PageTimeout bounds each candidate page request.
	PageTimeout time.Duration
	// RequestDelay is the minimum spacing between candidate page requests.
	RequestDelay time.Duration
	// MaxCandidates caps the accepted links per profile; zero means default,
	// negative means unlimited.
	MaxCandidates int
}

func (c WalkerConfig) withDefaults() WalkerConfig {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.ListingTimeout <= 0 {
		c.ListingTimeout = DefaultListingTimeout
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = DefaultPageTimeout
	}
	if c.RequestDelay < 0 {
		c.RequestDelay = 0
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
	return c
}

// Walker lists the fresh, relevant candidate links of a profile.
type Walker struct {
	loader pageLoader
	cfg    WalkerConfig
	log    logger.Logger
}

// NewWalker creates a Walker.
func NewWalker(client httpclient.Client, log logger.Logger, cfg WalkerConfig) *Walker {
	cfg = cfg.withDefaults()
	if client == nil {
		client = httpclient.NewRestyClient(cfg.ListingTimeout)
	}
	log = logger.Ensure(log)
	return &Walker{
		loader: pageLoader{client: client, log: log},
		cfg:    cfg,
		log:    log,
	}
}

// Window returns the retention window the walker filters with.
func (w *Walker) Window() time.Duration {
	return w.cfg.Window
}

// Discover returns the candidates of p whose publication date falls within
// the window before now and whose headline or subtitle matches the profile
// keywords. Each URL appears once. A listing failure yields an empty result;
// a failing candidate page only drops that candidate.
func (w *Walker) Discover(ctx context.Context, p *profiles.Profile, now time.Time) []domain.CandidateLink {
	now = now.UTC()
	out := []domain.CandidateLink{}

	listed, err := w.listing(ctx, p)
	if err != nil {
		w.log.WarnObj("listing fetch failed", "discover_listing_error", map[string]any{
			"profile_id": p.ID,
			"listing":    p.ListingURL,
			"mode":       string(p.Discovery),
			"error":      err.Error(),
		})
		return out
	}

	w.log.DebugObj("listing parsed", "discover_listing", map[string]any{
		"profile_id": p.ID,
		"links":      len(listed),
	})

	limiter := rate.NewLimiter(rate.Inf, 1)
	if w.cfg.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(w.cfg.RequestDelay), 1)
	}

	seen := make(map[string]struct{}, len(listed))
	for _, link := range listed {
		if w.cfg.MaxCandidates > 0 && len(out) >= w.cfg.MaxCandidates {
			w.log.InfoObj("candidate cap reached", "discover_cap", map[string]any{
				"profile_id": p.ID,
				"cap":        w.cfg.MaxCandidates,
			})
			break
		}
		if _, dup := seen[link.URL]; dup {
			continue
		}
		seen[link.URL] = struct{}{}

		if !link.PublishedAt.IsZero() && !w.withinWindow(link.PublishedAt, now) {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			w.log.WarnObj("discovery interrupted", "discover_interrupted", map[string]any{
				"profile_id": p.ID,
				"error":      err.Error(),
			})
			break
		}

		if c, ok := w.inspect(ctx, p, link.URL, now); ok {
			out = append(out, c)
		}
	}

	w.log.InfoObj("discovery finished", "discover_done", map[string]any{
		"profile_id": p.ID,
		"listed":     len(listed),
		"candidates": len(out),
	})
	return out
}

// inspect fetches one candidate page and applies the date, window and
// keyword checks.
func (w *Walker) inspect(ctx context.Context, p *profiles.Profile, pageURL string, now time.Time) (domain.CandidateLink, bool) {
	fields := map[string]any{"profile_id": p.ID, "url": pageURL}

	doc, err := w.loader.loadDocument(ctx, p, pageURL, w.cfg.PageTimeout)
	if err != nil {
		fields["error"] = err.Error()
		w.log.WarnObj("candidate fetch failed", "discover_page_error", fields)
		return domain.CandidateLink{}, false
	}

	published, ok := p.ResolvePublicationDate(doc, now)
	if !ok {
		w.log.WarnObj("no publication date found, skipping candidate", "discover_no_date", fields)
		return domain.CandidateLink{}, false
	}
	published = published.UTC()
	if !w.withinWindow(published, now) {
		fields["published_at"] = published
		w.log.DebugObj("candidate outside window", "discover_stale", fields)
		return domain.CandidateLink{}, false
	}

	if matcher := p.Matcher(); matcher.Enabled() {
		headline, _ := p.Headline(doc)
		subtitle, _ := p.Subtitle(doc)
		if len(relevance.Union(matcher.Match(headline), matcher.Match(subtitle))) == 0 {
			w.log.InfoObj("candidate does not match keywords, skipping", "discover_irrelevant", fields)
			return domain.CandidateLink{}, false
		}
	}

	return domain.CandidateLink{URL: pageURL, PublishedAt: published}, true
}

// withinWindow accepts ages in [-window, window]; dates further in the
// future are bogus.
func (w *Walker) withinWindow(t, now time.Time) bool {
	age := now.Sub(t.UTC())
	return age <= w.cfg.Window && age >= -w.cfg.Window
}

// listing returns the profile's candidate links from its discovery source.
func (w *Walker) listing(ctx context.Context, p *profiles.Profile) ([]profiles.ListedLink, error) {
	switch p.Discovery {
	case profiles.DiscoverSitemap:
		links, err := w.sitemapLinks(ctx, p, p.ListingURL, make(map[string]struct{}), 0)
		if err != nil {
			return nil, err
		}
		return p.FilterListed(links), nil
	case profiles.DiscoverFeed:
		body, err := w.loader.fetchBody(ctx, p, p.ListingURL, w.cfg.ListingTimeout)
		if err != nil {
			return nil, err
		}
		links, err := profiles.ParseFeed(body)
		if err != nil {
			return nil, err
		}
		return p.FilterListed(links), nil
	default:
		doc, err := w.loader.loadDocument(ctx, p, p.ListingURL, w.cfg.ListingTimeout)
		if err != nil {
			return nil, err
		}
		return p.HomepageLinks(doc), nil
	}
}

// sitemapLinks resolves a sitemap URL into links, following sitemap
// indexes up to a fixed depth and never visiting a sitemap twice.
func (w *Walker) sitemapLinks(ctx context.Context, p *profiles.Profile, sitemapURL string, visited map[string]struct{}, depth int) ([]profiles.ListedLink, error) {
	if _, seen := visited[sitemapURL]; seen {
		return nil, nil
	}
	visited[sitemapURL] = struct{}{}

	body, err := w.loader.fetchBody(ctx, p, sitemapURL, w.cfg.ListingTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch %s sitemap: %w", p.ID, err)
	}

	links, nested, err := profiles.ParseSitemap(body)
	if err != nil {
		return nil, err
	}
	if len(links) > 0 || len(nested) == 0 {
		return links, nil
	}
	if depth >= maxSitemapDepth {
		return nil, fmt.Errorf("sitemap index nesting deeper than %d at %s", maxSitemapDepth, sitemapURL)
	}

	var all []profiles.ListedLink
	for _, next := range nested {
		next = strings.TrimSpace(next)
		if next == "" {
			continue
		}
		nestedLinks, err := w.sitemapLinks(ctx, p, next, visited, depth+1)
		if err != nil {
			return nil, err
		}
		all = append(all, nestedLinks...)
	}
	return all, nil
}
