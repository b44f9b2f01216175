// Package profiles defines extractor profiles: the per-source bundle of
// link, date and field extraction rules the crawler applies to a site.
package profiles

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/pkg/relevance"
)

// DiscoveryMode selects where candidate links come from.
type DiscoveryMode string

const (
	// DiscoverHomepage reads anchors from the homepage.
	DiscoverHomepage DiscoveryMode = "homepage"
	// DiscoverSitemap reads a Google News sitemap (or sitemap index).
	DiscoverSitemap DiscoveryMode = "sitemap"
	// DiscoverFeed reads an RSS/Atom/JSON feed.
	DiscoverFeed DiscoveryMode = "feed"
)

// ErrInvalidProfile is returned when a profile is missing required parts.
var ErrInvalidProfile = errors.New("invalid profile")

// TextFunc pulls one optional text field from a document.
type TextFunc func(doc *goquery.Document) (string, bool)

// ListFunc pulls a list field from a document. It never returns nil.
type ListFunc func(doc *goquery.Document) []string

// RelatedFunc pulls related-article links from a document.
type RelatedFunc func(doc *goquery.Document) []domain.RelatedLink

// DateFunc resolves a document's publication time. Relative phrases are
// resolved against now.
type DateFunc func(doc *goquery.Document, now time.Time) (time.Time, bool)

// Profile is the capability set for one source. Profiles are immutable once
// built with New and safe to share between goroutines.
type Profile struct {
	ID          string
	Name        string
	HomepageURL string
	Discovery   DiscoveryMode
	// ListingURL is the sitemap or feed to read; defaults to HomepageURL.
	ListingURL string
	Headers    map[string]string
	Keywords   []string

	IsCandidateLink        func(href string) bool
	ResolvePublicationDate DateFunc
	Headline               TextFunc
	Subtitle               TextFunc
	Author                 TextFunc
	Content                TextFunc
	Tags                   ListFunc
	Media                  ListFunc
	RelatedLinks           RelatedFunc

	matcher *relevance.Matcher
	origin  *url.URL
}

// New validates p, fills defaults and compiles its keyword matcher.
func New(p Profile) (*Profile, error) {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	p.HomepageURL = strings.TrimSpace(p.HomepageURL)
	if p.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidProfile)
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	home, err := url.Parse(p.HomepageURL)
	if err != nil || !home.IsAbs() || home.Host == "" {
		return nil, fmt.Errorf("%w: profile %q homepage %q is not an absolute URL", ErrInvalidProfile, p.ID, p.HomepageURL)
	}
	p.origin = &url.URL{Scheme: home.Scheme, Host: home.Host, Path: "/"}

	switch p.Discovery {
	case "":
		p.Discovery = DiscoverHomepage
	case DiscoverHomepage, DiscoverSitemap, DiscoverFeed:
	default:
		return nil, fmt.Errorf("%w: profile %q has unknown discovery mode %q", ErrInvalidProfile, p.ID, p.Discovery)
	}
	if strings.TrimSpace(p.ListingURL) == "" {
		p.ListingURL = p.HomepageURL
	}

	if p.IsCandidateLink == nil {
		return nil, fmt.Errorf("%w: profile %q has no link predicate", ErrInvalidProfile, p.ID)
	}
	if p.ResolvePublicationDate == nil {
		return nil, fmt.Errorf("%w: profile %q has no date resolver", ErrInvalidProfile, p.ID)
	}
	if p.Headline == nil {
		p.Headline = firstText(textSel("h1"))
	}
	if p.Subtitle == nil {
		p.Subtitle = firstText(textSel("h2"))
	}
	if p.Author == nil {
		p.Author = noText
	}
	if p.Content == nil {
		p.Content = firstText(textSel("article"))
	}
	if p.Tags == nil {
		p.Tags = noList
	}
	if p.Media == nil {
		p.Media = imageSources
	}
	if p.RelatedLinks == nil {
		p.RelatedLinks = noRelated
	}

	p.Headers = sanitizeHeaders(p.Headers)
	p.matcher = relevance.NewMatcher(p.Keywords)
	p.Keywords = p.matcher.Keywords()
	return &p, nil
}

// Matcher returns the profile's compiled keyword matcher.
func (p *Profile) Matcher() *relevance.Matcher {
	return p.matcher
}

// Origin is the homepage's scheme and host, used to absolutize links.
func (p *Profile) Origin() *url.URL {
	u := *p.origin
	return &u
}

// ResolveLink turns href into an absolute URL against base (or the origin
// when base is nil). Fragments are dropped so one article maps to one key.
func (p *Profile) ResolveLink(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base == nil {
		base = p.origin
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

func noText(*goquery.Document) (string, bool) { return "", false }

func noList(*goquery.Document) []string { return []string{} }

func noRelated(*goquery.Document) []domain.RelatedLink { return []domain.RelatedLink{} }

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
