package profiles

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/durjog-khobor/pkg/textnorm"
)

// ListedLink is a link found on a listing page (homepage, sitemap or feed).
// PublishedAt is a hint from the listing itself and may be zero.
type ListedLink struct {
	URL         string
	Title       string
	PublishedAt time.Time
}

// HomepageLinks returns the anchors of doc accepted by the link predicate,
// resolved against the homepage origin and de-duplicated in document order.
func (p *Profile) HomepageLinks(doc *goquery.Document) []ListedLink {
	out := []ListedLink{}
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !p.IsCandidateLink(href) {
			return
		}
		abs, ok := p.ResolveLink(href, nil)
		if !ok {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, ListedLink{URL: abs, Title: textnorm.Clean(sel.Text())})
	})
	return out
}

// FilterListed applies the link predicate to links from a sitemap or feed,
// resolving and de-duplicating them the same way as homepage anchors.
func (p *Profile) FilterListed(links []ListedLink) []ListedLink {
	out := make([]ListedLink, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if !p.IsCandidateLink(l.URL) {
			continue
		}
		abs, ok := p.ResolveLink(l.URL, nil)
		if !ok {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		l.URL = abs
		out = append(out, l)
	}
	return out
}

// ParseFeed reads an RSS, Atom or JSON feed into listed links.
func ParseFeed(data []byte) ([]ListedLink, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	out := make([]ListedLink, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		entry := ListedLink{URL: link, Title: textnorm.Clean(item.Title)}
		switch {
		case item.PublishedParsed != nil:
			entry.PublishedAt = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			entry.PublishedAt = item.UpdatedParsed.UTC()
		}
		out = append(out, entry)
	}
	return out, nil
}
