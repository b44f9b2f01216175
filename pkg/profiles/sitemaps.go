package profiles

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/durjog-khobor/pkg/textnorm"
)

type urlSet struct {
	URLs []sitemapURL `xml:"url"`
}

// sitemapURL covers both plain sitemaps (lastmod) and Google News sitemaps
// (news:publication_date, news:title).
type sitemapURL struct {
	Loc     string     `xml:"loc"`
	LastMod string     `xml:"lastmod"`
	News    newsDetail `xml:"news"`
}

type newsDetail struct {
	PublicationDate string `xml:"publication_date"`
	Title           string `xml:"title"`
}

type sitemapIndex struct {
	Sitemaps []sitemapIndexEntry `xml:"sitemap"`
}

type sitemapIndexEntry struct {
	Loc string `xml:"loc"`
}

// ParseSitemap decodes a sitemap document. A urlset yields links; a
// sitemap index yields the nested sitemap URLs to follow instead.
func ParseSitemap(data []byte) (links []ListedLink, nested []string, err error) {
	var set urlSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, nil, fmt.Errorf("decode sitemap: %w", err)
	}
	if len(set.URLs) > 0 {
		return buildListedFromSitemap(set.URLs), nil, nil
	}

	nested, err = parseSitemapIndex(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode sitemap index: %w", err)
	}
	return nil, nested, nil
}

// parseSitemapIndex parses an XML sitemap index file and returns the nested sitemap URLs.
func parseSitemapIndex(data []byte) ([]string, error) {
	var index sitemapIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, entry := range index.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

func buildListedFromSitemap(urls []sitemapURL) []ListedLink {
	out := make([]ListedLink, 0, len(urls))
	for _, entry := range urls {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		published := parseSitemapDate(entry.News.PublicationDate)
		if published.IsZero() {
			published = parseSitemapDate(entry.LastMod)
		}
		out = append(out, ListedLink{
			URL:         loc,
			Title:       textnorm.Clean(entry.News.Title),
			PublishedAt: published,
		})
	}
	return out
}

// parseSitemapDate accepts the W3C datetime forms sitemaps use.
func parseSitemapDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
