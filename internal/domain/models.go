package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"time"
)

// Domain contains core models shared by the crawler, store and API.

// RelatedLink is a title/URL pair pointing at another article.
type RelatedLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Article is one normalized article record, keyed by URL.
type Article struct {
	URL             string        `json:"url"`
	ID              string        `json:"id"`
	Source          string        `json:"source"`
	Headline        string        `json:"headline"`
	Subtitle        string        `json:"subtitle"`
	Author          string        `json:"author"`
	Content         string        `json:"content"`
	PublishedAt     time.Time     `json:"publication_date"`
	Tags            []string      `json:"tags"`
	MediaURLs       []string      `json:"media_urls"`
	RelatedArticles []RelatedLink `json:"related_articles"`
	Keywords        []string      `json:"keywords"`
	ScrapedAt       time.Time     `json:"scraped_at"`
}

// Normalize fixes up the invariants every stored record must satisfy:
// UTC timestamps, non-nil lists and an id derived from the URL.
func (a *Article) Normalize() {
	if a.ID == "" && a.URL != "" {
		a.ID = HashURL(a.URL)
	}
	a.PublishedAt = a.PublishedAt.UTC()
	a.ScrapedAt = a.ScrapedAt.UTC()
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.MediaURLs == nil {
		a.MediaURLs = []string{}
	}
	if a.RelatedArticles == nil {
		a.RelatedArticles = []RelatedLink{}
	}
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
}

// CandidateLink is a discovered article URL with its tentative publication
// time. It lives only for the duration of one pass.
type CandidateLink struct {
	URL         string
	PublishedAt time.Time
}

// HashURL generates a SHA-1 hash of the given URL string.
func HashURL(u string) string {
	sum := sha1.Sum([]byte(u)) //nolint:gosec // non-cryptographic id generation
	return hex.EncodeToString(sum[:])
}
