package crawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
	"github.com/Adda-Baaj/durjog-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/durjog-khobor/pkg/profiles"
	"github.com/Adda-Baaj/durjog-khobor/pkg/relevance"
)

// DefaultArticleTimeout bounds a full article fetch.
const DefaultArticleTimeout = 10 * time.Second

// OutcomeKind tags the result of fetching one article.
type OutcomeKind int

const (
	// OutcomeRecord carries a normalized article.
	OutcomeRecord OutcomeKind = iota
	// OutcomeSkipNoDate means no publication date could be resolved.
	OutcomeSkipNoDate
	// OutcomeSkipIrrelevant means keyword filtering rejected the article.
	OutcomeSkipIrrelevant
	// OutcomeError means the page could not be fetched or parsed.
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRecord:
		return "record"
	case OutcomeSkipNoDate:
		return "skip_no_date"
	case OutcomeSkipIrrelevant:
		return "skip_irrelevant"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of Fetcher.Fetch. Article is set only for
// OutcomeRecord and Err only for OutcomeError.
type Outcome struct {
	Kind    OutcomeKind
	URL     string
	Article *domain.Article
	Err     error
}

// Fetcher applies a profile to a single article URL.
type Fetcher struct {
	loader  pageLoader
	timeout time.Duration
	log     logger.Logger
}

// NewFetcher creates a Fetcher. A zero timeout uses DefaultArticleTimeout.
func NewFetcher(client httpclient.Client, log logger.Logger, timeout time.Duration) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(DefaultArticleTimeout)
	}
	log = logger.Ensure(log)
	if timeout <= 0 {
		timeout = DefaultArticleTimeout
	}
	return &Fetcher{
		loader:  pageLoader{client: client, log: log},
		timeout: timeout,
		log:     log,
	}
}

// Fetch downloads pageURL and extracts an article with p. Transport
// failures come back as OutcomeError; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, p *profiles.Profile, pageURL string, now time.Time) Outcome {
	f.log.DebugObj("fetching article", "article_fetch_start", map[string]any{
		"profile_id": p.ID,
		"url":        pageURL,
	})

	doc, err := f.loader.loadDocument(ctx, p, pageURL, f.timeout)
	if err != nil {
		f.log.WarnObj("article fetch failed", "article_fetch_error", map[string]any{
			"profile_id": p.ID,
			"url":        pageURL,
			"error":      err.Error(),
		})
		return Outcome{Kind: OutcomeError, URL: pageURL, Err: err}
	}

	out := Extract(p, doc, pageURL, now)
	switch out.Kind {
	case OutcomeSkipNoDate:
		f.log.WarnObj("no publication date found, skipping article", "article_skip_no_date", map[string]any{
			"profile_id": p.ID,
			"url":        pageURL,
		})
	case OutcomeSkipIrrelevant:
		f.log.InfoObj("article does not match keywords, skipping", "article_skip_irrelevant", map[string]any{
			"profile_id": p.ID,
			"url":        pageURL,
		})
	}
	return out
}

// Extract runs every capability of p over an already parsed document.
func Extract(p *profiles.Profile, doc *goquery.Document, pageURL string, now time.Time) Outcome {
	published, ok := p.ResolvePublicationDate(doc, now)
	if !ok {
		return Outcome{Kind: OutcomeSkipNoDate, URL: pageURL}
	}

	headline, _ := p.Headline(doc)
	subtitle, _ := p.Subtitle(doc)

	matcher := p.Matcher()
	matched := relevance.Union(matcher.Match(headline), matcher.Match(subtitle))
	if matcher.Enabled() && len(matched) == 0 {
		return Outcome{Kind: OutcomeSkipIrrelevant, URL: pageURL}
	}

	author, _ := p.Author(doc)
	content, _ := p.Content(doc)

	article := &domain.Article{
		URL:             pageURL,
		Source:          p.ID,
		Headline:        headline,
		Subtitle:        subtitle,
		Author:          author,
		Content:         content,
		PublishedAt:     published,
		Tags:            p.Tags(doc),
		MediaURLs:       p.Media(doc),
		RelatedArticles: p.RelatedLinks(doc),
		Keywords:        matched,
		ScrapedAt:       now,
	}
	article.Normalize()
	return Outcome{Kind: OutcomeRecord, URL: pageURL, Article: article}
}
