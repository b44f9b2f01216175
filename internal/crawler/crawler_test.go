package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/durjog-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/durjog-khobor/pkg/profiles"
)

var testNow = time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)

// fakeSite serves fixed pages by path and counts requests.
type fakeSite struct {
	*httptest.Server
	mu    sync.Mutex
	hits  map[string]int
	pages map[string]string
}

func newFakeSite(t *testing.T, pages map[string]string) *fakeSite {
	t.Helper()
	s := &fakeSite{hits: make(map[string]int), pages: pages}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		body, ok := s.pages[r.URL.Path]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *fakeSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func articlePage(headline string, published time.Time) string {
	meta := ""
	if !published.IsZero() {
		meta = fmt.Sprintf(`<meta property="article:published_time" content="%s">`, published.Format(time.RFC3339))
	}
	return fmt.Sprintf(`<html><head>%s</head><body><h1>%s</h1><h2>Update</h2>
<article><p>Body of %s</p></article><img src="/img/1.jpg"></body></html>`, meta, headline, headline)
}

func siteProfile(t *testing.T, homepage string, mutate func(*profiles.Spec)) *profiles.Profile {
	t.Helper()
	spec := profiles.Spec{
		ID:       "site",
		Homepage: homepage,
		Link:     profiles.LinkRule{Contains: []string{"/news/"}},
		Date: profiles.DateRule{Sources: profiles.Selectors{
			{CSS: `meta[property="article:published_time"]`, Attr: "content"},
		}},
	}
	if mutate != nil {
		mutate(&spec)
	}
	p, err := profiles.Build(spec, []string{"flood", "earthquake"})
	require.NoError(t, err)
	return p
}

func testWalker() *Walker {
	return NewWalker(httpclient.NewRestyClient(2*time.Second), nil, WalkerConfig{
		Window:       24 * time.Hour,
		RequestDelay: time.Millisecond,
	})
}

func TestDiscoverFreshRelevantOnly(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		"/": `<html><body>
			<a href="/news/a">A</a>
			<a href="/news/b">B</a>
			<a href="/news/c">C</a>
			<a href="/about">About</a>
		</body></html>`,
		"/news/a": articlePage("Flood hits the valley", testNow.Add(-2*time.Hour)),
		"/news/b": articlePage("Flood a day ago", testNow.Add(-30*time.Hour)),
		"/news/c": articlePage("Flood with no date", time.Time{}),
	})
	p := siteProfile(t, site.URL+"/", nil)

	got := testWalker().Discover(context.Background(), p, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, site.URL+"/news/a", got[0].URL)
	assert.Equal(t, testNow.Add(-2*time.Hour), got[0].PublishedAt)
	assert.Zero(t, site.hitCount("/about"))
}

func TestDiscoverDeduplicates(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		"/": `<html><body>
			<a href="/news/a">A</a>
			<a href="/news/a#top">A again</a>
			<a href="/news/a">A thrice</a>
		</body></html>`,
		"/news/a": articlePage("Earthquake update", testNow.Add(-time.Hour)),
	})
	p := siteProfile(t, site.URL+"/", nil)

	got := testWalker().Discover(context.Background(), p, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, 1, site.hitCount("/news/a"))
}

func TestDiscoverKeywordFilter(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		"/":       `<a href="/news/a">A</a><a href="/news/b">B</a>`,
		"/news/a": articlePage("Markets rally", testNow.Add(-time.Hour)),
		"/news/b": articlePage("Floodlit stadium reopens", testNow.Add(-time.Hour)),
	})

	filtered := siteProfile(t, site.URL+"/", nil)
	assert.Empty(t, testWalker().Discover(context.Background(), filtered, testNow))

	off := false
	open := siteProfile(t, site.URL+"/", func(s *profiles.Spec) { s.KeywordFilter = &off })
	assert.Len(t, testWalker().Discover(context.Background(), open, testNow), 2)
}

func TestDiscoverRejectsFarFutureDates(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		"/":       `<a href="/news/a">A</a><a href="/news/b">B</a>`,
		"/news/a": articlePage("Flood warning", testNow.Add(72*time.Hour)),
		"/news/b": articlePage("Flood warning", testNow.Add(time.Hour)),
	})
	p := siteProfile(t, site.URL+"/", nil)

	got := testWalker().Discover(context.Background(), p, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, site.URL+"/news/b", got[0].URL)
}

func TestDiscoverListingFailureIsEmpty(t *testing.T) {
	site := newFakeSite(t, map[string]string{})
	p := siteProfile(t, site.URL+"/", nil)

	got := testWalker().Discover(context.Background(), p, testNow)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDiscoverPageFailureSkipsOnlyThatLink(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		"/":       `<a href="/news/missing">M</a><a href="/news/a">A</a>`,
		"/news/a": articlePage("Flood", testNow.Add(-time.Hour)),
	})
	p := siteProfile(t, site.URL+"/", nil)

	got := testWalker().Discover(context.Background(), p, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, site.URL+"/news/a", got[0].URL)
}

func TestDiscoverCandidateCap(t *testing.T) {
	pages := map[string]string{}
	var links strings.Builder
	for i := 0; i < 5; i++ {
		path := fmt.Sprintf("/news/%d", i)
		links.WriteString(fmt.Sprintf(`<a href="%s">%d</a>`, path, i))
		pages[path] = articlePage("Flood", testNow.Add(-time.Hour))
	}
	pages["/"] = links.String()
	site := newFakeSite(t, pages)
	p := siteProfile(t, site.URL+"/", nil)

	w := NewWalker(httpclient.NewRestyClient(time.Second), nil, WalkerConfig{MaxCandidates: 2, RequestDelay: time.Millisecond})
	assert.Len(t, w.Discover(context.Background(), p, testNow), 2)
}

func TestDiscoverSitemapIndex(t *testing.T) {
	site := newFakeSite(t, map[string]string{})
	site.pages["/sitemap.xml"] = fmt.Sprintf(`<sitemapindex>
  <sitemap><loc>%[1]s/sitemap-1.xml</loc></sitemap>
  <sitemap><loc>%[1]s/sitemap.xml</loc></sitemap>
</sitemapindex>`, site.URL)
	site.pages["/sitemap-1.xml"] = fmt.Sprintf(`<urlset xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
  <url><loc>%[1]s/news/a</loc><news:news><news:publication_date>%[2]s</news:publication_date></news:news></url>
  <url><loc>%[1]s/news/old</loc><news:news><news:publication_date>%[3]s</news:publication_date></news:news></url>
</urlset>`, site.URL, testNow.Add(-time.Hour).Format(time.RFC3339), testNow.Add(-72*time.Hour).Format(time.RFC3339))
	site.pages["/news/a"] = articlePage("Earthquake", testNow.Add(-time.Hour))
	site.pages["/news/old"] = articlePage("Earthquake", testNow.Add(-72*time.Hour))

	p := siteProfile(t, site.URL+"/", func(s *profiles.Spec) {
		s.Discovery = "sitemap"
		s.ListingURL = site.URL + "/sitemap.xml"
	})

	got := testWalker().Discover(context.Background(), p, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, site.URL+"/news/a", got[0].URL)
	assert.Equal(t, 1, site.hitCount("/sitemap.xml"))
	assert.Zero(t, site.hitCount("/news/old"))
}

func TestDiscoverFeed(t *testing.T) {
	site := newFakeSite(t, map[string]string{})
	site.pages["/rss.xml"] = fmt.Sprintf(`<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>
<item><title>Quake</title><link>%s/news/q</link></item>
<item><title>Offsite</title><link>https://elsewhere.example/news/x</link></item>
</channel></rss>`, site.URL)
	site.pages["/news/q"] = articlePage("Earthquake strikes", testNow.Add(-3*time.Hour))

	p := siteProfile(t, site.URL+"/", func(s *profiles.Spec) {
		s.Discovery = "feed"
		s.ListingURL = site.URL + "/rss.xml"
	})

	got := testWalker().Discover(context.Background(), p, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, site.URL+"/news/q", got[0].URL)
}

func TestFetchRecord(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		"/news/a": articlePage("Flood and earthquake", testNow.Add(-2*time.Hour)),
	})
	p := siteProfile(t, site.URL+"/", nil)

	f := NewFetcher(httpclient.NewRestyClient(time.Second), nil, 0)
	out := f.Fetch(context.Background(), p, site.URL+"/news/a", testNow)
	require.Equal(t, OutcomeRecord, out.Kind, out.Err)
	require.NotNil(t, out.Article)

	a := out.Article
	assert.Equal(t, site.URL+"/news/a", a.URL)
	assert.Equal(t, "site", a.Source)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Flood and earthquake", a.Headline)
	assert.Equal(t, "Update", a.Subtitle)
	assert.Equal(t, "Body of Flood and earthquake", a.Content)
	assert.Equal(t, testNow.Add(-2*time.Hour), a.PublishedAt)
	assert.Equal(t, []string{"flood", "earthquake"}, a.Keywords)
	assert.Equal(t, []string{site.URL + "/img/1.jpg"}, a.MediaURLs)
	assert.Equal(t, []string{}, a.Tags)
}

func TestFetchSkips(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		"/news/nodate":     articlePage("Flood", time.Time{}),
		"/news/irrelevant": articlePage("Markets rally", testNow.Add(-time.Hour)),
	})
	p := siteProfile(t, site.URL+"/", nil)
	f := NewFetcher(httpclient.NewRestyClient(time.Second), nil, time.Second)

	assert.Equal(t, OutcomeSkipNoDate, f.Fetch(context.Background(), p, site.URL+"/news/nodate", testNow).Kind)
	assert.Equal(t, OutcomeSkipIrrelevant, f.Fetch(context.Background(), p, site.URL+"/news/irrelevant", testNow).Kind)

	out := f.Fetch(context.Background(), p, site.URL+"/news/missing", testNow)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.ErrorIs(t, out.Err, ErrStatus)
	assert.Equal(t, site.URL+"/news/missing", out.URL)
	assert.Nil(t, out.Article)
}

func TestFetchNeverResolvingDateAlwaysSkips(t *testing.T) {
	site := newFakeSite(t, map[string]string{
		"/news/a": articlePage("Flood", testNow.Add(-time.Hour)),
		"/news/b": articlePage("Earthquake", testNow.Add(-time.Hour)),
	})
	base := siteProfile(t, site.URL+"/", nil)
	p, err := profiles.New(profiles.Profile{
		ID:                     "nodate",
		HomepageURL:            site.URL + "/",
		IsCandidateLink:        base.IsCandidateLink,
		ResolvePublicationDate: func(*goquery.Document, time.Time) (time.Time, bool) { return time.Time{}, false },
	})
	require.NoError(t, err)

	f := NewFetcher(httpclient.NewRestyClient(time.Second), nil, time.Second)
	for _, path := range []string{"/news/a", "/news/b"} {
		assert.Equal(t, OutcomeSkipNoDate, f.Fetch(context.Background(), p, site.URL+path, testNow).Kind)
	}
}

func TestFetchTruncatesLargeBodies(t *testing.T) {
	big := articlePage("Flood", testNow.Add(-time.Hour)) + strings.Repeat("x", maxHTMLBodyBytes)
	site := newFakeSite(t, map[string]string{"/news/big": big})
	p := siteProfile(t, site.URL+"/", nil)

	out := NewFetcher(httpclient.NewRestyClient(5*time.Second), nil, 5*time.Second).
		Fetch(context.Background(), p, site.URL+"/news/big", testNow)
	assert.Equal(t, OutcomeRecord, out.Kind)
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "record", OutcomeRecord.String())
	assert.Equal(t, "skip_no_date", OutcomeSkipNoDate.String())
	assert.Equal(t, "skip_irrelevant", OutcomeSkipIrrelevant.String())
	assert.Equal(t, "error", OutcomeError.String())
	assert.Equal(t, "unknown", OutcomeKind(42).String())
}

func TestResponseSnippet(t *testing.T) {
	assert.Equal(t, "<empty>", responseSnippet([]byte("  ")))
	assert.Equal(t, "short", responseSnippet([]byte(" short ")))
	long := responseSnippet([]byte(strings.Repeat("a", maxSnippetBytes+10)))
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.Len(t, long, maxSnippetBytes+3)
}
