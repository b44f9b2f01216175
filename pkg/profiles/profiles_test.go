package profiles

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)

func mustDoc(t *testing.T, pageURL, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		require.NoError(t, err)
		doc.Url = u
	}
	return doc
}

const articleHTML = `<html><head>
<meta property="article:published_time" content="2025-07-03T10:00:00Z">
<meta name="author" content="Jane Roe">
</head><body>
<h1>  Flood   hits valley </h1>
<h2>Thousands evacuated</h2>
<span class="byline__name">Staff</span>
<article><p>Rivers rose</p> <p>overnight.</p></article>
<img src="/img/a.jpg"><img src="/img/a.jpg"><img src="data:image/png;base64,xx">
<a class="related" href="/news/2">Earlier story</a>
<a class="related" href="https://other.example/x">Elsewhere</a>
</body></html>`

func TestBuildDefaults(t *testing.T) {
	p, err := Build(Spec{
		ID:       "Local",
		Homepage: "https://news.example/latest",
		Link:     LinkRule{Contains: []string{"/news/"}},
		Date:     DateRule{Sources: Selectors{articlePublished}},
		Related:  Selectors{textSel("a.related")},
	}, []string{"flood"})
	require.NoError(t, err)

	assert.Equal(t, "local", p.ID)
	assert.Equal(t, "local", p.Name)
	assert.Equal(t, DiscoverHomepage, p.Discovery)
	assert.Equal(t, "https://news.example/latest", p.ListingURL)
	assert.True(t, p.Matcher().Enabled())

	doc := mustDoc(t, "https://news.example/news/1", articleHTML)

	published, ok := p.ResolvePublicationDate(doc, testNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC), published)

	headline, ok := p.Headline(doc)
	require.True(t, ok)
	assert.Equal(t, "Flood hits valley", headline)

	subtitle, ok := p.Subtitle(doc)
	require.True(t, ok)
	assert.Equal(t, "Thousands evacuated", subtitle)

	_, ok = p.Author(doc)
	assert.False(t, ok)

	content, ok := p.Content(doc)
	require.True(t, ok)
	assert.Equal(t, "Rivers rose overnight.", content)

	assert.Equal(t, []string{}, p.Tags(doc))
	assert.Equal(t, []string{"https://news.example/img/a.jpg"}, p.Media(doc))

	related := p.RelatedLinks(doc)
	require.Len(t, related, 2)
	assert.Equal(t, "Earlier story", related[0].Title)
	assert.Equal(t, "https://news.example/news/2", related[0].URL)
	assert.Equal(t, "https://other.example/x", related[1].URL)
}

func TestBuildSelectorsOverrideDefaults(t *testing.T) {
	p, err := Build(Spec{
		ID:       "local",
		Homepage: "https://news.example/",
		Link:     LinkRule{Suffix: ".html"},
		Author:   Selectors{textSel("span.missing"), attrSel(`meta[name="author"]`, "content")},
		Tags:     Selectors{textSel("h2"), textSel("h2")},
		Content:  Selectors{textSel("div.absent"), textSel("article p")},
	}, nil)
	require.NoError(t, err)
	assert.False(t, p.Matcher().Enabled())

	doc := mustDoc(t, "", articleHTML)

	author, ok := p.Author(doc)
	require.True(t, ok)
	assert.Equal(t, "Jane Roe", author)

	content, ok := p.Content(doc)
	require.True(t, ok)
	assert.Equal(t, "Rivers rose", content)

	assert.Equal(t, []string{"Thousands evacuated"}, p.Tags(doc))
}

func TestBuildKeywordFilterToggle(t *testing.T) {
	off := false
	p, err := Build(Spec{
		ID:            "local",
		Homepage:      "https://news.example/",
		Link:          LinkRule{Contains: []string{"/"}},
		KeywordFilter: &off,
	}, []string{"flood"})
	require.NoError(t, err)
	assert.False(t, p.Matcher().Enabled())

	p, err = Build(Spec{
		ID:       "local",
		Homepage: "https://news.example/",
		Link:     LinkRule{Contains: []string{"/"}},
		Keywords: []string{"cyclone"},
	}, []string{"flood"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cyclone"}, p.Keywords)
}

func TestBuildRejectsInvalidSpecs(t *testing.T) {
	noFallback := false
	tests := []struct {
		name string
		spec Spec
	}{
		{name: "missing id", spec: Spec{Homepage: "https://a.example/", Link: LinkRule{Suffix: ".html"}}},
		{name: "relative homepage", spec: Spec{ID: "a", Homepage: "/news", Link: LinkRule{Suffix: ".html"}}},
		{name: "empty link rule", spec: Spec{ID: "a", Homepage: "https://a.example/"}},
		{name: "bad pattern", spec: Spec{ID: "a", Homepage: "https://a.example/", Link: LinkRule{Patterns: []string{"("}}}},
		{name: "no date source", spec: Spec{ID: "a", Homepage: "https://a.example/", Link: LinkRule{Suffix: ".html"}, Date: DateRule{Fallback: &noFallback}}},
		{name: "unknown discovery", spec: Spec{ID: "a", Homepage: "https://a.example/", Discovery: "carrier-pigeon", Link: LinkRule{Suffix: ".html"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.spec, nil)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestLinkRule(t *testing.T) {
	cnn := BuiltinSpecs()[0]
	accept, err := cnn.Link.compile("www.cnn.com")
	require.NoError(t, err)

	assert.True(t, accept("/2025/07/03/world/flood-warning/index.html"))
	assert.True(t, accept("https://cnn.com/2025/07/03/world/quake.html"))
	assert.False(t, accept("https://other.example/2025/07/03/world/quake.html"))
	assert.False(t, accept("/world"))
	assert.False(t, accept(""))

	rule := LinkRule{Contains: []string{"/news/"}, Suffix: ".html", Exclude: []string{"/live/"}}
	accept, err = rule.compile("example.com")
	require.NoError(t, err)
	assert.True(t, accept("/news/a.html"))
	assert.False(t, accept("/news/a"))
	assert.False(t, accept("/news/live/a.html"))
	assert.False(t, accept("/sport/a.html"))
}

func TestDateFallbackScan(t *testing.T) {
	resolve := dateFrom(Selectors{articlePublished}, true)

	doc := mustDoc(t, "", `<html><body><span>Share</span><span>2 hours ago</span></body></html>`)
	got, ok := resolve(doc, testNow)
	require.True(t, ok)
	assert.Equal(t, testNow.Add(-2*time.Hour), got)

	doc = mustDoc(t, "", `<html><head><meta property="article:published_time" content="not a date"></head>
		<body><time>3 hours ago</time></body></html>`)
	got, ok = resolve(doc, testNow)
	require.True(t, ok)
	assert.Equal(t, testNow.Add(-3*time.Hour), got)

	doc = mustDoc(t, "", `<html><body><span>Share</span><p>2 hours ago</p></body></html>`)
	_, ok = resolve(doc, testNow)
	assert.False(t, ok)

	_, ok = dateFrom(Selectors{articlePublished}, false)(mustDoc(t, "", `<span>2 hours ago</span>`), testNow)
	assert.False(t, ok)
}

func TestBBCProfile(t *testing.T) {
	p := BBC([]string{"flood"})
	assert.Equal(t, "bbc", p.ID)

	assert.True(t, p.IsCandidateLink("/news/articles/c0abc123"))
	assert.True(t, p.IsCandidateLink("/news/12345678"))
	assert.True(t, p.IsCandidateLink("https://www.bbc.com/news/articles/c0abc123"))
	assert.False(t, p.IsCandidateLink("/news/world"))
	assert.False(t, p.IsCandidateLink("https://www.bbc.co.uk/news/articles/c0abc123"))

	doc := mustDoc(t, "https://www.bbc.com/news/articles/c0abc123", `<html><body>
		<h1>Flood warning</h1>
		<time datetime="2025-07-03T09:30:00.000Z">3 hours ago</time>
		<span class="byline__name">Reporter</span>
		<ul><li class="bbc-1msyfg1 e1hq59l0">Weather</li></ul>
		<a class="gs-c-promo-heading" href="/news/1">Older</a>
		<article>Text</article></body></html>`)

	published, ok := p.ResolvePublicationDate(doc, testNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 7, 3, 9, 30, 0, 0, time.UTC), published)

	author, ok := p.Author(doc)
	require.True(t, ok)
	assert.Equal(t, "Reporter", author)
	assert.Equal(t, []string{"Weather"}, p.Tags(doc))

	related := p.RelatedLinks(doc)
	require.Len(t, related, 1)
	assert.Equal(t, "https://www.bbc.com/news/1", related[0].URL)
}

func TestHomepageLinks(t *testing.T) {
	p := BBC(nil)
	doc := mustDoc(t, "", `<html><body>
		<a href="/news/articles/a1">A</a>
		<a href="/news/articles/a1#comments">A again</a>
		<a href="https://www.bbc.com/news/articles/a1">A absolute</a>
		<a href="/news/articles/b2"> B </a>
		<a href="/sport/football">Sport</a>
		<a href="javascript:void(0)">JS</a>
	</body></html>`)

	links := p.HomepageLinks(doc)
	require.Len(t, links, 2)
	assert.Equal(t, "https://www.bbc.com/news/articles/a1", links[0].URL)
	assert.Equal(t, "https://www.bbc.com/news/articles/b2", links[1].URL)
	assert.Equal(t, "B", links[1].Title)
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry([]string{"flood"})
	require.NoError(t, err)
	assert.Equal(t, 25, reg.Len())

	all := reg.All()
	assert.Equal(t, "bbc", all[0].ID)

	p, err := reg.ByID(" CNN ")
	require.NoError(t, err)
	assert.Equal(t, "CNN", p.Name)

	_, err = reg.ByID("nope")
	assert.Error(t, err)

	selected, err := reg.Select([]string{"guardian", "abc"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "guardian", selected[0].ID)

	_, err = reg.Select([]string{"missing"})
	assert.Error(t, err)
}

func TestRegistryApply(t *testing.T) {
	reg, err := DefaultRegistry(nil)
	require.NoError(t, err)

	disabled := false
	err = reg.Apply([]Spec{
		{ID: "cnn", Enabled: &disabled},
		{ID: "bbc", Name: "BBC Override", Homepage: "https://www.bbc.com/news", Link: LinkRule{Contains: []string{"/news/"}}},
		{ID: "local", Homepage: "https://local.example/", Link: LinkRule{Suffix: ".html"}},
	}, []string{"flood"})
	require.NoError(t, err)

	assert.Equal(t, 25, reg.Len())
	_, err = reg.ByID("cnn")
	assert.Error(t, err)

	bbc, err := reg.ByID("bbc")
	require.NoError(t, err)
	assert.Equal(t, "BBC Override", bbc.Name)
	assert.Equal(t, "bbc", reg.All()[0].ID)

	local, err := reg.ByID("local")
	require.NoError(t, err)
	assert.Equal(t, []string{"flood"}, local.Keywords)

	err = reg.Apply([]Spec{{ID: "broken", Homepage: "nope"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestLoadSpecsYAML(t *testing.T) {
	t.Setenv("DURJOG_TEST_HOME", "https://local.example/")
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - id: Local
    homepage: ${DURJOG_TEST_HOME}
    discovery: feed
    listing_url: https://local.example/rss.xml
    link:
      contains: ["/story/"]
    date:
      sources:
        - css: meta[name="date"]
          attr: content
    headline: h1.title
    content: [div.body, article]
  - id: cnn
    enabled: false
`), 0o600))

	specs, err := LoadSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	local := specs[0]
	assert.Equal(t, "local", local.ID)
	assert.Equal(t, "https://local.example/", local.Homepage)
	assert.Equal(t, Selectors{{CSS: "h1.title"}}, local.Headline)
	assert.Equal(t, Selectors{{CSS: "div.body"}, {CSS: "article"}}, local.Content)
	assert.Equal(t, Selectors{{CSS: `meta[name="date"]`, Attr: "content"}}, local.Date.Sources)
	assert.False(t, specs[1].EnabledValue())

	p, err := Build(local, nil)
	require.NoError(t, err)
	assert.Equal(t, DiscoverFeed, p.Discovery)
	assert.Equal(t, "https://local.example/rss.xml", p.ListingURL)
}

func TestLoadSpecsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"profiles":[
		{"id":"j","homepage":"https://j.example/","link":{"suffix":".html"},
		 "headline":"h1","tags":[{"css":"meta[name=keywords]","attr":"content"}]}]}`), 0o600))

	specs, err := LoadSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, Selectors{{CSS: "h1"}}, specs[0].Headline)
	assert.Equal(t, Selectors{{CSS: "meta[name=keywords]", Attr: "content"}}, specs[0].Tags)
}

func TestLoadSpecsErrors(t *testing.T) {
	_, err := LoadSpecs("")
	assert.Error(t, err)

	dir := t.TempDir()
	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("profiles:\n  - id: a\n  - id: A\n"), 0o600))
	_, err = LoadSpecs(dup)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("profiles: []\n"), 0o600))
	_, err = LoadSpecs(empty)
	assert.Error(t, err)
}

func TestParseSitemap(t *testing.T) {
	links, nested, err := ParseSitemap([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"
        xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
  <url>
    <loc>https://news.example/news/a.html</loc>
    <news:news>
      <news:publication_date>2025-07-03T10:00:00+00:00</news:publication_date>
      <news:title>Cyclone nears coast</news:title>
    </news:news>
  </url>
  <url>
    <loc>https://news.example/news/b.html</loc>
    <lastmod>2025-07-02</lastmod>
  </url>
  <url><loc> </loc></url>
</urlset>`))
	require.NoError(t, err)
	assert.Empty(t, nested)
	require.Len(t, links, 2)
	assert.Equal(t, "Cyclone nears coast", links[0].Title)
	assert.Equal(t, time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC), links[0].PublishedAt)
	assert.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), links[1].PublishedAt)

	links, nested, err = ParseSitemap([]byte(`<sitemapindex>
  <sitemap><loc>https://news.example/sitemap-1.xml</loc></sitemap>
  <sitemap><loc>https://news.example/sitemap-2.xml</loc></sitemap>
</sitemapindex>`))
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Equal(t, []string{"https://news.example/sitemap-1.xml", "https://news.example/sitemap-2.xml"}, nested)

	_, _, err = ParseSitemap([]byte("not xml <"))
	assert.Error(t, err)
}

func TestParseFeed(t *testing.T) {
	links, err := ParseFeed([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
  <item><title>Quake  strikes</title><link>https://news.example/news/q.html</link>
        <pubDate>Thu, 03 Jul 2025 10:00:00 GMT</pubDate></item>
  <item><title>No link</title></item>
</channel></rss>`))
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Quake strikes", links[0].Title)
	assert.Equal(t, time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC), links[0].PublishedAt)

	_, err = ParseFeed([]byte("plain text"))
	assert.Error(t, err)
}

func TestFilterListed(t *testing.T) {
	p, err := Build(Spec{ID: "s", Homepage: "https://news.example/", Link: LinkRule{Contains: []string{"/news/"}}}, nil)
	require.NoError(t, err)

	out := p.FilterListed([]ListedLink{
		{URL: "https://news.example/news/a.html"},
		{URL: "https://news.example/news/a.html#top"},
		{URL: "https://news.example/sport/b.html"},
		{URL: "https://elsewhere.example/news/c.html"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "https://news.example/news/a.html", out[0].URL)
}

func TestExampleProfilesFileApplies(t *testing.T) {
	specs, err := LoadSpecs(filepath.Join("..", "..", "configs", "profiles.example.yaml"))
	require.NoError(t, err)

	reg, err := DefaultRegistry([]string{"flood"})
	require.NoError(t, err)
	before := reg.Len()
	require.NoError(t, reg.Apply(specs, []string{"flood"}))

	p, err := reg.ByID("reliefweb")
	require.NoError(t, err)
	assert.Equal(t, DiscoverFeed, p.Discovery)
	_, err = reg.ByID("scmp_live")
	assert.Error(t, err)
	assert.Equal(t, before, reg.Len())
}
