package profiles

var (
	articlePublished   = attrSel(`meta[property="article:published_time"]`, "content")
	ogArticlePublished = attrSel(`meta[property="og:article:published_time"]`, "content")
	pubdateMeta        = attrSel(`meta[name="pubdate"]`, "content")
)

func byPath(patterns ...string) LinkRule {
	return LinkRule{Patterns: patterns}
}

func bySubstring(suffix string, contains ...string) LinkRule {
	return LinkRule{Contains: contains, Suffix: suffix}
}

// listingSpec describes the common case: headline in h1, body in article,
// date in a meta tag with the span/time scan as fallback.
func listingSpec(id, name, homepage string, link LinkRule, date ...Selector) Spec {
	return Spec{
		ID:       id,
		Name:     name,
		Homepage: homepage,
		Link:     link,
		Date:     DateRule{Sources: date},
	}
}

// BuiltinSpecs returns the declarative catalogue of the sources monitored
// out of the box. BBC is built in Go by BBC and is not part of this list.
func BuiltinSpecs() []Spec {
	cnn := listingSpec("cnn", "CNN", "https://www.cnn.com/world",
		byPath(`^/\d{4}/\d{2}/\d{2}/.+\.html$`),
		attrSel(`meta[itemprop="datePublished"]`, "content"))
	cnn.Author = Selectors{textSel("span.byline__name")}
	cnn.Content = Selectors{textSel("div.article__content"), textSel("section#body-text")}
	cnn.Tags = Selectors{attrSel(`meta[name="section"]`, "content")}
	cnn.Related = Selectors{textSel("a.related-article")}

	reuters := listingSpec("reuters", "Reuters", "https://www.reuters.com/news/archive/worldNews",
		byPath(`^/(world|article)/.+\.html$`),
		ogArticlePublished)
	reuters.Author = Selectors{attrSel(`meta[name="author"]`, "content")}
	reuters.Content = Selectors{textSel("div.article-body__content__17Yit"), textSel("div.ArticleBody__content___2gQno")}
	reuters.Tags = Selectors{textSel("a.ArticleHeader_channel_1n4pB")}
	reuters.Related = Selectors{textSel(`a[data-testid="related-article-link"]`)}

	return []Spec{
		cnn,
		reuters,
		listingSpec("abc", "ABC Australia", "https://www.abc.net.au/news/justin",
			byPath(`^/news/\d{4}-\d{2}-\d{2}/.+/\d+$`),
			attrSel(`meta[property="article:published"]`, "content")),
		listingSpec("cna", "Channel News Asia", "https://www.channelnewsasia.com/latest-news",
			LinkRule{Patterns: []string{`^/news/\d{4}/\d{2}/\d{2}/.+`}, Contains: []string{"/news/"}},
			articlePublished),
		listingSpec("thestar", "The Star Malaysia", "https://www.thestar.com.my/news/latest/",
			LinkRule{Patterns: []string{`^/news/nation/\d{4}/\d{2}/\d{2}/.+`}, Contains: []string{"/news/"}},
			articlePublished),
		listingSpec("jakartapost", "The Jakarta Post", "https://www.thejakartapost.com/latest",
			LinkRule{Patterns: []string{`^/news/\d{4}/\d{2}/\d{2}/.+`}, Contains: []string{"/news/"}},
			articlePublished),
		listingSpec("bangkokpost", "Bangkok Post", "https://www.bangkokpost.com/most-recent",
			LinkRule{Patterns: []string{`^/\d{4}/\d{2}/\d{2}/.+`}, Contains: []string{"/news/"}},
			articlePublished),
		listingSpec("xinhua", "Xinhua", "https://english.news.cn/home.htm",
			LinkRule{Patterns: []string{`^/\d{4}-\d{2}/\d{2}/c_\d+\.htm$`}, Contains: []string{"/news/"}},
			pubdateMeta),
		listingSpec("straitstimes_world", "Straits Times World", "https://www.straitstimes.com/world/latest",
			bySubstring(".html", "/world/"), articlePublished),
		listingSpec("straitstimes_breaking", "Straits Times Breaking", "https://www.straitstimes.com/breaking-news",
			bySubstring(".html", "/breaking-news/"), articlePublished),
		listingSpec("reuters_apac", "Reuters Asia-Pacific", "https://www.reuters.com/world/asia-pacific/",
			bySubstring(".html", "/world/asia-pacific/"), ogArticlePublished),
		listingSpec("scmp_live", "SCMP Live", "https://www.scmp.com/live?module=oneline_menu_section_int&pgtype=live",
			bySubstring(".html", "/live/"), articlePublished),
		listingSpec("cgtn", "CGTN Asia-Pacific", "https://www.cgtn.com/world/asia-pacific",
			bySubstring(".html", "/world/asia-pacific/"), articlePublished),
		listingSpec("indianexpress", "Indian Express", "https://indianexpress.com/latest-news/?ref=latestnews_hp",
			bySubstring(".html", "/latest-news/"), articlePublished),
		listingSpec("thenews", "The News Pakistan", "https://www.thenews.com.pk/latest-stories",
			bySubstring(".html", "/latest-stories/"), articlePublished),
		listingSpec("xinhua_list", "Xinhua Latest List", "https://english.news.cn/list/latestnews.htm",
			LinkRule{Suffix: ".htm", Exclude: []string{"/list/"}}, pubdateMeta),
		listingSpec("philstar_home", "Philstar Home", "https://www.philstar.com/",
			bySubstring("", "/news/", "/headlines/"), articlePublished),
		listingSpec("apnews", "AP News Asia-Pacific", "https://apnews.com/hub/asia-pacific",
			byPath(`^/article/[^/]+$`), articlePublished),
		listingSpec("scmp_asia", "SCMP Asia", "https://www.scmp.com/news/asia",
			bySubstring("", "/news/asia/"), articlePublished),
		listingSpec("nikkei", "Nikkei Asia", "https://asia.nikkei.com/",
			bySubstring("", "/article/"), articlePublished),
		listingSpec("japantimes", "Japan Times Asia-Pacific", "https://www.japantimes.co.jp/news/asia-pacific/",
			byPath(`^/news/\d{4}/\d{2}/\d{2}/asia-pacific/.+`), articlePublished),
		listingSpec("guardian", "The Guardian International", "https://www.theguardian.com/international",
			byPath(`^/world/\d{4}/[a-z]{3}/\d{2}/.+`), articlePublished),
		listingSpec("antaranews", "Antara News", "https://en.antaranews.com/latest-news",
			byPath(`^/news/\d+/.+`), articlePublished),
		listingSpec("abscbn", "ABS-CBN", "https://www.abs-cbn.com/news/nation",
			bySubstring("", "/news/"), articlePublished),
	}
}
