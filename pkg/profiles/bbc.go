package profiles

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/pkg/textnorm"
)

const bbcHomepage = "https://www.bbc.com/news"

var bbcNumericStory = regexp.MustCompile(`^/news/\d+$`)

// BBC returns the BBC News profile. It is written out in Go rather than as a
// Spec to show every capability a profile carries.
func BBC(keywords []string) *Profile {
	origin := &url.URL{Scheme: "https", Host: "www.bbc.com", Path: "/"}
	p, err := New(Profile{
		ID:          "bbc",
		Name:        "BBC",
		HomepageURL: bbcHomepage,
		Keywords:    keywords,

		IsCandidateLink: func(href string) bool {
			u, err := url.Parse(strings.TrimSpace(href))
			if err != nil {
				return false
			}
			if u.Host != "" && bareHost(u.Host) != "bbc.com" {
				return false
			}
			return strings.Contains(u.Path, "/news/articles/") || bbcNumericStory.MatchString(u.Path)
		},

		ResolvePublicationDate: func(doc *goquery.Document, now time.Time) (time.Time, bool) {
			if raw, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
				if t, ok := textnorm.ResolveTimestamp(raw, now); ok {
					return t, true
				}
			}
			return scanDateText(doc, now)
		},

		Headline: firstText(textSel("h1")),
		Author:   firstText(textSel("span.byline__name"), textSel(`[data-testid="byline-name"]`)),
		Content:  firstText(textSel("article")),
		Tags:     allValues(textSel("li.bbc-1msyfg1.e1hq59l0"), textSel(`[data-testid="topic-list"] li`)),
		Media:    imageSources,
		RelatedLinks: func(doc *goquery.Document) []domain.RelatedLink {
			return relatedFrom(origin, textSel("a.gs-c-promo-heading"))(doc)
		},
	})
	if err != nil {
		// The literal above is always valid.
		panic(err)
	}
	return p
}
