package profiles

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/pkg/textnorm"
)

// fallbackDateSelector lists the short visible nodes scanned for date text
// when no structured location resolves.
const fallbackDateSelector = "time, span"

// Selector addresses a value in a document: the text of elements matching
// CSS, or their Attr attribute when Attr is set. In YAML a bare string is
// shorthand for a text selector.
type Selector struct {
	CSS  string `yaml:"css" json:"css"`
	Attr string `yaml:"attr" json:"attr"`
}

// UnmarshalYAML accepts either "h1" or {css: ..., attr: ...}.
func (s *Selector) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.CSS = strings.TrimSpace(value.Value)
		s.Attr = ""
		return nil
	}
	type plain Selector
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Selector(p)
	return nil
}

// Selectors is an ordered list of fallbacks. In YAML a single selector may
// be written without the surrounding list.
type Selectors []Selector

// UnmarshalYAML accepts a single selector or a sequence of them.
func (s *Selectors) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var list []Selector
		if err := value.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	var one Selector
	if err := value.Decode(&one); err != nil {
		return err
	}
	*s = Selectors{one}
	return nil
}

// UnmarshalJSON mirrors UnmarshalYAML for JSON profile files.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var css string
	if err := json.Unmarshal(data, &css); err == nil {
		*s = Selector{CSS: strings.TrimSpace(css)}
		return nil
	}
	type plain Selector
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Selector(p)
	return nil
}

// UnmarshalJSON accepts a single selector or an array of them.
func (s *Selectors) UnmarshalJSON(data []byte) error {
	var list []Selector
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var one Selector
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*s = Selectors{one}
	return nil
}

func textSel(css string) Selector {
	return Selector{CSS: css}
}

func attrSel(css, attr string) Selector {
	return Selector{CSS: css, Attr: attr}
}

// value reads one element according to the selector.
func (s Selector) value(sel *goquery.Selection) string {
	if s.Attr != "" {
		v, _ := sel.Attr(s.Attr)
		return textnorm.Clean(v)
	}
	return textnorm.Clean(sel.Text())
}

// first returns the first non-empty value among matching elements.
func (s Selector) first(doc *goquery.Document) (string, bool) {
	if s.CSS == "" {
		return "", false
	}
	var out string
	doc.Find(s.CSS).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		out = s.value(sel)
		return out == ""
	})
	return out, out != ""
}

// all returns every distinct non-empty value among matching elements.
func (s Selector) all(doc *goquery.Document) []string {
	out := []string{}
	if s.CSS == "" {
		return out
	}
	seen := make(map[string]struct{})
	doc.Find(s.CSS).Each(func(_ int, sel *goquery.Selection) {
		v := s.value(sel)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	})
	return out
}

// firstText tries selectors in order and returns the first hit.
func firstText(sels ...Selector) TextFunc {
	return func(doc *goquery.Document) (string, bool) {
		for _, s := range sels {
			if v, ok := s.first(doc); ok {
				return v, true
			}
		}
		return "", false
	}
}

// allValues collects values from every selector, de-duplicated.
func allValues(sels ...Selector) ListFunc {
	return func(doc *goquery.Document) []string {
		out := []string{}
		seen := make(map[string]struct{})
		for _, s := range sels {
			for _, v := range s.all(doc) {
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
		return out
	}
}

// mediaFrom collects URL-valued attributes (img src by default), resolved
// against the document URL when the crawler set one.
func mediaFrom(sels ...Selector) ListFunc {
	return func(doc *goquery.Document) []string {
		out := []string{}
		seen := make(map[string]struct{})
		for _, s := range sels {
			if s.Attr == "" {
				s.Attr = "src"
			}
			for _, raw := range s.all(doc) {
				v := resolveAgainst(raw, doc.Url)
				if v == "" {
					continue
				}
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
		return out
	}
}

func imageSources(doc *goquery.Document) []string {
	return mediaFrom(attrSel("img[src]", "src"))(doc)
}

// relatedFrom builds title/URL pairs from anchors. Relative hrefs resolve
// against the document URL, or origin when the document has none.
func relatedFrom(origin *url.URL, sels ...Selector) RelatedFunc {
	return func(doc *goquery.Document) []domain.RelatedLink {
		out := []domain.RelatedLink{}
		base := origin
		if doc.Url != nil {
			base = doc.Url
		}
		seen := make(map[string]struct{})
		for _, s := range sels {
			if s.CSS == "" {
				continue
			}
			doc.Find(s.CSS).Each(func(_ int, sel *goquery.Selection) {
				href, ok := sel.Attr("href")
				if !ok {
					return
				}
				link := resolveAgainst(href, base)
				if link == "" {
					return
				}
				if _, dup := seen[link]; dup {
					return
				}
				seen[link] = struct{}{}
				out = append(out, domain.RelatedLink{Title: textnorm.Clean(sel.Text()), URL: link})
			})
		}
		return out
	}
}

// dateFrom tries structured locations in order, then optionally scans short
// visible text nodes for absolute or relative date phrases.
func dateFrom(sources []Selector, fallback bool) DateFunc {
	return func(doc *goquery.Document, now time.Time) (time.Time, bool) {
		for _, s := range sources {
			raw, ok := s.first(doc)
			if !ok {
				continue
			}
			if t, ok := textnorm.ResolveTimestamp(raw, now); ok {
				return t, true
			}
		}
		if !fallback {
			return time.Time{}, false
		}
		return scanDateText(doc, now)
	}
}

// scanDateText returns the first span/time text that parses as a date.
func scanDateText(doc *goquery.Document, now time.Time) (time.Time, bool) {
	var (
		found time.Time
		ok    bool
	)
	doc.Find(fallbackDateSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		found, ok = textnorm.ResolveTimestamp(sel.Text(), now)
		return !ok
	})
	return found, ok
}

// resolveAgainst absolutizes raw against base. Non-HTTP schemes (data:,
// javascript:) are dropped.
func resolveAgainst(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		if base == nil {
			return raw
		}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func (s Selector) String() string {
	if s.Attr == "" {
		return s.CSS
	}
	return fmt.Sprintf("%s@%s", s.CSS, s.Attr)
}
