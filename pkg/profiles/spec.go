package profiles

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidSpec is returned when a declarative profile cannot be compiled.
var ErrInvalidSpec = errors.New("invalid profile spec")

// Spec is the declarative form of a Profile. Most sources differ only in
// their selectors, so the catalogue is data compiled by Build.
type Spec struct {
	ID            string            `json:"id" yaml:"id"`
	Name          string            `json:"name" yaml:"name"`
	Homepage      string            `json:"homepage" yaml:"homepage"`
	Discovery     string            `json:"discovery" yaml:"discovery"`
	ListingURL    string            `json:"listing_url" yaml:"listing_url"`
	Enabled       *bool             `json:"enabled" yaml:"enabled"`
	Headers       map[string]string `json:"headers" yaml:"headers"`
	Keywords      []string          `json:"keywords" yaml:"keywords"`
	KeywordFilter *bool             `json:"keyword_filter" yaml:"keyword_filter"`

	Link     LinkRule  `json:"link" yaml:"link"`
	Date     DateRule  `json:"date" yaml:"date"`
	Headline Selectors `json:"headline" yaml:"headline"`
	Subtitle Selectors `json:"subtitle" yaml:"subtitle"`
	Author   Selectors `json:"author" yaml:"author"`
	Content  Selectors `json:"content" yaml:"content"`
	Tags     Selectors `json:"tags" yaml:"tags"`
	Media    Selectors `json:"media" yaml:"media"`
	Related  Selectors `json:"related" yaml:"related"`
}

// LinkRule accepts an href when its path matches any pattern or contains any
// substring, and ends with Suffix when set. Exclude substrings always reject.
type LinkRule struct {
	Patterns []string `json:"patterns" yaml:"patterns"`
	Contains []string `json:"contains" yaml:"contains"`
	Suffix   string   `json:"suffix" yaml:"suffix"`
	Exclude  []string `json:"exclude" yaml:"exclude"`
}

// DateRule lists structured date locations in priority order. Fallback
// (default true) enables the span/time text scan.
type DateRule struct {
	Sources  Selectors `json:"sources" yaml:"sources"`
	Fallback *bool     `json:"fallback" yaml:"fallback"`
}

// EnabledValue returns the enabled flag, defaulting to true.
func (s Spec) EnabledValue() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// Build compiles s into a Profile. defaultKeywords apply when the spec lists
// none; keyword_filter: false disables relevance filtering for the source.
func Build(s Spec, defaultKeywords []string) (*Profile, error) {
	s = sanitizeSpec(s)
	if s.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidSpec)
	}
	home, err := url.Parse(s.Homepage)
	if err != nil || !home.IsAbs() || home.Host == "" {
		return nil, fmt.Errorf("%w: profile %q homepage %q is not an absolute URL", ErrInvalidSpec, s.ID, s.Homepage)
	}

	accept, err := s.Link.compile(home.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: profile %q: %v", ErrInvalidSpec, s.ID, err)
	}

	keywords := s.Keywords
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}
	if s.KeywordFilter != nil && !*s.KeywordFilter {
		keywords = nil
	}

	fallback := s.Date.Fallback == nil || *s.Date.Fallback
	if len(s.Date.Sources) == 0 && !fallback {
		return nil, fmt.Errorf("%w: profile %q has no date sources and fallback disabled", ErrInvalidSpec, s.ID)
	}

	p := Profile{
		ID:                     s.ID,
		Name:                   s.Name,
		HomepageURL:            s.Homepage,
		Discovery:              DiscoveryMode(s.Discovery),
		ListingURL:             s.ListingURL,
		Headers:                s.Headers,
		Keywords:               keywords,
		IsCandidateLink:        accept,
		ResolvePublicationDate: dateFrom(s.Date.Sources, fallback),
	}
	if len(s.Headline) > 0 {
		p.Headline = firstText(s.Headline...)
	}
	if len(s.Subtitle) > 0 {
		p.Subtitle = firstText(s.Subtitle...)
	}
	if len(s.Author) > 0 {
		p.Author = firstText(s.Author...)
	}
	if len(s.Content) > 0 {
		p.Content = firstText(s.Content...)
	}
	if len(s.Tags) > 0 {
		p.Tags = allValues(s.Tags...)
	}
	if len(s.Media) > 0 {
		p.Media = mediaFrom(s.Media...)
	}
	if len(s.Related) > 0 {
		p.RelatedLinks = relatedFrom(&url.URL{Scheme: home.Scheme, Host: home.Host, Path: "/"}, s.Related...)
	}

	profile, err := New(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return profile, nil
}

// sanitizeSpec trims and normalizes the spec fields.
func sanitizeSpec(s Spec) Spec {
	s.ID = strings.ToLower(strings.TrimSpace(s.ID))
	s.Name = strings.TrimSpace(s.Name)
	s.Homepage = strings.TrimSpace(s.Homepage)
	s.Discovery = strings.ToLower(strings.TrimSpace(s.Discovery))
	s.ListingURL = strings.TrimSpace(s.ListingURL)
	s.Headers = sanitizeHeaders(s.Headers)
	s.Link.Suffix = strings.TrimSpace(s.Link.Suffix)
	s.Link.Patterns = trimAll(s.Link.Patterns)
	s.Link.Contains = trimAll(s.Link.Contains)
	s.Link.Exclude = trimAll(s.Link.Exclude)
	return s
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// compile turns the rule into an href predicate. Absolute hrefs on another
// host are rejected; the rule itself is evaluated against the URL path.
func (r LinkRule) compile(host string) (func(string) bool, error) {
	if len(r.Patterns) == 0 && len(r.Contains) == 0 && r.Suffix == "" {
		return nil, errors.New("link rule needs a pattern, substring or suffix")
	}
	patterns := make([]*regexp.Regexp, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("link pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	home := bareHost(host)

	return func(href string) bool {
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return false
		}
		if u.Host != "" && bareHost(u.Host) != home {
			return false
		}
		path := u.Path
		if path == "" {
			return false
		}
		for _, ex := range r.Exclude {
			if strings.Contains(path, ex) {
				return false
			}
		}
		if r.Suffix != "" && !strings.HasSuffix(path, r.Suffix) {
			return false
		}
		if len(patterns) == 0 && len(r.Contains) == 0 {
			return true
		}
		for _, re := range patterns {
			if re.MatchString(path) {
				return true
			}
		}
		for _, sub := range r.Contains {
			if strings.Contains(path, sub) {
				return true
			}
		}
		return false
	}, nil
}

func bareHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
