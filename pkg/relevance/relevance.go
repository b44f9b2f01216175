// Package relevance decides whether article text belongs to the monitored
// keyword domain.
package relevance

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/durjog-khobor/pkg/textnorm"
)

// Matcher holds precompiled word-boundary patterns for a keyword list.
// A Matcher with no keywords is disabled and lets everything through.
type Matcher struct {
	keywords []string
	patterns []*regexp.Regexp
}

// NewMatcher compiles keywords once. Blank and duplicate (case-insensitive)
// entries are dropped; the first spelling wins.
func NewMatcher(keywords []string) *Matcher {
	m := &Matcher{}
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		m.keywords = append(m.keywords, kw)
		m.patterns = append(m.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(key)+`\b`))
	}
	return m
}

// Enabled reports whether filtering is active.
func (m *Matcher) Enabled() bool {
	return m != nil && len(m.patterns) > 0
}

// Keywords returns a copy of the configured keywords.
func (m *Matcher) Keywords() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}

// Match returns the keywords found in text, in configuration order, each at
// most once. The result is never nil.
func (m *Matcher) Match(text string) []string {
	matched := []string{}
	if !m.Enabled() {
		return matched
	}
	clean, ok := textnorm.Normalize(text)
	if !ok {
		return matched
	}
	clean = strings.ToLower(clean)
	for i, re := range m.patterns {
		if re.MatchString(clean) {
			matched = append(matched, m.keywords[i])
		}
	}
	return matched
}

// Relevant reports whether any of texts matches. A disabled matcher accepts
// everything.
func (m *Matcher) Relevant(texts ...string) bool {
	if !m.Enabled() {
		return true
	}
	for _, text := range texts {
		if len(m.Match(text)) > 0 {
			return true
		}
	}
	return false
}

// MatchKeywords is the one-shot form of Matcher.Match.
func MatchKeywords(text string, keywords []string) []string {
	return NewMatcher(keywords).Match(text)
}

// Union merges keyword lists preserving first-seen order.
func Union(lists ...[]string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, kw := range list {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// LoadKeywords reads a YAML list of keywords, or a mapping with a
// "keywords" list.
func LoadKeywords(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("keywords file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}

	var list []string
	if err := yaml.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Keywords []string `yaml:"keywords"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode keywords file: %w", err)
	}
	return doc.Keywords, nil
}
