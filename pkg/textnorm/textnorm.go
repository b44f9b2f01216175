// Package textnorm cleans scraped text and turns date strings, absolute or
// relative, into UTC instants.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

const (
	// maxDateTextLen bounds the input handed to the date parsers; longer
	// strings are prose, not dates.
	maxDateTextLen = 80

	minPlausibleYear = 1970

	// maxRelativeAge bounds "N units ago" phrases.
	maxRelativeAge = 100 * 365 * 24 * time.Hour
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	relativeAgo = regexp.MustCompile(
		`(?i)\b(\d+|an?|one)\s*(seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|wks?|w|months?|mos?|years?|yrs?|y)\s+ago\b`)
)

// Normalize collapses every whitespace run to a single space and trims the
// ends. Empty or whitespace-only input is reported as absent.
func Normalize(text string) (string, bool) {
	out := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if out == "" {
		return "", false
	}
	return out, true
}

// Clean is Normalize without the presence flag.
func Clean(text string) string {
	out, _ := Normalize(text)
	return out
}

// ResolveTimestamp parses raw into a UTC instant. Machine formats and
// free-form absolute dates go through dateparse (zone-less inputs are read
// as UTC, known zone abbreviations at their offset); relative phrases such as "3 hours ago" or "yesterday" resolve
// against now. Unparseable input yields ok=false rather than an error.
func ResolveTimestamp(raw string, now time.Time) (time.Time, bool) {
	text, ok := Normalize(raw)
	if !ok || len(text) > maxDateTextLen {
		return time.Time{}, false
	}

	if t, ok := parseRelative(text, now); ok {
		return t, true
	}
	if relativeAgo.MatchString(text) {
		return time.Time{}, false
	}

	if isShortNumber(text) {
		return time.Time{}, false
	}

	if t, ok := parseWithZoneAbbrev(text); ok {
		return t, true
	}

	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < minPlausibleYear {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// ToUTC normalizes t to UTC. Zone-less values are already UTC in Go, so this
// is the single comparison-safe representation used downstream.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// parseRelative handles the phrases news sites print instead of dates.
func parseRelative(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)
	now = now.UTC()

	switch lower {
	case "just now", "now", "moments ago", "a moment ago", "today":
		return now, true
	case "yesterday":
		return now.Add(-24 * time.Hour), true
	}

	m := relativeAgo.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}

	unit, ok := relativeUnit(m[2])
	if !ok {
		return time.Time{}, false
	}

	n := int64(1)
	if m[1][0] >= '0' && m[1][0] <= '9' {
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || v > int64(maxRelativeAge/unit) {
			return time.Time{}, false
		}
		n = v
	}
	return now.Add(-time.Duration(n) * unit), true
}

func relativeUnit(u string) (time.Duration, bool) {
	switch {
	case u == "s" || strings.HasPrefix(u, "sec"):
		return time.Second, true
	case u == "m" || strings.HasPrefix(u, "min"):
		return time.Minute, true
	case u == "h" || strings.HasPrefix(u, "h"):
		return time.Hour, true
	case u == "d" || strings.HasPrefix(u, "day"):
		return 24 * time.Hour, true
	case u == "w" || strings.HasPrefix(u, "w"):
		return 7 * 24 * time.Hour, true
	case strings.HasPrefix(u, "mo"):
		return 30 * 24 * time.Hour, true
	case u == "y" || strings.HasPrefix(u, "y"):
		return 365 * 24 * time.Hour, true
	}
	return 0, false
}

// isShortNumber rejects bare numbers such as "12" or "2024" that dateparse
// would happily turn into a date.
func isShortNumber(text string) bool {
	if len(text) >= 10 {
		return false
	}
	for _, r := range text {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
