package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// zoneOffsets maps the zone abbreviations news sites print to their UTC
// offset in seconds. Ambiguous abbreviations such as CST are left out; IST
// is India Standard Time.
var zoneOffsets = map[string]int{
	"GMT":  0,
	"UTC":  0,
	"BST":  1 * 3600,
	"CET":  1 * 3600,
	"CEST": 2 * 3600,
	"EET":  2 * 3600,
	"EEST": 3 * 3600,
	"MSK":  3 * 3600,
	"GST":  4 * 3600,
	"PKT":  5 * 3600,
	"IST":  5*3600 + 1800,
	"NPT":  5*3600 + 2700,
	"ICT":  7 * 3600,
	"WIB":  7 * 3600,
	"WITA": 8 * 3600,
	"SGT":  8 * 3600,
	"MYT":  8 * 3600,
	"PHT":  8 * 3600,
	"PHST": 8 * 3600,
	"HKT":  8 * 3600,
	"AWST": 8 * 3600,
	"WIT":  9 * 3600,
	"JST":  9 * 3600,
	"KST":  9 * 3600,
	"ACST": 9*3600 + 1800,
	"AEST": 10 * 3600,
	"AEDT": 11 * 3600,
	"NZST": 12 * 3600,
	"NZDT": 13 * 3600,
	"HST":  -10 * 3600,
	"AKST": -9 * 3600,
	"AKDT": -8 * 3600,
	"PST":  -8 * 3600,
	"PDT":  -7 * 3600,
	"MST":  -7 * 3600,
	"MDT":  -6 * 3600,
	"CDT":  -5 * 3600,
	"EST":  -5 * 3600,
	"EDT":  -4 * 3600,
}

var (
	trailingZone = regexp.MustCompile(`^(.*\S)\s+\(?([A-Za-z]{2,4})\)?$`)
	leadingDay   = regexp.MustCompile(`(?i)^(mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+`)
	dottedClock  = regexp.MustCompile(`(^|\s)(\d{1,2})\.(\d{2})$`)
	meridiem     = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*([ap])\.?m\.?$`)
)

// parseWithZoneAbbrev resolves dates ending in a known zone abbreviation.
// The Go time parser gives unknown abbreviations a zero offset, so the
// abbreviation is stripped and the rest is read in the matching fixed zone.
func parseWithZoneAbbrev(text string) (time.Time, bool) {
	m := trailingZone.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	abbrev := strings.ToUpper(m[2])
	offset, ok := zoneOffsets[abbrev]
	if !ok {
		return time.Time{}, false
	}
	loc := time.FixedZone(abbrev, offset)

	rest := strings.TrimRight(m[1], " ,")
	rest = leadingDay.ReplaceAllString(rest, "")
	rest = dottedClock.ReplaceAllString(rest, "${1}${2}:${3}")
	rest = to24Hour(rest)

	t, err := dateparse.ParseIn(rest, loc)
	if err == nil && t.Year() >= minPlausibleYear {
		return t.UTC(), true
	}

	// Fall back to the full text and move the wall clock into loc when the
	// parser read the abbreviation as a zero offset.
	t, err = dateparse.ParseIn(text, time.UTC)
	if err != nil || t.Year() < minPlausibleYear {
		return time.Time{}, false
	}
	if name, off := t.Zone(); off == 0 && (name == abbrev || name == "UTC") {
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	return t.UTC(), true
}

// to24Hour rewrites a trailing "10:30 pm" as "22:30".
func to24Hour(text string) string {
	m := meridiem.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	hour, err := strconv.Atoi(text[m[2]:m[3]])
	if err != nil || hour < 1 || hour > 12 {
		return text
	}
	hour %= 12
	if strings.EqualFold(text[m[6]:m[7]], "p") {
		hour += 12
	}
	clock := strconv.Itoa(hour)
	if hour < 10 {
		clock = "0" + clock
	}
	return text[:m[0]] + clock + ":" + text[m[4]:m[5]] + text[m[1]:]
}
