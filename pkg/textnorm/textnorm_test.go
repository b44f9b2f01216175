package textnorm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{name: "collapses runs", in: "  Flood \n\n warning\t issued ", want: "Flood warning issued", wantOK: true},
		{name: "single word", in: "quake", want: "quake", wantOK: true},
		{name: "empty", in: "", wantOK: false},
		{name: "whitespace only", in: " \n\t ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTimestampAbsolute(t *testing.T) {
	now := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	want := time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC)

	inputs := []string{
		"2025-07-03T10:00:00Z",
		"2025-07-03T12:00:00+02:00",
		"2025-07-03 10:00:00",
		" 2025-07-03T10:00:00.000Z ",
	}
	for _, in := range inputs {
		got, ok := ResolveTimestamp(in, now)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s -> %s", in, got)
		assert.Equal(t, time.UTC, got.Location(), in)
	}
}

func TestResolveTimestampRelative(t *testing.T) {
	now := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"3 hours ago", now.Add(-3 * time.Hour)},
		{"Updated 45 mins ago", now.Add(-45 * time.Minute)},
		{"an hour ago", now.Add(-time.Hour)},
		{"2d ago", now.Add(-48 * time.Hour)},
		{"1 week ago", now.Add(-7 * 24 * time.Hour)},
		{"Just now", now},
		{"yesterday", now.Add(-24 * time.Hour)},
	}
	for _, tt := range tests {
		got, ok := ResolveTimestamp(tt.in, now)
		require.True(t, ok, tt.in)
		assert.True(t, tt.want.Equal(got), "%s -> %s", tt.in, got)
	}
}

func TestResolveTimestampRejects(t *testing.T) {
	now := time.Now()
	for _, in := range []string{"", "   ", "Share this article", "12", "2024",
		"9223372036 hours ago", "99999999999999999999 days ago", "5000 years ago", "Read more about the storm and its aftermath in our live coverage of the day as it unfolds across the region"} {
		_, ok := ResolveTimestamp(in, now)
		assert.False(t, ok, in)
	}
}

func TestResolveTimestampZoneAbbreviations(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"Wed, 14 Oct 2026 22:00:00 PST", time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC)},
		{"15 Oct 2026, 10:30 am IST", time.Date(2026, 10, 15, 5, 0, 0, 0, time.UTC)},
		{"15 Oct 2026, 4:30 pm IST", time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC)},
		{"Mon, 12 Oct 2026 10:00:00 EST", time.Date(2026, 10, 12, 15, 0, 0, 0, time.UTC)},
		{"Thu 15 Oct 2026 08.00 BST", time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC)},
		{"15 Oct 2026 09:15 SGT", time.Date(2026, 10, 15, 1, 15, 0, 0, time.UTC)},
		{"14 Oct 2026 20:00:00 EDT", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
		{"15 Oct 2026 10:00:00 GMT", time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ResolveTimestamp(tt.in, now)
		require.True(t, ok, tt.in)
		assert.True(t, tt.want.Equal(got), "%s -> %s, want %s", tt.in, got, tt.want)
		assert.Equal(t, time.UTC, got.Location(), tt.in)
	}
}

func TestTo24Hour(t *testing.T) {
	assert.Equal(t, "15 Oct 2026, 22:05", to24Hour("15 Oct 2026, 10:05 pm"))
	assert.Equal(t, "15 Oct 2026, 00:30", to24Hour("15 Oct 2026, 12:30 a.m."))
	assert.Equal(t, "15 Oct 2026 10:30", to24Hour("15 Oct 2026 10:30"))
}
