package itinerary

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// NormalizeLocation trims s and collapses internal whitespace.
func NormalizeLocation(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatLocation title-cases every space separated word of s.
func FormatLocation(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// Month layouts accepted by FormatDate, tried in order.
var monthLayouts = []struct {
	layout  string
	hasYear bool
}{
	{"Jan 2006", true},
	{"January 2006", true},
	{"Jan", false},
	{"January", false},
	{"01/2006", true},
	{"01-2006", true},
	{"2006-01", true},
}

// FormatDate renders month-style input such as "aug", "Aug 2025" or "2025-08"
// as "August 2025". A month without a year resolves to its next occurrence
// after now. Input that is not month-like is returned unchanged.
func FormatDate(s string, now time.Time) string {
	trimmed := NormalizeLocation(s)
	if trimmed == "" {
		return s
	}

	for _, ml := range monthLayouts {
		t, err := time.Parse(ml.layout, trimmed)
		if err != nil {
			continue
		}
		year := t.Year()
		if !ml.hasYear {
			year = now.Year()
			if t.Month() <= now.Month() {
				year++
			}
		}
		return time.Date(year, t.Month(), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	}
	return s
}
