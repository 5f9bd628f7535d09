package normalize

import (
	"regexp"
	"strings"
	"time"
)

// ISODate is the canonical date output format.
const ISODate = "2006-01-02"

// dateLayouts are tried in order for the primary parse. Month-first wins
// for ambiguous numeric dates, matching how the source spreadsheets were
// produced.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006 15:04",
	time.RFC1123,
	time.RFC822,
}

// fallbackDateFormats pair a shape check with a parse layout for the odd
// spellings the primary list misses (two-digit years in particular).
var fallbackDateFormats = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`), "2006-1-2"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "1/2/2006"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`), "1/2/06"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`), "1-2-2006"},
}

// ParseDate normalizes a date string to ISO yyyy-mm-dd. The primary layout
// table parses with confidence 0.9; the pattern fallback parses with 0.8.
func ParseDate(value string) (string, float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return "", 0, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil && plausibleYear(t) {
			return t.Format(ISODate), 0.9, true
		}
	}

	for _, f := range fallbackDateFormats {
		if !f.pattern.MatchString(s) {
			continue
		}
		if t, err := time.Parse(f.layout, s); err == nil && plausibleYear(t) {
			return t.Format(ISODate), 0.8, true
		}
	}

	return "", 0, false
}

// IsISODate reports whether a value is already in canonical form.
func IsISODate(value string) bool {
	t, err := time.Parse(ISODate, strings.TrimSpace(value))
	return err == nil && plausibleYear(t)
}

func plausibleYear(t time.Time) bool {
	y := t.Year()
	return y >= 1000 && y <= 2200
}
