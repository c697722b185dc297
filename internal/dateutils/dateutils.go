// Package dateutils parses the date spellings found in bank CSV exports.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date layouts used for output and month filters.
const (
	DateLayoutISO   = "2006-01-02"
	DateLayoutMonth = "2006-01"
)

// Names of the numeric formats, in the order they are attempted.
const (
	FormatCompact  = "YYYYMMDD"
	FormatISO      = "YYYY-MM-DD"
	FormatDaySlash = "DD/MM/YYYY"
	FormatUSSlash  = "MM/DD/YYYY"
	FormatDayDash  = "DD-MM-YYYY"
)

type numericFormat struct {
	name  string
	re    *regexp.Regexp
	year  int
	month int
	day   int
}

// numericFormats are tried in order; the submatch indexes say where the
// year, month and day live.
var numericFormats = []numericFormat{
	{FormatCompact, regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`), 1, 2, 3},
	{FormatISO, regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), 1, 2, 3},
	{FormatDaySlash, regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), 3, 2, 1},
	{FormatUSSlash, regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), 3, 1, 2},
	{FormatDayDash, regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`), 3, 2, 1},
}

// TextualFormats are month-name layouts ("15 Jan 2023", "Jan 15, 2023").
var TextualFormats = []string{
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
}

// FallbackFormats are tried last.
var FallbackFormats = []string{
	"02.01.2006",
	"2006/01/02",
	"2-Jan-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses internal whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseTransactionDate parses a CSV date cell and returns the calendar day as
// midnight UTC together with the name or layout that matched.
//
// Numeric candidates are rebuilt with time.Date and rejected unless year,
// month and day survive the round trip, so "2023-02-30" never becomes
// March 2nd.
func ParseTransactionDate(raw string) (time.Time, string, error) {
	s := CleanDateString(raw)
	if s == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}

	for _, f := range numericFormats {
		m := f.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[f.year])
		mo, _ := strconv.Atoi(m[f.month])
		d, _ := strconv.Atoi(m[f.day])
		if t, ok := buildDate(y, mo, d); ok {
			return t, f.name, nil
		}
	}

	for _, layout := range TextualFormats {
		if t, err := time.Parse(layout, s); err == nil {
			if day, ok := buildDate(t.Year(), int(t.Month()), t.Day()); ok {
				return day, layout, nil
			}
		}
	}

	for _, layout := range FallbackFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), layout, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", raw)
}

// buildDate constructs a UTC date and checks it round-trips.
func buildDate(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ToISODate formats a date as YYYY-MM-DD.
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// StartOfMonth returns the first day of the month for a given date
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth returns the last instant of the month for a given date.
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// ParseMonth parses "YYYY-MM" and returns the month's inclusive bounds.
func ParseMonth(month string) (time.Time, time.Time, error) {
	t, err := time.Parse(DateLayoutMonth, strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", month, err)
	}
	return StartOfMonth(t), EndOfMonth(t), nil
}
