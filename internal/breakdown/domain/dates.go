package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODateLayout is the wire format of every stored period date.
const ISODateLayout = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// fallbackLayouts are tried, in order, for strings that are not plain ISO dates.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006", // day first
}

// ParseDate turns a date string into a civil date: midnight UTC of the calendar
// day written in the string.
//
// Plain "YYYY-MM-DD" strings are built from their numeric components, so the
// day never shifts because of a timezone. Anything else goes through a looser
// set of layouts and keeps the calendar day of the parsed value.
//
// Example:
//
//	d, ok := ParseDate("2024-03-04")
//	// d == 2024-03-04 00:00:00 UTC, ok == true
//
//	_, ok = ParseDate("not a date")
//	// ok == false
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if isoDatePattern.MatchString(s) {
		y, _ := strconv.Atoi(s[0:4])
		m, _ := strconv.Atoi(s[5:7])
		d, _ := strconv.Atoi(s[8:10])
		// time.Date normalises out-of-range components (2024-02-30 → 2024-03-01)
		return civilDate(y, time.Month(m), d), true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civilDate(t.Year(), t.Month(), t.Day()), true
		}
	}

	return time.Time{}, false
}

// FormatISODate renders a civil date as "YYYY-MM-DD".
func FormatISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

func civilDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns the Monday on or before t. Sunday goes back 6 days.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return civilDate(t.Year(), t.Month(), 1)
}

// EndOfMonth returns the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// DateInRange checks if a date lies between two boundaries (inclusive).
func DateInRange(date, start, end time.Time) bool {
	return !date.Before(start) && !date.After(end)
}

// Overlaps is the closed interval overlap test [aStart, aEnd] ∩ [bStart, bEnd] ≠ ∅:
// one interval starts inside the other.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return DateInRange(aStart, bStart, bEnd) || DateInRange(bStart, aStart, aEnd)
}
