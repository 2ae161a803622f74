package domain

import (
	"fmt"
	"strings"
	"time"
)

// MonthsShortKey is the translation key resolving to the twelve short month
// names, comma separated, January first.
const MonthsShortKey = "common.months.short"

var defaultMonthsShort = [12]string{
	"janv", "févr", "mars", "avr", "mai", "juin",
	"juil", "août", "sept", "oct", "nov", "déc",
}

// Translator resolves a translation key to a locale string.
type Translator func(key string) string

// Labeler renders period labels from a resolved month list.
type Labeler struct {
	months [12]string
}

// NewLabeler resolves MonthsShortKey through t. A nil translator, or one that
// does not return exactly twelve names, falls back to the built-in French list.
func NewLabeler(t Translator) Labeler {
	l := Labeler{months: defaultMonthsShort}
	if t == nil {
		return l
	}

	parts := strings.Split(t(MonthsShortKey), ",")
	if len(parts) != 12 {
		return l
	}
	for i, p := range parts {
		l.months[i] = strings.TrimSpace(p)
	}
	return l
}

// Month returns the short name of m.
func (l Labeler) Month(m time.Month) string {
	return l.months[m-1]
}

// WeekLabel renders a week start as "04 mars".
func (l Labeler) WeekLabel(t time.Time) string {
	return fmt.Sprintf("%02d %s", t.Day(), l.Month(t.Month()))
}

// MonthLabel renders a month start as "mars 24".
func (l Labeler) MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %02d", l.Month(t.Month()), t.Year()%100)
}

// DayLabel renders a full date as "01 janv 2024".
func (l Labeler) DayLabel(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), l.Month(t.Month()), t.Year())
}

// BoundaryLabel is the value seeded into the first or last period of a
// default breakdown: date s rendered the way breakdown type t labels its
// periods. Unparseable input yields an empty label.
//
// Example:
//
//	l.BoundaryLabel(MonthlyBreakdown, "2024-01-31") // "janv 24"
//	l.BoundaryLabel(WeeklyBreakdown, "2024-01-31")  // "31 janv"
func (l Labeler) BoundaryLabel(t BreakdownType, s string) string {
	d, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return kindOf(t).label(l, d)
}
