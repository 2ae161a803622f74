package domain

import (
	"sort"
	"time"
)

// periodKind holds every behaviour that differs between breakdown types.
// kindOf is the only place that branches on BreakdownType; adding a type means
// adding one case there and one implementation here.
type periodKind interface {
	// generate emits the periods of b, in chronological or stored order.
	generate(b *Breakdown, tacticStart, tacticEnd string, g generator) []GeneratedPeriod

	// label renders a date the way this type labels its periods. Boundary
	// seeding uses it too.
	label(l Labeler, d time.Time) string

	// periodEnd returns the last day covered by a period starting on start.
	periodEnd(start time.Time) time.Time

	// seedsBoundaries reports whether first/last periods are flagged and may
	// be seeded from the tactic dates.
	seedsBoundaries() bool

	// computesTotals reports whether edits recompute total = unitCost × value.
	computesTotals() bool

	// followsDefaultToggles reports whether distributions skip the dates
	// deactivated on the default breakdown.
	followsDefaultToggles() bool

	// contentKey is the identity used to migrate values across regenerations.
	contentKey(p GeneratedPeriod) string
	entryKey(e PeriodEntry) string

	// clipsToRange reports whether serialization drops periods outside the
	// effective range.
	clipsToRange() bool

	// identify stamps the content key onto a persisted entry.
	identify(e *PeriodEntry, p GeneratedPeriod)

	sortPeriods(periods []GeneratedPeriod)
}

func kindOf(t BreakdownType) periodKind {
	switch t {
	case WeeklyBreakdown:
		return weekKind{}
	case PEBsBreakdown:
		return weekKind{volume: true}
	case MonthlyBreakdown:
		return monthKind{}
	case CustomBreakdown:
		return customKind{}
	default:
		// Unknown types behave like Custom: no dates, no clipping.
		return customKind{}
	}
}

// dateKind carries what weekly and monthly buckets share.
type dateKind struct{}

func (dateKind) seedsBoundaries() bool { return true }

func (dateKind) clipsToRange() bool { return true }

func (dateKind) contentKey(p GeneratedPeriod) string {
	if p.StartDate.IsZero() {
		return ""
	}
	return FormatISODate(p.StartDate)
}

func (dateKind) entryKey(e PeriodEntry) string { return e.Date }

func (k dateKind) identify(e *PeriodEntry, p GeneratedPeriod) {
	e.Date = k.contentKey(p)
	e.Name = ""
}

func (dateKind) sortPeriods(periods []GeneratedPeriod) {
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].StartDate.Before(periods[j].StartDate)
	})
}

// resolveRange parses the effective range. ok is false when a bound is missing,
// unparseable or the range is inverted.
func resolveRange(b *Breakdown, tacticStart, tacticEnd string) (time.Time, time.Time, bool) {
	s, e := b.effectiveRange(tacticStart, tacticEnd)
	start, okStart := ParseDate(s)
	end, okEnd := ParseDate(e)
	if !okStart || !okEnd || start.After(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func flagBoundaries(periods []GeneratedPeriod) []GeneratedPeriod {
	if len(periods) == 0 {
		return periods
	}
	periods[0].IsFirst = true
	periods[len(periods)-1].IsLast = true
	return periods
}

type weekKind struct {
	dateKind
	volume bool
}

func (weekKind) generate(b *Breakdown, tacticStart, tacticEnd string, g generator) []GeneratedPeriod {
	start, end, ok := resolveRange(b, tacticStart, tacticEnd)
	if !ok {
		return nil
	}

	var periods []GeneratedPeriod
	for d := StartOfWeek(start); !d.After(end); d = d.AddDate(0, 0, 7) {
		periods = append(periods, g.dated(b, d, g.labeler.WeekLabel(d)))
	}
	return flagBoundaries(periods)
}

func (weekKind) label(l Labeler, d time.Time) string { return l.WeekLabel(d) }

func (weekKind) periodEnd(start time.Time) time.Time { return start.AddDate(0, 0, 6) }

func (k weekKind) computesTotals() bool { return k.volume }

func (weekKind) followsDefaultToggles() bool { return true }

type monthKind struct {
	dateKind
}

func (monthKind) generate(b *Breakdown, tacticStart, tacticEnd string, g generator) []GeneratedPeriod {
	start, end, ok := resolveRange(b, tacticStart, tacticEnd)
	if !ok {
		return nil
	}

	var periods []GeneratedPeriod
	for d := StartOfMonth(start); !d.After(end); d = d.AddDate(0, 1, 0) {
		periods = append(periods, g.dated(b, d, g.labeler.MonthLabel(d)))
	}
	return flagBoundaries(periods)
}

func (monthKind) label(l Labeler, d time.Time) string { return l.MonthLabel(d) }

func (monthKind) periodEnd(start time.Time) time.Time { return EndOfMonth(start) }

func (monthKind) computesTotals() bool { return false }

func (monthKind) followsDefaultToggles() bool { return false }

type customKind struct{}

func (customKind) generate(b *Breakdown, _, _ string, g generator) []GeneratedPeriod {
	custom := make([]CustomPeriod, len(b.CustomPeriods))
	copy(custom, b.CustomPeriods)
	sort.SliceStable(custom, func(i, j int) bool { return custom[i].Order < custom[j].Order })

	periods := make([]GeneratedPeriod, 0, len(custom))
	for _, cp := range custom {
		p := GeneratedPeriod{
			ID:            g.newID(),
			Label:         cp.Name,
			BreakdownID:   b.ID,
			BreakdownName: b.Name,
			PeriodName:    cp.Name,
			Order:         cp.Order,
		}
		if d, ok := ParseDate(cp.Date); ok {
			p.StartDate = d
		}
		periods = append(periods, p)
	}
	return periods
}

func (customKind) label(l Labeler, d time.Time) string { return l.DayLabel(d) }

func (customKind) periodEnd(start time.Time) time.Time { return start }

func (customKind) seedsBoundaries() bool { return false }

func (customKind) clipsToRange() bool { return false }

func (customKind) computesTotals() bool { return false }

func (customKind) followsDefaultToggles() bool { return false }

func (customKind) contentKey(p GeneratedPeriod) string { return p.PeriodName }

func (customKind) entryKey(e PeriodEntry) string { return e.Name }

func (customKind) identify(e *PeriodEntry, p GeneratedPeriod) {
	e.Name = p.PeriodName
	e.Date = ""
}

func (customKind) sortPeriods(periods []GeneratedPeriod) {
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Order < periods[j].Order })
}
