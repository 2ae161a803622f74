package domain

import (
	"strings"
)

// FilterPeriodsByRange keeps the periods that overlap [start, end].
//
// Each period covers start..end where end is start+6 days for Weekly/PEBs, the
// last day of the month for Monthly and the start itself for Custom. A period
// without a start date is always kept, and so is everything when the range
// itself cannot be parsed.
//
// b supplies the breakdown type. When it is nil the type is guessed from the
// breakdown name, see InferTypeFromName.
//
// Example:
//
//	// weekly period starting Monday 2024-03-04 covers 03-04..03-10
//	FilterPeriodsByRange(periods, "2024-03-09", "2024-03-09", &weekly) // kept
//	FilterPeriodsByRange(periods, "2024-03-11", "2024-03-20", &weekly) // dropped
func FilterPeriodsByRange(periods []GeneratedPeriod, start, end string, b *Breakdown) []GeneratedPeriod {
	rangeStart, okStart := ParseDate(start)
	rangeEnd, okEnd := ParseDate(end)

	out := make([]GeneratedPeriod, 0, len(periods))
	if !okStart || !okEnd {
		return append(out, periods...)
	}

	for _, p := range periods {
		if !p.HasStartDate() {
			out = append(out, p)
			continue
		}

		var kind periodKind
		if b != nil {
			kind = kindOf(b.Type)
		} else {
			kind = kindOf(InferTypeFromName(p.BreakdownName))
		}

		if Overlaps(p.StartDate, kind.periodEnd(p.StartDate), rangeStart, rangeEnd) {
			out = append(out, p)
		}
	}
	return out
}

// InferTypeFromName guesses a breakdown type from its display name.
//
// Deprecated: records saved before breakdown types were stored only carry a
// name. Pass the Breakdown to FilterPeriodsByRange instead.
func InferTypeFromName(name string) BreakdownType {
	switch {
	case strings.Contains(name, "Hebdo"):
		return WeeklyBreakdown
	case strings.Contains(name, "PEB"):
		return PEBsBreakdown
	case strings.Contains(name, "Mensuel"):
		return MonthlyBreakdown
	default:
		return CustomBreakdown
	}
}
