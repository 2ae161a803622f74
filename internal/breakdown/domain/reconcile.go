package domain

import (
	"sort"
)

// ReconcileInput is everything Reconcile reads. None of it is modified.
type ReconcileInput struct {
	Breakdowns []Breakdown
	Periods    []GeneratedPeriod
	Persisted  Breakdowns

	// Pending is the buffer currently being edited. A non-empty pending value
	// is never overwritten by boundary seeding.
	Pending LocalState

	TacticStart string
	TacticEnd   string
	Labeler     Labeler
}

// Reconcile builds the live buffer for freshly generated periods from the
// persisted record. Each period goes through three strategies, first hit wins:
//
//  1. identifier: persisted[breakdownID].periods[period.ID]
//  2. content: a persisted entry of the same breakdown with the same ISO start
//     date (automatic types) or the same name (Custom), stored under an
//     identifier from an earlier generation
//  3. fresh: empty value, toggled on; the first/last period of the default
//     breakdown is seeded with the tactic start/end date label
//
// Example:
//
//	// persisted holds {"OLD": {Value: "12", Date: "2024-03-04"}} under "bd"
//	state := Reconcile(ReconcileInput{Breakdowns: bs, Periods: periods, Persisted: persisted})
//	// state["NEW"].Value == "12" when periods contains {ID: "NEW", StartDate: 2024-03-04}
func Reconcile(in ReconcileInput) LocalState {
	claimed := make(map[string]struct{}, len(in.Periods))
	for _, p := range in.Periods {
		claimed[p.ID] = struct{}{}
	}

	out := make(LocalState, len(in.Periods))
	for _, p := range in.Periods {
		stored := in.Persisted[p.BreakdownID]
		b := FindBreakdown(in.Breakdowns, p.BreakdownID)
		kind := kindForPeriod(b, stored, p)

		if s, ok := matchByID(stored, p); ok {
			out[p.ID] = s
			continue
		}
		if s, ok := matchByContent(stored, p, kind, claimed); ok {
			out[p.ID] = s
			continue
		}
		out[p.ID] = freshState(p, b, kind, in)
	}
	return out
}

func matchByID(stored PersistedBreakdown, p GeneratedPeriod) (PeriodState, bool) {
	e, ok := stored.Periods[p.ID]
	if !ok {
		return PeriodState{}, false
	}
	return stateFromEntry(e), true
}

// matchByContent scans entries in identifier order so that duplicates resolve
// the same way on every run. Entries whose identifier belongs to the current
// generation are skipped: they are matched by identifier.
func matchByContent(stored PersistedBreakdown, p GeneratedPeriod, kind periodKind, claimed map[string]struct{}) (PeriodState, bool) {
	key := kind.contentKey(p)
	if key == "" || len(stored.Periods) == 0 {
		return PeriodState{}, false
	}

	ids := make([]string, 0, len(stored.Periods))
	for id := range stored.Periods {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, ok := claimed[id]; ok {
			continue
		}
		e := stored.Periods[id]
		if kind.entryKey(e) == key {
			return stateFromEntry(e), true
		}
	}
	return PeriodState{}, false
}

func freshState(p GeneratedPeriod, b *Breakdown, kind periodKind, in ReconcileInput) PeriodState {
	s := FreshState()
	if b == nil || !b.IsDefault || !kind.seedsBoundaries() {
		return s
	}

	if pending, ok := in.Pending[p.ID]; ok && pending.Value != "" {
		return pending
	}
	if label, ok := boundaryLabel(p, b.Type, in.Labeler, in.TacticStart, in.TacticEnd); ok {
		s.Value = label
	}
	return s
}

// boundaryLabel is the seeded value of a first or last period. A period that
// is both takes the start date.
func boundaryLabel(p GeneratedPeriod, t BreakdownType, l Labeler, tacticStart, tacticEnd string) (string, bool) {
	switch {
	case p.IsFirst:
		return l.BoundaryLabel(t, tacticStart), true
	case p.IsLast:
		return l.BoundaryLabel(t, tacticEnd), true
	default:
		return "", false
	}
}

// kindForPeriod prefers the live breakdown record, then the stored type, and
// finally guesses from the period itself.
func kindForPeriod(b *Breakdown, stored PersistedBreakdown, p GeneratedPeriod) periodKind {
	switch {
	case b != nil:
		return kindOf(b.Type)
	case stored.Type != "":
		return kindOf(stored.Type)
	case p.PeriodName != "":
		return kindOf(CustomBreakdown)
	default:
		return kindOf(WeeklyBreakdown)
	}
}

// SameIDSet reports whether a and b hold the same identifiers, ignoring order
// and duplicates.
func SameIDSet(a, b []string) bool {
	left := make(map[string]struct{}, len(a))
	for _, id := range a {
		left[id] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, id := range b {
		if _, ok := left[id]; !ok {
			return false
		}
		right[id] = struct{}{}
	}
	return len(left) == len(right)
}

// ContentKey is the identity a period keeps across regenerations within its
// breakdown: the ISO start date for automatic types, the name for Custom.
func ContentKey(t BreakdownType, p GeneratedPeriod) string {
	return kindOf(t).contentKey(p)
}
