package domain

// ChangeEventName is the field name carried by every ChangeEvent.
const ChangeEventName = "breakdowns"

// ChangeEvent is handed to the owning form when the serialized record changes.
type ChangeEvent struct {
	Name  string     `json:"name"`
	Value Breakdowns `json:"value"`
}

// CreateBreakdownsObject serializes the live buffer into the nested record
// stored on the tactic.
//
// Periods are grouped by breakdown; a group whose breakdown is no longer in
// breakdowns is dropped. Each group is clipped (the default breakdown to the
// tactic dates, other automatic breakdowns to their own dates, Custom never),
// sorted (by date, or by stored order for Custom) and numbered: Order is the
// position after sorting, never the previously stored one. A period missing
// from local is written with a fresh state.
//
// Example:
//
//	out := CreateBreakdownsObject(bs, periods, local, "2024-01-01", "2024-01-31")
//	// out["bd-cal"].Periods[id] == PeriodEntry{Value: "…", Order: 0, Date: "2024-01-01", …}
func CreateBreakdownsObject(breakdowns []Breakdown, periods []GeneratedPeriod, local LocalState, tacticStart, tacticEnd string) Breakdowns {
	out := make(Breakdowns)

	for breakdownID, group := range GroupByBreakdown(periods) {
		b := FindBreakdown(breakdowns, breakdownID)
		if b == nil {
			continue
		}
		kind := kindOf(b.Type)

		kept := clip(group, b, kind, tacticStart, tacticEnd)
		kind.sortPeriods(kept)

		entries := make(map[string]PeriodEntry, len(kept))
		for i, p := range kept {
			s, ok := local[p.ID]
			if !ok {
				s = FreshState()
			}
			toggled := s.IsToggled

			e := PeriodEntry{
				Value:     s.Value,
				IsToggled: &toggled,
				Order:     i,
				UnitCost:  s.UnitCost,
				Total:     s.Total,
			}
			kind.identify(&e, p)
			entries[p.ID] = e
		}

		out[breakdownID] = PersistedBreakdown{
			Name:    b.Name,
			Type:    b.Type,
			Periods: entries,
		}
	}
	return out
}

func clip(group []GeneratedPeriod, b *Breakdown, kind periodKind, tacticStart, tacticEnd string) []GeneratedPeriod {
	if !kind.clipsToRange() {
		kept := make([]GeneratedPeriod, len(group))
		copy(kept, group)
		return kept
	}
	start, end := b.effectiveRange(tacticStart, tacticEnd)
	return FilterPeriodsByRange(group, start, end, b)
}

// MergeEntries lays the entries of live whose period ID is in held over base,
// entry by entry. A held entry replaces any base entry of the same breakdown
// with the same date (or name, for Custom), so an edit wins over the stored
// value it was reconciled from. Entries of live not in held are ignored and
// base entries nothing replaced are kept. Neither input is modified.
//
// Example:
//
//	src := MergeEntries(persisted, live, map[string]struct{}{"p-3": {}})
//	// src["bd-cal"] keeps every stored entry except the one dated like p-3,
//	// which is replaced by live["bd-cal"].Periods["p-3"]
func MergeEntries(base, live Breakdowns, held map[string]struct{}) Breakdowns {
	out := make(Breakdowns, len(base)+len(live))
	for id, b := range base {
		out[id] = b
	}

	for breakdownID, top := range live {
		merged, ok := out[breakdownID]
		entries := make(map[string]PeriodEntry)
		if ok {
			for id, e := range merged.Periods {
				entries[id] = e
			}
		} else {
			merged = PersistedBreakdown{Name: top.Name, Type: top.Type}
		}
		kind := kindOf(top.Type)

		touched := false
		for id, e := range top.Periods {
			if _, ok := held[id]; !ok {
				continue
			}
			if key := kind.entryKey(e); key != "" {
				for storedID, stored := range entries {
					if storedID != id && kind.entryKey(stored) == key {
						delete(entries, storedID)
					}
				}
			}
			entries[id] = e
			touched = true
		}
		if !ok && !touched {
			continue
		}
		merged.Periods = entries
		out[breakdownID] = merged
	}
	return out
}
