package domain

// ReseedDefaultBoundaries rewrites the first and last period values of the
// default breakdown from the current tactic dates. It is run whenever the
// tactic dates change.
//
// The returned state is a copy; changed is false when every boundary already
// held its label, in which case the copy equals state.
//
// Example:
//
//	next, changed := ReseedDefaultBoundaries(bs, periods, state, "2024-01-01", "2024-01-31", l)
//	// next[first.ID].Value == "01 janv", next[last.ID].Value == "31 janv" (weekly default)
func ReseedDefaultBoundaries(breakdowns []Breakdown, periods []GeneratedPeriod, state LocalState, tacticStart, tacticEnd string, l Labeler) (LocalState, bool) {
	next := state.Clone()

	def := DefaultBreakdown(breakdowns)
	if def == nil || !kindOf(def.Type).seedsBoundaries() {
		return next, false
	}

	changed := false
	for _, p := range periods {
		if p.BreakdownID != def.ID {
			continue
		}
		label, ok := boundaryLabel(p, def.Type, l, tacticStart, tacticEnd)
		if !ok {
			continue
		}

		s, exists := next[p.ID]
		if !exists {
			s = FreshState()
		}
		if exists && s.Value == label {
			continue
		}
		s.Value = label
		next[p.ID] = s
		changed = true
	}
	return next, changed
}
