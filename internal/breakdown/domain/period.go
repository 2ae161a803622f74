package domain

import (
	"time"

	"github.com/TriB-P/mediabox-sub008/internal/utils"
)

// GeneratedPeriod is one bucket of a breakdown, recomputed every time the
// breakdown list or the tactic dates change. It is never stored: only the
// values keyed by its ID are.
//
// Automatic types set StartDate; Custom sets PeriodName and Order (and
// StartDate when the custom period has a date).
type GeneratedPeriod struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	BreakdownID   string    `json:"breakdownId"`
	BreakdownName string    `json:"breakdownName"`
	StartDate     time.Time `json:"startDate,omitzero"`
	PeriodName    string    `json:"periodName,omitempty"`
	Order         int       `json:"order,omitempty"`
	IsFirst       bool      `json:"isFirst,omitempty"`
	IsLast        bool      `json:"isLast,omitempty"`
}

// HasStartDate reports whether the period can take part in date overlap tests.
func (p GeneratedPeriod) HasStartDate() bool {
	return !p.StartDate.IsZero()
}

// GenerateOption tunes period generation.
type GenerateOption func(*generator)

// WithIDSource replaces the random identifier source.
func WithIDSource(newID func() string) GenerateOption {
	return func(g *generator) {
		if newID != nil {
			g.newID = newID
		}
	}
}

// WithLabeler sets the labeler used for period labels.
func WithLabeler(l Labeler) GenerateOption {
	return func(g *generator) { g.labeler = l }
}

type generator struct {
	labeler Labeler
	newID   func() string
}

func newGenerator(opts []GenerateOption) generator {
	g := generator{
		labeler: NewLabeler(nil),
		newID:   utils.GeneratePeriodID,
	}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

func (g generator) dated(b *Breakdown, start time.Time, label string) GeneratedPeriod {
	return GeneratedPeriod{
		ID:            g.newID(),
		Label:         label,
		BreakdownID:   b.ID,
		BreakdownName: b.Name,
		StartDate:     start,
	}
}

// GeneratePeriods computes the periods of one breakdown.
//
// Weekly and PEBs breakdowns snap the start back to Monday and step 7 days;
// Monthly steps calendar months from the first of the start month; Custom
// returns its stored periods sorted by Order. A default breakdown takes the
// tactic dates when both are supplied. Missing, unparseable or inverted
// ranges produce no periods.
//
// Example:
//
//	b := Breakdown{ID: "m", Type: MonthlyBreakdown, StartDate: "2024-01-15", EndDate: "2024-03-02"}
//	periods := GeneratePeriods(b, "", "")
//	// labels: "janv 24", "févr 24", "mars 24"
//	// periods[0].IsFirst, periods[2].IsLast
func GeneratePeriods(b Breakdown, tacticStart, tacticEnd string, opts ...GenerateOption) []GeneratedPeriod {
	g := newGenerator(opts)
	return kindOf(b.Type).generate(&b, tacticStart, tacticEnd, g)
}

// GenerateAll concatenates the periods of every breakdown, in list order.
func GenerateAll(breakdowns []Breakdown, tacticStart, tacticEnd string, opts ...GenerateOption) []GeneratedPeriod {
	g := newGenerator(opts)

	var periods []GeneratedPeriod
	for i := range breakdowns {
		periods = append(periods, kindOf(breakdowns[i].Type).generate(&breakdowns[i], tacticStart, tacticEnd, g)...)
	}
	return periods
}

// PeriodEnd returns the last day covered by p for the given breakdown type.
func PeriodEnd(t BreakdownType, p GeneratedPeriod) time.Time {
	return kindOf(t).periodEnd(p.StartDate)
}

// PeriodIDs lists the identifiers of periods, in order.
func PeriodIDs(periods []GeneratedPeriod) []string {
	ids := make([]string, len(periods))
	for i, p := range periods {
		ids[i] = p.ID
	}
	return ids
}

// GroupByBreakdown groups periods by BreakdownID, keeping their order.
func GroupByBreakdown(periods []GeneratedPeriod) map[string][]GeneratedPeriod {
	groups := make(map[string][]GeneratedPeriod)
	for _, p := range periods {
		groups[p.BreakdownID] = append(groups[p.BreakdownID], p)
	}
	return groups
}
