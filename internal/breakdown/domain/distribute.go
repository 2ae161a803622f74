package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned when a distribution total is not a number.
	ErrInvalidAmount = errors.New("amount is not a valid number")

	// ErrNoTargets is returned when no period is eligible for a distribution.
	ErrNoTargets = errors.New("no period matches the distribution range")
)

// DistributionRequest describes a manual "spread this amount" action.
type DistributionRequest struct {
	Breakdown  Breakdown         // breakdown receiving the amount
	Breakdowns []Breakdown       // all breakdowns, to locate the default one
	Periods    []GeneratedPeriod // all generated periods, any breakdown
	State      LocalState        // live toggles
	StartDate  string
	EndDate    string
}

// DistributionTargets returns the periods of req.Breakdown that a distribution
// over [StartDate, EndDate] should fill.
//
// For a non-default Weekly or PEBs breakdown, periods starting on the same day
// as a deactivated period of the default breakdown are skipped as well.
// Monthly and Custom breakdowns do not follow the default toggles.
func DistributionTargets(req DistributionRequest) []GeneratedPeriod {
	own := make([]GeneratedPeriod, 0)
	for _, p := range req.Periods {
		if p.BreakdownID == req.Breakdown.ID {
			own = append(own, p)
		}
	}

	targets := FilterPeriodsByRange(own, req.StartDate, req.EndDate, &req.Breakdown)

	if req.Breakdown.IsDefault || !kindOf(req.Breakdown.Type).followsDefaultToggles() {
		return targets
	}
	def := DefaultBreakdown(req.Breakdowns)
	if def == nil || def.ID == req.Breakdown.ID {
		return targets
	}

	inactive := make(map[string]struct{})
	for _, p := range req.Periods {
		if p.BreakdownID != def.ID || !p.HasStartDate() {
			continue
		}
		if s, ok := req.State[p.ID]; ok && !s.IsToggled {
			inactive[FormatISODate(p.StartDate)] = struct{}{}
		}
	}
	if len(inactive) == 0 {
		return targets
	}

	kept := targets[:0]
	for _, p := range targets {
		if p.HasStartDate() {
			if _, off := inactive[FormatISODate(p.StartDate)]; off {
				continue
			}
		}
		kept = append(kept, p)
	}
	return kept
}

// DistributeAmount splits total evenly across targets, rounded to cents. The
// last target absorbs the rounding remainder so the parts add up to total.
//
// Example:
//
//	parts, _ := DistributeAmount("100", targets) // three targets
//	// "33.33", "33.33", "33.34"
func DistributeAmount(total string, targets []GeneratedPeriod) (map[string]string, error) {
	amount, ok := ParseStrictNumber(total)
	if !ok {
		return nil, fmt.Errorf("distribute %q: %w", total, ErrInvalidAmount)
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	n := decimal.NewFromInt(int64(len(targets)))
	share := amount.DivRound(n, 2)
	rest := amount.Sub(share.Mul(n.Sub(decimal.NewFromInt(1))))

	parts := make(map[string]string, len(targets))
	for i, p := range targets {
		if i == len(targets)-1 {
			parts[p.ID] = rest.String()
			continue
		}
		parts[p.ID] = share.String()
	}
	return parts, nil
}
