package domain

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/TriB-P/mediabox-sub008/internal/audit"
)

// BreakdownType identifies how a breakdown partitions a tactic's timeline.
type BreakdownType string

const (
	// WeeklyBreakdown cuts the range into Monday-aligned weeks.
	WeeklyBreakdown BreakdownType = "Hebdomadaire"

	// MonthlyBreakdown cuts the range into calendar months.
	MonthlyBreakdown BreakdownType = "Mensuel"

	// PEBsBreakdown is bucketed like WeeklyBreakdown but every period carries a
	// unit cost, a volume and a computed total.
	PEBsBreakdown BreakdownType = "PEBs"

	// CustomBreakdown uses user-named periods instead of dates.
	CustomBreakdown BreakdownType = "Custom"
)

// Breakdown is a named time-partitioning scheme attached to a campaign.
//
// Only the fields relevant to Type are meaningful: Custom breakdowns ignore
// StartDate/EndDate when generating periods, automatic ones ignore
// CustomPeriods.
//
// Example:
//
//	b := Breakdown{
//	    ID:        "bd-cal",
//	    Name:      "Calendrier",
//	    Type:      WeeklyBreakdown,
//	    StartDate: "2024-03-01",
//	    EndDate:   "2024-03-31",
//	    IsDefault: true, // range follows the tactic dates
//	}
type Breakdown struct {
	ID            string           `json:"id" yaml:"id" validate:"required"`
	Name          string           `json:"name" yaml:"name" validate:"required"`
	Type          BreakdownType    `json:"type" yaml:"type" validate:"required,oneof=Hebdomadaire Mensuel PEBs Custom"`
	StartDate     string           `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate       string           `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	IsDefault     bool             `json:"isDefault" yaml:"isDefault"`
	CustomPeriods []CustomPeriod   `json:"customPeriods,omitempty" yaml:"customPeriods,omitempty" validate:"dive"`
	AuditInfo     *audit.AuditInfo `json:"audit,omitempty" yaml:"audit,omitempty"`
}

// CustomPeriod is one user-defined slice of a Custom breakdown.
type CustomPeriod struct {
	ID    string `json:"id" yaml:"id" validate:"required"`
	Name  string `json:"name" yaml:"name" validate:"required"`
	Order int    `json:"order" yaml:"order" validate:"gte=0"`
	Date  string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Tactic owns the date range inherited by the default breakdown.
type Tactic struct {
	ID         string `json:"id" yaml:"id"`
	CampaignID string `json:"campaignId" yaml:"campaignId"`
	StartDate  string `json:"startDate" yaml:"startDate"`
	EndDate    string `json:"endDate" yaml:"endDate"`
}

var validate = validator.New()

// Validate checks struct tags first, then the rules that depend on Type.
func (b *Breakdown) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("breakdown %q: %w", b.ID, err)
	}

	if b.Type == CustomBreakdown {
		if len(b.CustomPeriods) == 0 {
			return fmt.Errorf("breakdown %q: custom breakdown needs at least one period", b.ID)
		}
		if errs := DetectCustomPeriodConflicts(b.CustomPeriods); len(errs) > 0 {
			return fmt.Errorf("breakdown %q: %s", b.ID, errs[0])
		}
		return nil
	}

	if b.StartDate == "" && b.EndDate == "" {
		return nil
	}
	start, okStart := ParseDate(b.StartDate)
	end, okEnd := ParseDate(b.EndDate)
	if !okStart || !okEnd {
		return fmt.Errorf("breakdown %q: start and end dates must both be valid dates", b.ID)
	}
	if start.After(end) {
		return fmt.Errorf("breakdown %q: start date %s is after end date %s", b.ID, FormatISODate(start), FormatISODate(end))
	}
	return nil
}

// DetectCustomPeriodConflicts reports duplicate names and duplicate orders in
// a custom period list. Either would make reconciliation by name or sorting by
// order ambiguous.
//
// Example:
//
//	errs := DetectCustomPeriodConflicts([]CustomPeriod{
//	    {ID: "a", Name: "Lancement", Order: 0},
//	    {ID: "b", Name: "Lancement", Order: 1},
//	})
//	// errs == ["duplicate custom period name \"Lancement\" (a, b)"]
func DetectCustomPeriodConflicts(periods []CustomPeriod) []string {
	sorted := make([]CustomPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	var errs []string
	byName := make(map[string]string, len(sorted))
	for i, p := range sorted {
		if prev, ok := byName[p.Name]; ok {
			errs = append(errs, fmt.Sprintf("duplicate custom period name %q (%s, %s)", p.Name, prev, p.ID))
		} else {
			byName[p.Name] = p.ID
		}

		if i > 0 && sorted[i-1].Order == p.Order {
			errs = append(errs, fmt.Sprintf("custom periods %s and %s share order %d", sorted[i-1].ID, p.ID, p.Order))
		}
	}
	return errs
}

// FindBreakdown returns the breakdown with the given ID, or nil.
func FindBreakdown(breakdowns []Breakdown, id string) *Breakdown {
	for i := range breakdowns {
		if breakdowns[i].ID == id {
			return &breakdowns[i]
		}
	}
	return nil
}

// DefaultBreakdown returns the first breakdown flagged IsDefault, or nil.
func DefaultBreakdown(breakdowns []Breakdown) *Breakdown {
	for i := range breakdowns {
		if breakdowns[i].IsDefault {
			return &breakdowns[i]
		}
	}
	return nil
}

// effectiveRange resolves the dates a breakdown is generated from: the tactic
// dates for a default breakdown when both are given, its own dates otherwise.
func (b *Breakdown) effectiveRange(tacticStart, tacticEnd string) (string, string) {
	if b.IsDefault && tacticStart != "" && tacticEnd != "" {
		return tacticStart, tacticEnd
	}
	return b.StartDate, b.EndDate
}
