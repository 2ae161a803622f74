package domain

import (
	"bytes"
	"encoding/json"
)

// PeriodEntry is the stored value of one period, nested under
// breakdowns[breakdownID].periods[periodID].
//
// Exactly one of Date (automatic types, ISO start date) and Name (Custom) is
// set. An absent IsToggled reads as true.
type PeriodEntry struct {
	Value     string `json:"value" yaml:"value"`
	IsToggled *bool  `json:"isToggled,omitempty" yaml:"isToggled,omitempty"`
	Order     int    `json:"order" yaml:"order"`
	UnitCost  string `json:"unitCost" yaml:"unitCost"`
	Total     string `json:"total" yaml:"total"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Toggled resolves IsToggled, defaulting to true.
func (e PeriodEntry) Toggled() bool {
	return e.IsToggled == nil || *e.IsToggled
}

// PersistedBreakdown is the stored form of one breakdown's values.
type PersistedBreakdown struct {
	Name    string                 `json:"name" yaml:"name"`
	Type    BreakdownType          `json:"type" yaml:"type"`
	Periods map[string]PeriodEntry `json:"periods" yaml:"periods"`
}

// Breakdowns is the nested record kept on the tactic, keyed by breakdown ID.
type Breakdowns map[string]PersistedBreakdown

// Equal compares through full JSON serialization. encoding/json sorts map
// keys, so equal content always yields equal bytes.
func (b Breakdowns) Equal(other Breakdowns) bool {
	left, err := json.Marshal(normalize(b))
	if err != nil {
		return false
	}
	right, err := json.Marshal(normalize(other))
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// nil and empty records serialize differently but mean the same thing.
func normalize(b Breakdowns) Breakdowns {
	if b == nil {
		return Breakdowns{}
	}
	return b
}

// PeriodState is the live editing buffer of one period.
type PeriodState struct {
	Value     string `json:"value"`
	IsToggled bool   `json:"isToggled"`
	UnitCost  string `json:"unitCost"`
	Total     string `json:"total"`
}

// FreshState is what a period starts with when nothing can be reconciled.
func FreshState() PeriodState {
	return PeriodState{IsToggled: true}
}

func stateFromEntry(e PeriodEntry) PeriodState {
	return PeriodState{
		Value:     e.Value,
		IsToggled: e.Toggled(),
		UnitCost:  e.UnitCost,
		Total:     e.Total,
	}
}

// LocalState maps period IDs to their live state.
type LocalState map[string]PeriodState

// Clone returns an independent copy.
func (s LocalState) Clone() LocalState {
	out := make(LocalState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
