package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
)

// Fixture is the offline input of the periods, reconcile and distribute
// commands.
type Fixture struct {
	Tactic     domain.Tactic      `yaml:"tactic" json:"tactic"`
	Breakdowns []domain.Breakdown `yaml:"breakdowns" json:"breakdowns"`
	Persisted  domain.Breakdowns  `yaml:"persisted" json:"persisted"`
}

// LoadFixture reads a YAML or JSON fixture and validates its breakdowns.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	for i := range fx.Breakdowns {
		if err := fx.Breakdowns[i].Validate(); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", path, err)
		}
	}
	return &fx, nil
}

// periodView is how a generated period is printed.
type periodView struct {
	ID        string `yaml:"id" json:"id"`
	Breakdown string `yaml:"breakdown" json:"breakdown"`
	Label     string `yaml:"label" json:"label"`
	StartDate string `yaml:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   string `yaml:"endDate,omitempty" json:"endDate,omitempty"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	First     bool   `yaml:"first,omitempty" json:"first,omitempty"`
	Last      bool   `yaml:"last,omitempty" json:"last,omitempty"`
}

func viewPeriods(breakdowns []domain.Breakdown, periods []domain.GeneratedPeriod) []periodView {
	views := make([]periodView, 0, len(periods))
	for _, p := range periods {
		v := periodView{
			ID:        p.ID,
			Breakdown: p.BreakdownID,
			Label:     p.Label,
			Name:      p.PeriodName,
			First:     p.IsFirst,
			Last:      p.IsLast,
		}
		if p.HasStartDate() {
			v.StartDate = domain.FormatISODate(p.StartDate)
			if b := domain.FindBreakdown(breakdowns, p.BreakdownID); b != nil {
				v.EndDate = domain.FormatISODate(domain.PeriodEnd(b.Type, p))
			}
		}
		views = append(views, v)
	}
	return views
}

func write(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
