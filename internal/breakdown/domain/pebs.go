package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var strictNumberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseStrictNumber accepts plain decimal numbers only ("12", "-3.5", "4,25").
// A comma decimal separator is read as a dot. Blank and anything else is
// rejected.
func ParseStrictNumber(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if !strictNumberPattern.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func numberOrZero(s string) decimal.Decimal {
	d, _ := ParseStrictNumber(s)
	return d
}

// CalculatePEBsTotal returns unitCost × volume. Blank or non-numeric operands
// count as 0.
//
// Example:
//
//	CalculatePEBsTotal("10", "5")  // "50"
//	CalculatePEBsTotal("", "5")    // "0"
//	CalculatePEBsTotal("2.5", "3") // "7.5"
func CalculatePEBsTotal(unitCost, volume string) string {
	return numberOrZero(unitCost).Mul(numberOrZero(volume)).String()
}

// Field names a PeriodState field that can be edited.
type Field string

const (
	FieldValue    Field = "value"
	FieldUnitCost Field = "unitCost"
	FieldToggle   Field = "isToggled"
)

// ApplyFieldEdit returns s with field set to value. For breakdown types that
// compute totals (PEBs), editing the value (volume) or the unit cost also
// recomputes Total. The toggle field accepts "true" and "false".
func ApplyFieldEdit(s PeriodState, t BreakdownType, field Field, value string) (PeriodState, error) {
	switch field {
	case FieldValue:
		s.Value = value
	case FieldUnitCost:
		s.UnitCost = value
	case FieldToggle:
		switch value {
		case "true":
			s.IsToggled = true
		case "false":
			s.IsToggled = false
		default:
			return s, fmt.Errorf("toggle value %q must be true or false", value)
		}
		return s, nil
	default:
		return s, fmt.Errorf("unknown period field %q", field)
	}

	if kindOf(t).computesTotals() {
		s.Total = CalculatePEBsTotal(s.UnitCost, s.Value)
	}
	return s, nil
}
