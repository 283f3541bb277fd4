package models

import "fmt"

// TippingPoint marks the first year at which the cent-rounded sign of
// (Buy − Rent) differs from its year-0 sign. The zero value means no
// crossover occurred within the horizon.
type TippingPoint struct {
	Found bool `json:"found"`
	// Year is the first index > 0 whose sign differs from year 0's.
	Year int `json:"year,omitempty"`
	// Leader is the strategy ahead at Year (StrategyTied when the
	// difference rounds to zero there).
	Leader Strategy `json:"leader,omitempty"`
	// NoTrueCrossover is set when the two paths started level, so the lead
	// at Year was established from parity rather than crossed.
	NoTrueCrossover bool `json:"no_true_crossover,omitempty"`
}

// None is the no-crossover sentinel.
func (t TippingPoint) None() bool { return !t.Found }

func (t TippingPoint) String() string {
	if !t.Found {
		return "none"
	}
	switch {
	case t.Leader == StrategyTied:
		return fmt.Sprintf("year %d (tied)", t.Year)
	case t.NoTrueCrossover:
		return fmt.Sprintf("year %d (%s pulls ahead from an even start)", t.Year, t.Leader)
	default:
		return fmt.Sprintf("year %d (%s overtakes)", t.Year, t.Leader)
	}
}
