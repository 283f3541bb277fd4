package simulate

import (
	"fmt"

	"github.com/lufenny/wealthsim/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Tipping-Point Detection
// ════════════════════════════════════════════════════════════════════

// DetectTippingPoint finds the first year whose cent-rounded sign of
// (buy − rent) differs from the year-0 sign — a strict crossover, not a
// change in magnitude. A year where the difference rounds to zero counts as
// a crossover with the leader "tied". When the two paths start level, the
// first year a lead appears is reported with NoTrueCrossover set: the lead
// was established from parity rather than crossed.
//
// Series must be non-empty and of equal length.
func DetectTippingPoint(buy, rent models.WealthSeries) (models.TippingPoint, error) {
	if buy.Len() == 0 || rent.Len() == 0 {
		return models.TippingPoint{}, fmt.Errorf("tipping point: empty series")
	}
	if buy.Len() != rent.Len() {
		return models.TippingPoint{}, fmt.Errorf("tipping point: series lengths differ (%d vs %d)",
			buy.Len(), rent.Len())
	}

	s0 := models.CompareMoney(buy.Points[0].Wealth, rent.Points[0].Wealth)
	for t := 1; t < buy.Len(); t++ {
		s := models.CompareMoney(buy.Points[t].Wealth, rent.Points[t].Wealth)
		if s == s0 {
			continue
		}
		tp := models.TippingPoint{Found: true, Year: t, NoTrueCrossover: s0 == 0}
		switch s {
		case 1:
			tp.Leader = models.StrategyBuy
		case -1:
			tp.Leader = models.StrategyRent
		default:
			tp.Leader = models.StrategyTied
		}
		return tp, nil
	}
	return models.TippingPoint{}, nil
}
