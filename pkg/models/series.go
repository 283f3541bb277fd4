package models

import "math"

// Strategy identifies one of the two competing wealth strategies.
type Strategy string

const (
	StrategyBuy  Strategy = "buy"  // buy a home, build equity
	StrategyRent Strategy = "rent" // rent and invest the difference
	// StrategyTied marks a comparison whose difference rounds to zero.
	StrategyTied Strategy = "tied"
)

// WealthPoint is one (year, net wealth) sample of a trajectory.
type WealthPoint struct {
	Year   int     `json:"year"`
	Wealth float64 `json:"wealth"` // cent-rounded net wealth
}

// WealthSeries is the year-indexed net-wealth trajectory of one strategy.
// Points run from year 0 (initial state) to the horizon, strictly increasing
// in year. A series is immutable once produced.
type WealthSeries struct {
	Strategy Strategy      `json:"strategy"`
	Points   []WealthPoint `json:"points"`
}

// NewWealthSeries builds a series from year-indexed values (index = year).
func NewWealthSeries(strategy Strategy, values []float64) WealthSeries {
	points := make([]WealthPoint, len(values))
	for i, v := range values {
		points[i] = WealthPoint{Year: i, Wealth: v}
	}
	return WealthSeries{Strategy: strategy, Points: points}
}

// Len returns the number of points (horizon + 1 for a projected series).
func (s WealthSeries) Len() int { return len(s.Points) }

// At returns the wealth at the given year; ok is false when the year is
// outside the series.
func (s WealthSeries) At(year int) (float64, bool) {
	if year < 0 || year >= len(s.Points) {
		return 0, false
	}
	return s.Points[year].Wealth, true
}

// Final returns the last point of the series. The zero point is returned for
// an empty series.
func (s WealthSeries) Final() WealthPoint {
	if len(s.Points) == 0 {
		return WealthPoint{}
	}
	return s.Points[len(s.Points)-1]
}

// Values returns the wealth values in year order.
func (s WealthSeries) Values() []float64 {
	vals := make([]float64, len(s.Points))
	for i, p := range s.Points {
		vals[i] = p.Wealth
	}
	return vals
}

// CAGR returns the compound annual growth rate from year 0 to the given
// year: (W_t / W_0)^(1/t) − 1. It returns 0 when the rate is undefined
// (year 0, or a non-positive wealth at either end).
func (s WealthSeries) CAGR(year int) float64 {
	if year <= 0 || year >= len(s.Points) {
		return 0
	}
	w0 := s.Points[0].Wealth
	wt := s.Points[year].Wealth
	if w0 <= 0 || wt <= 0 {
		return 0
	}
	return math.Pow(wt/w0, 1/float64(year)) - 1
}

// FinalCAGR is the CAGR over the full horizon.
func (s WealthSeries) FinalCAGR() float64 {
	return s.CAGR(len(s.Points) - 1)
}

// WealthIndex returns the series rebased to 100 at year 0, the conventional
// comparison view across scenarios. A series starting at or below zero
// yields all zeros.
func (s WealthSeries) WealthIndex() []float64 {
	idx := make([]float64, len(s.Points))
	if len(s.Points) == 0 || s.Points[0].Wealth <= 0 {
		return idx
	}
	base := s.Points[0].Wealth
	for i, p := range s.Points {
		idx[i] = 100 * p.Wealth / base
	}
	return idx
}
