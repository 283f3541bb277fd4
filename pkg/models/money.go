package models

import "math"

// Monetary constants shared by the projection and comparison code.
// All recorded wealth values are rounded to the nearest cent; two amounts
// closer than CurrencyTolerance are treated as equal.
const (
	// MonthsPerYear is the number of monthly mortgage installments per year.
	MonthsPerYear = 12

	// CurrencyTolerance is the half-cent band inside which two monetary
	// values compare as equal. Keeping it below one cent avoids spurious
	// tipping points from rounding asymmetry.
	CurrencyTolerance = 0.005
)

// RoundCents rounds a monetary value to the nearest cent.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CompareMoney returns -1, 0 or +1 for a versus b, treating differences
// within CurrencyTolerance as zero.
func CompareMoney(a, b float64) int {
	d := a - b
	if math.Abs(d) <= CurrencyTolerance {
		return 0
	}
	if d > 0 {
		return 1
	}
	return -1
}
