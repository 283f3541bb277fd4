// Package models defines the core data structures of the wealthsim engine:
// the validated AssumptionSet, wealth trajectories, tipping points, scenario
// batches and sensitivity grids.
package models

import (
	"fmt"
	"math"
)

// Validation bounds for AssumptionSet fields. Rates are fractional annual
// rates (0.04 = 4%).
const (
	MaxHorizonYears      = 200
	MaxMortgageTermYears = 100
	RateLowerBound       = -0.5
	RateUpperBound       = 1.0
)

// AssumptionSet is the complete, validated bundle of economic inputs for one
// simulation run. It is an immutable value object: all fields are plain
// scalars, equality is value equality (==), and the With* helpers return
// modified copies.
type AssumptionSet struct {
	HorizonYears      int     `json:"horizon_years"       yaml:"horizon_years"`       // projection horizon, 1..200
	PropertyPrice     float64 `json:"property_price"      yaml:"property_price"`      // initial purchase price, > 0
	DownPaymentFrac   float64 `json:"down_payment_frac"   yaml:"down_payment_frac"`   // fraction of price paid up front, 0..1
	MortgageRate      float64 `json:"mortgage_rate"       yaml:"mortgage_rate"`       // annual fixed rate, 0..1
	MortgageTermYears int     `json:"mortgage_term_years" yaml:"mortgage_term_years"` // amortization term; >= 1 when a loan exists
	AppreciationRate  float64 `json:"appreciation_rate"   yaml:"appreciation_rate"`   // annual property appreciation, may be negative
	RentMonthly       float64 `json:"rent_monthly"        yaml:"rent_monthly"`        // first-year monthly rent, >= 0
	RentYield         float64 `json:"rent_yield"          yaml:"rent_yield"`          // alternative rent basis: annual gross yield on current value
	RentGrowthRate    float64 `json:"rent_growth_rate"    yaml:"rent_growth_rate"`    // annual rent growth; must be 0 in yield mode
	InvestReturnRate  float64 `json:"invest_return_rate"  yaml:"invest_return_rate"`  // annual return on invested capital (EPF-like)
	TransactionCosts  float64 `json:"transaction_costs"   yaml:"transaction_costs"`   // one-time buy-side costs, >= 0
	RecurringAnnual   float64 `json:"recurring_annual"    yaml:"recurring_annual"`    // yearly owner costs (maintenance, quit rent, insurance)
}

// DefaultAssumptions returns the documented baseline: a 30-year view of a
// RM500k property bought with 10% down on a 4%/30y mortgage, against
// RM1,500/month rent growing 2% a year with capital earning 5%.
func DefaultAssumptions() AssumptionSet {
	return AssumptionSet{
		HorizonYears:      30,
		PropertyPrice:     500000,
		DownPaymentFrac:   0.10,
		MortgageRate:      0.04,
		MortgageTermYears: 30,
		AppreciationRate:  0.03,
		RentMonthly:       1500,
		RentGrowthRate:    0.02,
		InvestReturnRate:  0.05,
	}
}

// InvalidAssumptionError reports a single field that failed validation,
// naming the violated constraint. Validation never defaults a bad value.
type InvalidAssumptionError struct {
	Field      string  // parameter name, e.g. "down_payment_frac"
	Constraint string  // human-readable constraint, e.g. "must be within [0, 1]"
	Value      float64 // offending value
}

func (e *InvalidAssumptionError) Error() string {
	return fmt.Sprintf("invalid assumption %s = %g: %s", e.Field, e.Value, e.Constraint)
}

// Validate checks every field against its domain and returns an
// InvalidAssumptionError for the first violation found. A nil return means
// the set is safe to project.
func (a AssumptionSet) Validate() error {
	if a.HorizonYears <= 0 || a.HorizonYears > MaxHorizonYears {
		return &InvalidAssumptionError{Field: ParamHorizonYears, Value: float64(a.HorizonYears),
			Constraint: fmt.Sprintf("must be within [1, %d] years", MaxHorizonYears)}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{ParamPropertyPrice, a.PropertyPrice},
		{ParamDownPaymentFrac, a.DownPaymentFrac},
		{ParamMortgageRate, a.MortgageRate},
		{ParamAppreciationRate, a.AppreciationRate},
		{ParamRentMonthly, a.RentMonthly},
		{ParamRentYield, a.RentYield},
		{ParamRentGrowthRate, a.RentGrowthRate},
		{ParamInvestReturnRate, a.InvestReturnRate},
		{ParamTransactionCosts, a.TransactionCosts},
		{ParamRecurringAnnual, a.RecurringAnnual},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &InvalidAssumptionError{Field: f.name, Value: f.value,
				Constraint: "must be a finite number"}
		}
	}
	if a.PropertyPrice <= 0 {
		return &InvalidAssumptionError{Field: ParamPropertyPrice, Value: a.PropertyPrice,
			Constraint: "must be positive"}
	}
	if a.DownPaymentFrac < 0 || a.DownPaymentFrac > 1 {
		return &InvalidAssumptionError{Field: ParamDownPaymentFrac, Value: a.DownPaymentFrac,
			Constraint: "must be within [0, 1]"}
	}
	if a.MortgageRate < 0 || a.MortgageRate > RateUpperBound {
		return &InvalidAssumptionError{Field: ParamMortgageRate, Value: a.MortgageRate,
			Constraint: fmt.Sprintf("must be within [0, %g]", RateUpperBound)}
	}
	if a.HasLoan() {
		if a.MortgageTermYears < 1 || a.MortgageTermYears > MaxMortgageTermYears {
			return &InvalidAssumptionError{Field: ParamMortgageTermYears, Value: float64(a.MortgageTermYears),
				Constraint: fmt.Sprintf("must be within [1, %d] years when a loan exists", MaxMortgageTermYears)}
		}
	} else if a.MortgageTermYears < 0 || a.MortgageTermYears > MaxMortgageTermYears {
		return &InvalidAssumptionError{Field: ParamMortgageTermYears, Value: float64(a.MortgageTermYears),
			Constraint: fmt.Sprintf("must be within [0, %d] years", MaxMortgageTermYears)}
	}
	if a.AppreciationRate < RateLowerBound || a.AppreciationRate > RateUpperBound {
		return &InvalidAssumptionError{Field: ParamAppreciationRate, Value: a.AppreciationRate,
			Constraint: fmt.Sprintf("must be within [%g, %g]", RateLowerBound, RateUpperBound)}
	}
	if a.RentMonthly < 0 {
		return &InvalidAssumptionError{Field: ParamRentMonthly, Value: a.RentMonthly,
			Constraint: "must be non-negative"}
	}
	if a.RentYield < 0 || a.RentYield > 1 {
		return &InvalidAssumptionError{Field: ParamRentYield, Value: a.RentYield,
			Constraint: "must be within [0, 1]"}
	}
	if a.RentMonthly > 0 && a.RentYield > 0 {
		return &InvalidAssumptionError{Field: ParamRentYield, Value: a.RentYield,
			Constraint: "only one rent basis may be set: rent_monthly or rent_yield"}
	}
	if a.RentGrowthRate < RateLowerBound || a.RentGrowthRate > RateUpperBound {
		return &InvalidAssumptionError{Field: ParamRentGrowthRate, Value: a.RentGrowthRate,
			Constraint: fmt.Sprintf("must be within [%g, %g]", RateLowerBound, RateUpperBound)}
	}
	if a.RentYield > 0 && a.RentGrowthRate != 0 {
		return &InvalidAssumptionError{Field: ParamRentGrowthRate, Value: a.RentGrowthRate,
			Constraint: "must be 0 in rent-yield mode (yield already tracks property value)"}
	}
	if a.InvestReturnRate < RateLowerBound || a.InvestReturnRate > RateUpperBound {
		return &InvalidAssumptionError{Field: ParamInvestReturnRate, Value: a.InvestReturnRate,
			Constraint: fmt.Sprintf("must be within [%g, %g]", RateLowerBound, RateUpperBound)}
	}
	if a.TransactionCosts < 0 {
		return &InvalidAssumptionError{Field: ParamTransactionCosts, Value: a.TransactionCosts,
			Constraint: "must be non-negative"}
	}
	if a.RecurringAnnual < 0 {
		return &InvalidAssumptionError{Field: ParamRecurringAnnual, Value: a.RecurringAnnual,
			Constraint: "must be non-negative"}
	}
	return nil
}

// HasLoan reports whether the purchase is financed (down payment below 100%).
func (a AssumptionSet) HasLoan() bool {
	return a.DownPaymentFrac < 1 && a.PropertyPrice > 0
}

// DownPayment is the up-front equity payment in currency terms.
func (a AssumptionSet) DownPayment() float64 {
	return a.PropertyPrice * a.DownPaymentFrac
}

// LoanPrincipal is the financed portion of the purchase price.
func (a AssumptionSet) LoanPrincipal() float64 {
	return a.PropertyPrice - a.DownPayment()
}

// OpportunityCapital is the cash a renter keeps invested instead of buying:
// the down payment plus one-time transaction costs.
func (a AssumptionSet) OpportunityCapital() float64 {
	return a.DownPayment() + a.TransactionCosts
}
