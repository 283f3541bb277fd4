package models

// Named parameters of an AssumptionSet. The names double as JSON/YAML keys,
// sensitivity-sweep axis identifiers and scenario override keys.
const (
	ParamHorizonYears      = "horizon_years"
	ParamPropertyPrice     = "property_price"
	ParamDownPaymentFrac   = "down_payment_frac"
	ParamMortgageRate      = "mortgage_rate"
	ParamMortgageTermYears = "mortgage_term_years"
	ParamAppreciationRate  = "appreciation_rate"
	ParamRentMonthly       = "rent_monthly"
	ParamRentYield         = "rent_yield"
	ParamRentGrowthRate    = "rent_growth_rate"
	ParamInvestReturnRate  = "invest_return_rate"
	ParamTransactionCosts  = "transaction_costs"
	ParamRecurringAnnual   = "recurring_annual"
)

// SweepableParams lists the parameters a sensitivity sweep or scenario
// override may vary, in display order. The integer-valued horizon and
// mortgage term are deliberately absent: substituting fractional years has
// no defined meaning.
func SweepableParams() []string {
	return []string{
		ParamPropertyPrice,
		ParamDownPaymentFrac,
		ParamMortgageRate,
		ParamAppreciationRate,
		ParamRentMonthly,
		ParamRentYield,
		ParamRentGrowthRate,
		ParamInvestReturnRate,
		ParamTransactionCosts,
		ParamRecurringAnnual,
	}
}

// IsSweepable reports whether name identifies a float-valued parameter that
// WithParam accepts.
func IsSweepable(name string) bool {
	for _, p := range SweepableParams() {
		if p == name {
			return true
		}
	}
	return false
}

// Param returns the current value of the named sweepable parameter.
func (a AssumptionSet) Param(name string) (float64, error) {
	switch name {
	case ParamPropertyPrice:
		return a.PropertyPrice, nil
	case ParamDownPaymentFrac:
		return a.DownPaymentFrac, nil
	case ParamMortgageRate:
		return a.MortgageRate, nil
	case ParamAppreciationRate:
		return a.AppreciationRate, nil
	case ParamRentMonthly:
		return a.RentMonthly, nil
	case ParamRentYield:
		return a.RentYield, nil
	case ParamRentGrowthRate:
		return a.RentGrowthRate, nil
	case ParamInvestReturnRate:
		return a.InvestReturnRate, nil
	case ParamTransactionCosts:
		return a.TransactionCosts, nil
	case ParamRecurringAnnual:
		return a.RecurringAnnual, nil
	}
	return 0, &InvalidAssumptionError{Field: name, Constraint: "unknown or non-sweepable parameter"}
}

// WithParam returns a copy of the set with the named parameter replaced.
// The copy is not validated; callers validate before projecting so that an
// out-of-domain substitution surfaces as that cell's error, not a panic.
func (a AssumptionSet) WithParam(name string, value float64) (AssumptionSet, error) {
	switch name {
	case ParamPropertyPrice:
		a.PropertyPrice = value
	case ParamDownPaymentFrac:
		a.DownPaymentFrac = value
	case ParamMortgageRate:
		a.MortgageRate = value
	case ParamAppreciationRate:
		a.AppreciationRate = value
	case ParamRentMonthly:
		a.RentMonthly = value
	case ParamRentYield:
		a.RentYield = value
	case ParamRentGrowthRate:
		a.RentGrowthRate = value
	case ParamInvestReturnRate:
		a.InvestReturnRate = value
	case ParamTransactionCosts:
		a.TransactionCosts = value
	case ParamRecurringAnnual:
		a.RecurringAnnual = value
	default:
		return a, &InvalidAssumptionError{Field: name, Value: value,
			Constraint: "unknown or non-sweepable parameter"}
	}
	return a, nil
}
