// Package simulate implements the buy-versus-rent wealth engine: monthly
// mortgage amortization, year-by-year wealth projection for both strategies,
// tipping-point detection, named scenario batches and sensitivity sweeps.
// All computation is pure; callers own any parallelism beyond what Runner
// and Analyzer provide.
package simulate

import (
	"math"

	"github.com/lufenny/wealthsim/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Wealth Projection
// ════════════════════════════════════════════════════════════════════

// Project computes the two wealth trajectories for one assumption set.
//
// Wealth convention (applied identically to both paths):
//
//   - Buy wealth = property value − outstanding mortgage + side portfolio.
//     Year 0 is therefore the down payment; transaction costs are sunk.
//   - Rent wealth = the renter's portfolio, seeded at year 0 with the
//     opportunity capital (down payment + transaction costs).
//   - Whichever side pays less in a year invests the difference in the same
//     vehicle at the invested-capital return rate. Surpluses are credited at
//     year end, after that year's portfolio growth.
//
// Recorded values are rounded to the cent; the recurrence itself runs at
// full precision so rounding never compounds.
//
// Errors: InvalidAssumptionError when the set fails validation,
// ProjectionError when no amortization schedule exists, ComputationError
// when a computed value goes non-finite.
func Project(a models.AssumptionSet) (*models.Projection, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	sched, err := NewMortgageSchedule(a.LoanPrincipal(), a.MortgageRate, a.MortgageTermYears)
	if err != nil {
		return nil, err
	}

	horizon := a.HorizonYears
	buyVals := make([]float64, horizon+1)
	rentVals := make([]float64, horizon+1)
	years := make([]models.YearDetail, horizon+1)

	propertyValue := a.PropertyPrice
	balance := a.LoanPrincipal()
	buyPortfolio := 0.0
	rentPortfolio := a.OpportunityCapital()

	buyVals[0] = models.RoundCents(propertyValue - balance)
	rentVals[0] = models.RoundCents(rentPortfolio)
	years[0] = models.YearDetail{
		Year:            0,
		PropertyValue:   models.RoundCents(propertyValue),
		MortgageBalance: models.RoundCents(balance),
		RentPortfolio:   models.RoundCents(rentPortfolio),
		BuyWealth:       buyVals[0],
		RentWealth:      rentVals[0],
	}

	for t := 1; t <= horizon; t++ {
		propertyValue *= 1 + a.AppreciationRate

		var yearInterest, yearPrincipal, yearPayment float64
		for m := 0; m < models.MonthsPerYear && balance > 0; m++ {
			interest, principal, payment := sched.Step(balance)
			balance -= principal
			yearInterest += interest
			yearPrincipal += principal
			yearPayment += payment
		}

		ownerOutlay := yearPayment + a.RecurringAnnual
		rent := rentForYear(a, t, propertyValue)

		var ownerSurplus, renterSurplus float64
		if gap := ownerOutlay - rent; gap > 0 {
			renterSurplus = gap
		} else {
			ownerSurplus = -gap
		}

		buyPortfolio = buyPortfolio*(1+a.InvestReturnRate) + ownerSurplus
		rentPortfolio = rentPortfolio*(1+a.InvestReturnRate) + renterSurplus

		buyWealth := propertyValue - balance + buyPortfolio
		rentWealth := rentPortfolio
		if !isFinite(buyWealth) {
			return nil, &ComputationError{Quantity: "buy wealth", Year: t}
		}
		if !isFinite(rentWealth) {
			return nil, &ComputationError{Quantity: "rent wealth", Year: t}
		}

		buyVals[t] = models.RoundCents(buyWealth)
		rentVals[t] = models.RoundCents(rentWealth)
		years[t] = models.YearDetail{
			Year:            t,
			PropertyValue:   models.RoundCents(propertyValue),
			MortgageBalance: models.RoundCents(balance),
			InterestPaid:    models.RoundCents(yearInterest),
			PrincipalPaid:   models.RoundCents(yearPrincipal),
			OwnerOutlay:     models.RoundCents(ownerOutlay),
			Rent:            models.RoundCents(rent),
			OwnerSurplus:    models.RoundCents(ownerSurplus),
			RenterSurplus:   models.RoundCents(renterSurplus),
			BuyPortfolio:    models.RoundCents(buyPortfolio),
			RentPortfolio:   models.RoundCents(rentPortfolio),
			BuyWealth:       buyVals[t],
			RentWealth:      rentVals[t],
		}
	}

	return &models.Projection{
		Assumptions: a,
		Buy:         models.NewWealthSeries(models.StrategyBuy, buyVals),
		Rent:        models.NewWealthSeries(models.StrategyRent, rentVals),
		Years:       years,
	}, nil
}

// rentForYear returns the rent expense for year t (1-based). In monthly mode
// rent compounds by the growth rate from its first-year level; in yield mode
// it is a fixed fraction of the current property value.
func rentForYear(a models.AssumptionSet, t int, propertyValue float64) float64 {
	if a.RentYield > 0 {
		return a.RentYield * propertyValue
	}
	return models.MonthsPerYear * a.RentMonthly * math.Pow(1+a.RentGrowthRate, float64(t-1))
}
