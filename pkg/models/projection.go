package models

// YearDetail is the per-year breakdown behind the two wealth series. All
// monetary fields are cent-rounded.
type YearDetail struct {
	Year            int     `json:"year"`
	PropertyValue   float64 `json:"property_value"`   // market value after appreciation
	MortgageBalance float64 `json:"mortgage_balance"` // remaining principal at year end
	InterestPaid    float64 `json:"interest_paid"`    // mortgage interest paid this year
	PrincipalPaid   float64 `json:"principal_paid"`   // mortgage principal repaid this year
	OwnerOutlay     float64 `json:"owner_outlay"`     // mortgage payments + recurring costs this year
	Rent            float64 `json:"rent"`             // rent paid this year
	OwnerSurplus    float64 `json:"owner_surplus"`    // invested by the buyer when owning was cheaper
	RenterSurplus   float64 `json:"renter_surplus"`   // invested by the renter when renting was cheaper
	BuyPortfolio    float64 `json:"buy_portfolio"`    // buyer's side investment balance
	RentPortfolio   float64 `json:"rent_portfolio"`   // renter's investment balance
	BuyWealth       float64 `json:"buy_wealth"`       // equity + side portfolio
	RentWealth      float64 `json:"rent_wealth"`      // renter portfolio
}

// Projection is the full result of projecting one AssumptionSet: both wealth
// series plus the year-by-year detail table. It is a pure function of the
// assumptions and is recomputed on demand.
type Projection struct {
	Assumptions AssumptionSet `json:"assumptions"`
	Buy         WealthSeries  `json:"buy"`
	Rent        WealthSeries  `json:"rent"`
	Years       []YearDetail  `json:"years"`
}

// FinalWealthDiff is the cent-rounded final-year difference Buy − Rent.
// Positive means buying ends ahead.
func (p *Projection) FinalWealthDiff() float64 {
	return RoundCents(p.Buy.Final().Wealth - p.Rent.Final().Wealth)
}

// FinalLeader is the strategy ahead at the horizon, or StrategyTied when the
// final difference is inside CurrencyTolerance.
func (p *Projection) FinalLeader() Strategy {
	switch CompareMoney(p.Buy.Final().Wealth, p.Rent.Final().Wealth) {
	case 1:
		return StrategyBuy
	case -1:
		return StrategyRent
	}
	return StrategyTied
}
