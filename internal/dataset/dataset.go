// Package dataset loads the historical market-rate table backing the
// simulation defaults.
//
// The table is annual Malaysian market data: house price growth, EPF
// dividend rate, average overnight policy rate (OPR) and gross rental
// yield, all recorded in percent. A cleaned copy ships embedded in the
// binary; callers may load their own CSV with the same columns. Derived
// assumptions are the column means converted to fractions, with a lending
// spread added to the policy rate to produce the mortgage rate.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lufenny/wealthsim/pkg/models"
)

// Column names expected in a rates CSV. All values are percentages.
const (
	ColYear        = "Year"
	ColPriceGrowth = "PriceGrowth"
	ColEPF         = "EPF"
	ColOPR         = "OPR_avg"
	ColRentYield   = "RentYield"
)

// DefaultSpread is the lending margin banks charge over the policy rate,
// used when deriving the mortgage rate.
const DefaultSpread = 0.02

// Illustrative fallbacks used when a table carries no usable observations.
const (
	fallbackGrowth   = 0.03
	fallbackInvest   = 0.06
	fallbackMortgage = 0.05
	fallbackYield    = 0.04
)

//go:embed data/rates.csv
var embeddedRates []byte

// Row is one year of market observations, in percent.
type Row struct {
	Year        int     `json:"year"`
	PriceGrowth float64 `json:"price_growth"`
	EPF         float64 `json:"epf"`
	OPR         float64 `json:"opr_avg"`
	RentYield   float64 `json:"rent_yield"`
}

// Table is a cleaned market-rate dataset in source order.
type Table struct {
	Rows []Row `json:"rows"`
}

// Years reports the first and last year covered by the table.
// Both are zero for an empty table.
func (t *Table) Years() (first, last int) {
	for i, r := range t.Rows {
		if i == 0 || r.Year < first {
			first = r.Year
		}
		if i == 0 || r.Year > last {
			last = r.Year
		}
	}
	return first, last
}

// Default returns the rates table embedded in the binary.
func Default() *Table {
	t, err := Load(bytes.NewReader(embeddedRates))
	if err != nil {
		log.Fatalf("dataset.Default: %v", err)
	}
	return t
}

// Load parses a rates CSV from r. The first record must be a header carrying
// the required columns; extra columns are ignored. Rows with missing or
// non-numeric values are dropped, mirroring how the source table is cleaned
// before use.
func Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset: empty input")
	}

	header := records[0]
	yearIdx := findColumn(header, ColYear)
	growthIdx := findColumn(header, ColPriceGrowth)
	epfIdx := findColumn(header, ColEPF)
	oprIdx := findColumn(header, ColOPR)
	yieldIdx := findColumn(header, ColRentYield)
	for _, c := range []struct {
		name string
		idx  int
	}{
		{ColYear, yearIdx},
		{ColPriceGrowth, growthIdx},
		{ColEPF, epfIdx},
		{ColOPR, oprIdx},
		{ColRentYield, yieldIdx},
	} {
		if c.idx < 0 {
			return nil, fmt.Errorf("dataset: missing column %q", c.name)
		}
	}

	t := &Table{}
	for _, row := range records[1:] {
		if len(row) <= yearIdx || len(row) <= growthIdx || len(row) <= epfIdx ||
			len(row) <= oprIdx || len(row) <= yieldIdx {
			continue
		}
		year, ok := parseYear(row[yearIdx])
		if !ok {
			continue
		}
		growth, ok1 := parseField(row[growthIdx])
		epf, ok2 := parseField(row[epfIdx])
		opr, ok3 := parseField(row[oprIdx])
		yield, ok4 := parseField(row[yieldIdx])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		t.Rows = append(t.Rows, Row{
			Year:        year,
			PriceGrowth: growth,
			EPF:         epf,
			OPR:         opr,
			RentYield:   yield,
		})
	}
	return t, nil
}

// LoadFile reads a rates CSV from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Derived bundles the assumption defaults computed from a rates table.
type Derived struct {
	AppreciationRate float64 `json:"appreciation_rate"`
	InvestReturnRate float64 `json:"invest_return_rate"`
	MortgageRate     float64 `json:"mortgage_rate"`
	RentYield        float64 `json:"rent_yield"`
	Spread           float64 `json:"spread"`
	FromData         bool    `json:"from_data"`
}

// Derive computes assumption defaults from t: per-column means converted
// from percent, with spread added to the mean policy rate to form the
// mortgage rate. A nil or empty table yields the illustrative fallbacks.
func Derive(t *Table, spread float64) Derived {
	d := Derived{
		AppreciationRate: fallbackGrowth,
		InvestReturnRate: fallbackInvest,
		MortgageRate:     fallbackMortgage,
		RentYield:        fallbackYield,
		Spread:           spread,
	}
	if t == nil || len(t.Rows) == 0 {
		return d
	}

	var growth, epf, opr, yield float64
	for _, r := range t.Rows {
		growth += r.PriceGrowth
		epf += r.EPF
		opr += r.OPR
		yield += r.RentYield
	}
	n := float64(len(t.Rows))
	d.AppreciationRate = growth / n / 100
	d.InvestReturnRate = epf / n / 100
	d.MortgageRate = opr/n/100 + spread
	d.RentYield = yield / n / 100
	d.FromData = true
	return d
}

// Apply overlays the derived market rates on base. Rent switches to the
// yield basis so the rent path tracks the derived rental yield, which is
// how the historical table expresses rents.
func (d Derived) Apply(base models.AssumptionSet) models.AssumptionSet {
	out := base
	out.AppreciationRate = d.AppreciationRate
	out.InvestReturnRate = d.InvestReturnRate
	out.MortgageRate = d.MortgageRate
	out.RentYield = d.RentYield
	out.RentMonthly = 0
	out.RentGrowthRate = 0
	return out
}

// findColumn returns the index of a column name in the header, or -1.
func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// parseField parses one numeric cell, treating blanks and NA markers as
// missing.
func parseField(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "na") || strings.EqualFold(s, "nan") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseYear accepts integral year cells, including float renderings such
// as "2015.0".
func parseYear(s string) (int, bool) {
	v, ok := parseField(s)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}
