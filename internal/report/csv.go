package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/lufenny/wealthsim/internal/dataset"
	"github.com/lufenny/wealthsim/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// CSV renderers — column layouts stable for spreadsheet import
// ════════════════════════════════════════════════════════════════════

// csvMoney renders a monetary value with two decimals.
func csvMoney(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// csvValue renders an axis or rate value with minimal digits.
func csvValue(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func flushCSV(w *csv.Writer, buf *bytes.Buffer) (string, error) {
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("report: write csv: %w", err)
	}
	return buf.String(), nil
}

// projectionCSV emits one row per projected year with the full year detail.
func projectionCSV(p *models.Projection) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{
		"Year", "PropertyValue", "MortgageBalance", "InterestPaid", "PrincipalPaid",
		"OwnerOutlay", "Rent", "OwnerSurplus", "RenterSurplus",
		"BuyPortfolio", "RentPortfolio", "BuyWealth", "RentWealth",
	})
	for _, y := range p.Years {
		w.Write([]string{
			strconv.Itoa(y.Year),
			csvMoney(y.PropertyValue), csvMoney(y.MortgageBalance),
			csvMoney(y.InterestPaid), csvMoney(y.PrincipalPaid),
			csvMoney(y.OwnerOutlay), csvMoney(y.Rent),
			csvMoney(y.OwnerSurplus), csvMoney(y.RenterSurplus),
			csvMoney(y.BuyPortfolio), csvMoney(y.RentPortfolio),
			csvMoney(y.BuyWealth), csvMoney(y.RentWealth),
		})
	}
	return flushCSV(w, &buf)
}

// batchCSV emits one summary row per scenario, failures included.
func batchCSV(b *models.BatchResult) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{
		"Scenario", "FinalBuyWealth", "FinalRentWealth", "FinalWealthDiff",
		"FinalLeader", "TippingYear", "TippingLeader", "Error",
	})
	for _, o := range b.Outcomes {
		if !o.OK() {
			w.Write([]string{o.Name, "", "", "", "", "", "", o.Err.Error()})
			continue
		}
		p := o.Result.Projection
		tp := o.Result.TippingPoint
		tipYear, tipLeader := "", ""
		if tp.Found {
			tipYear = strconv.Itoa(tp.Year)
			tipLeader = string(tp.Leader)
		}
		w.Write([]string{
			o.Name,
			csvMoney(p.Buy.Final().Wealth), csvMoney(p.Rent.Final().Wealth),
			csvMoney(p.FinalWealthDiff()), string(p.FinalLeader()),
			tipYear, tipLeader, "",
		})
	}
	return flushCSV(w, &buf)
}

// gridCSV emits one row per cell in row-major order. The leading columns
// carry the swept parameter values, named after the axes.
func gridCSV(g *models.SensitivityGrid) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(g.Axes)+4)
	for _, ax := range g.Axes {
		header = append(header, ax.Param)
	}
	header = append(header, "FinalWealthDiff", "FinalLeader", "TippingYear", "Error")
	w.Write(header)

	for _, c := range g.Cells {
		rec := make([]string, 0, len(header))
		for _, v := range c.Params {
			rec = append(rec, csvValue(v))
		}
		if !c.OK() {
			rec = append(rec, "", "", "", c.Err.Error())
		} else {
			tipYear := ""
			if c.TippingYear >= 0 {
				tipYear = strconv.Itoa(c.TippingYear)
			}
			rec = append(rec, csvMoney(c.FinalWealthDiff), string(c.FinalLeader), tipYear, "")
		}
		w.Write(rec)
	}
	return flushCSV(w, &buf)
}

// ratesCSV round-trips the historical table in its source column layout.
func ratesCSV(t *dataset.Table) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{dataset.ColYear, dataset.ColPriceGrowth, dataset.ColEPF, dataset.ColOPR, dataset.ColRentYield})
	for _, r := range t.Rows {
		w.Write([]string{
			strconv.Itoa(r.Year),
			csvValue(r.PriceGrowth), csvValue(r.EPF), csvValue(r.OPR), csvValue(r.RentYield),
		})
	}
	return flushCSV(w, &buf)
}
