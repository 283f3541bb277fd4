package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lufenny/wealthsim/internal/dataset"
	"github.com/lufenny/wealthsim/pkg/models"
	"github.com/lufenny/wealthsim/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Rendering — text, CSV and JSON for every result shape
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat normalizes a user-supplied format name. The empty string
// means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, csv or json)", s)
	}
}

// Config controls report rendering behaviour.
type Config struct {
	Format  Format // output format (default: text)
	Title   string // custom report title (optional)
	Compact bool   // abbreviate currency in text summaries (RM 1.25M)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Format: FormatText}
}

// money returns the currency formatter selected by the config.
func (c Config) money() func(float64) string {
	if c.Compact {
		return utils.FormatMYRCompact
	}
	return utils.FormatMYR
}

// title returns the configured title, or fallback when unset.
func (c Config) title(fallback string) string {
	if c.Title != "" {
		return c.Title
	}
	return fallback
}

// ════════════════════════════════════════════════════════════════════
// Renderers — one per result shape
// ════════════════════════════════════════════════════════════════════

// RenderProjection renders a single buy-vs-rent projection together with
// its tipping point.
func RenderProjection(p *models.Projection, tp models.TippingPoint, cfg Config) (string, error) {
	if p == nil {
		return "", fmt.Errorf("report: nil projection")
	}
	switch cfg.Format {
	case FormatText, "":
		return projectionText(p, tp, cfg), nil
	case FormatCSV:
		return projectionCSV(p)
	case FormatJSON:
		return marshalJSON(struct {
			Projection   *models.Projection  `json:"projection"`
			TippingPoint models.TippingPoint `json:"tipping_point"`
		}{p, tp})
	default:
		return "", fmt.Errorf("report: unsupported format %q", cfg.Format)
	}
}

// RenderBatch renders the outcomes of a scenario batch.
func RenderBatch(b *models.BatchResult, cfg Config) (string, error) {
	if b == nil {
		return "", fmt.Errorf("report: nil batch result")
	}
	switch cfg.Format {
	case FormatText, "":
		return batchText(b, cfg), nil
	case FormatCSV:
		return batchCSV(b)
	case FormatJSON:
		return marshalJSON(b)
	default:
		return "", fmt.Errorf("report: unsupported format %q", cfg.Format)
	}
}

// RenderGrid renders a sensitivity grid.
func RenderGrid(g *models.SensitivityGrid, cfg Config) (string, error) {
	if g == nil {
		return "", fmt.Errorf("report: nil sensitivity grid")
	}
	switch cfg.Format {
	case FormatText, "":
		return gridText(g, cfg), nil
	case FormatCSV:
		return gridCSV(g)
	case FormatJSON:
		return marshalJSON(g)
	default:
		return "", fmt.Errorf("report: unsupported format %q", cfg.Format)
	}
}

// RenderRates renders the historical rate table and the assumptions
// derived from it.
func RenderRates(t *dataset.Table, d dataset.Derived, cfg Config) (string, error) {
	if t == nil {
		return "", fmt.Errorf("report: nil rate table")
	}
	switch cfg.Format {
	case FormatText, "":
		return ratesText(t, d, cfg), nil
	case FormatCSV:
		return ratesCSV(t)
	case FormatJSON:
		return marshalJSON(struct {
			Rows    []dataset.Row   `json:"rows"`
			Derived dataset.Derived `json:"derived"`
		}{t.Rows, d})
	default:
		return "", fmt.Errorf("report: unsupported format %q", cfg.Format)
	}
}

func marshalJSON(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal json: %w", err)
	}
	return string(out) + "\n", nil
}

// ════════════════════════════════════════════════════════════════════
// Text renderers
// ════════════════════════════════════════════════════════════════════

func projectionText(p *models.Projection, tp models.TippingPoint, cfg Config) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)
	money := cfg.money()
	a := p.Assumptions

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", cfg.title("Buy vs Rent — Wealth Projection")))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", utils.FormatDateTimeMYT(utils.NowMYT())))
	sb.WriteString(line + "\n\n")

	sb.WriteString("  ■ ASSUMPTIONS\n")
	sb.WriteString(fmt.Sprintf("    %-22s %s\n", "Property price", money(a.PropertyPrice)))
	sb.WriteString(fmt.Sprintf("    %-22s %s (%s of price)\n", "Down payment", money(a.DownPayment()), utils.FormatRate(a.DownPaymentFrac)))
	if a.LoanPrincipal() > 0 {
		sb.WriteString(fmt.Sprintf("    %-22s %s at %s over %d years\n", "Mortgage", money(a.LoanPrincipal()), utils.FormatRate(a.MortgageRate), a.MortgageTermYears))
	} else {
		sb.WriteString(fmt.Sprintf("    %-22s none (cash purchase)\n", "Mortgage"))
	}
	sb.WriteString(fmt.Sprintf("    %-22s %s per year\n", "Appreciation", utils.FormatRate(a.AppreciationRate)))
	if a.RentYield > 0 {
		sb.WriteString(fmt.Sprintf("    %-22s %s of property value per year\n", "Rent", utils.FormatRate(a.RentYield)))
	} else {
		sb.WriteString(fmt.Sprintf("    %-22s %s per month, growing %s per year\n", "Rent", money(a.RentMonthly), utils.FormatRate(a.RentGrowthRate)))
	}
	sb.WriteString(fmt.Sprintf("    %-22s %s per year\n", "Investment return", utils.FormatRate(a.InvestReturnRate)))
	if a.TransactionCosts > 0 {
		sb.WriteString(fmt.Sprintf("    %-22s %s up front\n", "Transaction costs", money(a.TransactionCosts)))
	}
	if a.RecurringAnnual > 0 {
		sb.WriteString(fmt.Sprintf("    %-22s %s per year\n", "Recurring costs", money(a.RecurringAnnual)))
	}
	sb.WriteString(fmt.Sprintf("    %-22s %d years\n", "Horizon", a.HorizonYears))
	sb.WriteString(thinLine + "\n")

	sb.WriteString(fmt.Sprintf("\n  %4s %13s %13s %13s %13s\n", "Year", "PropertyVal", "MortgageBal", "BuyWealth", "RentWealth"))
	for _, y := range p.Years {
		sb.WriteString(fmt.Sprintf("  %4d %13.2f %13.2f %13.2f %13.2f\n", y.Year, y.PropertyValue, y.MortgageBalance, y.BuyWealth, y.RentWealth))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ OUTCOME\n")
	sb.WriteString(fmt.Sprintf("    %-22s %s (CAGR %s)\n", "Final buy wealth", money(p.Buy.Final().Wealth), utils.FormatRate(p.Buy.FinalCAGR())))
	sb.WriteString(fmt.Sprintf("    %-22s %s (CAGR %s)\n", "Final rent wealth", money(p.Rent.Final().Wealth), utils.FormatRate(p.Rent.FinalCAGR())))
	sb.WriteString(fmt.Sprintf("    %-22s %s (%s)\n", "Wealth difference", money(p.FinalWealthDiff()), leaderText(p.FinalLeader())))
	sb.WriteString(fmt.Sprintf("    %-22s %s\n", "Tipping point", tp))
	sb.WriteString(line + "\n")

	return sb.String()
}

func batchText(b *models.BatchResult, cfg Config) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)
	money := cfg.money()

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", cfg.title("Buy vs Rent — Scenario Comparison")))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", utils.FormatDateTimeMYT(utils.NowMYT())))
	sb.WriteString(line + "\n\n")

	failed := b.Failed()
	sb.WriteString(fmt.Sprintf("  ■ OUTCOMES (%d scenarios, %d failed)\n", len(b.Outcomes), len(failed)))
	sb.WriteString(fmt.Sprintf("    %-16s %14s %14s %14s\n", "Scenario", "BuyWealth", "RentWealth", "Difference"))
	for _, o := range b.Outcomes {
		if !o.OK() {
			sb.WriteString(fmt.Sprintf("    %-16s %s\n", o.Name, "FAILED"))
			continue
		}
		p := o.Result.Projection
		sb.WriteString(fmt.Sprintf("    %-16s %14s %14s %14s\n",
			o.Name, money(p.Buy.Final().Wealth), money(p.Rent.Final().Wealth), money(p.FinalWealthDiff())))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ VERDICTS\n")
	for _, o := range b.Outcomes {
		if !o.OK() {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %-16s %s; tipping point %s\n",
			o.Name, leaderText(o.Result.Projection.FinalLeader()), o.Result.TippingPoint))
	}
	sb.WriteString(thinLine + "\n")

	if len(failed) > 0 {
		sb.WriteString("\n  ■ FAILURES\n")
		for _, o := range failed {
			sb.WriteString(fmt.Sprintf("    %-16s [%s] %s\n", o.Name, o.Err.Kind, o.Err.Message))
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	return sb.String()
}

func gridText(g *models.SensitivityGrid, cfg Config) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", cfg.title("Buy vs Rent — Sensitivity Sweep")))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", utils.FormatDateTimeMYT(utils.NowMYT())))
	sb.WriteString(line + "\n\n")

	sb.WriteString("  ■ AXES\n")
	for _, ax := range g.Axes {
		sb.WriteString(fmt.Sprintf("    %-22s %s\n", ax.Param, joinValues(ax.Values)))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ FINAL WEALTH DIFFERENCE (buy − rent)\n")
	switch len(g.Axes) {
	case 1:
		sb.WriteString(fmt.Sprintf("    %12s %14s  %s\n", g.Axes[0].Param, "Difference", "Verdict"))
		for i, v := range g.Axes[0].Values {
			cell, _ := g.At(i, 0)
			sb.WriteString(fmt.Sprintf("    %12s %14s  %s\n", fmtValue(v), cellDiff(cell), cellVerdict(cell)))
		}
	case 2:
		sb.WriteString(fmt.Sprintf("    %12s", g.Axes[0].Param+"\\"+g.Axes[1].Param))
		for _, cv := range g.Axes[1].Values {
			sb.WriteString(fmt.Sprintf(" %12s", fmtValue(cv)))
		}
		sb.WriteString("\n")
		for i, rv := range g.Axes[0].Values {
			sb.WriteString(fmt.Sprintf("    %12s", fmtValue(rv)))
			for j := range g.Axes[1].Values {
				cell, _ := g.At(i, j)
				sb.WriteString(fmt.Sprintf(" %12s", cellDiff(cell)))
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString(thinLine + "\n")

	if n := countFailedCells(g); n > 0 {
		sb.WriteString(fmt.Sprintf("\n  ■ FAILED CELLS (%d)\n", n))
		for _, c := range g.Cells {
			if c.OK() {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %-22s [%s] %s\n", joinValues(c.Params), c.Err.Kind, c.Err.Message))
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	return sb.String()
}

func ratesText(t *dataset.Table, d dataset.Derived, cfg Config) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", cfg.title("Historical Market Rates")))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", utils.FormatDateTimeMYT(utils.NowMYT())))
	sb.WriteString(line + "\n\n")

	if len(t.Rows) > 0 {
		first, last := t.Years()
		sb.WriteString(fmt.Sprintf("  ■ ANNUAL RATES %d–%d (percent)\n", first, last))
		sb.WriteString(fmt.Sprintf("    %4s %12s %8s %8s %10s\n", "Year", "PriceGrowth", "EPF", "OPR", "RentYield"))
		for _, r := range t.Rows {
			sb.WriteString(fmt.Sprintf("    %4d %12.2f %8.2f %8.2f %10.2f\n", r.Year, r.PriceGrowth, r.EPF, r.OPR, r.RentYield))
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n  ■ DERIVED ASSUMPTIONS\n")
	sb.WriteString(fmt.Sprintf("    %-22s %s\n", "Appreciation", utils.FormatRate(d.AppreciationRate)))
	sb.WriteString(fmt.Sprintf("    %-22s %s\n", "Investment return", utils.FormatRate(d.InvestReturnRate)))
	sb.WriteString(fmt.Sprintf("    %-22s %s (policy rate + %s spread)\n", "Mortgage rate", utils.FormatRate(d.MortgageRate), utils.FormatRate(d.Spread)))
	sb.WriteString(fmt.Sprintf("    %-22s %s\n", "Rent yield", utils.FormatRate(d.RentYield)))
	if d.FromData {
		sb.WriteString("    Derived from the historical table above.\n")
	} else {
		sb.WriteString("    Fallback values; no usable historical rows.\n")
	}
	sb.WriteString(line + "\n")

	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Shared helpers
// ════════════════════════════════════════════════════════════════════

// leaderText renders a final-leader verdict for humans.
func leaderText(s models.Strategy) string {
	switch s {
	case models.StrategyBuy:
		return "buying leads"
	case models.StrategyRent:
		return "renting leads"
	default:
		return "tied"
	}
}

func cellDiff(c models.GridCell) string {
	if !c.OK() {
		return "ERR"
	}
	return utils.FormatMYRCompact(c.FinalWealthDiff)
}

func cellVerdict(c models.GridCell) string {
	if !c.OK() {
		return fmt.Sprintf("[%s] %s", c.Err.Kind, c.Err.Message)
	}
	if c.TippingYear >= 0 {
		return fmt.Sprintf("%s, tips year %d", leaderText(c.FinalLeader), c.TippingYear)
	}
	return leaderText(c.FinalLeader)
}

func countFailedCells(g *models.SensitivityGrid) int {
	n := 0
	for _, c := range g.Cells {
		if !c.OK() {
			n++
		}
	}
	return n
}

// fmtValue renders an axis value with minimal digits (0.045 not 0.045000).
func fmtValue(v float64) string {
	return fmt.Sprintf("%g", v)
}

func joinValues(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmtValue(v)
	}
	return strings.Join(parts, ", ")
}
