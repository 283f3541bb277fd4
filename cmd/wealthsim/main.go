// wealthsim — buy vs rent wealth simulation for the Malaysian market.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lufenny/wealthsim/api"
	"github.com/lufenny/wealthsim/internal/config"
	"github.com/lufenny/wealthsim/internal/dataset"
	"github.com/lufenny/wealthsim/internal/logging"
	"github.com/lufenny/wealthsim/internal/report"
	"github.com/lufenny/wealthsim/internal/simulate"
	"github.com/lufenny/wealthsim/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wealthsim",
	Short: "wealthsim — buy vs rent wealth simulation",
	Long: `wealthsim projects long-term net wealth under two competing strategies —
buying a home versus renting it and investing the difference — and
reports the tipping point, if any, at which one strategy overtakes the
other.

Defaults model a Kuala Lumpur condominium purchase against EPF-style
investment returns; override them via config file, environment
(WEALTHSIM_*) or flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if s, _ := cmd.Flags().GetString("log-level"); s != "" {
			level = s
		}
		format := cfg.Logging.Format
		if s, _ := cmd.Flags().GetString("log-format"); s != "" {
			format = s
		}
		logging.Setup(level, format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format override (text, json)")
	rootCmd.PersistentFlags().String("output", "text", "report format: text, csv or json")
	rootCmd.PersistentFlags().String("out", "", "write the report to a file instead of stdout")
	rootCmd.PersistentFlags().Bool("compact", false, "abbreviate currency amounts (RM 1.2M)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wealthsim %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Project Command ---

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project buy vs rent wealth over the horizon",
	Long: `Project year-by-year net wealth for buying versus renting under one
assumption set. Flags override the configured defaults; unset flags
keep them.

Examples:
  wealthsim project
  wealthsim project --price 650000 --down 0.2 --horizon 25
  wealthsim project --rent-yield 0.04 --derived
  wealthsim project --output csv --out projection.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := assumptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		proj, err := simulate.Project(a)
		if err != nil {
			return err
		}
		tp, err := simulate.DetectTippingPoint(proj.Buy, proj.Rent)
		if err != nil {
			return err
		}

		rc, err := reportConfig(cmd)
		if err != nil {
			return err
		}
		out, err := report.RenderProjection(proj, tp, rc)
		if err != nil {
			return err
		}
		return writeOut(cmd, out)
	},
}

func init() {
	addAssumptionFlags(projectCmd)
}

// --- Scenarios Command ---

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Run a batch of named scenarios and compare outcomes",
	Long: `Run the configured scenario presets — or a scenario file — as one batch
and compare final wealth, verdicts and tipping points side by side.

A scenario file holds named parameter overrides on the configured
defaults:

  scenarios:
    crash:
      appreciation_rate: -0.02
      invest_return_rate: 0.02

Examples:
  wealthsim scenarios
  wealthsim scenarios --file my_scenarios.yaml --parallel=false
  wealthsim scenarios --output json --out batch.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var scenarios []models.Scenario
		var err error
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			scenarios, err = config.ScenariosFromFile(file, cfg.Assumptions.AssumptionSet())
		} else {
			scenarios, err = cfg.Presets()
		}
		if err != nil {
			return err
		}

		runner := simulate.NewRunner(runnerConfig(cmd))
		batch, err := runner.Run(cmd.Context(), scenarios)
		if err != nil {
			return err
		}

		rc, err := reportConfig(cmd)
		if err != nil {
			return err
		}
		out, err := report.RenderBatch(batch, rc)
		if err != nil {
			return err
		}
		return writeOut(cmd, out)
	},
}

func init() {
	scenariosCmd.Flags().String("file", "", "scenario file (YAML) instead of the configured presets")
	scenariosCmd.Flags().Bool("parallel", true, "evaluate scenarios concurrently (default from config)")
}

// --- Sweep Command ---

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep one or two parameters and map the outcome",
	Long: `Evaluate the projection over a grid of parameter values, holding the
remaining assumptions fixed, and report the final wealth difference
per cell. An axis takes either --values or --min/--max/--steps.

Sweepable parameters:
  ` + strings.Join(models.SweepableParams(), ", ") + `

Examples:
  wealthsim sweep --param mortgage_rate --min 0.03 --max 0.06 --steps 7
  wealthsim sweep --param invest_return_rate --values 0.03,0.05,0.08
  wealthsim sweep --param mortgage_rate --min 0.03 --max 0.06 \
      --param2 invest_return_rate --min2 0.02 --max2 0.08 --steps2 4
  wealthsim sweep --param rent_yield --values 0.03,0.04 --keep --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		first, ok, err := sweepAxis(cmd, "")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("sweep needs --param (sweepable: %s)",
				strings.Join(models.SweepableParams(), ", "))
		}
		axes := []models.SweepAxis{first}
		second, ok, err := sweepAxis(cmd, "2")
		if err != nil {
			return err
		}
		if ok {
			axes = append(axes, second)
		}

		base, err := assumptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		acfg := analyzerConfig(cmd)
		acfg.KeepResults, _ = cmd.Flags().GetBool("keep")
		grid, err := simulate.NewAnalyzer(acfg).Sweep(cmd.Context(), base, axes)
		if err != nil {
			return err
		}

		rc, err := reportConfig(cmd)
		if err != nil {
			return err
		}
		out, err := report.RenderGrid(grid, rc)
		if err != nil {
			return err
		}
		return writeOut(cmd, out)
	},
}

func init() {
	addAssumptionFlags(sweepCmd)
	sweepCmd.Flags().String("param", "", "first axis parameter (e.g. mortgage_rate)")
	sweepCmd.Flags().Float64Slice("values", nil, "explicit first-axis values")
	sweepCmd.Flags().Float64("min", 0, "first-axis range start")
	sweepCmd.Flags().Float64("max", 0, "first-axis range end")
	sweepCmd.Flags().Int("steps", 5, "first-axis grid points for --min/--max")
	sweepCmd.Flags().String("param2", "", "optional second axis parameter")
	sweepCmd.Flags().Float64Slice("values2", nil, "explicit second-axis values")
	sweepCmd.Flags().Float64("min2", 0, "second-axis range start")
	sweepCmd.Flags().Float64("max2", 0, "second-axis range end")
	sweepCmd.Flags().Int("steps2", 5, "second-axis grid points for --min2/--max2")
	sweepCmd.Flags().Bool("keep", false, "keep the full projection per grid cell (JSON output)")
	sweepCmd.Flags().Bool("parallel", true, "evaluate grid cells concurrently (default from config)")
}

// --- Rates Command ---

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show the historical rates table and derived assumptions",
	Long: `Show the annual Malaysian market dataset (house price growth, EPF
dividend, overnight policy rate, rental yield) and the simulation
assumptions derived from it.

Examples:
  wealthsim rates
  wealthsim rates --data my_rates.csv --spread 0.015
  wealthsim rates --output csv --out rates.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("data")
		table, err := loadRates(path)
		if err != nil {
			return err
		}

		spread := cfg.Dataset.Spread
		if cmd.Flags().Changed("spread") {
			spread, _ = cmd.Flags().GetFloat64("spread")
		}
		derived := dataset.Derive(table, spread)

		rc, err := reportConfig(cmd)
		if err != nil {
			return err
		}
		out, err := report.RenderRates(table, derived, rc)
		if err != nil {
			return err
		}
		return writeOut(cmd, out)
	},
}

func init() {
	ratesCmd.Flags().String("data", "", "rates CSV path (default: configured path or the embedded table)")
	ratesCmd.Flags().Float64("spread", dataset.DefaultSpread, "lending margin added to the mean policy rate")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		srv.SetVersion(version)

		addr := cfg.API.Addr()
		if s, _ := cmd.Flags().GetString("addr"); s != "" {
			addr = s
		}
		fmt.Printf("🌐 Starting wealthsim API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, host:port)")
}

// --- Helpers ---

// addAssumptionFlags registers the per-parameter override flags shared by
// project and sweep. The real defaults come from config at run time; the
// registered zero values are applied only when a flag is explicitly set.
func addAssumptionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("horizon", 0, "projection horizon in years")
	f.Float64("price", 0, "property purchase price (RM)")
	f.Float64("down", 0, "down payment fraction of price (0..1)")
	f.Float64("mortgage-rate", 0, "annual mortgage rate (0.04 = 4%)")
	f.Int("term", 0, "mortgage term in years")
	f.Float64("appreciation", 0, "annual property appreciation rate")
	f.Float64("rent", 0, "first-year monthly rent (RM)")
	f.Float64("rent-growth", 0, "annual rent growth rate")
	f.Float64("rent-yield", 0, "rent as annual gross yield on property value")
	f.Float64("invest-return", 0, "annual return on invested capital")
	f.Float64("transaction-costs", 0, "one-time buy-side costs (RM)")
	f.Float64("recurring", 0, "recurring annual owner costs (RM)")
	f.Bool("derived", false, "overlay rates derived from the historical dataset")
}

// assumptionsFromFlags starts from the configured defaults and applies any
// explicitly set assumption flags. With --derived the dataset's derived
// rates are overlaid first, so explicit flags still win.
func assumptionsFromFlags(cmd *cobra.Command) (models.AssumptionSet, error) {
	flags := cmd.Flags()
	a := cfg.Assumptions.AssumptionSet()

	if derived, _ := flags.GetBool("derived"); derived {
		table, err := loadRates("")
		if err != nil {
			return a, err
		}
		a = dataset.Derive(table, cfg.Dataset.Spread).Apply(a)
	}

	if flags.Changed("horizon") {
		a.HorizonYears, _ = flags.GetInt("horizon")
	}
	if flags.Changed("term") {
		a.MortgageTermYears, _ = flags.GetInt("term")
	}
	for _, f := range []struct{ flag, param string }{
		{"price", models.ParamPropertyPrice},
		{"down", models.ParamDownPaymentFrac},
		{"mortgage-rate", models.ParamMortgageRate},
		{"appreciation", models.ParamAppreciationRate},
		{"rent", models.ParamRentMonthly},
		{"rent-growth", models.ParamRentGrowthRate},
		{"rent-yield", models.ParamRentYield},
		{"invest-return", models.ParamInvestReturnRate},
		{"transaction-costs", models.ParamTransactionCosts},
		{"recurring", models.ParamRecurringAnnual},
	} {
		if !flags.Changed(f.flag) {
			continue
		}
		v, _ := flags.GetFloat64(f.flag)
		next, err := a.WithParam(f.param, v)
		if err != nil {
			return a, err
		}
		a = next
	}

	// The two rent bases are mutually exclusive. Picking one on the command
	// line clears the other side's configured values instead of tripping
	// validation.
	if flags.Changed("rent-yield") {
		if !flags.Changed("rent") {
			a.RentMonthly = 0
		}
		if !flags.Changed("rent-growth") {
			a.RentGrowthRate = 0
		}
	}
	if flags.Changed("rent") && !flags.Changed("rent-yield") {
		a.RentYield = 0
	}
	return a, nil
}

// sweepAxis builds one sweep axis from its flag group ("" or "2" suffix).
// ok is false when the axis is absent entirely.
func sweepAxis(cmd *cobra.Command, suffix string) (models.SweepAxis, bool, error) {
	flags := cmd.Flags()
	param, _ := flags.GetString("param" + suffix)
	values, _ := flags.GetFloat64Slice("values" + suffix)
	hasRange := flags.Changed("min"+suffix) || flags.Changed("max"+suffix) || flags.Changed("steps"+suffix)

	if param == "" {
		if len(values) > 0 || hasRange {
			return models.SweepAxis{}, false, fmt.Errorf("axis flags given without --param%s", suffix)
		}
		return models.SweepAxis{}, false, nil
	}
	if len(values) > 0 && hasRange {
		return models.SweepAxis{}, false, fmt.Errorf("axis %q: give --values%s or --min%s/--max%s/--steps%s, not both",
			param, suffix, suffix, suffix, suffix)
	}
	if len(values) > 0 {
		ax, err := models.NewSweepAxis(param, values)
		return ax, err == nil, err
	}
	if !hasRange {
		return models.SweepAxis{}, false, fmt.Errorf("axis %q: give --values%s or --min%s/--max%s/--steps%s",
			param, suffix, suffix, suffix, suffix)
	}
	min, _ := flags.GetFloat64("min" + suffix)
	max, _ := flags.GetFloat64("max" + suffix)
	steps, _ := flags.GetInt("steps" + suffix)
	ax, err := models.SweepRange(param, min, max, steps)
	return ax, err == nil, err
}

// runnerConfig builds the batch settings from config and the --parallel
// flag, with per-scenario progress logged at debug level.
func runnerConfig(cmd *cobra.Command) simulate.RunnerConfig {
	rc := simulate.RunnerConfig{
		Parallel:   cfg.Engine.Parallel,
		MaxWorkers: cfg.Engine.MaxWorkers,
		Progress: func(done, total int, name string) {
			logrus.Debugf("Scenario %d/%d done: %s", done, total, name)
		},
	}
	if cmd.Flags().Changed("parallel") {
		rc.Parallel, _ = cmd.Flags().GetBool("parallel")
	}
	return rc
}

// analyzerConfig builds the sweep settings from config and the --parallel
// flag, with per-cell progress logged at debug level.
func analyzerConfig(cmd *cobra.Command) simulate.AnalyzerConfig {
	ac := simulate.AnalyzerConfig{
		Parallel:   cfg.Engine.Parallel,
		MaxWorkers: cfg.Engine.MaxWorkers,
		Progress: func(done, total int) {
			logrus.Debugf("Sweep cell %d/%d done", done, total)
		},
	}
	if cmd.Flags().Changed("parallel") {
		ac.Parallel, _ = cmd.Flags().GetBool("parallel")
	}
	return ac
}

// loadRates loads a rates table from path, falling back to the configured
// dataset path and then the embedded table.
func loadRates(path string) (*dataset.Table, error) {
	if path == "" {
		path = cfg.Dataset.Path
	}
	if path == "" {
		return dataset.Default(), nil
	}
	return dataset.LoadFile(path)
}

// reportConfig builds the report settings from the global output flags.
func reportConfig(cmd *cobra.Command) (report.Config, error) {
	rc := report.DefaultConfig()
	output, _ := cmd.Flags().GetString("output")
	format, err := report.ParseFormat(output)
	if err != nil {
		return rc, err
	}
	rc.Format = format
	rc.Compact, _ = cmd.Flags().GetBool("compact")
	return rc, nil
}

// writeOut prints a rendered report to stdout, or to the --out file.
func writeOut(cmd *cobra.Command, out string) error {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("📄 Report written to %s\n", path)
	return nil
}
