// Package config handles configuration loading for wealthsim.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/lufenny/wealthsim/pkg/models"
)

// Config represents the complete application configuration.
type Config struct {
	Assumptions AssumptionsConfig `mapstructure:"assumptions" yaml:"assumptions"`
	Engine      EngineConfig      `mapstructure:"engine"      yaml:"engine"`
	Scenarios   ScenariosConfig   `mapstructure:"scenarios"   yaml:"scenarios"`
	Dataset     DatasetConfig     `mapstructure:"dataset"     yaml:"dataset"`
	API         APIConfig         `mapstructure:"api"         yaml:"api"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
}

// AssumptionsConfig holds the default simulation inputs. Keys match the
// engine's parameter names.
type AssumptionsConfig struct {
	HorizonYears      int     `mapstructure:"horizon_years"       yaml:"horizon_years"`
	PropertyPrice     float64 `mapstructure:"property_price"      yaml:"property_price"`
	DownPaymentFrac   float64 `mapstructure:"down_payment_frac"   yaml:"down_payment_frac"`
	MortgageRate      float64 `mapstructure:"mortgage_rate"       yaml:"mortgage_rate"`
	MortgageTermYears int     `mapstructure:"mortgage_term_years" yaml:"mortgage_term_years"`
	AppreciationRate  float64 `mapstructure:"appreciation_rate"   yaml:"appreciation_rate"`
	RentMonthly       float64 `mapstructure:"rent_monthly"        yaml:"rent_monthly"`
	RentGrowthRate    float64 `mapstructure:"rent_growth_rate"    yaml:"rent_growth_rate"`
	RentYield         float64 `mapstructure:"rent_yield"          yaml:"rent_yield"`
	InvestReturnRate  float64 `mapstructure:"invest_return_rate"  yaml:"invest_return_rate"`
	TransactionCosts  float64 `mapstructure:"transaction_costs"   yaml:"transaction_costs"`
	RecurringAnnual   float64 `mapstructure:"recurring_annual"    yaml:"recurring_annual"`
}

// AssumptionSet converts the configured defaults into an engine assumption
// set. The result is not validated here; callers validate on use.
func (c AssumptionsConfig) AssumptionSet() models.AssumptionSet {
	return models.AssumptionSet{
		HorizonYears:      c.HorizonYears,
		PropertyPrice:     c.PropertyPrice,
		DownPaymentFrac:   c.DownPaymentFrac,
		MortgageRate:      c.MortgageRate,
		MortgageTermYears: c.MortgageTermYears,
		AppreciationRate:  c.AppreciationRate,
		RentMonthly:       c.RentMonthly,
		RentGrowthRate:    c.RentGrowthRate,
		RentYield:         c.RentYield,
		InvestReturnRate:  c.InvestReturnRate,
		TransactionCosts:  c.TransactionCosts,
		RecurringAnnual:   c.RecurringAnnual,
	}
}

// EngineConfig holds batch and sweep evaluation settings.
type EngineConfig struct {
	Parallel   bool `mapstructure:"parallel"    yaml:"parallel"`
	MaxWorkers int  `mapstructure:"max_workers" yaml:"max_workers"`
}

// ScenariosConfig holds named scenario presets: per-preset parameter
// overrides applied on top of the default assumptions.
type ScenariosConfig struct {
	Presets map[string]map[string]float64 `mapstructure:"presets" yaml:"presets"`
}

// DatasetConfig points at the historical rates table.
type DatasetConfig struct {
	Path   string  `mapstructure:"path"   yaml:"path"`   // empty = embedded default
	Spread float64 `mapstructure:"spread" yaml:"spread"` // lending margin over the policy rate
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host          string   `mapstructure:"host"            yaml:"host"`
	Port          int      `mapstructure:"port"            yaml:"port"`
	CORSOrigins   []string `mapstructure:"cors_origins"    yaml:"cors_origins"`
	RatePerSecond float64  `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	RateBurst     int      `mapstructure:"rate_burst"      yaml:"rate_burst"`
}

// Addr returns the host:port the API server listens on.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.wealthsim/config.yaml (home directory)
//  3. /etc/wealthsim/config.yaml (system)
//
// Environment variables override config file values.
// Format: WEALTHSIM_<SECTION>_<KEY>, e.g., WEALTHSIM_LOGGING_LEVEL
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".wealthsim"))
	v.AddConfigPath("/etc/wealthsim")

	// Environment variable settings
	v.SetEnvPrefix("WEALTHSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("WEALTHSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Presets expands the configured scenario presets into named scenarios on
// top of the configured default assumptions. Scenarios are sorted by name
// so batches are deterministic.
func (c *Config) Presets() ([]models.Scenario, error) {
	return expandPresets(c.Assumptions.AssumptionSet(), c.Scenarios.Presets)
}

// ScenariosFromFile reads a standalone scenario file and expands it over
// base. The file uses the same shape as the config's scenarios section: a
// top-level "scenarios" mapping of name → parameter overrides.
//
//	scenarios:
//	  crash:
//	    appreciation_rate: -0.02
//	    invest_return_rate: 0.02
func ScenariosFromFile(path string, base models.AssumptionSet) ([]models.Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading scenario file %s: %w", path, err)
	}

	var presets map[string]map[string]float64
	if err := v.UnmarshalKey("scenarios", &presets); err != nil {
		return nil, fmt.Errorf("error unmarshaling scenario file %s: %w", path, err)
	}
	if len(presets) == 0 {
		return nil, fmt.Errorf("scenario file %s defines no scenarios", path)
	}
	return expandPresets(base, presets)
}

// expandPresets turns named parameter overrides into full scenarios on top
// of base, sorted by name.
func expandPresets(base models.AssumptionSet, presets map[string]map[string]float64) ([]models.Scenario, error) {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	scenarios := make([]models.Scenario, 0, len(names))
	for _, name := range names {
		a := base
		for param, value := range presets[name] {
			next, err := a.WithParam(param, value)
			if err != nil {
				return nil, fmt.Errorf("preset %q: %w", name, err)
			}
			a = next
		}
		scenarios = append(scenarios, models.Scenario{Name: name, Assumptions: a})
	}
	return scenarios, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Simulation defaults (Kuala Lumpur condominium baseline)
	v.SetDefault("assumptions.horizon_years", 30)
	v.SetDefault("assumptions.property_price", 500000)
	v.SetDefault("assumptions.down_payment_frac", 0.10)
	v.SetDefault("assumptions.mortgage_rate", 0.04)
	v.SetDefault("assumptions.mortgage_term_years", 30)
	v.SetDefault("assumptions.appreciation_rate", 0.03)
	v.SetDefault("assumptions.rent_monthly", 1500)
	v.SetDefault("assumptions.rent_growth_rate", 0.02)
	v.SetDefault("assumptions.rent_yield", 0)
	v.SetDefault("assumptions.invest_return_rate", 0.05)
	v.SetDefault("assumptions.transaction_costs", 0)
	v.SetDefault("assumptions.recurring_annual", 0)

	// Engine defaults
	v.SetDefault("engine.parallel", true)
	v.SetDefault("engine.max_workers", 4)

	// Scenario presets: return-rate variants informed by the historical EPF
	// record (long-run average 5%, strong years 8%, slow years 3%).
	v.SetDefault("scenarios.presets", map[string]map[string]float64{
		"baseline":    {"invest_return_rate": 0.05},
		"optimistic":  {"invest_return_rate": 0.08},
		"pessimistic": {"invest_return_rate": 0.03},
	})

	// Dataset defaults
	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.spread", 0.02)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.rate_per_second", 10)
	v.SetDefault("api.rate_burst", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
