package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/anomaly"
	"github.com/wincap/wincap/internal/ledger"
	"github.com/wincap/wincap/internal/statements"
)

// Config holds runtime configuration for the processing core. Every policy
// value (tolerances, thresholds, ratio bases) is configurable; defaults
// follow French due-diligence convention.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// MaxParallelism bounds concurrent file parsing within one session.
	MaxParallelism int `envconfig:"MAX_PARALLELISM" default:"4"`

	// RowErrorCeilingPct is the malformed-row rate above which a file
	// fails as a whole.
	RowErrorCeilingPct float64 `envconfig:"ROW_ERROR_CEILING_PCT" default:"10"`

	// BalanceTolerance absorbs rounding in debit=credit and balance
	// sheet checks, in currency units.
	BalanceTolerance float64 `envconfig:"BALANCE_TOLERANCE" default:"0.01"`

	// VATRate grosses revenue/purchases up for DSO and DPO.
	VATRate float64 `envconfig:"VAT_RATE" default:"1.20"`
	// DaysInYear is the rotation-ratio day basis.
	DaysInYear int `envconfig:"DAYS_IN_YEAR" default:"360"`
	// TopAccounts bounds the drill-through rankings per year.
	TopAccounts int `envconfig:"TOP_ACCOUNTS" default:"10"`

	// Anomaly detector thresholds.
	OutlierMultiple float64 `envconfig:"OUTLIER_MULTIPLE" default:"3"`
	OneOffThreshold float64 `envconfig:"ONE_OFF_THRESHOLD" default:"50000"`
	PayrollSpikePct float64 `envconfig:"PAYROLL_SPIKE_PCT" default:"50"`
	OutlierMinPeers int     `envconfig:"OUTLIER_MIN_PEERS" default:"3"`

	// ChartPath optionally overrides the built-in PCG table with a YAML
	// rule file. QoERulesPath loads the normalization rule set.
	ChartPath    string `envconfig:"CHART_PATH"`
	QoERulesPath string `envconfig:"QOE_RULES_PATH"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("WINCAP", &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxParallelism < 1 {
		cfg.MaxParallelism = 1
	}
	return &cfg, nil
}

// IsProduction returns true when running in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// StatementConfig converts policy values into the engines' config.
func (c *Config) StatementConfig() (statements.Config, error) {
	sc := statements.Config{
		Tolerance: decimal.NewFromFloat(c.BalanceTolerance),
		KPI: statements.KPIConfig{
			VATRate:    decimal.NewFromFloat(c.VATRate),
			DaysInYear: decimal.NewFromInt(int64(c.DaysInYear)),
		},
		TopN: c.TopAccounts,
	}
	if c.QoERulesPath != "" {
		data, err := os.ReadFile(c.QoERulesPath)
		if err != nil {
			return sc, fmt.Errorf("app: read qoe rules: %w", err)
		}
		rules, err := statements.LoadQoERules(data)
		if err != nil {
			return sc, err
		}
		sc.QoERules = rules
	}
	return sc, nil
}

// AnomalyConfig converts thresholds into the detector config.
func (c *Config) AnomalyConfig() anomaly.Config {
	return anomaly.Config{
		OutlierMultiple: decimal.NewFromFloat(c.OutlierMultiple),
		OneOffThreshold: decimal.NewFromFloat(c.OneOffThreshold),
		PayrollSpikePct: decimal.NewFromFloat(c.PayrollSpikePct),
		MinPeers:        c.OutlierMinPeers,
	}
}

// Chart loads the classification table, falling back to the default PCG.
func (c *Config) Chart() (*ledger.Chart, error) {
	if c.ChartPath == "" {
		return ledger.DefaultChart(), nil
	}
	data, err := os.ReadFile(c.ChartPath)
	if err != nil {
		return nil, fmt.Errorf("app: read chart: %w", err)
	}
	return ledger.LoadChartYAML(data)
}
