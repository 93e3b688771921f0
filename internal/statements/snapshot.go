package statements

import (
	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/ledger"
)

// Snapshot is the full computed statement set for one fiscal year. It is
// a pure function of the ledger handed in; once assembled it is owned by
// the aggregator and never mutated.
type Snapshot struct {
	Year int `json:"year"`

	PL       ProfitLoss        `json:"pl"`
	Balance  BalanceSheet      `json:"balance"`
	CashFlow CashFlow          `json:"cashflow"`
	KPIs     KPISet            `json:"kpis"`
	QoE      QualityOfEarnings `json:"qoe"`

	Monthly     Monthly             `json:"monthly"`
	Accounts    []AccountSummaryRow `json:"accounts"`
	TopExpenses []TopAccount        `json:"top_expenses"`
	TopRevenues []TopAccount        `json:"top_revenues"`

	// Anomalies collects the year's integrity and detector findings,
	// ranked by severity.
	Anomalies []ledger.Anomaly `json:"anomalies"`
}

// Config carries the policy values shared by the engines.
type Config struct {
	// Tolerance absorbs rounding in balance checks.
	Tolerance decimal.Decimal
	// KPI holds ratio policy (VAT gross-up, day basis).
	KPI KPIConfig
	// QoERules is the normalization rule set; empty disables QoE bridges.
	QoERules []QoERule
	// TopN bounds the drill-through rankings.
	TopN int
}

// DefaultConfig mirrors the conventional French due-diligence settings.
func DefaultConfig() Config {
	return Config{
		Tolerance: decimal.NewFromFloat(0.01),
		KPI: KPIConfig{
			VATRate:    decimal.NewFromFloat(1.20),
			DaysInYear: decimal.NewFromInt(360),
		},
		TopN: 10,
	}
}
