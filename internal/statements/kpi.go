package statements

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// KPIValue is a ratio that may be undefined when its denominator is zero.
// An undefined value is explicit data, never a NaN or a crash.
type KPIValue struct {
	Value   decimal.Decimal
	Defined bool
}

// DefinedKPI wraps a computed value.
func DefinedKPI(v decimal.Decimal) KPIValue {
	return KPIValue{Value: v, Defined: true}
}

// UndefinedKPI is the explicit n/a marker.
func UndefinedKPI() KPIValue {
	return KPIValue{}
}

// String renders the value or "n/a".
func (k KPIValue) String() string {
	if !k.Defined {
		return "n/a"
	}
	return k.Value.StringFixed(2)
}

// MarshalJSON encodes undefined values as null.
func (k KPIValue) MarshalJSON() ([]byte, error) {
	if !k.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(k.Value)
}

// UnmarshalJSON decodes null as the undefined marker.
func (k *KPIValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = KPIValue{}
		return nil
	}
	if err := json.Unmarshal(data, &k.Value); err != nil {
		return err
	}
	k.Defined = true
	return nil
}

// ratio divides num by den, undefined on a zero denominator.
func ratio(num, den decimal.Decimal) KPIValue {
	if den.IsZero() {
		return UndefinedKPI()
	}
	return DefinedKPI(num.Div(den))
}

// scaledRatio computes num*scale/den. Multiplying before dividing keeps
// exact results exact (400/480*360 is 300, not 299.999...); division
// precision only truncates once, after the scale-up.
func scaledRatio(num, scale, den decimal.Decimal) KPIValue {
	if den.IsZero() {
		return UndefinedKPI()
	}
	return DefinedKPI(num.Mul(scale).Div(den))
}

// KPIConfig carries the policy values the ratios depend on.
type KPIConfig struct {
	// VATRate grosses revenue and purchases up to their invoiced amounts
	// for DSO/DPO (1.20 for the standard French rate).
	VATRate decimal.Decimal
	// DaysInYear is the day basis for rotation ratios (360 by convention).
	DaysInYear decimal.Decimal
}

// KPISet is the computed indicator block for one fiscal year.
type KPISet struct {
	Year int `json:"year"`

	Revenue   decimal.Decimal `json:"revenue"`
	EBITDA    decimal.Decimal `json:"ebitda"`
	NetIncome decimal.Decimal `json:"net_income"`

	EBITDAMargin KPIValue `json:"ebitda_margin"`
	NetMargin    KPIValue `json:"net_margin"`

	DSO KPIValue `json:"dso"`
	DPO KPIValue `json:"dpo"`
	DIO KPIValue `json:"dio"`

	WorkingCapital decimal.Decimal `json:"working_capital"`
	NetDebt        decimal.Decimal `json:"net_debt"`
	EquityRatio    KPIValue        `json:"equity_ratio"`
	DebtToEBITDA   KPIValue        `json:"debt_to_ebitda"`
}

var hundred = decimal.NewFromInt(100)

// BuildKPIs computes the indicator set from the year's P&L and closing
// balance sheet. Every division guards its denominator.
func BuildKPIs(pl ProfitLoss, bs BalanceSheet, cfg KPIConfig) KPISet {
	k := KPISet{
		Year:           pl.Year,
		Revenue:        pl.Revenue,
		EBITDA:         pl.EBITDA(),
		NetIncome:      pl.NetIncome(),
		WorkingCapital: bs.WorkingCapital(),
		NetDebt:        bs.NetDebt(),
	}

	k.EBITDAMargin = scaledRatio(pl.EBITDA(), hundred, pl.Production())
	k.NetMargin = scaledRatio(pl.NetIncome(), hundred, pl.Production())

	k.DSO = scaledRatio(bs.Receivables, cfg.DaysInYear, pl.Revenue.Mul(cfg.VATRate))
	k.DPO = scaledRatio(bs.Payables, cfg.DaysInYear, pl.Purchases.Mul(cfg.VATRate))
	k.DIO = scaledRatio(bs.Inventory, cfg.DaysInYear, pl.Purchases)

	k.EquityRatio = scaledRatio(bs.Equity, hundred, bs.TotalAssets())
	k.DebtToEBITDA = ratio(bs.NetDebt(), pl.EBITDA())

	return k
}
