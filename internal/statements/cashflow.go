package statements

import (
	"github.com/shopspring/decimal"
)

// CashFlow is the indirect-method cash flow statement for one year. The
// first uploaded year has no prior balance sheet to diff against; it only
// reports the closing cash position and HasPrior stays false.
type CashFlow struct {
	Year     int  `json:"year"`
	HasPrior bool `json:"has_prior"`

	EBITDA         decimal.Decimal `json:"ebitda"`
	VarReceivables decimal.Decimal `json:"var_receivables"`
	VarInventory   decimal.Decimal `json:"var_inventory"`
	VarPayables    decimal.Decimal `json:"var_payables"`
	VarOtherWC     decimal.Decimal `json:"var_other_wc"`
	VarBFR         decimal.Decimal `json:"var_bfr"`
	OperatingCF    decimal.Decimal `json:"operating_cf"`

	Capex       decimal.Decimal `json:"capex"`
	InvestingCF decimal.Decimal `json:"investing_cf"`

	VarDebt     decimal.Decimal `json:"var_debt"`
	VarEquity   decimal.Decimal `json:"var_equity"`
	FinancingCF decimal.Decimal `json:"financing_cf"`

	NetCashChange decimal.Decimal `json:"net_cash_change"`
	CashStart     decimal.Decimal `json:"cash_start"`
	CashEnd       decimal.Decimal `json:"cash_end"`
}

// BuildCashFlow derives the cash flow statement from the year's P&L and
// the balance sheets closing the prior and current years. A nil prior
// balance sheet produces the degraded single-year form.
func BuildCashFlow(pl ProfitLoss, prior *BalanceSheet, closing BalanceSheet) CashFlow {
	cf := CashFlow{
		Year:    closing.Year,
		EBITDA:  pl.EBITDA(),
		CashEnd: closing.Cash,
	}

	if prior == nil {
		cf.OperatingCF = pl.EBITDA()
		cf.NetCashChange = closing.Cash
		return cf
	}
	cf.HasPrior = true

	// Working capital: growth in receivables or inventory consumes cash,
	// growth in payables releases it.
	cf.VarReceivables = prior.Receivables.Sub(closing.Receivables)
	cf.VarInventory = prior.Inventory.Sub(closing.Inventory)
	cf.VarPayables = closing.Payables.Sub(prior.Payables)
	cf.VarOtherWC = prior.OtherReceivables.Sub(closing.OtherReceivables).
		Add(closing.OtherPayables.Sub(prior.OtherPayables))
	cf.VarBFR = cf.VarReceivables.Add(cf.VarInventory).Add(cf.VarPayables).Add(cf.VarOtherWC)
	cf.OperatingCF = cf.EBITDA.Add(cf.VarBFR)

	// Investing: fixed-asset growth plus the depreciation added back above.
	cf.Capex = closing.FixedAssets.Sub(prior.FixedAssets).Add(pl.Depreciation).Neg()
	cf.InvestingCF = cf.Capex

	// Financing: debt and external equity movements. Equity change net of
	// the year's result isolates contributions and distributions.
	cf.VarDebt = closing.FinancialDebt.Sub(prior.FinancialDebt)
	cf.VarEquity = closing.Equity.Sub(prior.Equity).Sub(pl.NetIncome())
	cf.FinancingCF = cf.VarDebt.Add(cf.VarEquity)

	cf.CashStart = prior.Cash
	cf.NetCashChange = cf.OperatingCF.Add(cf.InvestingCF).Add(cf.FinancingCF)
	return cf
}
