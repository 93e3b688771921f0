// Package statements holds the statement engines. Each engine is a pure
// function over an immutable fiscal year; none of them mutates ledger
// state, so they can run in any order or concurrently.
package statements

import (
	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/fec"
	"github.com/wincap/wincap/internal/ledger"
)

// ProfitLoss is the income statement for one fiscal year. Category totals
// are stored; the standard lines (production, EBITDA, EBIT, net income)
// derive from them so a parent line always equals the sum of its children.
type ProfitLoss struct {
	Year int `json:"year"`

	Revenue      decimal.Decimal `json:"revenue"`
	OtherRevenue decimal.Decimal `json:"other_revenue"`

	Purchases       decimal.Decimal `json:"purchases"`
	ExternalCharges decimal.Decimal `json:"external_charges"`
	Taxes           decimal.Decimal `json:"taxes"`
	Personnel       decimal.Decimal `json:"personnel"`
	OtherCharges    decimal.Decimal `json:"other_charges"`
	Depreciation    decimal.Decimal `json:"depreciation"`

	FinancialIncome    decimal.Decimal `json:"financial_income"`
	FinancialExpense   decimal.Decimal `json:"financial_expense"`
	ExceptionalIncome  decimal.Decimal `json:"exceptional_income"`
	ExceptionalExpense decimal.Decimal `json:"exceptional_expense"`
	IncomeTax          decimal.Decimal `json:"income_tax"`
}

// Production is revenue plus other operating income.
func (p ProfitLoss) Production() decimal.Decimal {
	return p.Revenue.Add(p.OtherRevenue)
}

// TotalCharges sums operating charges before depreciation.
func (p ProfitLoss) TotalCharges() decimal.Decimal {
	return p.Purchases.Add(p.ExternalCharges).Add(p.Taxes).Add(p.Personnel).Add(p.OtherCharges)
}

// EBITDA is production minus operating charges.
func (p ProfitLoss) EBITDA() decimal.Decimal {
	return p.Production().Sub(p.TotalCharges())
}

// EBIT is EBITDA minus depreciation.
func (p ProfitLoss) EBIT() decimal.Decimal {
	return p.EBITDA().Sub(p.Depreciation)
}

// FinancialResult nets financial income against financial expense.
func (p ProfitLoss) FinancialResult() decimal.Decimal {
	return p.FinancialIncome.Sub(p.FinancialExpense)
}

// ExceptionalResult nets exceptional income against exceptional expense.
func (p ProfitLoss) ExceptionalResult() decimal.Decimal {
	return p.ExceptionalIncome.Sub(p.ExceptionalExpense)
}

// NetIncome is the bottom line after financial, exceptional and tax items.
func (p ProfitLoss) NetIncome() decimal.Decimal {
	return p.EBIT().Add(p.FinancialResult()).Add(p.ExceptionalResult()).Sub(p.IncomeTax)
}

// BuildProfitLoss aggregates class 6 and 7 movements into P&L categories.
// Income accounts count credit minus debit, expense accounts the reverse.
func BuildProfitLoss(fy *ledger.FiscalYear) ProfitLoss {
	pl := ProfitLoss{Year: fy.Year}

	fy.Lines(func(line fec.LedgerEntry, acc ledger.Account) {
		var amount decimal.Decimal
		if acc.Category == ledger.CategoryRevenue {
			amount = line.Credit.Sub(line.Debit)
		} else {
			amount = line.Debit.Sub(line.Credit)
		}

		switch acc.Statement {
		case ledger.StmtRevenue:
			pl.Revenue = pl.Revenue.Add(amount)
		case ledger.StmtOtherRevenue:
			pl.OtherRevenue = pl.OtherRevenue.Add(amount)
		case ledger.StmtPurchases:
			pl.Purchases = pl.Purchases.Add(amount)
		case ledger.StmtExternalCharges:
			pl.ExternalCharges = pl.ExternalCharges.Add(amount)
		case ledger.StmtTaxes:
			pl.Taxes = pl.Taxes.Add(amount)
		case ledger.StmtPersonnel:
			pl.Personnel = pl.Personnel.Add(amount)
		case ledger.StmtOtherCharges:
			pl.OtherCharges = pl.OtherCharges.Add(amount)
		case ledger.StmtDepreciation:
			pl.Depreciation = pl.Depreciation.Add(amount)
		case ledger.StmtFinancialIncome:
			pl.FinancialIncome = pl.FinancialIncome.Add(amount)
		case ledger.StmtFinancialExpense:
			pl.FinancialExpense = pl.FinancialExpense.Add(amount)
		case ledger.StmtExceptionalIncome:
			pl.ExceptionalIncome = pl.ExceptionalIncome.Add(amount)
		case ledger.StmtExceptionalExpense:
			pl.ExceptionalExpense = pl.ExceptionalExpense.Add(amount)
		case ledger.StmtIncomeTax:
			pl.IncomeTax = pl.IncomeTax.Add(amount)
		}
	})
	return pl
}
