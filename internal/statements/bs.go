package statements

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/fec"
	"github.com/wincap/wincap/internal/ledger"
)

// BalanceSheet is the financial position at fiscal-year end. Balances are
// cumulative: every movement booked up to and including the year counts.
type BalanceSheet struct {
	Year int `json:"year"`

	FixedAssets      decimal.Decimal `json:"fixed_assets"`
	Inventory        decimal.Decimal `json:"inventory"`
	Receivables      decimal.Decimal `json:"receivables"`
	OtherReceivables decimal.Decimal `json:"other_receivables"`
	Cash             decimal.Decimal `json:"cash"`

	Equity        decimal.Decimal `json:"equity"`
	Provisions    decimal.Decimal `json:"provisions"`
	FinancialDebt decimal.Decimal `json:"financial_debt"`
	Payables      decimal.Decimal `json:"payables"`
	OtherPayables decimal.Decimal `json:"other_payables"`

	// Unclassified accumulates signed movements on unmapped accounts so
	// that reviewers can see what fell outside the chart.
	Unclassified decimal.Decimal `json:"unclassified"`
}

// TotalAssets sums the asset side.
func (b BalanceSheet) TotalAssets() decimal.Decimal {
	return b.FixedAssets.Add(b.Inventory).Add(b.Receivables).
		Add(b.OtherReceivables).Add(b.Cash)
}

// TotalLiabilities sums equity plus all liabilities.
func (b BalanceSheet) TotalLiabilities() decimal.Decimal {
	return b.Equity.Add(b.Provisions).Add(b.FinancialDebt).
		Add(b.Payables).Add(b.OtherPayables)
}

// WorkingCapital is the French BFR: inventory plus trade receivables minus
// trade payables.
func (b BalanceSheet) WorkingCapital() decimal.Decimal {
	return b.Inventory.Add(b.Receivables).Sub(b.Payables)
}

// NetDebt is financial debt net of cash.
func (b BalanceSheet) NetDebt() decimal.Decimal {
	return b.FinancialDebt.Sub(b.Cash)
}

// Gap returns assets minus liabilities-and-equity. Zero on a clean ledger.
func (b BalanceSheet) Gap() decimal.Decimal {
	return b.TotalAssets().Sub(b.TotalLiabilities())
}

// BuildBalanceSheet accumulates movements from every fiscal year up to and
// including the requested year. Asset accounts count debit minus credit,
// liability-side accounts the reverse.
func BuildBalanceSheet(years []*ledger.FiscalYear, year int) BalanceSheet {
	bs := BalanceSheet{Year: year}

	for _, fy := range years {
		if fy.Year > year {
			continue
		}
		fy.Lines(func(line fec.LedgerEntry, acc ledger.Account) {
			var amount decimal.Decimal
			if acc.IsDebitPositive() {
				amount = line.Debit.Sub(line.Credit)
			} else {
				amount = line.Credit.Sub(line.Debit)
			}

			switch acc.Statement {
			case ledger.StmtFixedAssets:
				bs.FixedAssets = bs.FixedAssets.Add(amount)
			case ledger.StmtInventory:
				bs.Inventory = bs.Inventory.Add(amount)
			case ledger.StmtReceivables:
				bs.Receivables = bs.Receivables.Add(amount)
			case ledger.StmtOtherReceivables:
				bs.OtherReceivables = bs.OtherReceivables.Add(amount)
			case ledger.StmtCash:
				bs.Cash = bs.Cash.Add(amount)
			case ledger.StmtEquity:
				bs.Equity = bs.Equity.Add(amount)
			case ledger.StmtProvisions:
				bs.Provisions = bs.Provisions.Add(amount)
			case ledger.StmtFinancialDebt:
				bs.FinancialDebt = bs.FinancialDebt.Add(amount)
			case ledger.StmtPayables:
				bs.Payables = bs.Payables.Add(amount)
			case ledger.StmtOtherPayables:
				bs.OtherPayables = bs.OtherPayables.Add(amount)
			case ledger.StmtUnclassified:
				bs.Unclassified = bs.Unclassified.Add(line.Amount())
			}
		})
	}
	return bs
}

// CheckEquation validates assets == liabilities + equity within tolerance.
// Retained earnings of the period live in the P&L, so the check folds the
// year's net income into equity before comparing. A violation is reported
// as a data-quality finding, never corrected.
func CheckEquation(bs BalanceSheet, netIncome, tolerance decimal.Decimal) *ledger.Anomaly {
	gap := bs.TotalAssets().Sub(bs.TotalLiabilities().Add(netIncome))
	if gap.Abs().LessThanOrEqual(tolerance) {
		return nil
	}
	a := ledger.NewAnomaly(ledger.AnomalyBalanceSheetMismatch, ledger.SeverityCritical, bs.Year)
	a.Amount = gap
	a.Score, _ = gap.Abs().Float64()
	a.Message = fmt.Sprintf("balance sheet FY%d out of balance by %s", bs.Year, gap.StringFixed(2))
	return &a
}
