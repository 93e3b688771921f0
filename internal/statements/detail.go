package statements

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/fec"
	"github.com/wincap/wincap/internal/ledger"
)

// AccountSummaryRow aggregates one account over a fiscal year.
type AccountSummaryRow struct {
	Account  string                   `json:"account"`
	Label    string                   `json:"label"`
	Category ledger.StatementCategory `json:"category"`
	Debit    decimal.Decimal          `json:"debit"`
	Credit   decimal.Decimal          `json:"credit"`
	Balance  decimal.Decimal          `json:"balance"`
}

// BuildAccountSummary lists every account with its yearly totals, sorted
// by account number.
func BuildAccountSummary(fy *ledger.FiscalYear) []AccountSummaryRow {
	byAccount := make(map[string]*AccountSummaryRow)
	fy.Lines(func(line fec.LedgerEntry, acc ledger.Account) {
		row, ok := byAccount[line.AccountNum]
		if !ok {
			row = &AccountSummaryRow{
				Account:  line.AccountNum,
				Label:    line.AccountLabel,
				Category: acc.Statement,
			}
			byAccount[line.AccountNum] = row
		}
		row.Debit = row.Debit.Add(line.Debit)
		row.Credit = row.Credit.Add(line.Credit)
	})

	rows := make([]AccountSummaryRow, 0, len(byAccount))
	for _, row := range byAccount {
		row.Balance = row.Debit.Sub(row.Credit)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Account < rows[j].Account })
	return rows
}

// TopAccount is one drill-through row of the top-N ranking.
type TopAccount struct {
	Account string          `json:"account"`
	Label   string          `json:"label"`
	Amount  decimal.Decimal `json:"amount"`
}

// BuildTopAccounts ranks accounts of one category class by absolute signed
// amount. Expense accounts (class 6) count debit minus credit, revenue
// accounts (class 7) the reverse.
func BuildTopAccounts(fy *ledger.FiscalYear, category ledger.Category, n int) []TopAccount {
	totals := make(map[string]*TopAccount)
	fy.Lines(func(line fec.LedgerEntry, acc ledger.Account) {
		if acc.Category != category {
			return
		}
		row, ok := totals[line.AccountNum]
		if !ok {
			row = &TopAccount{Account: line.AccountNum, Label: line.AccountLabel}
			totals[line.AccountNum] = row
		}
		if category == ledger.CategoryRevenue {
			row.Amount = row.Amount.Add(line.Credit.Sub(line.Debit))
		} else {
			row.Amount = row.Amount.Add(line.Debit.Sub(line.Credit))
		}
	})

	rows := make([]TopAccount, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := rows[i].Amount.Abs(), rows[j].Amount.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return rows[i].Account < rows[j].Account
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
