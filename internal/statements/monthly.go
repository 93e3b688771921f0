package statements

import (
	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/fec"
	"github.com/wincap/wincap/internal/ledger"
)

// Monthly is the intra-year breakdown of revenue, operating costs and
// EBITDA. Index 0 is January.
type Monthly struct {
	Year              int                 `json:"year"`
	Revenue           [12]decimal.Decimal `json:"revenue"`
	Costs             [12]decimal.Decimal `json:"costs"`
	EBITDA            [12]decimal.Decimal `json:"ebitda"`
	CumulativeRevenue [12]decimal.Decimal `json:"cumulative_revenue"`
	Quarters          [4]decimal.Decimal  `json:"quarters"`
}

// TotalRevenue sums the twelve monthly revenue buckets.
func (m Monthly) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m.Revenue {
		total = total.Add(v)
	}
	return total
}

var monthlyCostCategories = map[ledger.StatementCategory]bool{
	ledger.StmtPurchases:       true,
	ledger.StmtExternalCharges: true,
	ledger.StmtTaxes:           true,
	ledger.StmtPersonnel:       true,
	ledger.StmtOtherCharges:    true,
}

// BuildMonthly splits operating movements by booking month.
func BuildMonthly(fy *ledger.FiscalYear) Monthly {
	m := Monthly{Year: fy.Year}

	fy.Lines(func(line fec.LedgerEntry, acc ledger.Account) {
		idx := int(line.EntryDate.Month()) - 1
		if idx < 0 || idx > 11 {
			return
		}
		switch {
		case acc.Statement == ledger.StmtRevenue || acc.Statement == ledger.StmtOtherRevenue:
			m.Revenue[idx] = m.Revenue[idx].Add(line.Credit.Sub(line.Debit))
		case monthlyCostCategories[acc.Statement]:
			m.Costs[idx] = m.Costs[idx].Add(line.Debit.Sub(line.Credit))
		}
	})

	running := decimal.Zero
	for i := 0; i < 12; i++ {
		m.EBITDA[i] = m.Revenue[i].Sub(m.Costs[i])
		running = running.Add(m.Revenue[i])
		m.CumulativeRevenue[i] = running
		m.Quarters[i/3] = m.Quarters[i/3].Add(m.Revenue[i])
	}
	return m
}

// SeasonalityIndex averages monthly revenue across years against the flat
// monthly mean; 100 marks an average month. Degenerate inputs (no revenue)
// index every month at 100.
func SeasonalityIndex(series []Monthly) [12]decimal.Decimal {
	var index [12]decimal.Decimal
	flat := decimal.NewFromInt(100)

	if len(series) == 0 {
		for i := range index {
			index[i] = flat
		}
		return index
	}

	var monthTotals [12]decimal.Decimal
	total := decimal.Zero
	for _, m := range series {
		for i, v := range m.Revenue {
			monthTotals[i] = monthTotals[i].Add(v)
			total = total.Add(v)
		}
	}
	if total.IsZero() {
		for i := range index {
			index[i] = flat
		}
		return index
	}

	yearCount := decimal.NewFromInt(int64(len(series)))
	avgMonthly := total.Div(decimal.NewFromInt(12)).Div(yearCount)
	for i := range index {
		monthAvg := monthTotals[i].Div(yearCount)
		index[i] = monthAvg.Div(avgMonthly).Mul(flat)
	}
	return index
}
