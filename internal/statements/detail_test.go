package statements

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wincap/wincap/internal/ledger"
)

func TestBuildAccountSummary(t *testing.T) {
	fy := referenceYear(t, 2024)
	rows := BuildAccountSummary(fy)

	// Sorted by account number, one row per account.
	require.GreaterOrEqual(t, len(rows), 5)
	for i := 1; i < len(rows); i++ {
		require.Less(t, rows[i-1].Account, rows[i].Account)
	}

	var clients AccountSummaryRow
	for _, row := range rows {
		if row.Account == "411000" {
			clients = row
		}
	}
	require.Equal(t, "411000", clients.Account)
	eq(t, "1200.00", clients.Debit)
	eq(t, "660.00", clients.Credit)
	eq(t, "540.00", clients.Balance)
	require.Equal(t, ledger.StmtReceivables, clients.Category)
}

func TestBuildTopAccounts(t *testing.T) {
	fy := buildYear(t, 2024, []testLine{
		{"AC", "1", "20240110", "607000", "Achats", "", "500.00", "0"},
		{"AC", "1", "20240110", "401000", "Fournisseurs", "", "0", "500.00"},
		{"AC", "2", "20240210", "613000", "Locations", "", "900.00", "0"},
		{"AC", "2", "20240210", "401000", "Fournisseurs", "", "0", "900.00"},
		{"OD", "1", "20240310", "641000", "Salaires", "", "200.00", "0"},
		{"OD", "1", "20240310", "421000", "Personnel", "", "0", "200.00"},
	})

	top := BuildTopAccounts(fy, ledger.CategoryExpense, 2)
	require.Len(t, top, 2)
	require.Equal(t, "613000", top[0].Account)
	eq(t, "900.00", top[0].Amount)
	require.Equal(t, "607000", top[1].Account)

	all := BuildTopAccounts(fy, ledger.CategoryExpense, 0)
	require.Len(t, all, 3)

	revenues := BuildTopAccounts(fy, ledger.CategoryRevenue, 10)
	require.Empty(t, revenues)
}
