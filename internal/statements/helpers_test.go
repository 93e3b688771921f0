package statements

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wincap/wincap/internal/fec"
	"github.com/wincap/wincap/internal/ledger"
	_ "github.com/wincap/wincap/testing"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func eq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(amt(want)), "want %s, got %s", want, got)
}

type testLine struct {
	journal, number, date, account, label, desc string
	debit, credit                               string
}

func buildYear(t *testing.T, year int, lines []testLine) *ledger.FiscalYear {
	t.Helper()
	entries := make([]fec.LedgerEntry, 0, len(lines))
	for i, l := range lines {
		d, err := time.Parse("20060102", l.date)
		require.NoError(t, err)
		entries = append(entries, fec.LedgerEntry{
			JournalCode:  l.journal,
			EntryNumber:  l.number,
			EntryDate:    d,
			AccountNum:   l.account,
			AccountLabel: l.label,
			Description:  l.desc,
			Debit:        amt(l.debit),
			Credit:       amt(l.credit),
			Line:         i + 2,
		})
	}
	fy, err := ledger.NewBuilder(nil, amt("0.01")).Build(
		fec.Result{Entries: entries}, ledger.FileMeta{FiscalYear: year})
	require.NoError(t, err)
	return fy
}

// referenceYear books a small but complete trading year: one sale with
// VAT, one supplier purchase, payroll, depreciation and a partial
// customer collection.
func referenceYear(t *testing.T, year int) *ledger.FiscalYear {
	t.Helper()
	date := func(md string) string {
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006") + md
	}
	return buildYear(t, year, []testLine{
		{"VT", "1", date("0115"), "411000", "Clients", "Facture 1001", "1200.00", "0"},
		{"VT", "1", date("0115"), "706000", "Prestations", "Facture 1001", "0", "1000.00"},
		{"VT", "1", date("0115"), "445710", "TVA collectée", "Facture 1001", "0", "200.00"},

		{"AC", "1", date("0220"), "607000", "Achats", "Fourniture", "400.00", "0"},
		{"AC", "1", date("0220"), "401000", "Fournisseurs", "Fourniture", "0", "400.00"},

		{"OD", "1", date("0331"), "641000", "Salaires", "Paie mars", "300.00", "0"},
		{"OD", "1", date("0331"), "421000", "Personnel", "Paie mars", "0", "300.00"},

		{"OD", "2", date("1231"), "681100", "Dotations", "Dotation annuelle", "100.00", "0"},
		{"OD", "2", date("1231"), "281000", "Amortissements", "Dotation annuelle", "0", "100.00"},

		{"BQ", "1", date("0410"), "512000", "Banque", "Encaissement", "660.00", "0"},
		{"BQ", "1", date("0410"), "411000", "Clients", "Encaissement", "0", "660.00"},
	})
}
