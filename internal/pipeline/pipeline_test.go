package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wincap/wincap/internal/ledger"
	"github.com/wincap/wincap/internal/statements"
	_ "github.com/wincap/wincap/testing"
)

var fecHeader = strings.Join([]string{
	"JournalCode", "JournalLib", "EcritureNum", "EcritureDate",
	"CompteNum", "CompteLib", "CompAuxNum", "CompAuxLib",
	"PieceRef", "PieceDate", "EcritureLib", "Debit", "Credit",
	"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
}, "\t")

func fecRow(journal, num, date, account, label, debit, credit string) string {
	return strings.Join([]string{journal, "Journal " + journal, num, date,
		account, label, "", "", "PC-" + num, date, label, debit, credit,
		"", "", "", "", ""}, "\t")
}

// tradingYear renders a minimal but balanced FEC file for one year: a
// VAT-bearing sale, a supplier purchase and a bank collection.
func tradingYear(year int, revenue string) []byte {
	y := fmt.Sprintf("%d", year)
	rows := []string{
		fecHeader,
		fecRow("VT", "1", y+"0115", "411000", "Clients", revenue, "0,00"),
		fecRow("VT", "1", y+"0115", "706000", "Prestations", "0,00", revenue),
		fecRow("AC", "1", y+"0220", "607000", "Achats", "400,00", "0,00"),
		fecRow("AC", "1", y+"0220", "401000", "Fournisseurs", "0,00", "400,00"),
		fecRow("BQ", "1", y+"0410", "512000", "Banque", "600,00", "0,00"),
		fecRow("BQ", "1", y+"0410", "411000", "Clients", "0,00", "600,00"),
	}
	return []byte(strings.Join(rows, "\n") + "\n")
}

func testOptions() Options {
	return Options{
		Statements:      statements.DefaultConfig(),
		RowErrorCeiling: 10,
		MaxParallelism:  4,
	}
}

func TestProcessSingleFile(t *testing.T) {
	data := []byte(strings.Join([]string{
		fecHeader,
		fecRow("VT", "1", "20240115", "411000", "Clients", "1200,00", "0,00"),
		fecRow("VT", "1", "20240115", "706000", "Prestations", "0,00", "1000,00"),
		fecRow("VT", "1", "20240115", "445710", "TVA collectée", "0,00", "200,00"),
	}, "\n") + "\n")

	p := New(testOptions(), nil)
	r, err := p.Process(context.Background(), []FileInput{
		{Name: "844118190FEC20241231.txt", Data: data},
	})
	require.NoError(t, err)
	require.Len(t, r.Years, 1)

	snap := r.Years[0]
	// The year label comes from the filename convention.
	require.Equal(t, 2024, snap.Year)
	require.True(t, snap.PL.Revenue.Equal(decimal.RequireFromString("1000.00")))
	require.False(t, snap.CashFlow.HasPrior)
	require.Empty(t, snap.Anomalies)
}

func TestProcessFlagsUnmappedAccount(t *testing.T) {
	data := []byte(strings.Join([]string{
		fecHeader,
		fecRow("OD", "1", "20240110", "871000", "Engagements", "40,00", "0,00"),
		fecRow("OD", "1", "20240110", "891000", "Contrepartie", "0,00", "40,00"),
	}, "\n") + "\n")

	p := New(testOptions(), nil)
	r, err := p.Process(context.Background(), []FileInput{
		{Name: "844118190FEC20241231.txt", Data: data},
	})
	require.NoError(t, err)
	require.Len(t, r.Years, 1)

	kinds := make(map[ledger.AnomalyKind]int)
	for _, a := range r.Years[0].Anomalies {
		kinds[a.Kind]++
	}
	require.Equal(t, 2, kinds[ledger.AnomalyUnmappedAccount])
}

func TestProcessOverlappingYearsFails(t *testing.T) {
	p := New(testOptions(), nil)
	_, err := p.Process(context.Background(), []FileInput{
		{Name: "844118190FEC20241231.txt", Data: tradingYear(2024, "1000,00")},
		{Name: "844118190FEC20241231-bis.txt", Data: tradingYear(2024, "2000,00")},
	})
	// Overlapping periods fail the session; no partial report.
	require.ErrorIs(t, err, ledger.ErrFiscalYearCollision)
}

func TestProcessThreeConsecutiveYears(t *testing.T) {
	p := New(testOptions(), nil)
	r, err := p.Process(context.Background(), []FileInput{
		{Name: "844118190FEC20241231.txt", Data: tradingYear(2024, "1200,00")},
		{Name: "844118190FEC20221231.txt", Data: tradingYear(2022, "1000,00")},
		{Name: "844118190FEC20231231.txt", Data: tradingYear(2023, "1100,00")},
	})
	require.NoError(t, err)

	// Chronological regardless of submission order.
	require.Len(t, r.Years, 3)
	require.Equal(t, 2022, r.Years[0].Year)
	require.Equal(t, 2023, r.Years[1].Year)
	require.Equal(t, 2024, r.Years[2].Year)

	require.Len(t, r.Deltas, 2)
	require.Len(t, r.Bridges, 2)

	// The first year has no prior sheet to diff against.
	require.False(t, r.Years[0].CashFlow.HasPrior)
	require.True(t, r.Years[1].CashFlow.HasPrior)
	require.True(t, r.Years[2].CashFlow.HasPrior)

	// Balance sheets accumulate across the loaded years.
	cash2022 := r.Years[0].Balance.Cash
	cash2024 := r.Years[2].Balance.Cash
	require.True(t, cash2024.Equal(cash2022.Mul(decimal.NewFromInt(3))))
}

func TestProcessRowErrorWarnings(t *testing.T) {
	data := []byte(strings.Join([]string{
		fecHeader,
		fecRow("VT", "1", "20240115", "411000", "Clients", "100,00", "0,00"),
		fecRow("VT", "1", "20240115", "706000", "Prestations", "0,00", "100,00"),
		fecRow("VT", "2", "not-a-date", "706000", "Prestations", "0,00", "50,00"),
	}, "\n") + "\n")

	opts := testOptions()
	opts.RowErrorCeiling = 50
	p := New(opts, nil)
	r, err := p.Process(context.Background(), []FileInput{
		{Name: "844118190FEC20241231.txt", Data: data},
	})
	require.NoError(t, err)
	require.Len(t, r.Warnings, 1)
	require.Contains(t, r.Warnings[0], "1 malformed rows excluded")
}

func TestProcessRejectsEmptyInput(t *testing.T) {
	p := New(testOptions(), nil)
	_, err := p.Process(context.Background(), nil)
	require.Error(t, err)

	_, err = p.Process(context.Background(), []FileInput{{Name: "x.txt"}})
	require.Error(t, err)
}

func TestFiscalYearFromName(t *testing.T) {
	require.Equal(t, 2024, fiscalYearFromName("844118190FEC20241231.txt"))
	require.Equal(t, 2023, fiscalYearFromName("123456789FEC20230630.txt"))
	require.Equal(t, 0, fiscalYearFromName("export.txt"))
}
