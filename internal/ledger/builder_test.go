package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wincap/wincap/internal/fec"
	_ "github.com/wincap/wincap/testing"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(journal, number, date, account, label string, debit, credit string) fec.LedgerEntry {
	d, _ := time.Parse("20060102", date)
	return fec.LedgerEntry{
		JournalCode:  journal,
		JournalLabel: "Journal " + journal,
		EntryNumber:  number,
		EntryDate:    d,
		AccountNum:   account,
		AccountLabel: label,
		Debit:        amt(debit),
		Credit:       amt(credit),
	}
}

func tolerance() decimal.Decimal {
	return amt("0.01")
}

func TestBuildGroupsByJournalAndNumber(t *testing.T) {
	result := fec.Result{Entries: []fec.LedgerEntry{
		line("VT", "1", "20240115", "411000", "Clients", "120.00", "0"),
		line("VT", "1", "20240115", "706000", "Prestations", "0", "100.00"),
		line("VT", "1", "20240115", "445710", "TVA collectée", "0", "20.00"),
		line("BQ", "1", "20240120", "512000", "Banque", "120.00", "0"),
		line("BQ", "1", "20240120", "411000", "Clients", "0", "120.00"),
	}}

	fy, err := NewBuilder(DefaultChart(), tolerance()).Build(result, FileMeta{})
	require.NoError(t, err)
	require.Len(t, fy.Entries, 2)

	// Entries come out sorted by journal code then number.
	require.Equal(t, "BQ", fy.Entries[0].JournalCode)
	require.Equal(t, "VT", fy.Entries[1].JournalCode)
	require.Len(t, fy.Entries[1].Lines, 3)
	require.True(t, fy.Entries[1].Balanced(tolerance()))
	require.Empty(t, fy.Anomalies)

	acc, ok := fy.AccountFor("706000")
	require.True(t, ok)
	require.Equal(t, StmtRevenue, acc.Statement)
}

func TestBuildInfersBoundaryAndYear(t *testing.T) {
	result := fec.Result{Entries: []fec.LedgerEntry{
		line("OD", "1", "20230301", "606000", "Fournitures", "10.00", "0"),
		line("OD", "1", "20230301", "401000", "Fournisseurs", "0", "10.00"),
		line("OD", "2", "20231228", "606000", "Fournitures", "5.00", "0"),
		line("OD", "2", "20231228", "401000", "Fournisseurs", "0", "5.00"),
	}}

	fy, err := NewBuilder(nil, tolerance()).Build(result, FileMeta{})
	require.NoError(t, err)
	require.Equal(t, 2023, fy.Year)
	require.Equal(t, "2023-03-01", fy.Start.Format("2006-01-02"))
	require.Equal(t, "2023-12-28", fy.End.Format("2006-01-02"))
}

func TestBuildDeclaredMetaWins(t *testing.T) {
	result := fec.Result{Entries: []fec.LedgerEntry{
		line("OD", "1", "20240601", "606000", "Fournitures", "10.00", "0"),
		line("OD", "1", "20240601", "401000", "Fournisseurs", "0", "10.00"),
	}}

	start, _ := time.Parse("2006-01-02", "2023-07-01")
	end, _ := time.Parse("2006-01-02", "2024-06-30")
	fy, err := NewBuilder(nil, tolerance()).Build(result, FileMeta{FiscalYear: 2024, Start: start, End: end})
	require.NoError(t, err)
	require.Equal(t, 2024, fy.Year)
	require.Equal(t, start, fy.Start)
	require.Equal(t, end, fy.End)
}

func TestBuildUnbalancedEntryAnomaly(t *testing.T) {
	result := fec.Result{Entries: []fec.LedgerEntry{
		line("VT", "9", "20240110", "411000", "Clients", "100.00", "0"),
		line("VT", "9", "20240110", "706000", "Prestations", "0", "90.00"),
	}}

	fy, err := NewBuilder(nil, tolerance()).Build(result, FileMeta{})
	require.NoError(t, err)
	require.Len(t, fy.Anomalies, 1)

	a := fy.Anomalies[0]
	require.Equal(t, AnomalyUnbalancedEntry, a.Kind)
	require.Equal(t, SeverityHigh, a.Severity)
	require.True(t, a.Amount.Equal(amt("10.00")))
	require.Len(t, a.Entries, 2)
	require.NotEmpty(t, a.ID)
}

func TestBuildWithinToleranceIsBalanced(t *testing.T) {
	result := fec.Result{Entries: []fec.LedgerEntry{
		line("VT", "9", "20240110", "411000", "Clients", "100.00", "0"),
		line("VT", "9", "20240110", "706000", "Prestations", "0", "99.99"),
	}}

	fy, err := NewBuilder(nil, tolerance()).Build(result, FileMeta{})
	require.NoError(t, err)
	require.Empty(t, fy.Anomalies)
}

func TestBuildUnmappedAccountAnomaly(t *testing.T) {
	result := fec.Result{Entries: []fec.LedgerEntry{
		line("OD", "1", "20240110", "871000", "Engagements donnés", "40.00", "0"),
		line("OD", "1", "20240110", "891000", "Contrepartie", "0", "40.00"),
	}}

	fy, err := NewBuilder(nil, tolerance()).Build(result, FileMeta{})
	require.NoError(t, err)
	require.Len(t, fy.Anomalies, 2)

	// Same severity, so ordering falls back to score then account number.
	for _, a := range fy.Anomalies {
		require.Equal(t, AnomalyUnmappedAccount, a.Kind)
		require.Equal(t, SeverityMedium, a.Severity)
	}
	require.Equal(t, "871000", fy.Anomalies[0].AccountNum)
	require.Equal(t, "891000", fy.Anomalies[1].AccountNum)
}

func TestBuildNoEntries(t *testing.T) {
	_, err := NewBuilder(nil, tolerance()).Build(fec.Result{}, FileMeta{})
	require.ErrorIs(t, err, ErrNoEntries)
}

func TestLedgerAddRejectsOverlap(t *testing.T) {
	mk := func(year int, start, end string) *FiscalYear {
		s, _ := time.Parse("2006-01-02", start)
		e, _ := time.Parse("2006-01-02", end)
		return &FiscalYear{Year: year, Start: s, End: e}
	}

	var l Ledger
	require.NoError(t, l.Add(mk(2023, "2023-01-01", "2023-12-31")))
	require.NoError(t, l.Add(mk(2022, "2022-01-01", "2022-12-31")))

	err := l.Add(mk(2023, "2023-06-01", "2024-05-31"))
	require.ErrorIs(t, err, ErrFiscalYearCollision)

	years := l.Years()
	require.Len(t, years, 2)
	require.Equal(t, 2022, years[0].Year)
	require.Equal(t, 2023, years[1].Year)

	_, ok := l.ByYear(2022)
	require.True(t, ok)
	_, ok = l.ByYear(2024)
	require.False(t, ok)
}
