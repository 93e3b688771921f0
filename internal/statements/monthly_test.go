package statements

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMonthly(t *testing.T) {
	fy := buildYear(t, 2024, []testLine{
		{"VT", "1", "20240110", "706000", "Prestations", "", "0", "100.00"},
		{"VT", "1", "20240110", "411000", "Clients", "", "100.00", "0"},
		{"VT", "2", "20240420", "706000", "Prestations", "", "0", "300.00"},
		{"VT", "2", "20240420", "411000", "Clients", "", "300.00", "0"},
		{"AC", "1", "20240405", "607000", "Achats", "", "120.00", "0"},
		{"AC", "1", "20240405", "401000", "Fournisseurs", "", "0", "120.00"},
		{"VT", "3", "20241215", "706000", "Prestations", "", "0", "200.00"},
		{"VT", "3", "20241215", "411000", "Clients", "", "200.00", "0"},
	})
	m := BuildMonthly(fy)

	eq(t, "100.00", m.Revenue[0])
	eq(t, "300.00", m.Revenue[3])
	eq(t, "200.00", m.Revenue[11])
	eq(t, "120.00", m.Costs[3])
	eq(t, "180.00", m.EBITDA[3])

	eq(t, "600.00", m.TotalRevenue())
	eq(t, "600.00", m.CumulativeRevenue[11])
	eq(t, "400.00", m.CumulativeRevenue[4])

	eq(t, "100.00", m.Quarters[0])
	eq(t, "300.00", m.Quarters[1])
	eq(t, "0", m.Quarters[2])
	eq(t, "200.00", m.Quarters[3])
}

func TestSeasonalityIndex(t *testing.T) {
	var m Monthly
	// All revenue lands in December.
	m.Revenue[11] = amt("1200")

	index := SeasonalityIndex([]Monthly{m})
	eq(t, "1200", index[11])
	eq(t, "0", index[0])
}

func TestSeasonalityIndexFlatSeries(t *testing.T) {
	var m Monthly
	for i := range m.Revenue {
		m.Revenue[i] = amt("50")
	}
	index := SeasonalityIndex([]Monthly{m, m})
	for i := range index {
		eq(t, "100", index[i])
	}
}

func TestSeasonalityIndexDegenerate(t *testing.T) {
	for _, series := range [][]Monthly{nil, {{}}} {
		index := SeasonalityIndex(series)
		for i := range index {
			require.True(t, index[i].Equal(amt("100")), "month %d", i)
		}
	}
}
