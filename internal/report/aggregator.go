// Package report assembles the session-level multi-year output. The
// MultiYearReport is the only structure export renderers and the query
// agent read; they never re-derive anything from raw ledger data.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/statements"
)

// DeltaLine is the year-over-year movement of one statement line. Pct is
// undefined (not zero) when the prior value is zero.
type DeltaLine struct {
	Name string              `json:"name"`
	Prev decimal.Decimal     `json:"prev"`
	Curr decimal.Decimal     `json:"curr"`
	Abs  decimal.Decimal     `json:"abs"`
	Pct  statements.KPIValue `json:"pct"`
}

// DeltaSet compares one fiscal year against the previous one.
type DeltaSet struct {
	FromYear int         `json:"from_year"`
	ToYear   int         `json:"to_year"`
	Lines    []DeltaLine `json:"lines"`
}

// EBITDABridge decomposes the EBITDA movement between two years into a
// volume effect (revenue change at constant margin) and the residual
// price/mix effect.
type EBITDABridge struct {
	FromYear       int             `json:"from_year"`
	ToYear         int             `json:"to_year"`
	Start          decimal.Decimal `json:"start"`
	VolumeEffect   decimal.Decimal `json:"volume_effect"`
	PriceMixEffect decimal.Decimal `json:"price_mix_effect"`
	End            decimal.Decimal `json:"end"`
}

// MultiYearReport is the aggregated statement set across fiscal years,
// chronologically ordered, plus its comparative tables. Owned by the
// session that requested processing.
type MultiYearReport struct {
	Years   []statements.Snapshot `json:"years"`
	Deltas  []DeltaSet            `json:"deltas"`
	Bridges []EBITDABridge        `json:"bridges"`

	// Seasonality indexes monthly revenue across all years (100 = flat).
	Seasonality [12]decimal.Decimal `json:"seasonality"`

	// Warnings lists structural observations (year gaps, duplicate
	// uploads). They never block processing.
	Warnings []string `json:"warnings,omitempty"`
}

// Aggregate builds the comparative report. The input order is irrelevant:
// snapshots are sorted internally, so aggregating the same set in any
// order yields the same report.
func Aggregate(snapshots []statements.Snapshot) MultiYearReport {
	sorted := make([]statements.Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	r := MultiYearReport{}
	seen := make(map[int]int)
	for _, snap := range sorted {
		if idx, dup := seen[snap.Year]; dup {
			r.Years[idx] = preferSnapshot(r.Years[idx], snap)
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("fiscal year %d uploaded more than once; keeping one snapshot", snap.Year))
			continue
		}
		seen[snap.Year] = len(r.Years)
		r.Years = append(r.Years, snap)
	}

	monthlies := make([]statements.Monthly, 0, len(r.Years))
	for i, snap := range r.Years {
		monthlies = append(monthlies, snap.Monthly)
		if i == 0 {
			continue
		}
		prev := r.Years[i-1]
		if snap.Year-prev.Year > 1 {
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("gap between fiscal years %d and %d; deltas bridge the gap", prev.Year, snap.Year))
		}
		r.Deltas = append(r.Deltas, buildDeltaSet(prev, snap))
		r.Bridges = append(r.Bridges, buildBridge(prev.PL, snap.PL))
	}
	r.Seasonality = statements.SeasonalityIndex(monthlies)
	return r
}

// preferSnapshot resolves a duplicate fiscal year by content, not by
// upload order: the snapshot with the lexicographically smaller JSON
// encoding wins, so either upload order keeps the same one.
func preferSnapshot(a, b statements.Snapshot) statements.Snapshot {
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if bytes.Compare(jb, ja) < 0 {
		return b
	}
	return a
}

func buildDeltaSet(prev, curr statements.Snapshot) DeltaSet {
	set := DeltaSet{FromYear: prev.Year, ToYear: curr.Year}
	add := func(name string, p, c decimal.Decimal) {
		line := DeltaLine{Name: name, Prev: p, Curr: c, Abs: c.Sub(p)}
		if !p.IsZero() {
			line.Pct = statements.DefinedKPI(line.Abs.Div(p.Abs()).Mul(decimal.NewFromInt(100)))
		}
		set.Lines = append(set.Lines, line)
	}

	add("revenue", prev.PL.Revenue, curr.PL.Revenue)
	add("other_revenue", prev.PL.OtherRevenue, curr.PL.OtherRevenue)
	add("production", prev.PL.Production(), curr.PL.Production())
	add("purchases", prev.PL.Purchases, curr.PL.Purchases)
	add("external_charges", prev.PL.ExternalCharges, curr.PL.ExternalCharges)
	add("taxes", prev.PL.Taxes, curr.PL.Taxes)
	add("personnel", prev.PL.Personnel, curr.PL.Personnel)
	add("other_charges", prev.PL.OtherCharges, curr.PL.OtherCharges)
	add("total_charges", prev.PL.TotalCharges(), curr.PL.TotalCharges())
	add("ebitda", prev.PL.EBITDA(), curr.PL.EBITDA())
	add("depreciation", prev.PL.Depreciation, curr.PL.Depreciation)
	add("ebit", prev.PL.EBIT(), curr.PL.EBIT())
	add("net_income", prev.PL.NetIncome(), curr.PL.NetIncome())
	add("adjusted_ebitda", prev.QoE.AdjustedEBITDA, curr.QoE.AdjustedEBITDA)

	add("total_assets", prev.Balance.TotalAssets(), curr.Balance.TotalAssets())
	add("working_capital", prev.Balance.WorkingCapital(), curr.Balance.WorkingCapital())
	add("net_debt", prev.Balance.NetDebt(), curr.Balance.NetDebt())
	add("cash", prev.Balance.Cash, curr.Balance.Cash)
	return set
}

func buildBridge(prev, curr statements.ProfitLoss) EBITDABridge {
	bridge := EBITDABridge{
		FromYear: prev.Year,
		ToYear:   curr.Year,
		Start:    prev.EBITDA(),
		End:      curr.EBITDA(),
	}
	if production := prev.Production(); !production.IsZero() {
		margin := prev.EBITDA().Div(production)
		bridge.VolumeEffect = curr.Revenue.Sub(prev.Revenue).Mul(margin)
	}
	bridge.PriceMixEffect = bridge.End.Sub(bridge.Start).Sub(bridge.VolumeEffect)
	return bridge
}
