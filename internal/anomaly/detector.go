// Package anomaly ranks hotspot findings over a fiscal year's ledger.
// Integrity findings (unbalanced entries, unmapped accounts) are raised by
// the ledger builder; this package adds the statistical and rule-based
// detectors and merges everything into one severity-ranked list.
package anomaly

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/fec"
	"github.com/wincap/wincap/internal/ledger"
)

// Config carries the detector thresholds. All values are policy, exposed
// through configuration rather than hardcoded. A zero threshold disables
// its scan.
type Config struct {
	// OutlierMultiple flags balances beyond this multiple of the trailing
	// multi-year average (or the peer-class average without history).
	OutlierMultiple decimal.Decimal
	// OneOffThreshold flags any single transaction at or above this
	// absolute amount.
	OneOffThreshold decimal.Decimal
	// PayrollSpikePct flags month-over-month payroll growth beyond this
	// percentage.
	PayrollSpikePct decimal.Decimal
	// MinPeers is the smallest peer group usable for class comparison.
	MinPeers int
}

// DefaultConfig returns the conventional review thresholds.
func DefaultConfig() Config {
	return Config{
		OutlierMultiple: decimal.NewFromInt(3),
		OneOffThreshold: decimal.NewFromInt(50000),
		PayrollSpikePct: decimal.NewFromInt(50),
		MinPeers:        3,
	}
}

// Detector runs the statistical and rule-based scans.
type Detector struct {
	cfg Config
}

// NewDetector constructs a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect scans one fiscal year against its multi-year history and returns
// findings ranked by severity. The integrity findings already attached to
// the year are merged into the result; the year itself is not modified.
func (d *Detector) Detect(fy *ledger.FiscalYear, history []*ledger.FiscalYear) []ledger.Anomaly {
	findings := make([]ledger.Anomaly, 0, len(fy.Anomalies))
	findings = append(findings, fy.Anomalies...)

	prior := make([]*ledger.FiscalYear, 0, len(history))
	for _, h := range history {
		if h.Year < fy.Year {
			prior = append(prior, h)
		}
	}

	flagged := make(map[string]bool)
	findings = append(findings, d.balanceOutliers(fy, prior, flagged)...)
	findings = append(findings, d.oneOffTransactions(fy, prior)...)
	findings = append(findings, d.payrollSpikes(fy)...)

	ledger.RankAnomalies(findings)
	return findings
}

// balances aggregates the signed movement per account for one year.
func balances(fy *ledger.FiscalYear) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	fy.Lines(func(line fec.LedgerEntry, _ ledger.Account) {
		out[line.AccountNum] = out[line.AccountNum].Add(line.Amount())
	})
	return out
}

// balanceOutliers compares each account's balance to its trailing average
// across prior years; without history it falls back to the peer accounts
// of the same PCG class.
func (d *Detector) balanceOutliers(fy *ledger.FiscalYear, prior []*ledger.FiscalYear, flagged map[string]bool) []ledger.Anomaly {
	if d.cfg.OutlierMultiple.IsZero() {
		return nil
	}
	current := balances(fy)
	if len(prior) > 0 {
		return d.historicalOutliers(fy, current, prior, flagged)
	}
	return d.peerOutliers(fy, current, flagged)
}

func (d *Detector) historicalOutliers(fy *ledger.FiscalYear, current map[string]decimal.Decimal, prior []*ledger.FiscalYear, flagged map[string]bool) []ledger.Anomaly {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int64)
	for _, h := range prior {
		for num, bal := range balances(h) {
			sums[num] = sums[num].Add(bal.Abs())
			counts[num]++
		}
	}

	var findings []ledger.Anomaly
	for _, num := range sortedKeys(current) {
		bal := current[num]
		n := counts[num]
		if n == 0 {
			continue
		}
		avg := sums[num].Div(decimal.NewFromInt(n))
		if avg.IsZero() || bal.Abs().LessThanOrEqual(avg.Mul(d.cfg.OutlierMultiple)) {
			continue
		}
		deviation := bal.Abs().Div(avg)
		sev := ledger.SeverityMedium
		if deviation.GreaterThanOrEqual(d.cfg.OutlierMultiple.Mul(decimal.NewFromInt(2))) {
			sev = ledger.SeverityHigh
		}
		a := ledger.NewAnomaly(ledger.AnomalyBalanceOutlier, sev, fy.Year)
		a.AccountNum = num
		a.Amount = bal
		a.Score, _ = deviation.Float64()
		a.Message = fmt.Sprintf("account %s balance %s is %sx its trailing average %s",
			num, bal.StringFixed(2), deviation.StringFixed(1), avg.StringFixed(2))
		findings = append(findings, a)
		flagged[num] = true
	}
	return findings
}

// peerOutliers is the single-year fallback: each account is compared to
// the average absolute balance of its PCG class.
func (d *Detector) peerOutliers(fy *ledger.FiscalYear, current map[string]decimal.Decimal, flagged map[string]bool) []ledger.Anomaly {
	classSums := make(map[string]decimal.Decimal)
	classCounts := make(map[string]int64)
	for num, bal := range current {
		if num == "" {
			continue
		}
		class := num[:1]
		classSums[class] = classSums[class].Add(bal.Abs())
		classCounts[class]++
	}

	var findings []ledger.Anomaly
	for _, num := range sortedKeys(current) {
		if num == "" {
			continue
		}
		bal := current[num]
		class := num[:1]
		if classCounts[class] < int64(d.cfg.MinPeers) {
			continue
		}
		avg := classSums[class].Div(decimal.NewFromInt(classCounts[class]))
		if avg.IsZero() || bal.Abs().LessThanOrEqual(avg.Mul(d.cfg.OutlierMultiple)) {
			continue
		}
		deviation := bal.Abs().Div(avg)
		a := ledger.NewAnomaly(ledger.AnomalyBalanceOutlier, ledger.SeverityMedium, fy.Year)
		a.AccountNum = num
		a.Amount = bal
		a.Score, _ = deviation.Float64()
		a.Message = fmt.Sprintf("account %s balance %s is %sx the class %s average %s",
			num, bal.StringFixed(2), deviation.StringFixed(1), class, avg.StringFixed(2))
		findings = append(findings, a)
		flagged[num] = true
	}
	return findings
}

// oneOffTransactions flags single lines at or above the absolute
// threshold. Severity scales with the deviation from the account's
// historical average line size, so a large booking on a normally quiet
// account ranks above routine large bookings.
func (d *Detector) oneOffTransactions(fy *ledger.FiscalYear, prior []*ledger.FiscalYear) []ledger.Anomaly {
	if d.cfg.OneOffThreshold.IsZero() {
		return nil
	}

	histSums := make(map[string]decimal.Decimal)
	histCounts := make(map[string]int64)
	for _, h := range prior {
		h.Lines(func(line fec.LedgerEntry, _ ledger.Account) {
			histSums[line.AccountNum] = histSums[line.AccountNum].Add(line.Amount().Abs())
			histCounts[line.AccountNum]++
		})
	}

	var findings []ledger.Anomaly
	fy.Lines(func(line fec.LedgerEntry, _ ledger.Account) {
		amount := line.Amount().Abs()
		if amount.LessThan(d.cfg.OneOffThreshold) {
			return
		}

		// Deviation baseline: historical mean line size, the threshold
		// itself when the account has no history.
		baseline := d.cfg.OneOffThreshold
		if n := histCounts[line.AccountNum]; n > 0 {
			if avg := histSums[line.AccountNum].Div(decimal.NewFromInt(n)); avg.GreaterThan(decimal.Zero) {
				baseline = avg
			}
		}
		deviation := amount.Div(baseline)

		sev := ledger.SeverityMedium
		if deviation.GreaterThanOrEqual(decimal.NewFromInt(10)) {
			sev = ledger.SeverityHigh
		}
		a := ledger.NewAnomaly(ledger.AnomalyOneOffTransaction, sev, fy.Year)
		a.AccountNum = line.AccountNum
		a.Amount = line.Amount()
		a.Score, _ = deviation.Float64()
		a.Entries = []fec.Ref{fec.RefOf(line)}
		a.Message = fmt.Sprintf("single transaction of %s on account %s (%sx its usual line size)",
			amount.StringFixed(2), line.AccountNum, deviation.StringFixed(1))
		findings = append(findings, a)
	})
	return findings
}

// payrollSpikes flags month-over-month jumps on personnel accounts.
func (d *Detector) payrollSpikes(fy *ledger.FiscalYear) []ledger.Anomaly {
	if d.cfg.PayrollSpikePct.IsZero() {
		return nil
	}

	var months [12]decimal.Decimal
	var refs [12][]fec.Ref
	fy.Lines(func(line fec.LedgerEntry, acc ledger.Account) {
		if acc.Statement != ledger.StmtPersonnel {
			return
		}
		idx := int(line.EntryDate.Month()) - 1
		if idx < 0 || idx > 11 {
			return
		}
		months[idx] = months[idx].Add(line.Debit.Sub(line.Credit))
		refs[idx] = append(refs[idx], fec.RefOf(line))
	})

	var findings []ledger.Anomaly
	for i := 1; i < 12; i++ {
		prev, curr := months[i-1], months[i]
		if prev.LessThanOrEqual(decimal.Zero) || curr.LessThanOrEqual(prev) {
			continue
		}
		growthPct := curr.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
		if growthPct.LessThanOrEqual(d.cfg.PayrollSpikePct) {
			continue
		}
		a := ledger.NewAnomaly(ledger.AnomalySpike, ledger.SeverityMedium, fy.Year)
		a.Amount = curr.Sub(prev)
		a.Score, _ = growthPct.Float64()
		a.Entries = refs[i]
		a.Message = fmt.Sprintf("payroll jumped %s%% from month %d to month %d (%s to %s)",
			growthPct.StringFixed(1), i, i+1, prev.StringFixed(2), curr.StringFixed(2))
		findings = append(findings, a)
	}
	return findings
}

// sortedKeys keeps the scan order deterministic so re-runs rank equally
// scored findings identically.
func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
