package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/fec"
)

// ErrNoEntries occurs when a parse produced no usable ledger lines.
var ErrNoEntries = errors.New("ledger: no entries to build")

// FileMeta is the caller-declared metadata accompanying one uploaded file.
type FileMeta struct {
	// FiscalYear is the declared year label, usually taken from the FEC
	// filename convention (SIREN + "FEC" + closing date). Zero means the
	// year is inferred from the entry dates.
	FiscalYear int
	// Start and End declare the period boundary. Zero values mean the
	// boundary is inferred from the min/max entry dates observed.
	Start time.Time
	End   time.Time
}

// Builder turns parsed ledger lines into a fiscal year with grouped,
// account-resolved journal entries and integrity findings.
type Builder struct {
	chart     *Chart
	tolerance decimal.Decimal
}

// NewBuilder constructs a builder. The tolerance absorbs legitimate
// rounding in the debit=credit check, typically 0.01 currency units.
func NewBuilder(chart *Chart, tolerance decimal.Decimal) *Builder {
	if chart == nil {
		chart = DefaultChart()
	}
	return &Builder{chart: chart, tolerance: tolerance}
}

// Build groups entries by journal and entry number, resolves accounts and
// validates the double-entry invariant. Violations become anomaly records;
// no entry is ever dropped.
func (b *Builder) Build(result fec.Result, meta FileMeta) (*FiscalYear, error) {
	if len(result.Entries) == 0 {
		return nil, ErrNoEntries
	}

	fy := &FiscalYear{
		Accounts:  make(map[string]Account),
		Decode:    result.Decode,
		RowErrors: result.Errors,
	}

	type groupKey struct {
		journal string
		number  string
	}
	groups := make(map[groupKey]*JournalEntry)
	order := make([]groupKey, 0)

	minDate, maxDate := time.Time{}, time.Time{}
	for _, entry := range result.Entries {
		key := groupKey{journal: entry.JournalCode, number: entry.EntryNumber}
		je, ok := groups[key]
		if !ok {
			je = &JournalEntry{
				JournalCode:  entry.JournalCode,
				JournalLabel: entry.JournalLabel,
				Number:       entry.EntryNumber,
			}
			groups[key] = je
			order = append(order, key)
		}
		je.Lines = append(je.Lines, entry)

		if _, seen := fy.Accounts[entry.AccountNum]; !seen {
			fy.Accounts[entry.AccountNum] = b.chart.Resolve(entry.AccountNum, entry.AccountLabel)
		}
		if minDate.IsZero() || entry.EntryDate.Before(minDate) {
			minDate = entry.EntryDate
		}
		if maxDate.IsZero() || entry.EntryDate.After(maxDate) {
			maxDate = entry.EntryDate
		}
	}

	fy.Start, fy.End = meta.Start, meta.End
	if fy.Start.IsZero() {
		fy.Start = minDate
	}
	if fy.End.IsZero() {
		fy.End = maxDate
	}
	fy.Year = meta.FiscalYear
	if fy.Year == 0 {
		fy.Year = fy.End.Year()
	}

	fy.Entries = make([]JournalEntry, 0, len(order))
	for _, key := range order {
		fy.Entries = append(fy.Entries, *groups[key])
	}
	sort.SliceStable(fy.Entries, func(i, j int) bool {
		if fy.Entries[i].JournalCode != fy.Entries[j].JournalCode {
			return fy.Entries[i].JournalCode < fy.Entries[j].JournalCode
		}
		return fy.Entries[i].Number < fy.Entries[j].Number
	})

	fy.Anomalies = append(fy.Anomalies, b.integrityFindings(fy)...)
	return fy, nil
}

// integrityFindings raises unbalanced-entry and unmapped-account anomalies.
func (b *Builder) integrityFindings(fy *FiscalYear) []Anomaly {
	var findings []Anomaly

	for _, je := range fy.Entries {
		if je.Balanced(b.tolerance) {
			continue
		}
		imbalance := je.Imbalance()
		a := NewAnomaly(AnomalyUnbalancedEntry, SeverityHigh, fy.Year)
		a.Amount = imbalance
		a.Score, _ = imbalance.Abs().Float64()
		a.Entries = je.Refs()
		a.Message = fmt.Sprintf("journal %s entry %s is unbalanced by %s",
			je.JournalCode, je.Number, imbalance.StringFixed(2))
		findings = append(findings, a)
	}

	unmappedRefs := make(map[string][]fec.Ref)
	unmappedAmounts := make(map[string]decimal.Decimal)
	fy.Lines(func(line fec.LedgerEntry, acc Account) {
		if !acc.Unmapped() {
			return
		}
		unmappedRefs[line.AccountNum] = append(unmappedRefs[line.AccountNum], fec.RefOf(line))
		unmappedAmounts[line.AccountNum] = unmappedAmounts[line.AccountNum].Add(line.Amount().Abs())
	})

	numbers := make([]string, 0, len(unmappedRefs))
	for num := range unmappedRefs {
		numbers = append(numbers, num)
	}
	sort.Strings(numbers)
	for _, num := range numbers {
		a := NewAnomaly(AnomalyUnmappedAccount, SeverityMedium, fy.Year)
		a.AccountNum = num
		a.Amount = unmappedAmounts[num]
		a.Score, _ = unmappedAmounts[num].Float64()
		a.Entries = unmappedRefs[num]
		a.Message = fmt.Sprintf("account %s matches no chart classification (%d lines)",
			num, len(unmappedRefs[num]))
		findings = append(findings, a)
	}

	RankAnomalies(findings)
	return findings
}
