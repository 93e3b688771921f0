package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wincap/wincap/internal/fec"
)

// ErrFiscalYearCollision occurs when a file's date range overlaps a fiscal
// year already present in the ledger. Overlapping uploads are never merged.
var ErrFiscalYearCollision = errors.New("ledger: fiscal year collision")

// FiscalYear is one closed accounting period with its grouped, resolved
// journal entries. Built once, never mutated afterwards.
type FiscalYear struct {
	Year    int
	Start   time.Time
	End     time.Time
	Entries []JournalEntry

	// Accounts indexes every account seen in the period by number.
	Accounts map[string]Account

	// Anomalies holds the integrity findings raised while building:
	// unbalanced groups and unmapped accounts.
	Anomalies []Anomaly

	// Decode carries the ingest report of the source file.
	Decode fec.DecodeReport

	// RowErrors are the malformed source rows excluded from the ledger.
	RowErrors []fec.RowError
}

// Lines iterates every ledger line across all journal entries.
func (fy *FiscalYear) Lines(fn func(fec.LedgerEntry, Account)) {
	for _, je := range fy.Entries {
		for _, line := range je.Lines {
			fn(line, fy.Accounts[line.AccountNum])
		}
	}
}

// AccountFor returns the resolved account for a number, if seen.
func (fy *FiscalYear) AccountFor(number string) (Account, bool) {
	acc, ok := fy.Accounts[number]
	return acc, ok
}

// Overlaps reports whether two fiscal-year date ranges intersect.
func (fy *FiscalYear) Overlaps(other *FiscalYear) bool {
	return !fy.End.Before(other.Start) && !other.End.Before(fy.Start)
}

// Ledger collects the fiscal years of one processing session, one per
// uploaded file, kept sorted by period end.
type Ledger struct {
	years []*FiscalYear
}

// Add inserts a fiscal year, rejecting overlaps with existing periods.
func (l *Ledger) Add(fy *FiscalYear) error {
	for _, existing := range l.years {
		if fy.Overlaps(existing) {
			return fmt.Errorf("%w: %s..%s overlaps fiscal year %d (%s..%s)",
				ErrFiscalYearCollision,
				fy.Start.Format("2006-01-02"), fy.End.Format("2006-01-02"),
				existing.Year,
				existing.Start.Format("2006-01-02"), existing.End.Format("2006-01-02"))
		}
	}
	l.years = append(l.years, fy)
	sort.SliceStable(l.years, func(i, j int) bool {
		return l.years[i].End.Before(l.years[j].End)
	})
	return nil
}

// Years returns the fiscal years ordered by period end.
func (l *Ledger) Years() []*FiscalYear {
	out := make([]*FiscalYear, len(l.years))
	copy(out, l.years)
	return out
}

// ByYear returns the fiscal year labelled with the given year, if present.
func (l *Ledger) ByYear(year int) (*FiscalYear, bool) {
	for _, fy := range l.years {
		if fy.Year == year {
			return fy, true
		}
	}
	return nil, false
}
