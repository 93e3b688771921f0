package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/wincap/wincap/internal/fec"
)

// JournalEntry groups every ledger line sharing one entry number within a
// journal. A well-formed group books the same total on both sides.
type JournalEntry struct {
	JournalCode  string
	JournalLabel string
	Number       string
	Lines        []fec.LedgerEntry
}

// TotalDebit sums the debit side of the group.
func (j JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range j.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side of the group.
func (j JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range j.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// Imbalance returns debit minus credit for the group.
func (j JournalEntry) Imbalance() decimal.Decimal {
	return j.TotalDebit().Sub(j.TotalCredit())
}

// Balanced reports whether the group is balanced within tolerance.
func (j JournalEntry) Balanced(tolerance decimal.Decimal) bool {
	return j.Imbalance().Abs().LessThanOrEqual(tolerance)
}

// Refs returns back-references to every line in the group.
func (j JournalEntry) Refs() []fec.Ref {
	refs := make([]fec.Ref, 0, len(j.Lines))
	for _, l := range j.Lines {
		refs = append(refs, fec.RefOf(l))
	}
	return refs
}
