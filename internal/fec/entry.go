package fec

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one line of a FEC export. Fields mirror the canonical
// column order of the statutory format. Values are fixed once parsed; the
// source line number is kept for drill-through.
type LedgerEntry struct {
	JournalCode  string
	JournalLabel string
	EntryNumber  string
	EntryDate    time.Time
	AccountNum   string
	AccountLabel string
	AuxAccount   string
	AuxLabel     string
	PieceRef     string
	PieceDate    time.Time
	Description  string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Lettering    string
	LetteringAt  *time.Time
	ValidatedAt  *time.Time
	FXAmount     decimal.Decimal
	FXCurrency   string

	// Line is the 1-based line number in the source file.
	Line int
}

// Amount returns the signed net movement (debit minus credit).
func (e LedgerEntry) Amount() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// AccountClass returns the first digit of the account number (PCG class).
func (e LedgerEntry) AccountClass() string {
	if e.AccountNum == "" {
		return ""
	}
	return e.AccountNum[:1]
}

// FiscalYear returns the calendar year of the entry date.
func (e LedgerEntry) FiscalYear() int {
	return e.EntryDate.Year()
}

// Ref identifies an entry inside its source file without copying it.
type Ref struct {
	JournalCode string `json:"journal_code"`
	EntryNumber string `json:"entry_number"`
	Line        int    `json:"line"`
}

// RefOf builds the back-reference for an entry.
func RefOf(e LedgerEntry) Ref {
	return Ref{JournalCode: e.JournalCode, EntryNumber: e.EntryNumber, Line: e.Line}
}
