package fec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical FEC columns in statutory order.
var canonicalFields = []string{
	"JournalCode", "JournalLib", "EcritureNum", "EcritureDate",
	"CompteNum", "CompteLib", "CompAuxNum", "CompAuxLib",
	"PieceRef", "PieceDate", "EcritureLib", "Debit", "Credit",
	"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
}

const requiredFieldCount = 18

// Optional columns may be empty on any row.
var optionalFields = map[string]bool{
	"compauxnum": true, "compauxlib": true, "ecriturelet": true,
	"datelet": true, "validdate": true, "montantdevise": true, "idevise": true,
}

var (
	// ErrMissingColumns occurs when the header lacks required FEC fields.
	ErrMissingColumns = errors.New("fec: missing required columns")
	// ErrTooManyRowErrors occurs when the malformed-row rate exceeds the
	// configured ceiling.
	ErrTooManyRowErrors = errors.New("fec: row error rate exceeds ceiling")
)

// RowError records a single malformed data row. The row keeps its source
// line number so the finding can be traced back to the file.
type RowError struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s (value %q)", e.Row, e.Field, e.Value, e.Reason)
}

// Result carries everything produced by one parse run.
type Result struct {
	Entries   []LedgerEntry
	Errors    []RowError
	Decode    DecodeReport
	TotalRows int
}

// ErrorRate returns the share of data rows that failed to parse, in percent.
func (r Result) ErrorRate() float64 {
	if r.TotalRows == 0 {
		return 0
	}
	return float64(len(r.Errors)) / float64(r.TotalRows) * 100
}

// Parser converts raw FEC bytes into ledger entries. Parsing the same bytes
// twice yields identical entries and identical errors.
type Parser struct {
	// ErrorRateCeiling is the maximum tolerated percentage of malformed
	// rows before the whole file is rejected.
	ErrorRateCeiling float64
}

// NewParser returns a parser with the given row-error ceiling (percent).
func NewParser(errorRateCeiling float64) *Parser {
	return &Parser{ErrorRateCeiling: errorRateCeiling}
}

// Parse decodes and parses a complete FEC file. Malformed rows degrade to
// RowError records; the file as a whole fails only on structural problems
// or when the error rate crosses the ceiling.
func (p *Parser) Parse(raw []byte) (Result, error) {
	text, report, err := Decode(raw)
	if err != nil {
		return Result{Decode: report}, err
	}
	result := Result{Decode: report}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = report.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return result, ErrEmptyFile
		}
		return result, fmt.Errorf("fec: read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return result, err
	}

	line := 1
	for {
		record, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.TotalRows++
			result.Errors = append(result.Errors, RowError{
				Row: line, Field: "-", Value: "", Reason: err.Error(),
			})
			continue
		}
		if isBlank(record) {
			continue
		}
		result.TotalRows++

		entry, rowErr := parseRow(record, cols, line)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	if p.ErrorRateCeiling > 0 && result.ErrorRate() > p.ErrorRateCeiling {
		return result, fmt.Errorf("%w: %.1f%% of %d rows malformed, ceiling %.1f%%",
			ErrTooManyRowErrors, result.ErrorRate(), result.TotalRows, p.ErrorRateCeiling)
	}
	return result, nil
}

// mapColumns resolves canonical field names to column indices. Matching is
// case-insensitive; extra trailing columns are ignored.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for idx, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if _, dup := cols[key]; !dup {
			cols[key] = idx
		}
	}

	var missing []string
	for _, field := range canonicalFields {
		if _, ok := cols[strings.ToLower(field)]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

type rowReader struct {
	record []string
	cols   map[string]int
	line   int
	err    *RowError
}

func (r *rowReader) cell(field string) string {
	idx, ok := r.cols[strings.ToLower(field)]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func (r *rowReader) fail(field, value, reason string) {
	if r.err == nil {
		r.err = &RowError{Row: r.line, Field: field, Value: value, Reason: reason}
	}
}

func (r *rowReader) date(field string, required bool) time.Time {
	raw := r.cell(field)
	if raw == "" {
		if required {
			r.fail(field, raw, "empty date")
		}
		return time.Time{}
	}
	t, err := parseDate(raw)
	if err != nil {
		r.fail(field, raw, err.Error())
		return time.Time{}
	}
	return t
}

func (r *rowReader) optionalDate(field string) *time.Time {
	raw := r.cell(field)
	if raw == "" {
		return nil
	}
	t, err := parseDate(raw)
	if err != nil {
		r.fail(field, raw, err.Error())
		return nil
	}
	return &t
}

func (r *rowReader) amount(field string) decimal.Decimal {
	raw := r.cell(field)
	d, err := parseAmount(raw)
	if err != nil {
		r.fail(field, raw, err.Error())
		return decimal.Zero
	}
	return d
}

func parseRow(record []string, cols map[string]int, line int) (LedgerEntry, *RowError) {
	r := &rowReader{record: record, cols: cols, line: line}

	entry := LedgerEntry{
		JournalCode:  r.cell("JournalCode"),
		JournalLabel: r.cell("JournalLib"),
		EntryNumber:  r.cell("EcritureNum"),
		EntryDate:    r.date("EcritureDate", true),
		AccountNum:   r.cell("CompteNum"),
		AccountLabel: r.cell("CompteLib"),
		AuxAccount:   r.cell("CompAuxNum"),
		AuxLabel:     r.cell("CompAuxLib"),
		PieceRef:     r.cell("PieceRef"),
		PieceDate:    r.date("PieceDate", false),
		Description:  r.cell("EcritureLib"),
		Debit:        r.amount("Debit"),
		Credit:       r.amount("Credit"),
		Lettering:    r.cell("EcritureLet"),
		LetteringAt:  r.optionalDate("DateLet"),
		ValidatedAt:  r.optionalDate("ValidDate"),
		FXAmount:     r.amount("Montantdevise"),
		FXCurrency:   r.cell("Idevise"),
		Line:         line,
	}

	if entry.AccountNum == "" {
		r.fail("CompteNum", "", "empty account number")
	}
	if r.err != nil {
		return LedgerEntry{}, r.err
	}
	return entry, nil
}

var legacyDateFormats = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// parseDate accepts the statutory 8-digit form first and a small set of
// legacy formats seen in tool-generated exports.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("20060102", raw); err == nil {
		return t, nil
	}
	for _, layout := range legacyDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date")
}

// parseAmount normalizes French numeric notation (comma decimals, space or
// dot thousands separators, non-breaking spaces) into a decimal value.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	cleaned := raw
	switch {
	case strings.Contains(cleaned, ",") && strings.Contains(cleaned, "."):
		// 1.234,56 style: dot is a thousands separator.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount")
	}
	return d, nil
}
