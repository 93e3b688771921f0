package fec

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Delimiters accepted for FEC files, in detection order.
var delimiterCandidates = []rune{'\t', '|', ';'}

var (
	// ErrAmbiguousDelimiter occurs when two delimiters both produce a
	// plausible header, making the file structure undecidable.
	ErrAmbiguousDelimiter = errors.New("fec: ambiguous field delimiter")
	// ErrEmptyFile occurs when the buffer holds no header row.
	ErrEmptyFile = errors.New("fec: empty file")
)

// DecodeReport describes how the raw bytes were interpreted.
type DecodeReport struct {
	Encoding  string   `json:"encoding"`
	Delimiter rune     `json:"delimiter"`
	Warnings  []string `json:"warnings,omitempty"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts a raw FEC byte buffer into text and detects the field
// delimiter. Encoding is tried in priority order: UTF-8 with BOM, plain
// UTF-8, Windows-1252. A buffer that fits none decodes best-effort with
// replacement characters and a warning rather than failing.
func Decode(raw []byte) (string, DecodeReport, error) {
	report := DecodeReport{}

	text, encoding, warn := decodeText(raw)
	report.Encoding = encoding
	if warn != "" {
		report.Warnings = append(report.Warnings, warn)
	}

	delim, err := detectDelimiter(text)
	if err != nil {
		return "", report, err
	}
	report.Delimiter = delim
	return text, report, nil
}

func decodeText(raw []byte) (text, encoding, warning string) {
	if bytes.HasPrefix(raw, utf8BOM) {
		body := raw[len(utf8BOM):]
		if utf8.Valid(body) {
			return string(body), "utf-8-bom", ""
		}
		raw = body
	} else if utf8.Valid(raw) {
		return string(raw), "utf-8", ""
	}

	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
	if err != nil {
		// Last resort: keep every decodable byte, replace the rest.
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), "utf-8",
			"input contained invalid byte sequences; replacement characters inserted"
	}

	// The 1252 decoder maps its five undefined bytes (0x81, 0x8D, 0x8F,
	// 0x90, 0x9D) to U+FFFD instead of failing, so best-effort input is
	// spotted in the output, not the error.
	text = string(decoded)
	if strings.ContainsRune(text, utf8.RuneError) {
		return text, "windows-1252",
			"input contained bytes undefined in windows-1252; replacement characters inserted"
	}
	return text, "windows-1252", ""
}

// detectDelimiter inspects the header row and locks onto the candidate whose
// field count matches the FEC schema. Two candidates both producing a valid
// header is a fatal structural error.
func detectDelimiter(text string) (rune, error) {
	header, _, _ := strings.Cut(text, "\n")
	header = strings.TrimRight(header, "\r")
	if strings.TrimSpace(header) == "" {
		return 0, ErrEmptyFile
	}

	matches := make([]rune, 0, 1)
	for _, cand := range delimiterCandidates {
		n := len(strings.Split(header, string(cand)))
		// Trailing extra columns are tolerated by the schema parser, so
		// anything from the canonical count up qualifies here.
		if n >= requiredFieldCount {
			matches = append(matches, cand)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		// Fall back to the candidate with the most occurrences; the schema
		// parser will report the precise missing columns.
		best, bestCount := rune(0), 0
		for _, cand := range delimiterCandidates {
			if c := strings.Count(header, string(cand)); c > bestCount {
				best, bestCount = cand, c
			}
		}
		if bestCount == 0 {
			return 0, fmt.Errorf("fec: no field delimiter found in header")
		}
		return best, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrAmbiguousDelimiter, delimiterNames(matches))
	}
}

func delimiterNames(delims []rune) string {
	names := make([]string, 0, len(delims))
	for _, d := range delims {
		switch d {
		case '\t':
			names = append(names, "tab")
		case '|':
			names = append(names, "pipe")
		case ';':
			names = append(names, "semicolon")
		default:
			names = append(names, string(d))
		}
	}
	return strings.Join(names, ", ")
}
