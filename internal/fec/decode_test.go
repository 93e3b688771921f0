package fec

import (
	"errors"
	"strings"
	"testing"

	_ "github.com/wincap/wincap/testing"
)

func header(sep string) string {
	return strings.Join(canonicalFields, sep)
}

func TestDecodeUTF8(t *testing.T) {
	text, report, err := Decode([]byte(header("\t") + "\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Encoding != "utf-8" {
		t.Fatalf("expected utf-8, got %s", report.Encoding)
	}
	if report.Delimiter != '\t' {
		t.Fatalf("expected tab delimiter, got %q", report.Delimiter)
	}
	if !strings.HasPrefix(text, "JournalCode") {
		t.Fatalf("unexpected text prefix: %q", text[:20])
	}
}

func TestDecodeUTF8BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte(header("|")+"\n")...)
	text, report, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Encoding != "utf-8-bom" {
		t.Fatalf("expected utf-8-bom, got %s", report.Encoding)
	}
	if report.Delimiter != '|' {
		t.Fatalf("expected pipe delimiter, got %q", report.Delimiter)
	}
	if strings.HasPrefix(text, "\uFEFF") {
		t.Fatal("BOM should be stripped from decoded text")
	}
}

func TestDecodeWindows1252(t *testing.T) {
	// "Libellé" with 0xE9 is invalid UTF-8 but valid Windows-1252.
	raw := []byte(header(";") + "\n1;Journal g\xe9n\xe9ral\n")
	text, report, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Encoding != "windows-1252" {
		t.Fatalf("expected windows-1252, got %s", report.Encoding)
	}
	if !strings.Contains(text, "général") {
		t.Fatal("expected accented text after transcoding")
	}
	if len(report.Warnings) != 0 {
		t.Fatalf("clean 1252 input should not warn: %v", report.Warnings)
	}
}

func TestDecodeWindows1252UndefinedBytes(t *testing.T) {
	// 0xE9 forces the 1252 path; 0x81 has no mapping there and decodes
	// to a replacement character, which must surface as a warning.
	raw := []byte(header(";") + "\n1;Journal g\xe9n\xe9ral \x81\n")
	text, report, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Encoding != "windows-1252" {
		t.Fatalf("expected windows-1252, got %s", report.Encoding)
	}
	if !strings.ContainsRune(text, '�') {
		t.Fatal("expected replacement character in decoded text")
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected one degraded-decode warning, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], "replacement characters") {
		t.Fatalf("unexpected warning text: %s", report.Warnings[0])
	}
}

func TestDecodeAmbiguousDelimiter(t *testing.T) {
	// Joining with "\t;" makes both tab and semicolon split into the
	// full column count.
	_, _, err := Decode([]byte(header("\t;") + "\n"))
	if !errors.Is(err, ErrAmbiguousDelimiter) {
		t.Fatalf("expected ErrAmbiguousDelimiter, got %v", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, _, err := Decode([]byte("   \n"))
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}
