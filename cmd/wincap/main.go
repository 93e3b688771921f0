package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/wincap/wincap/internal/app"
	"github.com/wincap/wincap/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wincap:", err)
		os.Exit(1)
	}
}

func run() error {
	if !app.InTestMode() {
		_ = godotenv.Load()
	}

	var fiscalYear int
	flag.IntVar(&fiscalYear, "year", 0, "declared fiscal year for a single file (default: inferred)")
	flag.Parse()

	if flag.NArg() == 0 {
		return fmt.Errorf("usage: wincap [-year YYYY] <fec-file> [fec-file...]")
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	stmtCfg, err := cfg.StatementConfig()
	if err != nil {
		return err
	}
	chart, err := cfg.Chart()
	if err != nil {
		return err
	}

	files := make([]pipeline.FileInput, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		input := pipeline.FileInput{Name: filepath.Base(path), Data: data}
		if fiscalYear != 0 && flag.NArg() == 1 {
			input.FiscalYear = fiscalYear
		}
		files = append(files, input)
	}

	p := pipeline.New(pipeline.Options{
		Statements:      stmtCfg,
		Anomaly:         cfg.AnomalyConfig(),
		RowErrorCeiling: cfg.RowErrorCeilingPct,
		MaxParallelism:  cfg.MaxParallelism,
		Chart:           chart,
	}, logger)

	result, err := p.Process(context.Background(), files)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
