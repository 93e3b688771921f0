// Package pipeline orchestrates one processing session: parse the
// uploaded FEC files, build the ledger, evaluate the statement engines,
// detect anomalies and aggregate the multi-year report. The pipeline is
// stateless per invocation; session lifecycle belongs to the caller.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wincap/wincap/internal/anomaly"
	"github.com/wincap/wincap/internal/fec"
	"github.com/wincap/wincap/internal/ledger"
	"github.com/wincap/wincap/internal/report"
	"github.com/wincap/wincap/internal/statements"
)

// FileInput is one uploaded FEC file with its declared metadata.
type FileInput struct {
	// Name is the original filename, used for logging and for the
	// FEC naming convention fallback when FiscalYear is zero.
	Name string `validate:"required"`
	Data []byte `validate:"required"`
	// FiscalYear is the caller-declared year label; zero means inferred.
	FiscalYear int `validate:"omitempty,gte=1900,lte=2200"`
}

// Options bundles the policy configuration of one session.
type Options struct {
	Statements      statements.Config
	Anomaly         anomaly.Config
	RowErrorCeiling float64
	MaxParallelism  int
	Chart           *ledger.Chart
}

// Pipeline runs the full ingest-to-report flow.
type Pipeline struct {
	opts     Options
	logger   *slog.Logger
	validate *validator.Validate
	parser   *fec.Parser
	builder  *ledger.Builder
	detector *anomaly.Detector
}

// New constructs a pipeline. A nil logger discards nothing but is
// replaced with the default slog logger.
func New(opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxParallelism < 1 {
		opts.MaxParallelism = 1
	}
	if opts.Chart == nil {
		opts.Chart = ledger.DefaultChart()
	}
	return &Pipeline{
		opts:     opts,
		logger:   logger,
		validate: validator.New(),
		parser:   fec.NewParser(opts.RowErrorCeiling),
		builder:  ledger.NewBuilder(opts.Chart, opts.Statements.Tolerance),
		detector: anomaly.NewDetector(opts.Anomaly),
	}
}

// fecNamePattern matches the statutory filename convention
// SIREN + "FEC" + closing date, e.g. 844118190FEC20241231.txt.
var fecNamePattern = regexp.MustCompile(`FEC(\d{4})\d{4}`)

// fiscalYearFromName extracts the closing year from a FEC filename.
func fiscalYearFromName(name string) int {
	m := fecNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	year, _ := strconv.Atoi(m[1])
	return year
}

// Process runs the session. Files parse and ledger-build in parallel up
// to MaxParallelism; a structural failure on any file fails the whole
// session and no partial report is produced.
func (p *Pipeline) Process(ctx context.Context, files []FileInput) (*report.MultiYearReport, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("pipeline: no files submitted")
	}
	for i, f := range files {
		if err := p.validate.Struct(&f); err != nil {
			return nil, fmt.Errorf("pipeline: file %d invalid: %w", i+1, err)
		}
	}

	session := uuid.New()
	logger := p.logger.With(slog.String("session", session.String()))
	logger.Info("session started", slog.Int("files", len(files)))

	years, warnings, err := p.buildLedger(ctx, files)
	if err != nil {
		return nil, err
	}

	snapshots, err := p.buildSnapshots(ctx, years)
	if err != nil {
		return nil, err
	}

	r := report.Aggregate(snapshots)
	r.Warnings = append(warnings, r.Warnings...)
	logger.Info("session report ready",
		slog.Int("fiscal_years", len(r.Years)),
		slog.Int("warnings", len(r.Warnings)))
	return &r, nil
}

// buildLedger parses every file concurrently, then assembles the ledger
// serially so collision detection stays deterministic.
func (p *Pipeline) buildLedger(ctx context.Context, files []FileInput) ([]*ledger.FiscalYear, []string, error) {
	built := make([]*ledger.FiscalYear, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxParallelism)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := p.parser.Parse(f.Data)
			if err != nil {
				return fmt.Errorf("pipeline: parse %s: %w", f.Name, err)
			}

			year := f.FiscalYear
			if year == 0 {
				year = fiscalYearFromName(f.Name)
			}
			fy, err := p.builder.Build(result, ledger.FileMeta{FiscalYear: year})
			if err != nil {
				return fmt.Errorf("pipeline: build %s: %w", f.Name, err)
			}

			p.logger.Info("file parsed",
				slog.String("file", f.Name),
				slog.String("encoding", result.Decode.Encoding),
				slog.Int("entries", len(result.Entries)),
				slog.Int("row_errors", len(result.Errors)),
				slog.Int("fiscal_year", fy.Year))
			built[i] = fy
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var led ledger.Ledger
	var warnings []string
	for i, fy := range built {
		if err := led.Add(fy); err != nil {
			return nil, nil, fmt.Errorf("pipeline: %s: %w", files[i].Name, err)
		}
		for _, w := range fy.Decode.Warnings {
			warnings = append(warnings, fmt.Sprintf("%s: %s", files[i].Name, w))
		}
		if n := len(fy.RowErrors); n > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: %d malformed rows excluded", files[i].Name, n))
		}
	}
	return led.Years(), warnings, nil
}

// buildSnapshots evaluates the statement engines. Years run concurrently;
// within a year the engines that only need the ledger fan out once the
// P&L and balance sheet they depend on are available.
func (p *Pipeline) buildSnapshots(ctx context.Context, years []*ledger.FiscalYear) ([]statements.Snapshot, error) {
	// Cumulative balance sheets and net income come first: cash flow for
	// year N diffs the sheets closing N-1 and N.
	sheets := make(map[int]statements.BalanceSheet, len(years))
	pls := make(map[int]statements.ProfitLoss, len(years))
	for _, fy := range years {
		sheets[fy.Year] = statements.BuildBalanceSheet(years, fy.Year)
		pls[fy.Year] = statements.BuildProfitLoss(fy)
	}

	snapshots := make([]statements.Snapshot, len(years))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxParallelism)
	for i, fy := range years {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			snapshots[i] = p.snapshotYear(fy, years, pls, sheets, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (p *Pipeline) snapshotYear(fy *ledger.FiscalYear, years []*ledger.FiscalYear,
	pls map[int]statements.ProfitLoss, sheets map[int]statements.BalanceSheet, idx int) statements.Snapshot {

	pl := pls[fy.Year]
	bs := sheets[fy.Year]

	var prior *statements.BalanceSheet
	if idx > 0 {
		prev := sheets[years[idx-1].Year]
		prior = &prev
	}

	snap := statements.Snapshot{
		Year:        fy.Year,
		PL:          pl,
		Balance:     bs,
		CashFlow:    statements.BuildCashFlow(pl, prior, bs),
		KPIs:        statements.BuildKPIs(pl, bs, p.opts.Statements.KPI),
		QoE:         statements.BuildQoE(fy, pl, p.opts.Statements.QoERules),
		Monthly:     statements.BuildMonthly(fy),
		Accounts:    statements.BuildAccountSummary(fy),
		TopExpenses: statements.BuildTopAccounts(fy, ledger.CategoryExpense, p.opts.Statements.TopN),
		TopRevenues: statements.BuildTopAccounts(fy, ledger.CategoryRevenue, p.opts.Statements.TopN),
	}

	snap.Anomalies = p.detector.Detect(fy, years)

	// The accounting equation holds against the cumulative result of the
	// loaded years; the period's earnings are not yet posted to equity.
	cumNetIncome := pl.NetIncome()
	for _, other := range years {
		if other.Year < fy.Year {
			cumNetIncome = cumNetIncome.Add(pls[other.Year].NetIncome())
		}
	}
	if finding := statements.CheckEquation(bs, cumNetIncome, p.opts.Statements.Tolerance); finding != nil {
		snap.Anomalies = append(snap.Anomalies, *finding)
		ledger.RankAnomalies(snap.Anomalies)
	}

	if n := len(snap.Anomalies); n > 0 {
		p.logger.Warn("anomalies detected",
			slog.Int("fiscal_year", fy.Year),
			slog.Int("count", n),
			slog.String("top_kind", string(snap.Anomalies[0].Kind)))
	}
	return snap
}
