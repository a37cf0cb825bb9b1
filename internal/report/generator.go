package report

import (
	"context"
	"fmt"
	"log/slog"

	"orderlens/internal/analysis"
	"orderlens/internal/config"
	"orderlens/internal/errors"
	"orderlens/internal/exporter"
	"orderlens/internal/infrastructure"
	"orderlens/pkg/contracts/domain"
)

// Generator turns the persisted analytics table into the report
// artifacts: summary.md, PNG figures and the Excel workbook. It reads
// the parquet output of an earlier ETL run rather than recomputing the
// pipeline, so the two stages can run in separate processes.
type Generator struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
	tel    *infrastructure.Telemetry
}

// Output lists what a report run produced, for logging and tests.
type Output struct {
	Summaries []analysis.CountrySummary
	Bootstrap analysis.BootstrapResult
	Markdown  string
	Workbook  string
	Figures   []string
}

// NewGenerator assembles a report generator. logger and tel may be nil.
func NewGenerator(cfg *config.Config, paths *config.Paths, logger *slog.Logger, tel *infrastructure.Telemetry) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tel == nil {
		var err error
		tel, err = infrastructure.InitializeTelemetry(config.TelemetryConfig{TraceExporter: "none"}, logger)
		if err != nil {
			return nil, err
		}
	}
	return &Generator{cfg: cfg, paths: paths, logger: logger, tel: tel}, nil
}

// Run reads the analytics table and run metadata, computes the report
// statistics and writes all artifacts.
func (g *Generator) Run(ctx context.Context) (*Output, error) {
	ctx, span := g.tel.StartStage(ctx, "report.run")
	defer span.End()

	meta, err := exporter.ReadRunMeta(g.paths.RunMetaJSON)
	if err != nil {
		return nil, g.fail(ctx, err)
	}
	ctx = infrastructure.WithRunID(ctx, meta.RunID)

	rows, err := exporter.ReadAnalytics(ctx, g.paths.AnalyticsParquet)
	if err != nil {
		return nil, g.fail(ctx, err)
	}
	g.logger.InfoContext(ctx, "loaded analytics table",
		slog.Int("rows", len(rows)),
		slog.String("path", g.paths.AnalyticsParquet))

	summaries, err := analysis.RevenueByCountry(rows)
	if err != nil {
		return nil, g.fail(ctx, err)
	}

	boot, err := g.bootstrap(ctx, rows)
	if err != nil {
		return nil, g.fail(ctx, err)
	}

	if err := g.paths.EnsureDirectories(); err != nil {
		return nil, g.fail(ctx, errors.NewStorageError("create report directories", err))
	}

	_, figSpan := g.tel.StartStage(ctx, "report.figures")
	if err := writeRevenueFigure(g.paths.RevenueFigure, summaries); err != nil {
		figSpan.End()
		return nil, g.fail(ctx, err)
	}
	if err := writeBootstrapFigure(g.paths.BootstrapFigure, boot); err != nil {
		figSpan.End()
		return nil, g.fail(ctx, err)
	}
	figSpan.End()

	if err := writeMarkdown(g.paths.SummaryMarkdown, meta, summaries, boot); err != nil {
		return nil, g.fail(ctx, err)
	}
	if err := writeWorkbook(g.paths.SummaryWorkbook, meta, summaries, boot); err != nil {
		return nil, g.fail(ctx, err)
	}

	g.logger.InfoContext(ctx, "report generated",
		slog.String("markdown", g.paths.SummaryMarkdown),
		slog.String("workbook", g.paths.SummaryWorkbook),
		slog.Int("countries", len(summaries)))

	return &Output{
		Summaries: summaries,
		Bootstrap: boot,
		Markdown:  g.paths.SummaryMarkdown,
		Workbook:  g.paths.SummaryWorkbook,
		Figures:   []string{g.paths.RevenueFigure, g.paths.BootstrapFigure},
	}, nil
}

func (g *Generator) bootstrap(ctx context.Context, rows []domain.AnalyticsRow) (analysis.BootstrapResult, error) {
	bc := g.cfg.Bootstrap

	groupA := analysis.RefundIndicators(rows, bc.GroupA)
	groupB := analysis.RefundIndicators(rows, bc.GroupB)
	if len(groupA) == 0 {
		return analysis.BootstrapResult{}, errors.NewValidationError(
			fmt.Sprintf("no orders for bootstrap group %q", bc.GroupA))
	}
	if len(groupB) == 0 {
		return analysis.BootstrapResult{}, errors.NewValidationError(
			fmt.Sprintf("no orders for bootstrap group %q", bc.GroupB))
	}

	ctx, span := g.tel.StartStage(ctx, "report.bootstrap")
	defer span.End()

	res, err := analysis.BootstrapDiff(groupA, groupB, bc.Resamples, bc.Seed, bc.CILow, bc.CIHigh)
	if err != nil {
		return analysis.BootstrapResult{}, err
	}
	res.GroupA = bc.GroupA
	res.GroupB = bc.GroupB

	g.logger.InfoContext(ctx, "bootstrap complete",
		slog.String("group_a", bc.GroupA),
		slog.String("group_b", bc.GroupB),
		slog.Float64("observed_diff", res.ObservedDiff),
		slog.Float64("ci_lower", res.CILower),
		slog.Float64("ci_upper", res.CIUpper))

	return res, nil
}

func (g *Generator) fail(ctx context.Context, err error) error {
	infrastructure.RecordError(ctx, err)
	g.logger.ErrorContext(ctx, "report stage failed",
		slog.String("error", err.Error()),
		slog.String("error_type", string(errors.TypeOf(err))))
	return err
}
