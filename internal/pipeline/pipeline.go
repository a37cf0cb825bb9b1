// Package pipeline wires the ETL stages together: load, clean, join,
// persist, run metadata. One Run call performs one complete single-shot
// pass; no stage executes twice and no stage reads a later stage's output.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"orderlens/internal/cleaning"
	"orderlens/internal/config"
	"orderlens/internal/errors"
	"orderlens/internal/exporter"
	"orderlens/internal/infrastructure"
	"orderlens/internal/join"
	"orderlens/internal/loader"
	"orderlens/pkg/contracts/domain"
)

// Runner executes the ETL pipeline against a directory layout.
type Runner struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
	tel    *infrastructure.Telemetry
}

// NewRunner assembles a pipeline runner. logger and tel may be nil; they
// fall back to slog.Default() and a no-op tracer.
func NewRunner(cfg *config.Config, paths *config.Paths, logger *slog.Logger, tel *infrastructure.Telemetry) (*Runner, error) {
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
	return &Runner{cfg: cfg, paths: paths, logger: logger, tel: tel}, nil
}

// Run executes one full pipeline pass and returns the run metadata that
// was written alongside the parquet outputs.
func (r *Runner) Run(ctx context.Context) (domain.RunMetadata, error) {
	runID := uuid.NewString()
	ctx = infrastructure.WithRunID(ctx, runID)

	ctx, rootSpan := r.tel.StartStage(ctx, "pipeline.run")
	defer rootSpan.End()

	r.logger.InfoContext(ctx, "starting ETL run",
		slog.String("base_dir", r.paths.BaseDir))

	if err := r.paths.EnsureDirectories(); err != nil {
		return domain.RunMetadata{}, r.fail(ctx, errors.NewStorageError("ensure output directories", err))
	}

	// Extract
	loadCtx, span := r.tel.StartStage(ctx, "pipeline.load")
	ld := loader.New(r.logger)
	orders, err := ld.ReadOrders(loadCtx, r.paths.OrdersCSV)
	if err != nil {
		span.End()
		return domain.RunMetadata{}, r.fail(loadCtx, err)
	}
	users, err := ld.ReadUsers(loadCtx, r.paths.UsersCSV)
	span.End()
	if err != nil {
		return domain.RunMetadata{}, r.fail(loadCtx, err)
	}

	// Transform: clean
	cleanCtx, span := r.tel.StartStage(ctx, "pipeline.clean")
	cleaned, cleanStats, err := cleaning.New(r.cfg.Cleaning, r.logger).Clean(cleanCtx, orders)
	span.End()
	if err != nil {
		return domain.RunMetadata{}, r.fail(cleanCtx, err)
	}

	// Transform: join
	joinCtx, span := r.tel.StartStage(ctx, "pipeline.join")
	joined, err := join.LeftJoin(joinCtx, cleaned, users, r.logger)
	span.End()
	if err != nil {
		return domain.RunMetadata{}, r.fail(joinCtx, err)
	}

	// Load outputs
	persistCtx, span := r.tel.StartStage(ctx, "pipeline.persist")
	pw := exporter.NewParquetWriter(r.logger)
	if err := pw.WriteCleanedOrders(persistCtx, r.paths.OrdersCleanParquet, cleaned); err != nil {
		span.End()
		return domain.RunMetadata{}, r.fail(persistCtx, err)
	}
	if err := pw.WriteUsers(persistCtx, r.paths.UsersParquet, users); err != nil {
		span.End()
		return domain.RunMetadata{}, r.fail(persistCtx, err)
	}
	if err := pw.WriteAnalytics(persistCtx, r.paths.AnalyticsParquet, joined.Rows); err != nil {
		span.End()
		return domain.RunMetadata{}, r.fail(persistCtx, err)
	}
	if err := exporter.WriteMissingnessCSV(persistCtx, r.paths.MissingnessCSV, cleanStats, len(orders), r.logger); err != nil {
		span.End()
		return domain.RunMetadata{}, r.fail(persistCtx, err)
	}
	span.End()

	// Run metadata
	meta := domain.RunMetadata{
		RunID:           runID,
		OrderCount:      len(orders),
		UserCount:       len(users),
		AnalyticsCount:  len(joined.Rows),
		MissingPct:      cleanStats.MissingPct,
		JoinCoveragePct: joined.CoveragePct,
		OutlierCount:    cleanStats.OutlierCount,
		MissingCreated:  cleanStats.MissingCreatedAt,
		GeneratedAt:     time.Now().UTC(),
		WinsorLowPct:    r.cfg.Cleaning.WinsorLow,
		WinsorHighPct:   r.cfg.Cleaning.WinsorHigh,
		IQRMultiplier:   r.cfg.Cleaning.IQRMultiplier,
	}

	metaCtx, span := r.tel.StartStage(ctx, "pipeline.metadata")
	err = exporter.WriteRunMeta(metaCtx, r.paths.RunMetaJSON, meta, r.logger)
	span.End()
	if err != nil {
		return domain.RunMetadata{}, r.fail(metaCtx, err)
	}

	r.logger.InfoContext(ctx, "ETL run complete",
		slog.Int("orders", meta.OrderCount),
		slog.Int("users", meta.UserCount),
		slog.Float64("join_coverage", meta.JoinCoveragePct),
		slog.Int("outliers", meta.OutlierCount))

	return meta, nil
}

// fail logs and records the error on the active span before returning it.
func (r *Runner) fail(ctx context.Context, err error) error {
	infrastructure.RecordError(ctx, err)
	r.logger.ErrorContext(ctx, "pipeline stage failed",
		slog.String("error", err.Error()),
		slog.String("error_type", string(errors.TypeOf(err))))
	return err
}
