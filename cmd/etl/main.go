package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"orderlens/internal/config"
	"orderlens/internal/infrastructure"
	"orderlens/internal/pipeline"
	"orderlens/pkg/contracts"
)

func main() {
	baseDir := flag.String("base", "", "base directory holding data/ and reports/ (defaults to config)")
	configFile := flag.String("config", "", "optional YAML config file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *baseDir != "" {
		cfg.Paths.BaseDir = *baseDir
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	paths, err := config.NewPaths(cfg.Paths.BaseDir)
	if err != nil {
		logger.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := tel.Shutdown(ctx); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	runner, err := pipeline.NewRunner(cfg, paths, logger, tel)
	if err != nil {
		logger.Error("Failed to assemble pipeline", "error", err)
		os.Exit(1)
	}

	meta, err := runner.Run(ctx)
	if err != nil {
		logger.Error("ETL run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ETL run complete",
		slog.String("run_id", meta.RunID),
		slog.Int("orders", meta.OrderCount),
		slog.Int("users", meta.UserCount),
		slog.Int("analytics_rows", meta.AnalyticsCount),
		slog.Float64("join_coverage", meta.JoinCoveragePct),
		slog.String("analytics_parquet", paths.AnalyticsParquet))
}
