package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"orderlens/internal/config"
	"orderlens/internal/infrastructure"
	"orderlens/internal/report"
	"orderlens/pkg/contracts"
)

func main() {
	baseDir := flag.String("base", "", "base directory holding data/ and reports/ (defaults to config)")
	configFile := flag.String("config", "", "optional YAML config file")
	groupA := flag.String("group-a", "", "first country for the refund-rate bootstrap (defaults to config)")
	groupB := flag.String("group-b", "", "second country for the refund-rate bootstrap (defaults to config)")
	resamples := flag.Int("resamples", 0, "bootstrap resample count (defaults to config)")
	seed := flag.Int64("seed", -1, "bootstrap RNG seed (defaults to config)")
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
	if *groupA != "" {
		cfg.Bootstrap.GroupA = *groupA
	}
	if *groupB != "" {
		cfg.Bootstrap.GroupB = *groupB
	}
	if *resamples > 0 {
		cfg.Bootstrap.Resamples = *resamples
	}
	if *seed >= 0 {
		cfg.Bootstrap.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration after flags", "error", err)
		os.Exit(1)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	paths, err := config.NewPaths(cfg.Paths.BaseDir)
	if err != nil {
		logger.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}

	if !config.FileExists(paths.AnalyticsParquet) {
		logger.Error("Analytics table not found",
			"path", paths.AnalyticsParquet,
			"hint", "Run the etl command first to produce the analytics table")
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

	gen, err := report.NewGenerator(cfg, paths, logger, tel)
	if err != nil {
		logger.Error("Failed to assemble report generator", "error", err)
		os.Exit(1)
	}

	out, err := gen.Run(ctx)
	if err != nil {
		logger.Error("Report generation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Report generated",
		slog.String("markdown", out.Markdown),
		slog.String("workbook", out.Workbook),
		slog.Int("countries", len(out.Summaries)),
		slog.Float64("refund_rate_diff", out.Bootstrap.ObservedDiff))
}
