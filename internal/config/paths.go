package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the single source of truth for all file paths in the pipeline.
// The layout hangs off a base directory:
//
//	<base>/
//	  ├── data/
//	  │   ├── raw/          (orders.csv, users.csv)
//	  │   └── processed/    (parquet outputs, _run_meta.json)
//	  ├── reports/          (summary.md, summary.xlsx, missingness CSV)
//	  │   └── figures/      (PNG charts)
//	  └── logs/
type Paths struct {
	BaseDir      string
	DataDir      string
	RawDir       string
	ProcessedDir string
	ReportsDir   string
	FiguresDir   string
	LogsDir      string

	// Well-known input files
	OrdersCSV string
	UsersCSV  string

	// Well-known output files
	OrdersCleanParquet string
	UsersParquet       string
	AnalyticsParquet   string
	RunMetaJSON        string
	MissingnessCSV     string
	SummaryMarkdown    string
	SummaryWorkbook    string
	RevenueFigure      string
	BootstrapFigure    string
}

// NewPaths derives the full layout from the given base directory.
// An empty base resolves to the current working directory.
func NewPaths(base string) (*Paths, error) {
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory %s: %w", base, err)
	}

	dataDir := filepath.Join(abs, "data")
	rawDir := filepath.Join(dataDir, "raw")
	processedDir := filepath.Join(dataDir, "processed")
	reportsDir := filepath.Join(abs, "reports")
	figuresDir := filepath.Join(reportsDir, "figures")

	return &Paths{
		BaseDir:      abs,
		DataDir:      dataDir,
		RawDir:       rawDir,
		ProcessedDir: processedDir,
		ReportsDir:   reportsDir,
		FiguresDir:   figuresDir,
		LogsDir:      filepath.Join(abs, "logs"),

		OrdersCSV: filepath.Join(rawDir, "orders.csv"),
		UsersCSV:  filepath.Join(rawDir, "users.csv"),

		OrdersCleanParquet: filepath.Join(processedDir, "orders_clean.parquet"),
		UsersParquet:       filepath.Join(processedDir, "users.parquet"),
		AnalyticsParquet:   filepath.Join(processedDir, "analytics_table.parquet"),
		RunMetaJSON:        filepath.Join(processedDir, "_run_meta.json"),
		MissingnessCSV:     filepath.Join(reportsDir, "missingness_orders.csv"),
		SummaryMarkdown:    filepath.Join(reportsDir, "summary.md"),
		SummaryWorkbook:    filepath.Join(reportsDir, "summary.xlsx"),
		RevenueFigure:      filepath.Join(figuresDir, "revenue_by_country.png"),
		BootstrapFigure:    filepath.Join(figuresDir, "bootstrap_diff.png"),
	}, nil
}

// EnsureDirectories creates all output directories if they don't exist.
// The raw directory is deliberately not created: inputs must already be
// there, and a missing raw dir should surface as a missing-input error.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ProcessedDir,
		p.ReportsDir,
		p.FiguresDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
