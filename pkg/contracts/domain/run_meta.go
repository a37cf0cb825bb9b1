package domain

import (
	"time"
)

// RunMetadata is the record written to _run_meta.json after every pipeline
// run. All counts describe the run that produced the output files sitting
// next to it; nothing here persists between runs.
type RunMetadata struct {
	RunID           string    `json:"run_id"`
	OrderCount      int       `json:"order_count"`
	UserCount       int       `json:"user_count"`
	AnalyticsCount  int       `json:"analytics_count"`
	MissingPct      float64   `json:"missing_pct"`
	JoinCoveragePct float64   `json:"join_coverage_pct"`
	OutlierCount    int       `json:"outlier_count"`
	MissingCreated  int       `json:"missing_created_at"`
	GeneratedAt     time.Time `json:"generated_at"`

	// Effective cleaning parameters, echoed so a report reader can tell
	// which bounds produced the winsorized amounts.
	WinsorLowPct  float64 `json:"winsor_low_pct"`
	WinsorHighPct float64 `json:"winsor_high_pct"`
	IQRMultiplier float64 `json:"iqr_multiplier"`
}
