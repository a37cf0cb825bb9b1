// Package report renders the analysis outputs: a markdown summary, PNG
// figures and an Excel workbook, all derived from the persisted analytics
// table rather than in-memory pipeline state.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"orderlens/internal/analysis"
	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

// writeMarkdown renders reports/summary.md. Figure paths are written
// relative to the markdown file so the report stays portable.
func writeMarkdown(path string, meta domain.RunMetadata, summaries []analysis.CountrySummary, boot analysis.BootstrapResult) error {
	var b strings.Builder

	b.WriteString("# Order Analytics Summary\n\n")
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", meta.RunID, time.Now().UTC().Format("2006-01-02 15:04 UTC"))

	b.WriteString("## Pipeline\n\n")
	fmt.Fprintf(&b, "- Orders loaded: %d\n", meta.OrderCount)
	fmt.Fprintf(&b, "- Users loaded: %d\n", meta.UserCount)
	fmt.Fprintf(&b, "- Analytics rows: %d\n", meta.AnalyticsCount)
	fmt.Fprintf(&b, "- Rows with a missing amount or quantity: %.2f%%\n", meta.MissingPct*100)
	fmt.Fprintf(&b, "- Rows with an unparseable created_at: %d\n", meta.MissingCreated)
	fmt.Fprintf(&b, "- Join coverage: %.2f%% of orders matched a user\n", meta.JoinCoveragePct*100)
	fmt.Fprintf(&b, "- Amount outliers flagged (IQR fence, k=%.2f): %d\n", meta.IQRMultiplier, meta.OutlierCount)
	fmt.Fprintf(&b, "- Amounts winsorized to the [%.0fth, %.0fth] percentile range\n\n",
		meta.WinsorLowPct*100, meta.WinsorHighPct*100)

	b.WriteString("## Revenue by country\n\n")
	b.WriteString("| Country | Orders | Revenue | Refund rate |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f%% |\n", s.Country, s.Orders, s.Revenue, s.RefundRate*100)
	}
	b.WriteString("\n![Revenue by country](figures/revenue_by_country.png)\n\n")

	b.WriteString("## Refund rate difference\n\n")
	fmt.Fprintf(&b, "Bootstrap comparison of refund rates, %s minus %s (%d resamples, seed %d):\n\n",
		boot.GroupA, boot.GroupB, boot.Resamples, boot.Seed)
	fmt.Fprintf(&b, "- Observed difference: %.4f\n", boot.ObservedDiff)
	fmt.Fprintf(&b, "- Bootstrap mean: %.4f\n", boot.MeanDiff)
	fmt.Fprintf(&b, "- %g%% CI (percentiles %g/%g): [%.4f, %.4f]\n\n",
		boot.ConfidenceLevel(), boot.CILowPct, boot.CIHighPct, boot.CILower, boot.CIUpper)
	if boot.Excludes(0) {
		fmt.Fprintf(&b, "The interval excludes zero: %s and %s refund rates differ beyond resampling noise.\n\n",
			boot.GroupA, boot.GroupB)
	} else {
		fmt.Fprintf(&b, "The interval contains zero: no clear refund-rate difference between %s and %s.\n\n",
			boot.GroupA, boot.GroupB)
	}
	b.WriteString("![Bootstrap distribution](figures/bootstrap_diff.png)\n")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.NewStorageError(fmt.Sprintf("write markdown report %s", path), err)
	}
	return nil
}
