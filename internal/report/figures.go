package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"orderlens/internal/analysis"
	"orderlens/internal/errors"
)

// writeRevenueFigure renders the revenue-by-country bar chart.
func writeRevenueFigure(path string, summaries []analysis.CountrySummary) error {
	values := make(plotter.Values, len(summaries))
	labels := make([]string, len(summaries))
	for i, s := range summaries {
		values[i] = s.Revenue
		labels[i] = s.Country
	}

	p := plot.New()
	p.Title.Text = "Revenue by country"
	p.Y.Label.Text = "Revenue"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return errors.NewValidationError("build revenue bar chart: " + err.Error())
	}
	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("save figure %s", path), err)
	}
	return nil
}

// writeBootstrapFigure renders a histogram of the resampled refund-rate
// differences.
func writeBootstrapFigure(path string, boot analysis.BootstrapResult) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Bootstrap refund-rate difference (%s - %s)", boot.GroupA, boot.GroupB)
	p.X.Label.Text = "Difference of means"
	p.Y.Label.Text = "Resamples"

	hist, err := plotter.NewHist(plotter.Values(boot.Diffs), 40)
	if err != nil {
		return errors.NewValidationError("build bootstrap histogram: " + err.Error())
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("save figure %s", path), err)
	}
	return nil
}
