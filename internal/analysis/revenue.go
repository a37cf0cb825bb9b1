// Package analysis computes the report-stage statistics: per-country
// revenue and refund rates, and the bootstrap confidence interval for the
// refund-rate difference between two countries.
package analysis

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

// CountrySummary is one row of the revenue-by-country table.
type CountrySummary struct {
	Country    string
	Orders     int
	Revenue    float64 // sum of winsorized amounts, missing amounts contribute nothing
	RefundRate float64 // fraction of the country's orders with status_clean == "refund"
}

// RevenueByCountry aggregates the analytics table per country, sorted by
// revenue descending. Rows the join could not match aggregate under
// domain.UnmatchedCountry.
func RevenueByCountry(rows []domain.AnalyticsRow) ([]CountrySummary, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	countries := make([]string, len(rows))
	amounts := make([]float64, len(rows))
	refunds := make([]float64, len(rows))

	for i, r := range rows {
		countries[i] = r.CountryLabel()
		if r.Amount != nil {
			amounts[i] = *r.Amount
		}
		if r.IsRefund() {
			refunds[i] = 1
		}
	}

	df := dataframe.New(
		series.New(countries, series.String, "country"),
		series.New(amounts, series.Float, "amount"),
		series.New(refunds, series.Float, "refund"),
	)
	if df.Err != nil {
		return nil, errors.NewValidationError("build analytics dataframe: " + df.Err.Error())
	}

	agg := df.GroupBy("country").Aggregation(
		[]dataframe.AggregationType{
			dataframe.Aggregation_SUM,
			dataframe.Aggregation_MEAN,
			dataframe.Aggregation_COUNT,
		},
		[]string{"amount", "refund", "refund"},
	)
	if agg.Err != nil {
		return nil, errors.NewValidationError("aggregate by country: " + agg.Err.Error())
	}

	agg = agg.Arrange(dataframe.RevSort("amount_SUM"))
	if agg.Err != nil {
		return nil, errors.NewValidationError("sort by revenue: " + agg.Err.Error())
	}

	names := agg.Col("country").Records()
	revenue := agg.Col("amount_SUM").Float()
	rate := agg.Col("refund_MEAN").Float()
	count := agg.Col("refund_COUNT").Float()

	summaries := make([]CountrySummary, len(names))
	for i := range names {
		summaries[i] = CountrySummary{
			Country:    names[i],
			Orders:     int(count[i]),
			Revenue:    revenue[i],
			RefundRate: rate[i],
		}
	}

	return summaries, nil
}

// RefundIndicators extracts the 0/1 refund indicator values for one
// country, the raw material of the bootstrap groups.
func RefundIndicators(rows []domain.AnalyticsRow, country string) []float64 {
	var out []float64
	for _, r := range rows {
		if r.CountryLabel() != country {
			continue
		}
		if r.IsRefund() {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}
	return out
}
