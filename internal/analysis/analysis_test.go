package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderlens/pkg/contracts/domain"
)

func row(country string, matched bool, amount *float64, status domain.StatusClean) domain.AnalyticsRow {
	return domain.AnalyticsRow{
		CleanedOrder: domain.CleanedOrder{
			StatusClean:   status,
			AmountMissing: amount == nil,
			Order:         domain.Order{Amount: amount},
		},
		Country: country,
		Matched: matched,
	}
}

func amt(v float64) *float64 { return &v }

func TestRevenueByCountry(t *testing.T) {
	rows := []domain.AnalyticsRow{
		row("SA", true, amt(100), domain.StatusPaid),
		row("SA", true, amt(50), domain.StatusRefund),
		row("AE", true, amt(400), domain.StatusCompleted),
		row("", false, amt(10), domain.StatusPaid),
		row("SA", true, nil, domain.StatusPaid),
	}

	got, err := RevenueByCountry(rows)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Sorted by revenue descending.
	assert.Equal(t, "AE", got[0].Country)
	assert.Equal(t, "SA", got[1].Country)
	assert.Equal(t, domain.UnmatchedCountry, got[2].Country)

	assert.InDelta(t, 400, got[0].Revenue, 1e-9)
	assert.Equal(t, 1, got[0].Orders)
	assert.InDelta(t, 0, got[0].RefundRate, 1e-9)

	// Missing amounts contribute nothing to revenue but count as orders.
	assert.InDelta(t, 150, got[1].Revenue, 1e-9)
	assert.Equal(t, 3, got[1].Orders)
	assert.InDelta(t, 1.0/3.0, got[1].RefundRate, 1e-9)

	assert.InDelta(t, 10, got[2].Revenue, 1e-9)
	assert.Equal(t, 1, got[2].Orders)
}

func TestRevenueByCountry_Empty(t *testing.T) {
	got, err := RevenueByCountry(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRefundIndicators(t *testing.T) {
	rows := []domain.AnalyticsRow{
		row("SA", true, amt(1), domain.StatusRefund),
		row("SA", true, amt(1), domain.StatusPaid),
		row("AE", true, amt(1), domain.StatusRefund),
	}

	assert.Equal(t, []float64{1, 0}, RefundIndicators(rows, "SA"))
	assert.Equal(t, []float64{1}, RefundIndicators(rows, "AE"))
	assert.Nil(t, RefundIndicators(rows, "KW"))
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		percent  float64
		expected float64
	}{
		{"interpolated quartile", []float64{10, 12, 11, 13, 1000}, 25, 10.5},
		{"upper quartile", []float64{10, 12, 11, 13, 1000}, 75, 12.5},
		{"rank inside first observation", []float64{10, 12}, 25, 10},
		{"three values lower tail", []float64{12, 10, 11}, 25, 10},
		{"single value", []float64{42}, 2.5, 42},
		{"max", []float64{1, 2, 3, 4}, 100, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quantile(tt.values, tt.percent)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestQuantile_Invalid(t *testing.T) {
	_, err := Quantile(nil, 50)
	assert.Error(t, err)
	_, err = Quantile([]float64{1}, 0)
	assert.Error(t, err)
	_, err = Quantile([]float64{1}, 101)
	assert.Error(t, err)
}

func TestBootstrapDiff_SmallResampleCount(t *testing.T) {
	groupA := []float64{1, 0, 1, 1, 0}
	groupB := []float64{0, 0, 1, 0, 0}

	// With 10 resamples the 2.5th percentile rank falls inside the first
	// order statistic; the CI must still come back.
	res, err := BootstrapDiff(groupA, groupB, 10, 3, 2.5, 97.5)
	require.NoError(t, err)

	assert.Len(t, res.Diffs, 10)
	assert.LessOrEqual(t, res.CILower, res.CIUpper)
	assert.InDelta(t, 95, res.ConfidenceLevel(), 1e-9)
}

func TestBootstrapDiff_Deterministic(t *testing.T) {
	groupA := []float64{1, 0, 1, 1, 0, 1, 0, 0, 1, 1}
	groupB := []float64{0, 0, 1, 0, 0, 1, 0, 0, 0, 1}

	first, err := BootstrapDiff(groupA, groupB, 500, 42, 2.5, 97.5)
	require.NoError(t, err)
	second, err := BootstrapDiff(groupA, groupB, 500, 42, 2.5, 97.5)
	require.NoError(t, err)

	assert.Equal(t, first.Diffs, second.Diffs)
	assert.Equal(t, first.CILower, second.CILower)
	assert.Equal(t, first.CIUpper, second.CIUpper)

	assert.InDelta(t, 0.3, first.ObservedDiff, 1e-9)
	assert.GreaterOrEqual(t, first.CIUpper, first.CILower)
	assert.Len(t, first.Diffs, 500)
}

func TestBootstrapDiff_SeparatedGroups(t *testing.T) {
	allRefund := []float64{1, 1, 1, 1, 1}
	allKept := []float64{0, 0, 0, 0, 0}

	res, err := BootstrapDiff(allRefund, allKept, 200, 7, 2.5, 97.5)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.ObservedDiff, 1e-9)
	assert.InDelta(t, 1.0, res.CILower, 1e-9)
	assert.InDelta(t, 1.0, res.CIUpper, 1e-9)
	assert.True(t, res.Excludes(0))
}

func TestBootstrapDiff_Validation(t *testing.T) {
	tests := []struct {
		name      string
		a, b      []float64
		resamples int
		ciLow     float64
		ciHigh    float64
	}{
		{"empty group A", nil, []float64{1}, 100, 2.5, 97.5},
		{"empty group B", []float64{1}, nil, 100, 2.5, 97.5},
		{"zero resamples", []float64{1}, []float64{0}, 0, 2.5, 97.5},
		{"inverted percentiles", []float64{1}, []float64{0}, 100, 97.5, 2.5},
		{"zero lower percentile", []float64{1}, []float64{0}, 100, 0, 97.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BootstrapDiff(tt.a, tt.b, tt.resamples, 1, tt.ciLow, tt.ciHigh)
			assert.Error(t, err)
		})
	}
}
