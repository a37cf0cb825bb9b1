package analysis

import (
	stderrors "errors"

	"github.com/montanaflynn/stats"

	"orderlens/internal/errors"
)

// Quantile computes the percent-th percentile of values. It follows
// stats.Percentile (mean of the two adjacent order statistics when the rank
// is fractional) but stays defined for every n >= 1: when the requested
// rank falls at or inside the first observation, where stats.Percentile
// reports ErrBounds, the result is the sample minimum.
func Quantile(values []float64, percent float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.NewValidationError("quantile of empty input")
	}
	if percent <= 0 || percent > 100 {
		return 0, errors.NewValidationError("quantile percent must be in (0, 100]")
	}

	v, err := stats.Percentile(values, percent)
	if err == nil {
		return v, nil
	}
	if stderrors.Is(err, stats.BoundsErr) {
		return stats.Min(values)
	}
	return 0, err
}
