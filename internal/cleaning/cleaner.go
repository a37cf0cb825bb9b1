// Package cleaning normalizes raw orders: controlled status vocabulary,
// missing-value flags, winsorized amounts and IQR outlier detection.
// Cleaning never drops rows; the output row count always equals the input.
package cleaning

import (
	"context"
	"log/slog"
	"strings"

	"github.com/montanaflynn/stats"

	"orderlens/internal/analysis"
	"orderlens/internal/config"
	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

// Stats aggregates what the cleaning stage observed. The percentages feed
// the run metadata record.
type Stats struct {
	MissingAmount    int
	MissingQuantity  int
	MissingBoth      int
	MissingPct       float64 // fraction of rows missing both quantity and amount
	MissingCreatedAt int
	OutlierCount     int
	LowerBound       float64 // winsor clip floor
	UpperBound       float64 // winsor clip ceiling
}

// Cleaner applies the cleaning rules configured in config.CleaningConfig.
type Cleaner struct {
	cfg    config.CleaningConfig
	logger *slog.Logger
}

// New creates a Cleaner. A nil logger falls back to slog.Default().
func New(cfg config.CleaningConfig, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.StatusMap) == 0 {
		cfg.StatusMap = config.DefaultStatusMap()
	}
	return &Cleaner{cfg: cfg, logger: logger}
}

// Clean transforms raw orders into cleaned orders plus aggregate stats.
func (c *Cleaner) Clean(ctx context.Context, orders []domain.Order) ([]domain.CleanedOrder, Stats, error) {
	cleaned := make([]domain.CleanedOrder, len(orders))
	var st Stats

	// First pass: everything that works row by row.
	amounts := make([]float64, 0, len(orders))
	for i, order := range orders {
		co := domain.CleanedOrder{
			Order:           order,
			StatusClean:     c.normalizeStatus(order.Status),
			AmountRaw:       order.Amount,
			AmountMissing:   order.Amount == nil,
			QuantityMissing: order.Quantity == nil,
		}

		if co.AmountMissing {
			st.MissingAmount++
		}
		if co.QuantityMissing {
			st.MissingQuantity++
		}
		if co.AmountMissing && co.QuantityMissing {
			st.MissingBoth++
		}

		if order.CreatedAtValid {
			co.Year = order.CreatedAt.Year()
			co.Month = int(order.CreatedAt.Month())
			co.Weekday = order.CreatedAt.Weekday().String()
		} else {
			st.MissingCreatedAt++
		}

		if order.Amount != nil {
			amounts = append(amounts, *order.Amount)
		}
		cleaned[i] = co
	}

	if len(orders) > 0 {
		st.MissingPct = float64(st.MissingBoth) / float64(len(orders))
	}

	// Second pass: winsorize amounts, then flag outliers on the winsorized
	// column. Rows with a nil amount take part in neither.
	if len(amounts) > 0 {
		lower, upper, err := WinsorBounds(amounts, c.cfg.WinsorLow, c.cfg.WinsorHigh)
		if err != nil {
			return nil, Stats{}, errors.NewValidationError("winsorize amounts: " + err.Error())
		}
		st.LowerBound = lower
		st.UpperBound = upper

		winsorized := make([]float64, 0, len(amounts))
		for i := range cleaned {
			if cleaned[i].Amount == nil {
				continue
			}
			v := clip(*cleaned[i].Amount, lower, upper)
			cleaned[i].Amount = &v
			winsorized = append(winsorized, v)
		}

		loFence, hiFence, err := iqrFences(winsorized, c.cfg.IQRMultiplier)
		if err != nil {
			return nil, Stats{}, errors.NewValidationError("compute IQR fences: " + err.Error())
		}
		for i := range cleaned {
			if cleaned[i].Amount == nil {
				continue
			}
			if *cleaned[i].Amount < loFence || *cleaned[i].Amount > hiFence {
				cleaned[i].IsOutlier = true
				st.OutlierCount++
			}
		}
	}

	c.logger.InfoContext(ctx, "cleaning complete",
		slog.Int("rows", len(cleaned)),
		slog.Int("missing_both", st.MissingBoth),
		slog.Int("outliers", st.OutlierCount),
		slog.Float64("winsor_lower", st.LowerBound),
		slog.Float64("winsor_upper", st.UpperBound))

	return cleaned, st, nil
}

// normalizeStatus trims, lowercases and maps a raw status into the
// controlled vocabulary. Unmapped values clean to "unknown".
func (c *Cleaner) normalizeStatus(raw string) domain.StatusClean {
	norm := strings.ToLower(strings.TrimSpace(raw))
	if mapped, ok := c.cfg.StatusMap[norm]; ok {
		return domain.StatusClean(mapped)
	}
	return domain.StatusUnknown
}

// WinsorBounds computes the clip bounds for the given percentile band
// (low and high as fractions in [0,1]). Nearest-rank percentiles keep the
// bounds at actual data values, which makes winsorization idempotent:
// re-applying the same band to clipped data changes nothing.
func WinsorBounds(values []float64, low, high float64) (float64, float64, error) {
	data := stats.Float64Data(values)

	lower, err := stats.PercentileNearestRank(data, low*100)
	if err != nil {
		return 0, 0, err
	}
	upper, err := stats.PercentileNearestRank(data, high*100)
	if err != nil {
		return 0, 0, err
	}
	return lower, upper, nil
}

// iqrFences computes the outlier fences [Q1 - k*IQR, Q3 + k*IQR] using
// rank-based quartiles over the winsorized column. analysis.Quantile keeps
// the quartiles defined for any sample size, so two or three non-null
// amounts still clean without an error.
func iqrFences(values []float64, k float64) (float64, float64, error) {
	q1, err := analysis.Quantile(values, 25)
	if err != nil {
		return 0, 0, err
	}
	q3, err := analysis.Quantile(values, 75)
	if err != nil {
		return 0, 0, err
	}

	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr, nil
}

func clip(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
