// Package join attaches user attributes to cleaned orders through a left
// join on user_id. Orders without a matching user are retained with an
// empty country, never dropped.
package join

import (
	"context"
	"fmt"
	"log/slog"

	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

// Result holds the joined table and join quality metrics.
type Result struct {
	Rows        []domain.AnalyticsRow
	Matched     int
	CoveragePct float64 // fraction of orders with a resolved country
}

// LeftJoin joins cleaned orders (many side) to users (one side) on user_id.
// The loader guarantees user_id uniqueness, so the join can never explode;
// the row-count invariant is still checked and reported as a schema error
// because a violation means the guarantee broke upstream.
func LeftJoin(ctx context.Context, orders []domain.CleanedOrder, users []domain.User, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	rows := make([]domain.AnalyticsRow, 0, len(orders))
	matched := 0

	for _, order := range orders {
		row := domain.AnalyticsRow{CleanedOrder: order}
		if u, ok := byID[order.UserID]; ok {
			row.Country = u.Country
			row.SignupDate = u.SignupDate
			row.Matched = true
			matched++
		}
		rows = append(rows, row)
	}

	if len(rows) != len(orders) {
		return Result{}, errors.NewSchemaError(
			fmt.Sprintf("row count changed on left join: %d orders in, %d rows out", len(orders), len(rows)), nil)
	}

	res := Result{Rows: rows, Matched: matched}
	if len(orders) > 0 {
		res.CoveragePct = float64(matched) / float64(len(orders))
	}

	logger.InfoContext(ctx, "join complete",
		slog.Int("rows", len(rows)),
		slog.Int("matched", matched),
		slog.Float64("coverage", res.CoveragePct))

	return res, nil
}
