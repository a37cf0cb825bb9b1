package join

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderlens/pkg/contracts/domain"
)

func order(id, userID string) domain.CleanedOrder {
	return domain.CleanedOrder{
		Order: domain.Order{OrderID: id, UserID: userID},
	}
}

func TestLeftJoin_FullCoverage(t *testing.T) {
	orders := []domain.CleanedOrder{order("o1", "u1"), order("o2", "u2"), order("o3", "u1")}
	users := []domain.User{
		{UserID: "u1", Country: "SA", SignupDate: "2024-11-01"},
		{UserID: "u2", Country: "AE", SignupDate: "2024-12-15"},
	}

	res, err := LeftJoin(context.Background(), orders, users, nil)
	require.NoError(t, err)

	assert.Len(t, res.Rows, 3)
	assert.Equal(t, 1.0, res.CoveragePct)
	assert.Equal(t, "SA", res.Rows[0].Country)
	assert.Equal(t, "AE", res.Rows[1].Country)
	assert.Equal(t, "SA", res.Rows[2].Country)
	assert.True(t, res.Rows[2].Matched)
}

func TestLeftJoin_UnmatchedRowsRetained(t *testing.T) {
	// 5 orders, 4 users, one order pointing at an unknown user.
	orders := []domain.CleanedOrder{
		order("o1", "u1"), order("o2", "u1"), order("o3", "u2"),
		order("o4", "u3"), order("o5", "u9"),
	}
	users := []domain.User{
		{UserID: "u1", Country: "SA"},
		{UserID: "u2", Country: "AE"},
		{UserID: "u3", Country: "SA"},
		{UserID: "u4", Country: "KW"},
	}

	res, err := LeftJoin(context.Background(), orders, users, nil)
	require.NoError(t, err)

	assert.Len(t, res.Rows, 5, "left join must never drop rows")
	assert.InDelta(t, 0.8, res.CoveragePct, 1e-12)

	unmatched := res.Rows[4]
	assert.False(t, unmatched.Matched)
	assert.Empty(t, unmatched.Country)
	assert.Equal(t, domain.UnmatchedCountry, unmatched.CountryLabel())
}

func TestLeftJoin_EmptyOrders(t *testing.T) {
	res, err := LeftJoin(context.Background(), nil, []domain.User{{UserID: "u1"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Zero(t, res.CoveragePct)
}
